// Package identity canonicalizes a test's (file, suite-path, title)
// triple into a stable TestID, and converts between that internal form
// and the downstream filter-line format the test runner consumes.
//
// Path handling here is intentionally OS-agnostic: every path is
// normalized to forward slashes and manipulated with the "path"
// package (not "path/filepath"), so that a discovery JSON produced on
// one platform and a ledger read on another always agree on IDs. This
// mirrors the normalize-then-diff approach the indexing tool's path
// helpers used for converting between absolute and relative paths,
// generalized here to also reject paths that escape the root instead
// of silently falling back to the absolute form.
package identity

import (
	"path"
	"strconv"
	"strings"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
)

// TestID is the canonical internal identifier for a single test:
// "relativeFile::segment1::…::segmentK::title". The "::" separator is
// reserved for splitting file from title path; title segments may
// themselves legitimately contain "::", so callers must split only at
// the first occurrence (see Split).
type TestID string

// separator joins the file and title-path segments in the internal ID.
const separator = "::"

// filterSeparator is the canonical separator in the downstream
// test-list filter format: U+203A SINGLE RIGHT-POINTING ANGLE QUOTATION MARK.
const filterSeparator = " \u203a "

// DiscoveredTest is an immutable record produced by parsing discovery
// JSON (see internal/discovery).
type DiscoveredTest struct {
	ID        TestID
	File      string   // relative to testDir, forward slashes
	TitlePath []string // ordered suite names ending with the test title
}

// File returns the relative file component of an id, i.e. everything
// before the first "::".
func File(id TestID) string {
	s := string(id)
	if i := strings.Index(s, separator); i >= 0 {
		return s[:i]
	}
	return s
}

// Split splits id into its relative file and its title-path tail
// (still "::"-joined) at the first occurrence of the separator only,
// so that "::" inside a title is preserved verbatim in the tail.
func Split(id TestID) (file, titleTail string) {
	s := string(id)
	i := strings.Index(s, separator)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(separator):]
}

// DropLeadingTitleStem removes the first element of a raw titlePath as
// reported by the runner, which is populated with the file name or
// project name rather than a suite title; the effective title path is
// everything after it.
func DropLeadingTitleStem(titlePath []string) []string {
	if len(titlePath) == 0 {
		return titlePath
	}
	return titlePath[1:]
}

// Build constructs the canonical TestID for a test discovered at file
// (absolute or already relative to root), under root, with the given
// ordered title path. It returns a KindPathEscape error if file
// resolves outside root.
func Build(file, root string, titlePath []string) (TestID, error) {
	rel, err := relativize(file, root)
	if err != nil {
		return "", err
	}
	return TestID(rel + separator + strings.Join(titlePath, separator)), nil
}

// relativize computes file's path relative to root, both normalized to
// forward slashes. If file is not absolute it is treated as already
// relative to root and merely cleaned. The result is rejected if it
// escapes root (starts with "..").
func relativize(file, root string) (string, error) {
	nf := normalizeSlashes(file)
	if !isAbsoluteSlash(nf) {
		cleaned := path.Clean(nf)
		if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			return "", shardctlerrors.New(shardctlerrors.KindPathEscape, "identity.Build",
				pathEscapeError{file: file}).WithPath(file)
		}
		return cleaned, nil
	}

	nr := normalizeSlashes(root)
	rel := relativeSlash(nr, nf)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", shardctlerrors.New(shardctlerrors.KindPathEscape, "identity.Build",
			pathEscapeError{file: file}).WithPath(file)
	}
	return rel, nil
}

type pathEscapeError struct{ file string }

func (e pathEscapeError) Error() string {
	return "path " + strconv.Quote(e.file) + " escapes root"
}

// ToFilterLine converts id to the downstream filter-line format the
// test runner's pre-execution filter consumes:
//
//	[projectPrefix/]file › s1 › … › sK › title\n
//
// rootDir and testDir are both absolute paths from the discovery JSON;
// the prefix is testDir's path relative to rootDir, joined ahead of
// the test's own relative file. When rootDir == testDir the prefix is
// empty and no join occurs.
func ToFilterLine(id TestID, rootDir, testDir string) (string, error) {
	relFile, titleTail := Split(id)

	prefix := ""
	if normalizeSlashes(rootDir) != normalizeSlashes(testDir) {
		p := relativeSlash(normalizeSlashes(rootDir), normalizeSlashes(testDir))
		if p == ".." || strings.HasPrefix(p, "../") {
			return "", shardctlerrors.New(shardctlerrors.KindPathEscape, "identity.ToFilterLine",
				pathEscapeError{file: testDir}).WithPath(testDir)
		}
		if p != "." {
			prefix = p
		}
	}

	full := relFile
	if prefix != "" {
		full = path.Join(prefix, relFile)
	}

	line := full + filterSeparator + strings.ReplaceAll(titleTail, separator, filterSeparator)
	return line + "\n", nil
}

func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// isAbsoluteSlash reports whether a forward-slash-normalized path is
// absolute, accepting both POSIX ("/a/b") and Windows drive-letter
// ("C:/a/b") forms since discovery JSON may originate from either.
func isAbsoluteSlash(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '/') {
		c := p[0]
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	}
	return false
}

// relativeSlash computes file's path relative to root; both must
// already be forward-slash-normalized and absolute. It operates purely
// on path segments (via the "path" package's Clean, which is
// OS-independent) so that behavior does not depend on the host
// platform of the process running this code.
func relativeSlash(root, file string) string {
	root = path.Clean(root)
	file = path.Clean(file)
	if root == file {
		return "."
	}

	rootSegs := segments(root)
	fileSegs := segments(file)

	i := 0
	for i < len(rootSegs) && i < len(fileSegs) && rootSegs[i] == fileSegs[i] {
		i++
	}
	up := len(rootSegs) - i

	out := make([]string, 0, up+len(fileSegs)-i)
	for j := 0; j < up; j++ {
		out = append(out, "..")
	}
	out = append(out, fileSegs[i:]...)
	if len(out) == 0 {
		return "."
	}
	return strings.Join(out, "/")
}

func segments(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
