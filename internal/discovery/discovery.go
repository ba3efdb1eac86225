// Package discovery parses the test runner's list-mode JSON output into
// the set of DiscoveredTest records the rest of the scheduler consumes.
package discovery

import (
	"encoding/json"
	"os"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
)

// Discovery is the parsed result of a discovery JSON file: the
// runner's configured rootDir, one or more projects (each with its own
// testDir), and the flattened set of tests across all projects.
//
// TestDir is the first project's testDir, used by callers converting
// ids back to filter lines. A discovery file describing more than one
// project (distinct testDirs) is uncommon for a single shardctl
// invocation — CI normally runs discovery scoped to one project — so
// this package does not attempt per-test testDir tracking beyond id
// construction itself.
type Discovery struct {
	RootDir string
	TestDir string
	Tests   []identity.DiscoveredTest
}

type discoveryFile struct {
	Config struct {
		RootDir string `json:"rootDir"`
	} `json:"config"`
	Suites []projectSuite `json:"suites"`
}

type projectSuite struct {
	Project struct {
		Name    string `json:"name"`
		TestDir string `json:"testDir"`
	} `json:"project"`
	Suites []suiteNode `json:"suites"`
	Tests  []testNode  `json:"tests"`
}

type suiteNode struct {
	Title  string      `json:"title"`
	Suites []suiteNode `json:"suites"`
	Tests  []testNode  `json:"tests"`
}

type testNode struct {
	File      string   `json:"file"`
	TitlePath []string `json:"titlePath"`
}

// Load reads and parses the discovery JSON file at path. Unknown
// fields are ignored. A missing file or malformed JSON is reported as
// a fatal error.
func Load(path string) (Discovery, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Discovery{}, shardctlerrors.New(shardctlerrors.KindInputMissing, "discovery.Load", err).WithPath(path)
		}
		return Discovery{}, shardctlerrors.New(shardctlerrors.KindTransientIO, "discovery.Load", err).WithPath(path)
	}

	var doc discoveryFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Discovery{}, shardctlerrors.New(shardctlerrors.KindMalformed, "discovery.Load", err).WithPath(path)
	}
	if doc.Config.RootDir == "" {
		return Discovery{}, shardctlerrors.New(shardctlerrors.KindMalformed, "discovery.Load", errMissingRootDir{}).WithPath(path)
	}

	d := Discovery{RootDir: doc.Config.RootDir}
	for i, proj := range doc.Suites {
		if i == 0 {
			d.TestDir = proj.Project.TestDir
		}
		tests, err := collectProject(proj, doc.Config.RootDir)
		if err != nil {
			return Discovery{}, err
		}
		d.Tests = append(d.Tests, tests...)
	}
	if d.TestDir == "" {
		d.TestDir = d.RootDir
	}
	return d, nil
}

func collectProject(proj projectSuite, rootDir string) ([]identity.DiscoveredTest, error) {
	testDir := proj.Project.TestDir
	if testDir == "" {
		testDir = rootDir
	}

	var out []identity.DiscoveredTest
	var walk func(nodes []suiteNode) error
	collect := func(tests []testNode) error {
		for _, tn := range tests {
			titlePath := identity.DropLeadingTitleStem(tn.TitlePath)
			id, err := identity.Build(tn.File, testDir, titlePath)
			if err != nil {
				return err
			}
			file, _ := identity.Split(id)
			out = append(out, identity.DiscoveredTest{ID: id, File: file, TitlePath: titlePath})
		}
		return nil
	}
	walk = func(nodes []suiteNode) error {
		for _, n := range nodes {
			if err := collect(n.Tests); err != nil {
				return err
			}
			if err := walk(n.Suites); err != nil {
				return err
			}
		}
		return nil
	}

	if err := collect(proj.Tests); err != nil {
		return nil, err
	}
	if err := walk(proj.Suites); err != nil {
		return nil, err
	}
	return out, nil
}

type errMissingRootDir struct{}

func (errMissingRootDir) Error() string { return "discovery JSON missing config.rootDir" }
