// Package extract turns a post-run report into a shard-timing file: a
// flat id -> observed-duration map scoped to a single project, ready
// to be folded into the ledger by the merger.
package extract

import (
	"encoding/json"
	"os"
	"sort"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/report"
)

// Output is the extractor's result, matching the shard-timing file
// schema: { shard, project, tests: { id -> durationMs } }.
type Output struct {
	Shard   int                       `json:"shard"`
	Project string                    `json:"project"`
	Tests   map[identity.TestID]int64 `json:"tests"`
}

// Extract filters r to the named project, rebuilding each surviving
// test's id with the project's own rootDir/testDir, and summing
// durations across all non-skipped attempts. Tests whose file escapes
// testDir are dropped without error, per the extractor's relaxed
// path-escape policy (the assigner treats the same condition as fatal).
func Extract(r report.Report, project string, shard int) Output {
	out := Output{Shard: shard, Project: project, Tests: make(map[identity.TestID]int64)}

	for _, p := range r.Suites {
		if p.Project != project {
			continue
		}
		testDir := p.TestDir
		if testDir == "" {
			testDir = r.RootDir
		}
		walkAndExtract(p.Tests, testDir, out.Tests)
		walkSuites(p.Suites, testDir, out.Tests)
	}
	return out
}

func walkSuites(nodes []report.SuiteNode, testDir string, dest map[identity.TestID]int64) {
	for _, n := range nodes {
		walkAndExtract(n.Tests, testDir, dest)
		walkSuites(n.Suites, testDir, dest)
	}
}

func walkAndExtract(tests []report.TestResult, testDir string, dest map[identity.TestID]int64) {
	for _, tr := range tests {
		if !tr.HasNonSkippedResult() {
			continue
		}
		id, err := identity.Build(tr.File, testDir, identity.DropLeadingTitleStem(tr.TitlePath))
		if err != nil {
			continue // path escape: quietly dropped
		}
		dest[id] = tr.TotalDurationMs()
	}
}

// Write serializes out as JSON to path.
func Write(path string, out Output) error {
	f, err := os.Create(path)
	if err != nil {
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "extract.Write", err).WithPath(path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "extract.Write", err).WithPath(path)
	}
	return nil
}

// SortedIDs returns out's test ids in lexical order, useful for
// deterministic text-mode summaries.
func SortedIDs(out Output) []identity.TestID {
	ids := make([]identity.TestID, 0, len(out.Tests))
	for id := range out.Tests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
