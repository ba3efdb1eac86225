// Package report parses the test runner's post-run report JSON: a
// nested suite tree carrying, per test, one or more attempt results
// with a duration and a terminal status.
package report

import (
	"encoding/json"
	"os"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
)

// Status values recognized from a result's "status" field. Anything
// else (e.g. "skipped", "interrupted") contributes nothing.
const (
	StatusPassed   = "passed"
	StatusFailed   = "failed"
	StatusTimedOut = "timedOut"
	StatusFlaky    = "flaky"
)

// nonSkippedStatuses is the set of statuses whose duration counts
// toward a test's total.
var nonSkippedStatuses = map[string]bool{
	StatusPassed:   true,
	StatusFailed:   true,
	StatusTimedOut: true,
	StatusFlaky:    true,
}

// Report is the parsed post-run report: the config echoed back from
// discovery, and every project's nested suite tree.
type Report struct {
	RootDir string
	Suites  []ProjectSuite
}

// ProjectSuite is one project's portion of the report.
type ProjectSuite struct {
	Project string
	TestDir string
	Suites  []SuiteNode
	Tests   []TestResult
}

// SuiteNode mirrors the discovery suite tree but carries results.
type SuiteNode struct {
	Suites []SuiteNode
	Tests  []TestResult
}

// TestResult is one discovered test and its recorded attempts.
type TestResult struct {
	File      string
	TitlePath []string
	Results   []Attempt
}

// Attempt is a single run (or retry) of a test.
type Attempt struct {
	DurationMs int64
	Status     string
}

// TotalDurationMs sums the duration of every non-skipped attempt.
func (t TestResult) TotalDurationMs() int64 {
	var total int64
	for _, a := range t.Results {
		if nonSkippedStatuses[a.Status] {
			total += a.DurationMs
		}
	}
	return total
}

// HasNonSkippedResult reports whether any attempt counted toward the
// total, i.e. whether this test should appear in extractor output at all.
func (t TestResult) HasNonSkippedResult() bool {
	for _, a := range t.Results {
		if nonSkippedStatuses[a.Status] {
			return true
		}
	}
	return false
}

type reportFile struct {
	Config struct {
		RootDir string `json:"rootDir"`
	} `json:"config"`
	Suites []projectSuiteJSON `json:"suites"`
}

type projectSuiteJSON struct {
	Project struct {
		Name    string `json:"name"`
		TestDir string `json:"testDir"`
	} `json:"project"`
	Suites []suiteNodeJSON `json:"suites"`
	Tests  []testNodeJSON  `json:"tests"`
}

type suiteNodeJSON struct {
	Suites []suiteNodeJSON `json:"suites"`
	Tests  []testNodeJSON  `json:"tests"`
}

type testNodeJSON struct {
	File      string        `json:"file"`
	TitlePath []string      `json:"titlePath"`
	Results   []attemptJSON `json:"results"`
}

type attemptJSON struct {
	DurationMs int64  `json:"duration"`
	Status     string `json:"status"`
}

// Load reads and parses the report JSON file at path.
func Load(path string) (Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Report{}, shardctlerrors.New(shardctlerrors.KindInputMissing, "report.Load", err).WithPath(path)
		}
		return Report{}, shardctlerrors.New(shardctlerrors.KindTransientIO, "report.Load", err).WithPath(path)
	}

	var doc reportFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Report{}, shardctlerrors.New(shardctlerrors.KindMalformed, "report.Load", err).WithPath(path)
	}

	r := Report{RootDir: doc.Config.RootDir}
	for _, p := range doc.Suites {
		r.Suites = append(r.Suites, ProjectSuite{
			Project: p.Project.Name,
			TestDir: p.Project.TestDir,
			Suites:  convertSuites(p.Suites),
			Tests:   convertTests(p.Tests),
		})
	}
	return r, nil
}

func convertSuites(nodes []suiteNodeJSON) []SuiteNode {
	out := make([]SuiteNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, SuiteNode{Suites: convertSuites(n.Suites), Tests: convertTests(n.Tests)})
	}
	return out
}

func convertTests(nodes []testNodeJSON) []TestResult {
	out := make([]TestResult, 0, len(nodes))
	for _, n := range nodes {
		attempts := make([]Attempt, 0, len(n.Results))
		for _, a := range n.Results {
			attempts = append(attempts, Attempt{DurationMs: a.DurationMs, Status: a.Status})
		}
		out = append(out, TestResult{File: n.File, TitlePath: n.TitlePath, Results: attempts})
	}
	return out
}
