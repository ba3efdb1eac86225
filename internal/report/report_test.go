package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesNestedResults(t *testing.T) {
	doc := `{
		"config": { "rootDir": "/p" },
		"suites": [
			{
				"project": { "name": "chromium", "testDir": "/p/e2e" },
				"tests": [
					{
						"file": "/p/e2e/a.spec.ts",
						"titlePath": ["a.spec.ts", "t"],
						"results": [
							{ "duration": 500, "status": "failed" },
							{ "duration": 700, "status": "passed" }
						]
					}
				]
			}
		]
	}`
	path := writeJSON(t, doc)

	r, err := Load(path)
	require.NoError(t, err)
	require.Len(t, r.Suites, 1)
	require.Len(t, r.Suites[0].Tests, 1)
	assert.Equal(t, int64(1200), r.Suites[0].Tests[0].TotalDurationMs())
}

func TestTotalDurationSkipsSkippedAttempts(t *testing.T) {
	tr := TestResult{Results: []Attempt{
		{DurationMs: 1000, Status: StatusPassed},
		{DurationMs: 5000, Status: "skipped"},
	}}
	assert.Equal(t, int64(1000), tr.TotalDurationMs())
}

func TestHasNonSkippedResult(t *testing.T) {
	assert.False(t, TestResult{Results: []Attempt{{DurationMs: 1, Status: "skipped"}}}.HasNonSkippedResult())
	assert.True(t, TestResult{Results: []Attempt{{DurationMs: 1, Status: StatusFlaky}}}.HasNonSkippedResult())
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadMalformedJSONIsError(t *testing.T) {
	path := writeJSON(t, `{not json`)
	_, err := Load(path)
	require.Error(t, err)
}
