package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/assign"
)

// assignResultJSON mirrors spec.md's AssignResult schema: string shard
// indices keyed by position, plus the top-level summary fields.
type assignResultJSON struct {
	Shards            map[string]shardJSON `json:"shards"`
	TestListFiles     map[string]string    `json:"testListFiles"`
	ExpectedDurations map[string]int64     `json:"expectedDurations"`
	TotalTests        int                  `json:"totalTests"`
	EstimatedTests    []string             `json:"estimatedTests"`
	IsOptimal         bool                 `json:"isOptimal"`
}

type shardJSON struct {
	Tests              []string `json:"tests"`
	ExpectedDurationMs int64    `json:"expectedDurationMs"`
	ContentHash        string   `json:"contentHash"`
}

func printAssignJSON(result assign.Result) error {
	estimatedTests := make([]string, len(result.EstimatedTests))
	for i, id := range result.EstimatedTests {
		estimatedTests[i] = string(id)
	}

	out := assignResultJSON{
		Shards:            make(map[string]shardJSON, len(result.Shards)),
		TestListFiles:     make(map[string]string, len(result.Shards)),
		ExpectedDurations: make(map[string]int64, len(result.Shards)),
		TotalTests:        result.TotalTests,
		EstimatedTests:    estimatedTests,
		IsOptimal:         result.IsOptimal,
	}
	for i, shard := range result.Shards {
		key := fmt.Sprintf("%d", i+1)
		tests := make([]string, len(shard.Tests))
		for j, id := range shard.Tests {
			tests[j] = string(id)
		}
		out.Shards[key] = shardJSON{
			Tests:              tests,
			ExpectedDurationMs: shard.ExpectedDurationMs,
			ContentHash:        fmt.Sprintf("%016x", shard.ContentHash),
		}
		out.TestListFiles[key] = shard.TestListContent
		out.ExpectedDurations[key] = shard.ExpectedDurationMs
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printAssignSummary(result assign.Result, testListPaths map[int]string) {
	fmt.Printf("assigned %d tests across %d shards (%d estimated, optimal=%v)\n",
		result.TotalTests, len(result.Shards), len(result.EstimatedTests), result.IsOptimal)
	for i, shard := range result.Shards {
		fmt.Printf("  shard %d: %d tests, ~%dms -> %s\n",
			i+1, len(shard.Tests), shard.ExpectedDurationMs, testListPaths[i])
	}
}
