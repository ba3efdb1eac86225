// Package lpt implements longest-processing-time-first scheduling with
// an optional file-affinity penalty: a greedy approximation for
// multiprocessor scheduling, generalized from the "assign each test to
// the shard with the lowest running total" approach so that a shard
// already holding tests from the same source file is preferred over
// one that would have to pay a fresh per-file startup cost.
package lpt

import (
	"sort"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
)

// DefaultFileAffinityPenaltyMs is used when the ledger has no measured
// tests to derive a percentile penalty from.
const DefaultFileAffinityPenaltyMs = 30000

// Task is one schedulable unit: a test with its file and estimated
// duration.
type Task struct {
	ID         identity.TestID
	File       string
	DurationMs int64
}

// Plan is the outcome of packing tasks into N shards.
type Plan struct {
	// ShardTests[i] holds the ordered tests assigned to shard i.
	ShardTests [][]identity.TestID
	// RawLoadMs[i] is the sum of raw (unpenalized) durations on shard i.
	RawLoadMs []int64
}

// Pack assigns tasks to n shards. Tasks are sorted by duration
// descending, ties broken by ascending id, then greedily placed on the
// shard minimizing effective cost: rawLoad[i] + duration(t), plus
// penaltyMs if t's file is not already present on shard i. penaltyMs
// must be >= 0.
func Pack(tasks []Task, n int, penaltyMs int64) (Plan, error) {
	if n < 1 {
		return Plan{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "lpt.Pack", errShardCount(n))
	}
	if penaltyMs < 0 {
		return Plan{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "lpt.Pack", errNegativePenalty(penaltyMs))
	}

	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DurationMs != sorted[j].DurationMs {
			return sorted[i].DurationMs > sorted[j].DurationMs
		}
		return sorted[i].ID < sorted[j].ID
	})

	plan := Plan{
		ShardTests: make([][]identity.TestID, n),
		RawLoadMs:  make([]int64, n),
	}
	for i := range plan.ShardTests {
		plan.ShardTests[i] = []identity.TestID{}
	}
	filesOnShard := make([]map[string]bool, n)
	for i := range filesOnShard {
		filesOnShard[i] = make(map[string]bool)
	}

	for _, t := range sorted {
		best := 0
		bestCost := effectiveCost(plan.RawLoadMs[0], t, filesOnShard[0], penaltyMs)
		for i := 1; i < n; i++ {
			cost := effectiveCost(plan.RawLoadMs[i], t, filesOnShard[i], penaltyMs)
			if cost < bestCost {
				bestCost = cost
				best = i
			}
		}
		plan.ShardTests[best] = append(plan.ShardTests[best], t.ID)
		plan.RawLoadMs[best] += t.DurationMs
		filesOnShard[best][t.File] = true
	}
	return plan, nil
}

func effectiveCost(rawLoad int64, t Task, files map[string]bool, penaltyMs int64) int64 {
	cost := rawLoad + t.DurationMs
	if !files[t.File] {
		cost += penaltyMs
	}
	return cost
}

// DefaultPenalty derives p = P25(perFileAverages) from the oracle's
// per-file averages, or DefaultFileAffinityPenaltyMs when there are no
// measured tests to average.
func DefaultPenalty(perFileAverages map[string]int64) int64 {
	if len(perFileAverages) == 0 {
		return DefaultFileAffinityPenaltyMs
	}
	values := make([]int64, 0, len(perFileAverages))
	for _, v := range perFileAverages {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return percentile25(values)
}

// percentile25 returns the 25th percentile using nearest-rank on a
// sorted slice.
func percentile25(sorted []int64) int64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := (25 * (len(sorted) - 1)) / 100
	return sorted[idx]
}

type errShardCount int

func (e errShardCount) Error() string { return "shard count must be >= 1" }

type errNegativePenalty int64

func (e errNegativePenalty) Error() string { return "file-affinity penalty must be >= 0" }
