// Package assign orchestrates a single assignment run: discovery, the
// timing ledger, the duration oracle, and the CKK/LPT scheduler,
// materializing per-shard test-list strings and the AssignResult
// summary. For identical inputs it produces byte-identical output.
package assign

import (
	"context"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/oracle"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/scheduler/ckk"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/scheduler/lpt"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/timing"
)

// Options configures an assignment run. FileAffinityPenaltyMs ==
// AutoFileAffinityPenalty means "derive the default from the ledger";
// any other negative penalty is rejected as KindInconsistent, so the
// assigner never passes a negative penalty on to the packer.
const AutoFileAffinityPenalty = -1

type Options struct {
	Shards                int
	TimeoutMs             int
	FileAffinityEnabled   bool
	FileAffinityPenaltyMs int64 // AutoFileAffinityPenalty to derive from the ledger
}

// ShardAssignment is one shard's materialized result.
type ShardAssignment struct {
	Tests              []identity.TestID
	ExpectedDurationMs int64
	TestListContent    string // filter lines, one per test, each terminated by "\n"
	ContentHash        uint64 // xxhash of TestListContent, for CI cache keys
}

// Result is the complete outcome of one assignment run.
type Result struct {
	Shards         []ShardAssignment
	TotalTests     int
	EstimatedTests []identity.TestID
	IsOptimal      bool
}

// Assign runs discovery → oracle → pack → emit against an already
// loaded ledger and discovered test set, scoped to a single project's
// rootDir/testDir pair (the caller resolves which project when a
// discovery file covers more than one).
func Assign(ctx context.Context, tests []identity.DiscoveredTest, rootDir, testDir string, l *timing.Ledger, opts Options) (Result, error) {
	if opts.Shards < 1 {
		return Result{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "assign.Assign", errShardCount(opts.Shards))
	}
	if len(tests) == 0 {
		return Result{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "assign.Assign", errEmptyTestSet{})
	}

	est := oracle.Estimate(tests, l)

	penalty := opts.FileAffinityPenaltyMs
	if !opts.FileAffinityEnabled {
		penalty = 0
	} else if penalty == AutoFileAffinityPenalty {
		penalty = lpt.DefaultPenalty(oracle.PerFileAverages(l))
	}
	if penalty < 0 {
		return Result{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "assign.Assign", errNegativePenalty(penalty))
	}

	tasks := make([]lpt.Task, 0, len(est.Estimates))
	for _, e := range est.Estimates {
		tasks = append(tasks, lpt.Task{ID: e.ID, File: e.File, DurationMs: e.DurationMs})
	}

	deadline := time.Duration(opts.TimeoutMs) * time.Millisecond
	if opts.TimeoutMs <= 0 {
		deadline = ckk.DefaultDeadline
	}

	scheduled, err := ckk.Schedule(ctx, tasks, opts.Shards, penalty, deadline)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		TotalTests:     len(tests),
		EstimatedTests: sortedIDs(est.EstimatedTests),
		IsOptimal:      scheduled.IsOptimal,
		Shards:         make([]ShardAssignment, opts.Shards),
	}
	for i := 0; i < opts.Shards; i++ {
		shardTests := append([]identity.TestID{}, scheduled.ShardTests[i]...)
		sort.Slice(shardTests, func(a, b int) bool { return shardTests[a] < shardTests[b] })

		lines := make([]byte, 0, 256)
		for _, id := range shardTests {
			line, err := identity.ToFilterLine(id, rootDir, testDir)
			if err != nil {
				return Result{}, err
			}
			lines = append(lines, line...)
		}
		result.Shards[i] = ShardAssignment{
			Tests:              scheduled.ShardTests[i],
			ExpectedDurationMs: scheduled.ExpectedDurations[i],
			TestListContent:    string(lines),
			ContentHash:        xxhash.Sum64(lines),
		}
	}
	return result, nil
}

func sortedIDs(ids []identity.TestID) []identity.TestID {
	out := append([]identity.TestID{}, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type errShardCount int

func (e errShardCount) Error() string { return "shard count must be >= 1" }

type errNegativePenalty int64

func (e errNegativePenalty) Error() string { return "file-affinity penalty must be >= 0" }

type errEmptyTestSet struct{}

func (errEmptyTestSet) Error() string { return "cannot assign an empty test set to any number of shards" }
