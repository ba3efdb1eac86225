// Package ckk implements the Complete Karmarkar-Karp algorithm: an
// anytime branch-and-bound optimal multi-way number partitioner. It is
// seeded with the LPT solution as its initial incumbent, so its result
// is never worse than plain LPT, and it explores the remaining branch
// tree until either it is exhausted or a deadline expires.
package ckk

import (
	"context"
	"sort"
	"time"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/scheduler/lpt"
	"golang.org/x/sync/errgroup"
)

// DefaultDeadline bounds how long Schedule will search before falling
// back to its current incumbent.
const DefaultDeadline = 500 * time.Millisecond

// Result is a completed (possibly non-optimal) schedule.
type Result struct {
	ShardTests        [][]identity.TestID
	ExpectedDurations []int64 // RawLoadMs per shard, no penalties
	IsOptimal         bool
}

// bin is one partial shard during search: its running raw load, the
// set of distinct files it holds, and the tests assigned so far.
type bin struct {
	rawLoad int64
	files   map[string]bool
	tests   []identity.TestID
}

func cloneBins(bins []bin) []bin {
	out := make([]bin, len(bins))
	for i, b := range bins {
		files := make(map[string]bool, len(b.files))
		for f := range b.files {
			files[f] = true
		}
		tests := make([]identity.TestID, len(b.tests))
		copy(tests, b.tests)
		out[i] = bin{rawLoad: b.rawLoad, files: files, tests: tests}
	}
	return out
}

// cost is the CKK objective for a full or partial assignment: the
// makespan (max rawLoad across bins) plus the penalty for every
// file-shard pair beyond a file's first appearance.
func cost(bins []bin, penaltyMs int64) int64 {
	var makespan int64
	splits := make(map[string]int)
	for _, b := range bins {
		if b.rawLoad > makespan {
			makespan = b.rawLoad
		}
	}
	fileFirstSeen := make(map[string]bool)
	for _, b := range bins {
		for f := range b.files {
			if fileFirstSeen[f] {
				splits[f]++
			} else {
				fileFirstSeen[f] = true
			}
		}
	}
	var splitCount int64
	for _, n := range splits {
		splitCount += int64(n)
	}
	return makespan + penaltyMs*splitCount
}

// Schedule runs CKK over tasks into n shards, seeded by the LPT
// solution, bounded by deadline (ctx's deadline if sooner). tasks must
// already be the full discovered set; n >= 1.
func Schedule(ctx context.Context, tasks []lpt.Task, n int, penaltyMs int64, deadline time.Duration) (Result, error) {
	if n < 1 {
		return Result{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "ckk.Schedule", errShardCount(n))
	}
	if penaltyMs < 0 {
		return Result{}, shardctlerrors.New(shardctlerrors.KindInconsistent, "ckk.Schedule", errNegativePenalty(penaltyMs))
	}

	seed, err := lpt.Pack(tasks, n, penaltyMs)
	if err != nil {
		return Result{}, err
	}

	if len(tasks) == 0 || n >= len(tasks) {
		return degenerate(tasks, n), nil
	}

	fileOf := make(map[identity.TestID]string, len(tasks))
	for _, t := range tasks {
		fileOf[t.ID] = t.File
	}

	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	sorted := make([]lpt.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DurationMs != sorted[j].DurationMs {
			return sorted[i].DurationMs > sorted[j].DurationMs
		}
		return sorted[i].ID < sorted[j].ID
	})

	incumbent := binsFromSeed(seed, fileOf)
	incumbentCost := cost(incumbent, penaltyMs)

	// The root's N branches (which shard receives sorted[0]) are
	// independent subtrees, so each explores on its own worker under a
	// shared deadline; workers don't exchange incumbents mid-search, so
	// this only affects how much of the tree a worker prunes, never
	// correctness. If n==1 there's exactly one branch and this runs
	// like a single worker.
	type outcome struct {
		bins      []bin
		cost      int64
		exhausted bool
	}
	outcomes := make([]outcome, len(incumbent))

	g, gctx := errgroup.WithContext(deadlineCtx)
	for i := range incumbent {
		i := i
		g.Go(func() error {
			w := &worker{deadlineCtx: gctx, penaltyMs: penaltyMs, sorted: sorted}
			w.best = cloneBins(incumbent)
			w.bestCost = incumbentCost

			root := make([]bin, len(incumbent))
			for j := range root {
				root[j] = bin{files: make(map[string]bool), tests: []identity.TestID{}}
			}
			root[i].rawLoad += sorted[0].DurationMs
			root[i].tests = append(root[i].tests, sorted[0].ID)
			root[i].files[sorted[0].File] = true

			exhausted := w.search(1, root)
			outcomes[i] = outcome{bins: w.best, cost: w.bestCost, exhausted: exhausted}
			return nil
		})
	}
	_ = g.Wait()

	best := incumbent
	bestCost := incumbentCost
	exhausted := true
	for _, o := range outcomes {
		if o.bins == nil {
			continue
		}
		if o.cost < bestCost {
			bestCost = o.cost
			best = o.bins
		}
		if !o.exhausted {
			exhausted = false
		}
	}

	return toResult(best, exhausted), nil
}

// worker holds one goroutine's private search state: its own
// incumbent and the shared deadline and task order.
type worker struct {
	deadlineCtx context.Context
	penaltyMs   int64
	sorted      []lpt.Task
	best        []bin
	bestCost    int64
}

// search explores branches from idx onward, returning false if the
// deadline expired before the subtree was exhausted.
func (w *worker) search(idx int, bins []bin) bool {
	select {
	case <-w.deadlineCtx.Done():
		return false
	default:
	}

	if idx == len(w.sorted) {
		if c := cost(bins, w.penaltyMs); c < w.bestCost {
			w.bestCost = c
			w.best = cloneBins(bins)
		}
		return true
	}

	if lowerBound(bins, w.sorted[idx:], w.penaltyMs) >= w.bestCost {
		return true
	}

	t := w.sorted[idx]
	for i := 0; i < len(bins); i++ {
		next := cloneBins(bins)
		next[i].rawLoad += t.DurationMs
		next[i].tests = append(next[i].tests, t.ID)
		next[i].files[t.File] = true
		if !w.search(idx+1, next) {
			return false
		}
	}
	return true
}

// lowerBound bounds the best achievable cost from the current partial
// state: remaining work can only raise the makespan at least to the
// average load including what's left, and can never reduce the
// current max raw load.
func lowerBound(bins []bin, remaining []lpt.Task, penaltyMs int64) int64 {
	var curMax int64
	var total int64
	for _, b := range bins {
		if b.rawLoad > curMax {
			curMax = b.rawLoad
		}
		total += b.rawLoad
	}
	for _, t := range remaining {
		total += t.DurationMs
	}
	avg := total / int64(len(bins))
	if curMax > avg {
		return curMax
	}
	return avg
}

func binsFromSeed(seed lpt.Plan, fileOf map[identity.TestID]string) []bin {
	bins := make([]bin, len(seed.ShardTests))
	for i, tests := range seed.ShardTests {
		files := make(map[string]bool, len(tests))
		for _, id := range tests {
			files[fileOf[id]] = true
		}
		bins[i] = bin{rawLoad: seed.RawLoadMs[i], files: files, tests: append([]identity.TestID{}, tests...)}
	}
	return bins
}

func toResult(bins []bin, isOptimal bool) Result {
	r := Result{
		ShardTests:        make([][]identity.TestID, len(bins)),
		ExpectedDurations: make([]int64, len(bins)),
		IsOptimal:         isOptimal,
	}
	for i, b := range bins {
		r.ShardTests[i] = b.tests
		r.ExpectedDurations[i] = b.rawLoad
	}
	return r
}

func degenerate(tasks []lpt.Task, n int) Result {
	sorted := make([]lpt.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	r := Result{
		ShardTests:        make([][]identity.TestID, n),
		ExpectedDurations: make([]int64, n),
		IsOptimal:         true,
	}
	for i := range r.ShardTests {
		r.ShardTests[i] = []identity.TestID{}
	}
	for i, t := range sorted {
		r.ShardTests[i] = []identity.TestID{t.ID}
		r.ExpectedDurations[i] = t.DurationMs
	}
	return r
}

type errShardCount int

func (e errShardCount) Error() string { return "shard count must be >= 1" }

type errNegativePenalty int64

func (e errNegativePenalty) Error() string { return "file-affinity penalty must be >= 0" }
