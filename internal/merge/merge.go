// Package merge implements the ledger merger: load a prior ledger
// (absent is fine), fold in one or more shard-timing files in
// deterministic filename order, apply the EMA update and age-based
// prune in that order, and persist atomically.
package merge

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/timing"
)

// ShardTimingFile mirrors the extractor's output schema, read back in
// by the merger.
type ShardTimingFile struct {
	Shard   int                       `json:"shard"`
	Project string                    `json:"project"`
	Tests   map[identity.TestID]int64 `json:"tests"`
}

// LoadShardTimingFile reads one shard-timing file from path.
func LoadShardTimingFile(path string) (ShardTimingFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ShardTimingFile{}, shardctlerrors.New(shardctlerrors.KindInputMissing, "merge.LoadShardTimingFile", err).WithPath(path)
	}
	var f ShardTimingFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return ShardTimingFile{}, shardctlerrors.New(shardctlerrors.KindMalformed, "merge.LoadShardTimingFile", err).WithPath(path)
	}
	return f, nil
}

// Options configures a merge run.
type Options struct {
	Alpha     float64
	PruneDays int
}

// Merge loads the ledger at ledgerPath (absent is an empty ledger),
// folds in every shard-timing file at shardTimingPaths — sorted
// lexically first, so that two files touching the same test id are
// folded in a deterministic order — applies the EMA merge followed by
// pruning, and persists the result back to ledgerPath atomically.
func Merge(ledgerPath string, shardTimingPaths []string, opts Options, now time.Time) (removedByPrune int, err error) {
	l, err := timing.Load(ledgerPath)
	if err != nil {
		return 0, err
	}

	sorted := make([]string, len(shardTimingPaths))
	copy(sorted, shardTimingPaths)
	sort.Strings(sorted)

	// opts.Alpha and opts.PruneDays are taken as given: callers resolve
	// CLI defaults (DefaultAlpha, DefaultPruneDays) before constructing
	// Options, since zero is a legitimate value for both (alpha=0 freezes
	// durations; prune-days=0 disables pruning).
	alpha := opts.Alpha

	for _, path := range sorted {
		f, err := LoadShardTimingFile(path)
		if err != nil {
			return 0, err
		}
		ids := make([]identity.TestID, 0, len(f.Tests))
		for id := range f.Tests {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		observations := make([]timing.Observation, 0, len(ids))
		for _, id := range ids {
			observations = append(observations, timing.Observation{ID: id, Duration: f.Tests[id], At: now})
		}
		if err := timing.Merge(l, observations, alpha); err != nil {
			return 0, err
		}
	}

	removed := timing.Prune(l, opts.PruneDays, now)

	if err := timing.Persist(ledgerPath, l); err != nil {
		return removed, err
	}
	return removed, nil
}
