// Package oracle estimates per-test durations from the timing ledger,
// falling back through same-file and global averages before a fixed
// default. It is a pure function of its inputs: the same discovered
// tests and ledger always yield the same estimates.
package oracle

import (
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/timing"
)

// DefaultDurationMs is used when the ledger has no usable data at all.
const DefaultDurationMs = 30000

// Provenance records which tier of the oracle produced an estimate.
type Provenance string

const (
	ProvenanceMeasured Provenance = "measured"
	ProvenanceSameFile Provenance = "same-file"
	ProvenanceGlobal   Provenance = "global"
	ProvenanceDefault  Provenance = "default"
)

// DurationEstimate is one test's duration estimate and how it was derived.
type DurationEstimate struct {
	ID         identity.TestID
	File       string
	DurationMs int64
	Provenance Provenance
}

// Result is the full set of estimates for a discovery, plus the subset
// whose provenance is not measured (i.e., not a direct ledger hit).
type Result struct {
	Estimates      []DurationEstimate
	EstimatedTests []identity.TestID
}

// Estimate produces a duration estimate for every test in tests, given
// ledger l. Order of the returned Estimates follows the input order of
// tests.
func Estimate(tests []identity.DiscoveredTest, l *timing.Ledger) Result {
	fileSums := make(map[string]int64)
	fileCounts := make(map[string]int)
	var globalSum int64
	var globalCount int

	for _, e := range l.Tests {
		fileSums[e.File] += e.Duration
		fileCounts[e.File]++
		globalSum += e.Duration
		globalCount++
	}

	result := Result{Estimates: make([]DurationEstimate, 0, len(tests))}
	for _, t := range tests {
		est := estimateOne(t, l, fileSums, fileCounts, globalSum, globalCount)
		result.Estimates = append(result.Estimates, est)
		if est.Provenance != ProvenanceMeasured {
			result.EstimatedTests = append(result.EstimatedTests, est.ID)
		}
	}
	return result
}

func estimateOne(t identity.DiscoveredTest, l *timing.Ledger, fileSums map[string]int64, fileCounts map[string]int, globalSum int64, globalCount int) DurationEstimate {
	if e, ok := l.Tests[t.ID]; ok {
		return DurationEstimate{ID: t.ID, File: t.File, DurationMs: e.Duration, Provenance: ProvenanceMeasured}
	}
	if n := fileCounts[t.File]; n > 0 {
		return DurationEstimate{ID: t.ID, File: t.File, DurationMs: fileSums[t.File] / int64(n), Provenance: ProvenanceSameFile}
	}
	if globalCount > 0 {
		return DurationEstimate{ID: t.ID, File: t.File, DurationMs: globalSum / int64(globalCount), Provenance: ProvenanceGlobal}
	}
	return DurationEstimate{ID: t.ID, File: t.File, DurationMs: DefaultDurationMs, Provenance: ProvenanceDefault}
}

// PerFileAverages computes mean measured duration per file across the
// ledger, used by the LPT packer to derive its default file-affinity
// penalty.
func PerFileAverages(l *timing.Ledger) map[string]int64 {
	sums := make(map[string]int64)
	counts := make(map[string]int)
	for _, e := range l.Tests {
		sums[e.File] += e.Duration
		counts[e.File]++
	}
	out := make(map[string]int64, len(sums))
	for f, sum := range sums {
		out[f] = sum / int64(counts[f])
	}
	return out
}

// Summarize counts estimates by provenance tier, a small convenience
// for diagnostics.
func Summarize(estimates []DurationEstimate) map[Provenance]int {
	counts := make(map[Provenance]int, 4)
	for _, e := range estimates {
		counts[e.Provenance]++
	}
	return counts
}
