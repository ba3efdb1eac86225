package oracle

import (
	"testing"
	"time"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/timing"
	"github.com/stretchr/testify/assert"
)

func discovered(id, file string) identity.DiscoveredTest {
	return identity.DiscoveredTest{ID: identity.TestID(id), File: file}
}

func TestEstimateLedgerHitIsMeasured(t *testing.T) {
	l := timing.New()
	l.Tests["a.spec.ts::t"] = timing.Entry{File: "a.spec.ts", Duration: 4200, Runs: 5, LastRun: time.Now()}

	r := Estimate([]identity.DiscoveredTest{discovered("a.spec.ts::t", "a.spec.ts")}, l)

	assert.Equal(t, int64(4200), r.Estimates[0].DurationMs)
	assert.Equal(t, ProvenanceMeasured, r.Estimates[0].Provenance)
	assert.Empty(t, r.EstimatedTests)
}

func TestEstimateSameFileAverage(t *testing.T) {
	l := timing.New()
	l.Tests["a.spec.ts::one"] = timing.Entry{File: "a.spec.ts", Duration: 1000}
	l.Tests["a.spec.ts::two"] = timing.Entry{File: "a.spec.ts", Duration: 3000}

	r := Estimate([]identity.DiscoveredTest{discovered("a.spec.ts::three", "a.spec.ts")}, l)

	assert.Equal(t, int64(2000), r.Estimates[0].DurationMs)
	assert.Equal(t, ProvenanceSameFile, r.Estimates[0].Provenance)
	assert.Equal(t, []identity.TestID{"a.spec.ts::three"}, r.EstimatedTests)
}

func TestEstimateGlobalAverage(t *testing.T) {
	l := timing.New()
	l.Tests["a.spec.ts::one"] = timing.Entry{File: "a.spec.ts", Duration: 1000}
	l.Tests["b.spec.ts::one"] = timing.Entry{File: "b.spec.ts", Duration: 3000}

	r := Estimate([]identity.DiscoveredTest{discovered("c.spec.ts::one", "c.spec.ts")}, l)

	assert.Equal(t, int64(2000), r.Estimates[0].DurationMs)
	assert.Equal(t, ProvenanceGlobal, r.Estimates[0].Provenance)
}

func TestEstimateDefaultWhenLedgerEmpty(t *testing.T) {
	l := timing.New()

	r := Estimate([]identity.DiscoveredTest{discovered("a.spec.ts::t", "a.spec.ts")}, l)

	assert.Equal(t, int64(DefaultDurationMs), r.Estimates[0].DurationMs)
	assert.Equal(t, ProvenanceDefault, r.Estimates[0].Provenance)
}

func TestPerFileAverages(t *testing.T) {
	l := timing.New()
	l.Tests["a.spec.ts::one"] = timing.Entry{File: "a.spec.ts", Duration: 1000}
	l.Tests["a.spec.ts::two"] = timing.Entry{File: "a.spec.ts", Duration: 2000}
	l.Tests["b.spec.ts::one"] = timing.Entry{File: "b.spec.ts", Duration: 500}

	avgs := PerFileAverages(l)

	assert.Equal(t, int64(1500), avgs["a.spec.ts"])
	assert.Equal(t, int64(500), avgs["b.spec.ts"])
}

func TestSummarizeCountsByProvenance(t *testing.T) {
	estimates := []DurationEstimate{
		{Provenance: ProvenanceMeasured},
		{Provenance: ProvenanceMeasured},
		{Provenance: ProvenanceDefault},
	}
	counts := Summarize(estimates)
	assert.Equal(t, 2, counts[ProvenanceMeasured])
	assert.Equal(t, 1, counts[ProvenanceDefault])
}
