package timing

import (
	"time"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
)

// Observation is one new measurement to fold into the ledger.
type Observation struct {
	ID       identity.TestID
	Duration int64 // milliseconds
	At       time.Time
}

// Merge folds observations into l in place using an exponential moving
// average: for an existing entry, duration' = alpha*new + (1-alpha)*old,
// runs increments by exactly one, and lastRun becomes the later of the
// two timestamps. A new id is inserted with runs=1. alpha must be in
// [0,1]; callers pass DefaultAlpha when none is configured.
func Merge(l *Ledger, observations []Observation, alpha float64) error {
	if alpha < 0 || alpha > 1 {
		return shardctlerrors.New(shardctlerrors.KindInconsistent, "timing.Merge",
			errAlphaRange(alpha))
	}
	if l.Tests == nil {
		l.Tests = make(map[identity.TestID]Entry)
	}

	latest := l.UpdatedAt
	for _, obs := range observations {
		if e, ok := l.Tests[obs.ID]; ok {
			e.Duration = int64(alpha*float64(obs.Duration) + (1-alpha)*float64(e.Duration))
			e.Runs++
			if obs.At.After(e.LastRun) {
				e.LastRun = obs.At
			}
			e.File = identity.File(obs.ID)
			l.Tests[obs.ID] = e
		} else {
			l.Tests[obs.ID] = Entry{
				File:     identity.File(obs.ID),
				Duration: obs.Duration,
				Runs:     1,
				LastRun:  obs.At,
			}
		}
		if obs.At.After(latest) {
			latest = obs.At
		}
	}
	l.UpdatedAt = latest
	l.Version = CurrentVersion
	return nil
}

// Prune removes entries whose lastRun is older than pruneDays days
// before now, and returns the number removed. pruneDays <= 0 disables
// pruning (a no-op), matching the "zero disables pruning" default.
func Prune(l *Ledger, pruneDays int, now time.Time) int {
	if pruneDays <= 0 || l.Tests == nil {
		return 0
	}
	cutoff := now.Add(-time.Duration(pruneDays) * 24 * time.Hour)
	removed := 0
	for id, e := range l.Tests {
		if e.LastRun.Before(cutoff) {
			delete(l.Tests, id)
			removed++
		}
	}
	return removed
}

type errAlphaRange float64

func (e errAlphaRange) Error() string {
	return "alpha must be in [0,1]"
}
