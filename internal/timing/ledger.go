// Package timing implements the durable per-test duration ledger: a
// versioned JSON file smoothed by an exponential moving average (EMA)
// with age-based pruning. The ledger file is the sole source of truth
// across CI runs; writers publish via write-temp-then-rename so
// readers never observe a torn file, following the same
// write-then-atomic-rename idiom used for other durable local state in
// the corpus this tool is descended from.
package timing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	shardctlerrors "github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
)

// CurrentVersion is the ledger schema version this package writes.
const CurrentVersion = 2

// DefaultAlpha is the EMA smoothing factor used when none is configured.
const DefaultAlpha = 0.3

// DefaultPruneDays is the retention window used when none is configured.
const DefaultPruneDays = 30

// Entry is one test's accumulated timing data.
type Entry struct {
	File     string    `json:"file"`
	Duration int64     `json:"duration"` // milliseconds
	Runs     int       `json:"runs"`
	LastRun  time.Time `json:"lastRun"`
}

// Ledger is the in-memory, and on-disk JSON, representation of the
// timing store.
type Ledger struct {
	Version   int                        `json:"version"`
	UpdatedAt time.Time                  `json:"updatedAt"`
	Tests     map[identity.TestID]Entry  `json:"tests"`
}

// New returns an empty, current-version ledger.
func New() *Ledger {
	return &Ledger{
		Version: CurrentVersion,
		Tests:   make(map[identity.TestID]Entry),
	}
}

// legacyV1 is the flat `id -> durationMs` schema.
type legacyV1 struct {
	Version int                       `json:"version"`
	Tests   map[identity.TestID]int64 `json:"tests"`
}

// versionProbe reads just enough to pick a schema.
type versionProbe struct {
	Version int `json:"version"`
}

// Load reads the ledger file at path. A missing file is equivalent to
// an empty ledger (not an error). Any parse failure — malformed JSON
// or an unrecognized schema — is reported as a fatal KindMalformed
// error; partial parses are never accepted.
func Load(path string) (*Ledger, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, shardctlerrors.New(shardctlerrors.KindInputMissing, "timing.Load", err).WithPath(path)
	}

	var probe versionProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, shardctlerrors.New(shardctlerrors.KindMalformed, "timing.Load", err).WithPath(path)
	}

	switch probe.Version {
	case 1:
		var v1 legacyV1
		if err := json.Unmarshal(raw, &v1); err != nil {
			return nil, shardctlerrors.New(shardctlerrors.KindMalformed, "timing.Load", err).WithPath(path)
		}
		return migrateV1(v1), nil
	case 2:
		var l Ledger
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, shardctlerrors.New(shardctlerrors.KindMalformed, "timing.Load", err).WithPath(path)
		}
		if l.Tests == nil {
			l.Tests = make(map[identity.TestID]Entry)
		}
		return &l, nil
	default:
		return nil, shardctlerrors.New(shardctlerrors.KindMalformed, "timing.Load",
			fmt.Errorf("unsupported ledger version %d", probe.Version)).WithPath(path)
	}
}

func migrateV1(v1 legacyV1) *Ledger {
	now := time.Now().UTC()
	l := New()
	for id, ms := range v1.Tests {
		l.Tests[id] = Entry{
			File:     identity.File(id),
			Duration: ms,
			Runs:     1,
			LastRun:  now,
		}
	}
	l.UpdatedAt = now
	return l
}

// Persist writes ledger to path atomically: a temp file in the same
// directory is written, fsynced, and renamed over the target so that
// readers always see either the pre- or post-merge state, never a
// torn file. tests are emitted with keys sorted lexically — Go's
// encoding/json already sorts map[string]-keyed (and named-string-keyed)
// maps when marshaling, so this falls out of the type choice rather
// than an explicit sort step.
func Persist(path string, l *Ledger) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".timing-*.tmp")
	if err != nil {
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "timing.Persist", err).WithPath(path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		tmp.Close()
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "timing.Persist", err).WithPath(path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "timing.Persist", err).WithPath(path)
	}
	if err := tmp.Close(); err != nil {
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "timing.Persist", err).WithPath(path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return shardctlerrors.New(shardctlerrors.KindTransientIO, "timing.Persist", err).WithPath(path)
	}
	return nil
}
