// Package config holds shardctl's tunables: the EMA smoothing factor,
// ledger retention window, CKK deadline, and file-affinity penalty.
// Defaults live here; an optional shardctl.kdl file can override them,
// and CLI flags take final precedence over both.
package config

import (
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/assign"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/timing"
)

// Config is shardctl's resolved configuration for one invocation.
type Config struct {
	Alpha                 float64
	PruneDays             int
	TimeoutMs             int
	FileAffinityEnabled   bool
	FileAffinityPenaltyMs int64 // assign.AutoFileAffinityPenalty to derive from the ledger
	TimingFile            string
}

// Default returns shardctl's built-in defaults, unaffected by any
// config file or flag.
func Default() Config {
	return Config{
		Alpha:                 timing.DefaultAlpha,
		PruneDays:             timing.DefaultPruneDays,
		TimeoutMs:             500,
		FileAffinityEnabled:   true,
		FileAffinityPenaltyMs: assign.AutoFileAffinityPenalty,
		TimingFile:            ".shardctl-timing.json",
	}
}

// FieldSet marks which fields of a Config layer were explicitly
// provided (by a KDL file or a CLI flag set), as opposed to left at
// their zero value incidentally. Merge uses it to decide which fields
// of override replace base.
type FieldSet struct {
	Alpha                 bool
	PruneDays             bool
	TimeoutMs             bool
	FileAffinityEnabled   bool
	FileAffinityPenaltyMs bool
	TimingFile            bool
}

// Merge layers override on top of base, replacing only the fields
// marked in set. This is how shardctl.kdl values layer over Default(),
// and how CLI flags layer over that result.
func Merge(base, override Config, set FieldSet) Config {
	out := base
	if set.Alpha {
		out.Alpha = override.Alpha
	}
	if set.PruneDays {
		out.PruneDays = override.PruneDays
	}
	if set.TimeoutMs {
		out.TimeoutMs = override.TimeoutMs
	}
	if set.FileAffinityEnabled {
		out.FileAffinityEnabled = override.FileAffinityEnabled
	}
	if set.FileAffinityPenaltyMs {
		out.FileAffinityPenaltyMs = override.FileAffinityPenaltyMs
	}
	if set.TimingFile {
		out.TimingFile = override.TimingFile
	}
	return out
}
