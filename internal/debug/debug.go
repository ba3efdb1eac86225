// Package debug provides a leveled diagnostic logger gated by an
// environment variable, in the style of the indexing tool this CLI is
// descended from. It is not on the critical path of any core
// component — the scheduler, timing store, and oracle remain pure and
// silent; this package exists only for the CLI layer to surface
// non-fatal diagnostics (assign parameters, extract test counts, merge
// and prune counts, watch errors).
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// debugOutput is the writer for debug output (nil means no output).
var debugOutput io.Writer = os.Stderr

var debugMutex sync.Mutex

// SetOutput sets a custom writer for debug output. Pass nil to disable.
func SetOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// enabled tracks whether verbose diagnostics are on for this process.
var enabled bool

// SetEnabled turns verbose diagnostics on or off. The CLI calls this
// once at startup when the --debug flag is given; the SHARDCTL_DEBUG
// env var is checked separately by IsEnabled.
func SetEnabled(v bool) {
	enabled = v
}

// IsEnabled reports whether debug mode is active.
func IsEnabled() bool {
	if enabled {
		return true
	}
	v := os.Getenv("SHARDCTL_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints a debug line when debug mode is enabled.
func Printf(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG] "+format+"\n", args...)
	}
}

// Log prints a component-tagged debug line when debug mode is enabled.
func Log(component, format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[DEBUG:%s] "+format+"\n", append([]interface{}{component}, args...)...)
	}
}

// LogOracle logs diagnostics for the duration oracle.
func LogOracle(format string, args ...interface{}) {
	Log("ORACLE", format, args...)
}

// LogScheduler logs diagnostics for the LPT/CKK scheduler.
func LogScheduler(format string, args ...interface{}) {
	Log("SCHED", format, args...)
}

// LogMerge logs diagnostics for the timing-ledger merger.
func LogMerge(format string, args ...interface{}) {
	Log("MERGE", format, args...)
}
