// Package shardtimeout derives a per-shard execution timeout from its
// expected duration, the way a CI job's own timeout is sized rather
// than left to a single global value. It supplements the core
// scheduler: a shard's expectedDurationMs tells you how long the work
// should take, not how long the CI job should be allowed to run before
// it's killed for being stuck.
package shardtimeout

import "time"

// perTestOverhead is a conservative per-test constant (browser
// context + page load) added on top of the shard's estimated runtime,
// independent of how accurate any individual duration estimate is.
const perTestOverhead = 2 * time.Second

// shardOverhead is a flat allowance for process startup, reporter
// flush, and artifact upload that every shard pays regardless of size.
const shardOverhead = 2 * time.Minute

// overrunMultiplier allows for the whole shard running slower than
// estimated without triggering a false-positive timeout kill.
const overrunMultiplier = 2

// Compute returns the timeout for a shard given its expected total
// duration and test count, both already known from the scheduler's
// output.
func Compute(expectedDurationMs int64, testCount int) time.Duration {
	estimated := time.Duration(expectedDurationMs) * time.Millisecond
	return estimated*overrunMultiplier + shardOverhead + perTestOverhead*time.Duration(testCount)
}
