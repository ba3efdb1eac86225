package lpt

import (
	"testing"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/errors"
	"github.com/NSXBet/playwright-orchestrator-sub001/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackEvenSplitNoAffinity(t *testing.T) {
	tasks := []Task{
		{ID: "a", File: "a.ts", DurationMs: 30000},
		{ID: "b", File: "b.ts", DurationMs: 30000},
		{ID: "c", File: "c.ts", DurationMs: 30000},
		{ID: "d", File: "d.ts", DurationMs: 30000},
	}
	plan, err := Pack(tasks, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, []identity.TestID{"a", "c"}, plan.ShardTests[0])
	assert.Equal(t, []identity.TestID{"b", "d"}, plan.ShardTests[1])
	assert.Equal(t, int64(60000), plan.RawLoadMs[0])
	assert.Equal(t, int64(60000), plan.RawLoadMs[1])
}

func TestPackAffinityKeepsFileTogether(t *testing.T) {
	var tasks []Task
	for _, n := range []string{"t1", "t2", "t3", "t4"} {
		tasks = append(tasks, Task{ID: identity.TestID("pA::" + n), File: "pA", DurationMs: 10000})
	}
	for _, n := range []string{"t1", "t2", "t3", "t4"} {
		tasks = append(tasks, Task{ID: identity.TestID("pB::" + n), File: "pB", DurationMs: 10000})
	}

	plan, err := Pack(tasks, 2, 30000)
	require.NoError(t, err)

	filesIn := func(shard []identity.TestID) map[string]bool {
		files := make(map[string]bool)
		for _, id := range shard {
			files[identity.File(id)] = true
		}
		return files
	}
	shard0Files := filesIn(plan.ShardTests[0])
	shard1Files := filesIn(plan.ShardTests[1])
	assert.Len(t, shard0Files, 1, "shard 0 should hold a single file")
	assert.Len(t, shard1Files, 1, "shard 1 should hold a single file")
}

func TestPackAffinityOverriddenByMakespan(t *testing.T) {
	tasks := []Task{
		{ID: "heavy::t1", File: "heavy", DurationMs: 120000},
		{ID: "heavy::t2", File: "heavy", DurationMs: 60000},
		{ID: "light::t1", File: "light", DurationMs: 10000},
		{ID: "light::t2", File: "light", DurationMs: 10000},
	}
	plan, err := Pack(tasks, 2, 5000)
	require.NoError(t, err)

	makespan := plan.RawLoadMs[0]
	if plan.RawLoadMs[1] > makespan {
		makespan = plan.RawLoadMs[1]
	}
	assert.LessOrEqual(t, makespan, int64(120000))
}

func TestPackRejectsInvalidShardCount(t *testing.T) {
	_, err := Pack(nil, 0, 0)
	require.Error(t, err)
	var shErr *errors.Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, errors.KindInconsistent, shErr.Kind)
}

func TestPackRejectsNegativePenalty(t *testing.T) {
	_, err := Pack([]Task{{ID: "a", File: "a.ts", DurationMs: 1}}, 1, -1)
	require.Error(t, err)
	var shErr *errors.Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, errors.KindInconsistent, shErr.Kind)
}

func TestPackEmptyTaskSet(t *testing.T) {
	plan, err := Pack(nil, 3, 0)
	require.NoError(t, err)
	assert.Len(t, plan.ShardTests, 3)
	for _, s := range plan.ShardTests {
		assert.Empty(t, s)
	}
}

func TestDefaultPenaltyFallsBackWhenNoMeasuredTests(t *testing.T) {
	assert.Equal(t, int64(DefaultFileAffinityPenaltyMs), DefaultPenalty(nil))
}

func TestDefaultPenaltyIsP25(t *testing.T) {
	avgs := map[string]int64{
		"a": 10000,
		"b": 20000,
		"c": 30000,
		"d": 40000,
	}
	// sorted: 10000 20000 30000 40000; idx = 25*3/100 = 0 -> 10000
	assert.Equal(t, int64(10000), DefaultPenalty(avgs))
}
