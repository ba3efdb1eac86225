package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NSXBet/playwright-orchestrator-sub001/internal/assign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	d := Default()
	assert.Equal(t, 0.3, d.Alpha)
	assert.Equal(t, 30, d.PruneDays)
	assert.Equal(t, 500, d.TimeoutMs)
	assert.True(t, d.FileAffinityEnabled)
	assert.Equal(t, int64(assign.AutoFileAffinityPenalty), d.FileAffinityPenaltyMs)
}

func TestMergeOnlyAppliesSetFields(t *testing.T) {
	base := Default()
	override := Config{Alpha: 0.5}
	merged := Merge(base, override, FieldSet{Alpha: true})

	assert.Equal(t, 0.5, merged.Alpha)
	assert.Equal(t, base.PruneDays, merged.PruneDays)
}

func TestLoadKDLMissingFileReturnsZeroFieldSet(t *testing.T) {
	cfg, set, err := LoadKDL(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
	assert.Equal(t, FieldSet{}, set)
}

func TestLoadKDLParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	content := `
timing {
    alpha 0.4
    prune-days 14
}
scheduler {
    timeout-ms 750
    file-affinity false
    file-affinity-penalty-ms 20000
}
timing-file "custom-timing.json"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shardctl.kdl"), []byte(content), 0o644))

	cfg, set, err := LoadKDL(dir)
	require.NoError(t, err)
	assert.True(t, set.Alpha)
	assert.True(t, set.PruneDays)
	assert.True(t, set.TimeoutMs)
	assert.True(t, set.FileAffinityEnabled)
	assert.True(t, set.FileAffinityPenaltyMs)
	assert.True(t, set.TimingFile)

	assert.Equal(t, 0.4, cfg.Alpha)
	assert.Equal(t, 14, cfg.PruneDays)
	assert.Equal(t, 750, cfg.TimeoutMs)
	assert.False(t, cfg.FileAffinityEnabled)
	assert.Equal(t, int64(20000), cfg.FileAffinityPenaltyMs)
	assert.Equal(t, "custom-timing.json", cfg.TimingFile)
}

func TestLayeredPrecedenceDefaultsThenKDLThenFlags(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shardctl.kdl"), []byte(`timing { alpha 0.6 }`), 0o644))

	kdlCfg, kdlSet, err := LoadKDL(dir)
	require.NoError(t, err)

	withKDL := Merge(Default(), kdlCfg, kdlSet)
	assert.Equal(t, 0.6, withKDL.Alpha)

	flagOverride := Config{Alpha: 0.1}
	final := Merge(withKDL, flagOverride, FieldSet{Alpha: true})
	assert.Equal(t, 0.1, final.Alpha)
	assert.Equal(t, 30, final.PruneDays, "unset fields fall through to the KDL/default layer")
}
