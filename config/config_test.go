package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal("bms.dbc", cfg.Catalog.Path)
	assert.Equal("socketcan", cfg.Source.Kind)
	assert.Equal("can0", cfg.Source.Interface)
	assert.Equal(100*time.Millisecond, cfg.Pipeline.PollInterval)
	assert.Equal(200*time.Millisecond, cfg.Pipeline.DemoInterval)
	assert.Equal(DefaultMaxPending, cfg.Pipeline.MaxPending)
	assert.Equal(500, cfg.Pipeline.UnmatchedCap)
	assert.True(cfg.Pipeline.DemoAtStart)
	assert.True(cfg.RawLog.Enabled)
	assert.Equal("logs", cfg.RawLog.Dir)
	assert.False(cfg.QuestDB.Enabled)
	assert.False(cfg.Telemetry.Enabled)
	assert.Equal("info", cfg.Log.Level)

	pipeCfg := cfg.PipelineConfig()
	assert.Equal(cfg.Pipeline.DemoInterval, pipeCfg.Demo.Interval)
}

func Test_Load_File(t *testing.T) {
	assert := assert.New(t)

	configPath := filepath.Join(t.TempDir(), "bmsmon.yaml")

	configContent := `
catalog:
  path: "dbc/bms.dbc"

source:
  kind: "cannelloni"
  port: 20001
  filters: [256, 257]

pipeline:
  poll_interval: 50ms
  max_pending: 0
  demo_at_start: false

api:
  addr: ":9090"

log:
  level: "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal("dbc/bms.dbc", cfg.Catalog.Path)
	assert.Equal("cannelloni", cfg.Source.Kind)
	assert.Equal(uint16(20001), cfg.Source.Port)
	assert.Equal([]uint32{256, 257}, cfg.Source.Filters)
	assert.Equal(50*time.Millisecond, cfg.Pipeline.PollInterval)
	assert.Equal(0, cfg.Pipeline.MaxPending)
	assert.False(cfg.Pipeline.DemoAtStart)
	assert.Equal(":9090", cfg.API.Addr)
	assert.Equal("debug", cfg.Log.Level)

	// Untouched keys keep their defaults
	assert.Equal("can0", cfg.Source.Interface)

	srcCfg := cfg.SourceConfig()
	assert.Equal("cannelloni", srcCfg.Kind)
	assert.Equal([]uint32{256, 257}, srcCfg.Filters)
}

func Test_Load_EnvOverride(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("BMSMON_SOURCE_INTERFACE", "vcan0")
	t.Setenv("BMSMON_QUESTDB_ENABLED", "true")
	t.Setenv("BMSMON_PIPELINE_POLL_INTERVAL", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal("vcan0", cfg.Source.Interface)
	assert.True(cfg.QuestDB.Enabled)
	assert.Equal(250*time.Millisecond, cfg.Pipeline.PollInterval)
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
