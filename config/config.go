// Package config loads the monitor configuration from a YAML file
// and BMSMON_ prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/squadracorsepolito/bmsmon/api"
	"github.com/squadracorsepolito/bmsmon/demo"
	"github.com/squadracorsepolito/bmsmon/pipeline"
	"github.com/squadracorsepolito/bmsmon/questdb"
	"github.com/squadracorsepolito/bmsmon/rawlog"
	"github.com/squadracorsepolito/bmsmon/source"
	"github.com/squadracorsepolito/bmsmon/telemetry"
)

// EnvPrefix is the prefix of the environment variables overriding the file.
const EnvPrefix = "BMSMON"

type Config struct {
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Source    SourceConfig    `mapstructure:"source"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	RawLog    RawLogConfig    `mapstructure:"rawlog"`
	API       APIConfig       `mapstructure:"api"`
	QuestDB   QuestDBConfig   `mapstructure:"questdb"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type SourceConfig struct {
	Kind        string        `mapstructure:"kind"`
	Interface   string        `mapstructure:"interface"`
	Filters     []uint32      `mapstructure:"filters"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	IPAddr      string        `mapstructure:"ip_addr"`
	Port        uint16        `mapstructure:"port"`
}

type PipelineConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	MaxPending          int           `mapstructure:"max_pending"`
	UnmatchedCap        int           `mapstructure:"unmatched_cap"`
	DemoAtStart         bool          `mapstructure:"demo_at_start"`
	DemoInterval        time.Duration `mapstructure:"demo_interval"`
	DemoSeed            uint64        `mapstructure:"demo_seed"`
	DecodeErrorLogRate  float64       `mapstructure:"decode_error_log_rate"`
	DecodeErrorLogBurst int           `mapstructure:"decode_error_log_burst"`
}

type RawLogConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Dir           string        `mapstructure:"dir"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type QuestDBConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Address       string        `mapstructure:"address"`
	Table         string        `mapstructure:"table"`
	QueueSize     uint32        `mapstructure:"queue_size"`
	AutoFlushRows int           `mapstructure:"auto_flush_rows"`
	RetryTimeout  time.Duration `mapstructure:"retry_timeout"`
}

type TelemetryConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	TraceEndpoint  string        `mapstructure:"trace_endpoint"`
	MetricEndpoint string        `mapstructure:"metric_endpoint"`
	SampleRatio    float64       `mapstructure:"sample_ratio"`
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultMaxPending is the default cap of the frame relay.
const DefaultMaxPending = 262_144

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.path", "bms.dbc")

	srcCfg := source.NewDefaultConfig()
	v.SetDefault("source.kind", srcCfg.Kind)
	v.SetDefault("source.interface", srcCfg.Interface)
	v.SetDefault("source.filters", []uint32{})
	v.SetDefault("source.read_timeout", srcCfg.ReadTimeout)
	v.SetDefault("source.ip_addr", srcCfg.IPAddr)
	v.SetDefault("source.port", srcCfg.Port)

	pipeCfg := pipeline.NewDefaultConfig()
	v.SetDefault("pipeline.poll_interval", pipeCfg.PollInterval)
	v.SetDefault("pipeline.max_pending", DefaultMaxPending)
	v.SetDefault("pipeline.unmatched_cap", pipeCfg.UnmatchedCap)
	v.SetDefault("pipeline.demo_at_start", pipeCfg.DemoAtStart)
	v.SetDefault("pipeline.demo_interval", pipeCfg.Demo.Interval)
	v.SetDefault("pipeline.demo_seed", pipeCfg.Demo.Seed)
	v.SetDefault("pipeline.decode_error_log_rate", pipeCfg.DecodeErrorLogRate)
	v.SetDefault("pipeline.decode_error_log_burst", pipeCfg.DecodeErrorLogBurst)

	rawCfg := rawlog.NewDefaultConfig()
	v.SetDefault("rawlog.enabled", rawCfg.Enabled)
	v.SetDefault("rawlog.dir", rawCfg.Dir)
	v.SetDefault("rawlog.flush_interval", rawCfg.FlushInterval)

	apiCfg := api.NewDefaultConfig()
	v.SetDefault("api.enabled", apiCfg.Enabled)
	v.SetDefault("api.addr", apiCfg.Addr)

	qdbCfg := questdb.NewDefaultConfig()
	v.SetDefault("questdb.enabled", qdbCfg.Enabled)
	v.SetDefault("questdb.address", qdbCfg.Address)
	v.SetDefault("questdb.table", qdbCfg.Table)
	v.SetDefault("questdb.queue_size", qdbCfg.QueueSize)
	v.SetDefault("questdb.auto_flush_rows", qdbCfg.AutoFlushRows)
	v.SetDefault("questdb.retry_timeout", qdbCfg.RetryTimeout)

	telCfg := telemetry.NewDefaultConfig()
	v.SetDefault("telemetry.enabled", telCfg.Enabled)
	v.SetDefault("telemetry.service_name", telCfg.ServiceName)
	v.SetDefault("telemetry.trace_endpoint", telCfg.TraceEndpoint)
	v.SetDefault("telemetry.metric_endpoint", telCfg.MetricEndpoint)
	v.SetDefault("telemetry.sample_ratio", telCfg.SampleRatio)
	v.SetDefault("telemetry.metric_interval", telCfg.MetricInterval)

	v.SetDefault("log.level", "info")
}

// Load reads the configuration file at path, if not empty,
// and applies the environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SourceConfig() *source.Config {
	return &source.Config{
		Kind:        c.Source.Kind,
		Interface:   c.Source.Interface,
		Filters:     c.Source.Filters,
		ReadTimeout: c.Source.ReadTimeout,
		IPAddr:      c.Source.IPAddr,
		Port:        c.Source.Port,
	}
}

func (c *Config) PipelineConfig() *pipeline.Config {
	return &pipeline.Config{
		PollInterval: c.Pipeline.PollInterval,
		UnmatchedCap: c.Pipeline.UnmatchedCap,
		DemoAtStart:  c.Pipeline.DemoAtStart,
		Demo: &demo.Config{
			Interval: c.Pipeline.DemoInterval,
			Seed:     c.Pipeline.DemoSeed,
		},
		DecodeErrorLogRate:  c.Pipeline.DecodeErrorLogRate,
		DecodeErrorLogBurst: c.Pipeline.DecodeErrorLogBurst,
	}
}

func (c *Config) RawLogConfig() *rawlog.Config {
	return &rawlog.Config{
		Enabled:       c.RawLog.Enabled,
		Dir:           c.RawLog.Dir,
		FlushInterval: c.RawLog.FlushInterval,
	}
}

func (c *Config) APIConfig() *api.Config {
	return &api.Config{
		Enabled: c.API.Enabled,
		Addr:    c.API.Addr,
	}
}

func (c *Config) QuestDBConfig() *questdb.Config {
	return &questdb.Config{
		Enabled:       c.QuestDB.Enabled,
		Address:       c.QuestDB.Address,
		Table:         c.QuestDB.Table,
		QueueSize:     c.QuestDB.QueueSize,
		AutoFlushRows: c.QuestDB.AutoFlushRows,
		RetryTimeout:  c.QuestDB.RetryTimeout,
	}
}

func (c *Config) TelemetryConfig() *telemetry.Config {
	cfg := telemetry.NewDefaultConfig()

	cfg.Enabled = c.Telemetry.Enabled
	cfg.ServiceName = c.Telemetry.ServiceName
	cfg.TraceEndpoint = c.Telemetry.TraceEndpoint
	cfg.MetricEndpoint = c.Telemetry.MetricEndpoint
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.MetricInterval = c.Telemetry.MetricInterval

	return cfg
}
