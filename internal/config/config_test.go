package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

func TestLoad_Defaults(t *testing.T) {
	v := New("")
	require.NoError(t, ReadInConfig(v, false))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "raw", cfg.Frontend.ZCRSource)
	assert.Equal(t, 5*time.Millisecond, cfg.Budget.Filter)
	assert.Equal(t, 2*time.Millisecond, cfg.Budget.Features)
	assert.Equal(t, 20*time.Millisecond, cfg.Budget.Frame)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Empty(t, cfg.Metrics.StatsdAddr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
output_format: json
frontend:
  coherence_channel: 2
  zcr_source: 3
budget:
  filter: 3ms
server:
  addr: 127.0.0.1:9000
metrics:
  statsd_addr: 127.0.0.1:8125
  tags: [env:test]
`), 0o600))

	v := New(path)
	require.NoError(t, ReadInConfig(v, true))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 2, cfg.Frontend.CoherenceChannel)
	assert.Equal(t, "3", cfg.Frontend.ZCRSource)
	assert.Equal(t, 3*time.Millisecond, cfg.Budget.Filter)
	assert.Equal(t, 2*time.Millisecond, cfg.Budget.Features)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"env:test"}, cfg.Metrics.Tags)

	opts, err := cfg.FrontendOptions(resonator.DefaultTable())
	require.NoError(t, err)

	fe, err := frontend.New(opts...)
	require.NoError(t, err)
	assert.Equal(t, 3, fe.Config().ZCRSource)
	assert.Equal(t, 2, fe.Config().CoherenceChannel)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GUARDIAN_OUTPUT_FORMAT", "csv")
	t.Setenv("GUARDIAN_BUDGET_FRAME", "15ms")

	v := New("")
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Output)
	assert.Equal(t, 15*time.Millisecond, cfg.Budget.Frame)
}

func TestReadInConfig_MissingExplicitFile(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, ReadInConfig(v, true))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{LogLevel: "info", Output: "table", Frontend: FrontendConfig{ZCRSource: "raw"}}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"output", func(c *Config) { c.Output = "xml" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"coherence channel", func(c *Config) { c.Frontend.CoherenceChannel = 4 }},
		{"zcr source", func(c *Config) { c.Frontend.ZCRSource = "left" }},
		{"zcr channel", func(c *Config) { c.Frontend.ZCRSource = "9" }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_OutputFormats(t *testing.T) {
	for _, format := range OutputFormats {
		cfg := Config{LogLevel: "info", Output: format, Frontend: FrontendConfig{ZCRSource: "raw"}}
		assert.NoError(t, cfg.Validate(), format)
	}

	cfg := Config{LogLevel: "info", Output: "TABLE", Frontend: FrontendConfig{ZCRSource: "raw"}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid, "formats are matched exactly")
}

func TestApplyLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warning", "error", ""} {
		cfg := Config{LogLevel: level}
		assert.NoError(t, cfg.ApplyLogLevel(), level)
	}

	cfg := Config{LogLevel: "info", Verbose: true}
	assert.NoError(t, cfg.ApplyLogLevel())

	cfg = Config{LogLevel: "trace"}
	assert.ErrorIs(t, cfg.ApplyLogLevel(), ErrInvalid)

	cfg = Config{LogLevel: "info"}
	require.NoError(t, cfg.ApplyLogLevel())
}
