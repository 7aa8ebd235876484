// Package config loads guardian settings from flags, environment and a
// YAML file through viper, and reads coefficient tables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/viper"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/budget"
)

// EnvPrefix prefixes every environment variable, e.g. GUARDIAN_LOG_LEVEL.
const EnvPrefix = "GUARDIAN"

// ConfigName is the base name of the config file searched for.
const ConfigName = "guardian"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid setting")

// Output formats accepted by the CLI.
var OutputFormats = []string{"table", "json", "yaml", "csv"}

// Config is the complete application configuration.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Verbose  bool           `mapstructure:"verbose"`
	Output   string         `mapstructure:"output_format"`
	Table    string         `mapstructure:"table"`
	Frontend FrontendConfig `mapstructure:"frontend"`
	Budget   budget.Limits  `mapstructure:"budget"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// FrontendConfig selects the frontend channels.
type FrontendConfig struct {
	CoherenceChannel int    `mapstructure:"coherence_channel"`
	ZCRSource        string `mapstructure:"zcr_source"` // "raw" or a channel index
}

// ServerConfig configures the stream server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// MetricsConfig configures the DogStatsD client. An empty address
// disables metrics.
type MetricsConfig struct {
	StatsdAddr string   `mapstructure:"statsd_addr"`
	Tags       []string `mapstructure:"tags"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")
	v.SetDefault("table", "")

	v.SetDefault("frontend.coherence_channel", 0)
	v.SetDefault("frontend.zcr_source", "raw")

	limits := budget.DefaultLimits()
	v.SetDefault("budget.filter", limits.Filter)
	v.SetDefault("budget.features", limits.Features)
	v.SetDefault("budget.frame", limits.Frame)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("metrics.statsd_addr", "")
	v.SetDefault("metrics.tags", []string{})
}

// New returns a viper instance with defaults, environment binding and the
// config search path. configFile overrides the search.
func New(configFile string) *viper.Viper {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/guardian")
		v.AddConfigPath("/etc/guardian")
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	return v
}

// ReadInConfig reads the config file if one is found. A missing file is
// not an error unless it was named explicitly.
func ReadInConfig(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && !explicit {
		return nil
	}

	return fmt.Errorf("config: reading config file: %w", err)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings and channel selections.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("%w: output format %q (want one of %s)",
			ErrInvalid, c.Output, strings.Join(OutputFormats, ", "))
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Frontend.CoherenceChannel < 0 || c.Frontend.CoherenceChannel >= resonator.NumResonators {
		return fmt.Errorf("%w: coherence channel %d", ErrInvalid, c.Frontend.CoherenceChannel)
	}

	if _, err := c.Frontend.zcrSource(); err != nil {
		return err
	}

	return nil
}

func (f FrontendConfig) zcrSource() (int, error) {
	s := strings.TrimSpace(strings.ToLower(f.ZCRSource))
	if s == "" || s == "raw" {
		return frontend.RawInput, nil
	}

	var ch int
	if _, err := fmt.Sscanf(s, "%d", &ch); err != nil || ch < 0 || ch >= resonator.NumResonators {
		return 0, fmt.Errorf("%w: zcr source %q (want raw or 0..%d)",
			ErrInvalid, f.ZCRSource, resonator.NumResonators-1)
	}

	return ch, nil
}

// FrontendOptions converts the frontend settings and table into options.
func (c *Config) FrontendOptions(table *resonator.Table) ([]frontend.Option, error) {
	src, err := c.Frontend.zcrSource()
	if err != nil {
		return nil, err
	}

	return []frontend.Option{
		frontend.WithTable(table),
		frontend.WithCoherenceChannel(c.Frontend.CoherenceChannel),
		frontend.WithZCRSource(src),
	}, nil
}

// ApplyLogLevel sets the global log level. verbose forces debug.
func (c *Config) ApplyLogLevel() error {
	level := c.LogLevel
	if c.Verbose {
		level = "debug"
	}

	name, err := parseLevel(level)
	if err != nil {
		return err
	}

	switch name {
	case "debug":
		logging.SetLevel(logging.DebugLevel)
	case "warn":
		logging.SetLevel(logging.WarnLevel)
	case "error":
		logging.SetLevel(logging.ErrorLevel)
	default:
		logging.SetLevel(logging.InfoLevel)
	}

	return nil
}

func parseLevel(s string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(s)); l {
	case "debug", "info", "error":
		return l, nil
	case "warn", "warning":
		return "warn", nil
	case "":
		return "info", nil
	default:
		return "", fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
}
