package main

import (
	"fmt"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/config"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configFile string

	v      *viper.Viper
	cfg    *config.Config
	table  *resonator.Table
	logger logging.Logger
}

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"verbose":           "verbose",
	"log-level":         "log_level",
	"output":            "output_format",
	"table":             "table",
	"coherence-channel": "frontend.coherence_channel",
	"zcr-source":        "frontend.zcr_source",
	"addr":              "server.addr",
	"statsd":            "metrics.statsd_addr",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "guardian",
		Short: "Fixed-point resonator frontend for speech/noise features",
		Long: `guardian runs a bank of four Q15 band-pass resonators over 20 ms frames
of 16 kHz audio and extracts per-frame features: band energy, cross-band
correlation, autocorrelation coherence, zero-crossing rate and energy flux.

Commands:
- extract: feature vectors of a PCM16 or WAV file
- response: measured frequency response of the bank
- bench: per-frame timing against the real-time budget
- serve: WebSocket stream server
- coefs: print or export the coefficient table`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "",
		"config file (default is ./guardian.yaml or $HOME/.config/guardian/guardian.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringP("output", "o", "table", "output format (table, json, yaml, csv)")
	flags.String("table", "", "coefficient table YAML file (default is the built-in table)")

	root.AddCommand(
		newExtractCmd(a),
		newResponseCmd(a),
		newBenchCmd(a),
		newServeCmd(a),
		newCoefsCmd(a),
	)

	return root
}

// initialize loads configuration after flags are parsed. Flags override
// the environment, which overrides the config file.
func (a *app) initialize(cmd *cobra.Command) error {
	a.v = config.New(a.configFile)

	if err := config.ReadInConfig(a.v, a.configFile != ""); err != nil {
		return err
	}

	if err := bindFlags(cmd, a.v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	if err := cfg.ApplyLogLevel(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewDefaultLogger().WithFields(logging.Fields{
		"command": cmd.Name(),
	})

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("Using config file", logging.Fields{"path": used})
	}

	table, err := config.LoadTable(cfg.Table)
	if err != nil {
		return err
	}

	a.table = table

	return nil
}

// bindFlags binds the flags of cmd that override a config key.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}

		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func (a *app) newFrontend() (*frontend.Frontend, error) {
	opts, err := a.cfg.FrontendOptions(a.table)
	if err != nil {
		return nil, err
	}

	return frontend.New(opts...)
}
