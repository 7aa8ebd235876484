package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/guardian-dsp/measure/response"
)

func newResponseCmd(a *app) *cobra.Command {
	var (
		length    int
		amplitude int16
	)

	cmd := &cobra.Command{
		Use:   "response",
		Short: "Measure the frequency response of each resonator",
		Long: `Response drives an impulse through a fresh bank, transforms each channel's
output and reports its peak frequency, peak gain and -3 dB bandwidth.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := response.Measure(a.table,
				response.WithLength(length),
				response.WithAmplitude(amplitude),
			)
			if err != nil {
				return err
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{
					itoa(r.Channel),
					itoa(r.CenterHz),
					ftoa(r.PeakHz, 1),
					ftoa(r.PeakDB, 2),
					ftoa(r.LowerHz, 1),
					ftoa(r.UpperHz, 1),
					ftoa(r.BandwidthHz, 1),
					ftoa(r.Q(), 2),
				}
			}

			return writeReport(cmd.OutOrStdout(), a.cfg.Output, report{
				Columns: []string{"channel", "center_hz", "peak_hz", "peak_db",
					"lower_hz", "upper_hz", "bandwidth_hz", "q"},
				Rows:  rows,
				Value: results,
			})
		},
	}

	defaults := response.DefaultConfig()
	cmd.Flags().IntVar(&length, "length", defaults.Length, "recorded samples per channel")
	cmd.Flags().Int16Var(&amplitude, "amplitude", defaults.Amplitude, "impulse height in Q15")

	return cmd
}
