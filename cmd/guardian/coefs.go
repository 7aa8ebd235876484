package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/config"
)

// coefsChannel is the json form of one table row.
type coefsChannel struct {
	Channel   int       `json:"channel"`
	CenterHz  uint16    `json:"center_hz"`
	B0        int16     `json:"b0"`
	B1        int16     `json:"b1"`
	B2        int16     `json:"b2"`
	A1        int16     `json:"a1"`
	A2        int16     `json:"a2"`
	PostShift uint8     `json:"post_shift"`
	Float     []float64 `json:"float"`
}

func newCoefsCmd(a *app) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "coefs",
		Short: "Print or export the coefficient table",
		Long: `Coefs prints the active coefficient table, the built-in one unless --table
names a file. With --export the table is written as YAML suitable for
--table, using - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if export != "" {
				return exportTable(cmd, export, a.table)
			}

			if a.cfg.Output == "yaml" {
				return config.ExportTable(cmd.OutOrStdout(), a.table)
			}

			channels := make([]coefsChannel, resonator.NumResonators)
			rows := make([][]string, resonator.NumResonators)

			for i, ch := range a.table.Channels {
				c := ch.Coefficients
				f := c.Float()
				channels[i] = coefsChannel{
					Channel: i, CenterHz: ch.CenterHz,
					B0: c.B0, B1: c.B1, B2: c.B2, A1: c.A1, A2: c.A2,
					PostShift: c.PostShift,
					Float:     f[:],
				}
				rows[i] = []string{
					itoa(i), itoa(ch.CenterHz),
					itoa(c.B0), itoa(c.B1), itoa(c.B2), itoa(c.A1), itoa(c.A2),
					itoa(c.PostShift),
				}
			}

			return writeReport(cmd.OutOrStdout(), a.cfg.Output, report{
				Columns: []string{"channel", "center_hz", "b0", "b1", "b2", "a1", "a2", "post_shift"},
				Rows:    rows,
				Value:   channels,
				Footer:  fmt.Sprintf("sample rate %d Hz, design Q %g", a.table.SampleRate, a.table.Q),
			})
		},
	}

	cmd.Flags().StringVar(&export, "export", "", "write the table as YAML to this file")

	return cmd
}

func exportTable(cmd *cobra.Command, path string, t *resonator.Table) error {
	if path == "-" {
		return config.ExportTable(cmd.OutOrStdout(), t)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := config.ExportTable(f, t); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
