package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/cobra"

	"github.com/cwbudde/guardian-dsp/dsp/frontend"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/pcm"
)

var vectorColumns = []string{
	"frame",
	"energy_0", "energy_1", "energy_2", "energy_3", "energy_total",
	"corr_01", "corr_12", "corr_23", "corr_max",
	"coherence", "lag", "zcr", "flux",
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		sampleRate int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "extract <file|->",
		Short: "Extract per-frame feature vectors from a PCM16 or WAV file",
		Long: `Extract reads mono PCM16 audio, either a WAV file or headerless little-endian
samples, splits it into 320-sample frames and prints one feature vector per
frame. The last partial frame is zero-padded. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, args[0], sampleRate, limit)
		},
	}

	cmd.Flags().IntVar(&sampleRate, "sample-rate", 16000, "sample rate of headerless input")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many frames (0 reads everything)")
	cmd.Flags().Int("coherence-channel", 0, "channel whose output feeds the coherence search")
	cmd.Flags().String("zcr-source", "raw", "zero-crossing input: raw or a channel index")

	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, path string, sampleRate, limit int) error {
	in, closeIn, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn()

	rd, err := pcm.NewReader(in, pcm.WithRawSampleRate(sampleRate))
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer rd.Close()

	format := rd.Format()
	if uint32(format.SampleRate) != a.table.SampleRate {
		a.logger.Warn("Input sample rate differs from the coefficient table", logging.Fields{
			"input_hz": format.SampleRate,
			"table_hz": a.table.SampleRate,
		})
	}

	fe, err := a.newFrontend()
	if err != nil {
		return err
	}

	vectors, err := extractVectors(rd, fe, limit)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	a.logger.Debug("Extraction complete", logging.Fields{
		"path":   path,
		"wav":    format.WAV,
		"frames": len(vectors),
		"kernel": resonator.KernelName(),
	})

	rows := make([][]string, len(vectors))
	for i, v := range vectors {
		rows[i] = vectorRow(v)
	}

	return writeReport(cmd.OutOrStdout(), a.cfg.Output, report{
		Columns: vectorColumns,
		Rows:    rows,
		Value:   vectors,
	})
}

// extractVectors runs every frame of rd through fe. limit > 0 caps the
// number of frames.
func extractVectors(rd *pcm.Reader, fe *frontend.Frontend, limit int) ([]frontend.Vector, error) {
	var (
		frame   resonator.Frame
		vectors []frontend.Vector
	)

	for limit <= 0 || len(vectors) < limit {
		err := rd.ReadFrame(&frame)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		v, err := fe.Process(frame[:])
		if err != nil {
			return nil, err
		}

		vectors = append(vectors, v)
	}

	return vectors, nil
}

func vectorRow(v frontend.Vector) []string {
	return []string{
		itoa(v.Frame),
		itoa(v.Energy.Channel[0]), itoa(v.Energy.Channel[1]),
		itoa(v.Energy.Channel[2]), itoa(v.Energy.Channel[3]),
		itoa(v.Energy.Total),
		itoa(v.Correlation.Corr01), itoa(v.Correlation.Corr12),
		itoa(v.Correlation.Corr23), itoa(v.Correlation.Max),
		itoa(v.Coherence.Peak), itoa(v.Coherence.Lag),
		itoa(v.ZCR), itoa(v.Flux),
	}
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { f.Close() }, nil
}
