package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/cobra"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/budget"
	"github.com/cwbudde/guardian-dsp/internal/pcm"
)

// errBudget is returned when any frame overran its budget.
var errBudget = errors.New("frame budget exceeded")

// benchResult is the report of one bench run.
type benchResult struct {
	Kernel string       `json:"kernel" yaml:"kernel"`
	Frames uint64       `json:"frames" yaml:"frames"`
	Stages []stageStats `json:"stages" yaml:"stages"`
	Pass   bool         `json:"pass" yaml:"pass"`
}

type stageStats struct {
	Stage    string        `json:"stage" yaml:"stage"`
	Limit    time.Duration `json:"limit_ns" yaml:"limit_ns"`
	Mean     time.Duration `json:"mean_ns" yaml:"mean_ns"`
	Max      time.Duration `json:"max_ns" yaml:"max_ns"`
	Overruns uint64        `json:"overruns" yaml:"overruns"`
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		frames int
		input  string
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the frame pipeline against the real-time budget",
		Long: `Bench runs frames through the frontend and times the filter and feature
stages of each one against the configured budget. Input is seeded noise
unless --input names a PCM16 or WAV file, which is looped as needed.
The command fails when any frame overran.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBench(cmd, frames, input, seed)
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 500, "number of frames to time")
	cmd.Flags().StringVarP(&input, "input", "i", "", "PCM16 or WAV file to use instead of noise")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed of the synthetic noise")
	cmd.Flags().String("statsd", "", "DogStatsD address for timing metrics")

	return cmd
}

func (a *app) runBench(cmd *cobra.Command, frames int, input string, seed int64) error {
	if frames <= 0 {
		return fmt.Errorf("--frames must be positive, got %d", frames)
	}

	signal, err := benchSignal(input, seed)
	if err != nil {
		return err
	}

	metrics, err := budget.NewStatsd(a.cfg.Metrics.StatsdAddr, a.cfg.Metrics.Tags...)
	if err != nil {
		return err
	}
	defer metrics.Close()

	sup := budget.New(
		budget.WithLimits(a.cfg.Budget),
		budget.WithMetrics(metrics),
		budget.WithLogger(a.logger),
		budget.WithTags("command:bench"),
	)

	fe, err := a.newFrontend()
	if err != nil {
		return err
	}

	a.logger.Debug("Starting bench", logging.Fields{
		"frames": frames,
		"kernel": resonator.KernelName(),
		"input":  input,
	})

	for i := range frames {
		off := (i % (len(signal) / resonator.FrameSize)) * resonator.FrameSize
		if _, _, err := sup.Run(fe, signal[off:off+resonator.FrameSize]); err != nil {
			return err
		}
	}

	res := summarize(sup.Stats(), sup.Limits())

	verdict := "PASS"
	if !res.Pass {
		verdict = "FAIL"
	}

	err = writeReport(cmd.OutOrStdout(), a.cfg.Output, report{
		Columns: []string{"stage", "limit", "mean", "max", "overruns"},
		Rows:    res.rows(),
		Value:   res,
		Footer:  fmt.Sprintf("%s: %d frames, kernel %s", verdict, res.Frames, res.Kernel),
	})
	if err != nil {
		return err
	}

	if !res.Pass {
		return errBudget
	}

	return nil
}

func summarize(st budget.Stats, limits budget.Limits) benchResult {
	return benchResult{
		Kernel: resonator.KernelName(),
		Frames: st.Frames,
		Pass:   st.Pass(),
		Stages: []stageStats{
			{Stage: "filter", Limit: limits.Filter, Mean: st.MeanFilter(), Max: st.MaxFilter, Overruns: st.FilterOverruns},
			{Stage: "features", Limit: limits.Features, Mean: st.MeanFeatures(), Max: st.MaxFeatures, Overruns: st.FeatureOverruns},
			{Stage: "frame", Limit: limits.Frame, Mean: st.MeanFrame(), Max: st.MaxFrame, Overruns: st.FrameOverruns},
		},
	}
}

func (r benchResult) rows() [][]string {
	rows := make([][]string, len(r.Stages))
	for i, s := range r.Stages {
		rows[i] = []string{s.Stage, s.Limit.String(), s.Mean.String(), s.Max.String(), itoa(s.Overruns)}
	}

	return rows
}

// benchSignal returns whole frames of input, or ten frames of noise.
func benchSignal(input string, seed int64) ([]int16, error) {
	if input == "" {
		return benchNoise(seed, 16000, 10*resonator.FrameSize), nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := readAllFrames(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}

	return samples, nil
}

func readAllFrames(r io.Reader) ([]int16, error) {
	rd, err := pcm.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	var (
		frame   resonator.Frame
		samples []int16
	)

	for {
		err := rd.ReadFrame(&frame)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		samples = append(samples, frame[:]...)
	}

	if len(samples) == 0 {
		return nil, errors.New("no audio frames in input")
	}

	return samples, nil
}

// benchNoise returns length samples of seeded uniform noise in
// [-amplitude, amplitude].
func benchNoise(seed int64, amplitude int16, length int) []int16 {
	out := make([]int16, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = int16((rng.Float64()*2 - 1) * float64(amplitude))
	}

	return out
}
