package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"github.com/meko-christian/algo-approx"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

const (
	defaultLength    = 4096
	defaultAmplitude = 32767

	// floorDB bounds the level of empty bins.
	floorDB = -240.0

	cutoffDB = 3.0
)

var (
	// ErrLength is returned for a non-positive measurement length.
	ErrLength = errors.New("response: measurement length must be positive")

	// ErrAmplitude is returned for a non-positive impulse amplitude.
	ErrAmplitude = errors.New("response: impulse amplitude must be positive")
)

// Config holds measurement parameters.
type Config struct {
	Length    int   // samples recorded per channel, rounded up to whole frames
	Amplitude int16 // impulse height in Q15
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 4096-sample full-scale impulse measurement.
func DefaultConfig() Config {
	return Config{Length: defaultLength, Amplitude: defaultAmplitude}
}

// WithLength sets the number of recorded samples.
func WithLength(n int) Option {
	return func(cfg *Config) { cfg.Length = n }
}

// WithAmplitude sets the impulse height.
func WithAmplitude(a int16) Option {
	return func(cfg *Config) { cfg.Amplitude = a }
}

// ChannelResponse is the measured response of one channel.
type ChannelResponse struct {
	Channel     int       `json:"channel" yaml:"channel"`
	CenterHz    uint16    `json:"center_hz" yaml:"center_hz"`
	PeakHz      float64   `json:"peak_hz" yaml:"peak_hz"`
	PeakDB      float64   `json:"peak_db" yaml:"peak_db"`
	LowerHz     float64   `json:"lower_hz" yaml:"lower_hz"`
	UpperHz     float64   `json:"upper_hz" yaml:"upper_hz"`
	BandwidthHz float64   `json:"bandwidth_hz" yaml:"bandwidth_hz"`
	BinHz       float64   `json:"bin_hz" yaml:"bin_hz"`
	MagnitudeDB []float64 `json:"-" yaml:"-"`
}

// Q returns the measured quality factor PeakHz / BandwidthHz.
func (r ChannelResponse) Q() float64 {
	if r.BandwidthHz <= 0 {
		return 0
	}

	return r.PeakHz / r.BandwidthHz
}

// Measure runs an impulse through a fresh bank built from table and
// returns the response of every channel.
func Measure(table *resonator.Table, opts ...Option) ([]ChannelResponse, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.Length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLength, cfg.Length)
	}

	if cfg.Amplitude <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrAmplitude, cfg.Amplitude)
	}

	bank, err := resonator.New(resonator.WithTable(table))
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}

	frames := (cfg.Length + resonator.FrameSize - 1) / resonator.FrameSize
	length := frames * resonator.FrameSize
	fftSize := nextPowerOf2(length)

	// Impulse responses, zero-padded to the FFT size.
	ir := make([][]complex128, resonator.NumResonators)
	for ch := range ir {
		ir[ch] = make([]complex128, fftSize)
	}

	var frame resonator.Frame
	frame[0] = cfg.Amplitude

	for f := range frames {
		if err := bank.Process(frame[:]); err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}

		frame[0] = 0

		outs := bank.Outputs()
		for ch := range outs {
			for i, v := range outs[ch] {
				ir[ch][f*resonator.FrameSize+i] = complex(float64(v), 0)
			}
		}
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: failed to create FFT plan: %w", err)
	}

	sampleRate := float64(table.SampleRate)
	binHz := sampleRate / float64(fftSize)
	bins := fftSize/2 + 1

	spectrum := make([]complex128, fftSize)
	re := make([]float64, bins)
	im := make([]float64, bins)

	results := make([]ChannelResponse, resonator.NumResonators)

	for ch := range results {
		if err := plan.Forward(spectrum, ir[ch]); err != nil {
			return nil, fmt.Errorf("response: forward FFT failed: %w", err)
		}

		// Normalize by the impulse height so the result is the gain.
		scale := 1 / float64(cfg.Amplitude)
		for k := range bins {
			re[k] = real(spectrum[k]) * scale
			im[k] = imag(spectrum[k]) * scale
		}

		mag := make([]float64, bins)
		vecmath.Magnitude(mag, re, im)

		for k, m := range mag {
			mag[k] = toDB(m)
		}

		center := table.Channels[ch].CenterHz
		results[ch] = analyze(mag, binHz, float64(center))
		results[ch].Channel = ch
		results[ch].CenterHz = center
	}

	return results, nil
}

// analyze finds the peak and -3 dB edges of db within one octave of
// centerHz.
func analyze(db []float64, binHz, centerHz float64) ChannelResponse {
	maxBin := len(db) - 1
	lo := clampInt(int(math.Ceil(centerHz/2/binHz)), 1, maxBin)
	hi := clampInt(int(math.Floor(centerHz*2/binHz)), lo, maxBin)

	peak := lo
	for k := lo + 1; k <= hi; k++ {
		if db[k] > db[peak] {
			peak = k
		}
	}

	threshold := db[peak] - cutoffDB

	lower := float64(lo) * binHz
	for k := peak; k > lo; k-- {
		if db[k-1] < threshold {
			lower = crossing(db, k-1, threshold) * binHz
			break
		}
	}

	upper := float64(hi) * binHz
	for k := peak; k < hi; k++ {
		if db[k+1] < threshold {
			upper = crossing(db, k, threshold) * binHz
			break
		}
	}

	return ChannelResponse{
		PeakHz:      float64(peak) * binHz,
		PeakDB:      db[peak],
		LowerHz:     lower,
		UpperHz:     upper,
		BandwidthHz: upper - lower,
		BinHz:       binHz,
		MagnitudeDB: db,
	}
}

// crossing interpolates the fractional bin between k and k+1 where db
// passes threshold.
func crossing(db []float64, k int, threshold float64) float64 {
	d := db[k+1] - db[k]
	if d == 0 {
		return float64(k)
	}

	return float64(k) + (threshold-db[k])/d
}

func toDB(mag float64) float64 {
	if mag <= 0 {
		return floorDB
	}

	return math.Max(20*approx.FastLog(mag)/math.Ln10, floorDB)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
