package frontend

import (
	"errors"
	"fmt"

	"github.com/cwbudde/guardian-dsp/dsp/features"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

// ErrNoFrame is returned by Extract when no frame has been filtered since
// the last extraction.
var ErrNoFrame = errors.New("frontend: no filtered frame pending")

// RawInput selects the unfiltered input frame as ZCR source.
const RawInput = -1

// Vector is the feature record of one frame.
type Vector struct {
	Frame       uint64                       `json:"frame" yaml:"frame"`
	Energy      features.EnergyFeatures      `json:"energy" yaml:"energy"`
	Correlation features.CorrelationFeatures `json:"correlation" yaml:"correlation"`
	Coherence   features.CoherenceFeatures   `json:"coherence" yaml:"coherence"`
	ZCR         uint16                       `json:"zcr" yaml:"zcr"`
	Flux        int16                        `json:"flux" yaml:"flux"`
}

// Config holds the frontend settings.
type Config struct {
	Table            *resonator.Table
	CoherenceChannel int
	ZCRSource        int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the default table, coherence on channel 0 and ZCR
// on the raw input.
func DefaultConfig() Config {
	return Config{
		Table:            resonator.DefaultTable(),
		CoherenceChannel: 0,
		ZCRSource:        RawInput,
	}
}

// WithTable sets the coefficient table.
func WithTable(t *resonator.Table) Option {
	return func(cfg *Config) { cfg.Table = t }
}

// WithCoherenceChannel selects the channel scanned for periodicity.
func WithCoherenceChannel(ch int) Option {
	return func(cfg *Config) { cfg.CoherenceChannel = ch }
}

// WithZCRSource selects the signal zero crossings are counted on: RawInput
// or a channel index.
func WithZCRSource(src int) Option {
	return func(cfg *Config) { cfg.ZCRSource = src }
}

// Frontend is the pipeline state of one stream.
type Frontend struct {
	cfg  Config
	bank *resonator.Bank
	flux features.FluxTracker

	raw     resonator.Frame
	pending bool
	frames  uint64
}

// New builds a frontend. Channel selections outside [0, NumResonators)
// yield resonator.ErrChannel; table errors from the bank are returned
// unchanged.
func New(opts ...Option) (*Frontend, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.CoherenceChannel < 0 || cfg.CoherenceChannel >= resonator.NumResonators {
		return nil, fmt.Errorf("frontend: coherence %w: %d", resonator.ErrChannel, cfg.CoherenceChannel)
	}

	if cfg.ZCRSource != RawInput && (cfg.ZCRSource < 0 || cfg.ZCRSource >= resonator.NumResonators) {
		return nil, fmt.Errorf("frontend: zcr %w: %d", resonator.ErrChannel, cfg.ZCRSource)
	}

	bank, err := resonator.New(resonator.WithTable(cfg.Table))
	if err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}

	return &Frontend{cfg: cfg, bank: bank}, nil
}

// Process filters frame and extracts its feature vector.
func (f *Frontend) Process(frame []int16) (Vector, error) {
	if err := f.Filter(frame); err != nil {
		return Vector{}, err
	}

	return f.Extract()
}

// Filter runs frame through the bank. It is the first half of Process,
// exposed so the two stages can be timed separately.
func (f *Frontend) Filter(frame []int16) error {
	if err := f.bank.Process(frame); err != nil {
		return fmt.Errorf("frontend: %w", err)
	}

	copy(f.raw[:], frame)
	f.pending = true

	return nil
}

// Extract computes the features of the frame passed to the last Filter
// and advances the flux history and frame counter.
func (f *Frontend) Extract() (Vector, error) {
	if !f.pending {
		return Vector{}, ErrNoFrame
	}

	outs := f.bank.Outputs()

	v := Vector{
		Frame:       f.frames,
		Energy:      features.Energy(&outs),
		Correlation: features.Correlation(&outs),
		Coherence:   features.Coherence(outs[f.cfg.CoherenceChannel][:]),
	}

	if f.cfg.ZCRSource == RawInput {
		v.ZCR = features.ZCR(f.raw[:])
	} else {
		v.ZCR = features.ZCR(outs[f.cfg.ZCRSource][:])
	}

	v.Flux = f.flux.Update(v.Energy)

	f.pending = false
	f.frames++

	return v, nil
}

// Reset restarts the stream: bank state, flux history and frame counter.
func (f *Frontend) Reset() {
	f.bank.Reset()
	f.flux.Reset()
	f.raw = resonator.Frame{}
	f.pending = false
	f.frames = 0
}

// Frames returns the number of frames extracted since the last reset.
func (f *Frontend) Frames() uint64 {
	return f.frames
}

// Bank returns the underlying resonator bank.
func (f *Frontend) Bank() *resonator.Bank {
	return f.bank
}

// Config returns the settings the frontend was built with.
func (f *Frontend) Config() Config {
	return f.cfg
}
