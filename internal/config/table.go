package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

// tableFile is the YAML layout of a coefficient table.
type tableFile struct {
	SampleRate uint32        `yaml:"sample_rate"`
	Q          float64       `yaml:"q,omitempty"`
	Channels   []channelFile `yaml:"channels"`
}

type channelFile struct {
	CenterHz  uint16 `yaml:"center_hz"`
	B0        int16  `yaml:"b0"`
	B1        int16  `yaml:"b1"`
	B2        int16  `yaml:"b2"`
	A1        int16  `yaml:"a1"`
	A2        int16  `yaml:"a2"`
	PostShift uint8  `yaml:"post_shift"`
}

// LoadTable reads and validates a YAML coefficient table. An empty path
// returns the built-in table.
func LoadTable(path string) (*resonator.Table, error) {
	if path == "" {
		return resonator.DefaultTable(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to open coefficient table: %w", err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}

// ReadTable decodes a YAML coefficient table from r and validates it.
func ReadTable(r io.Reader) (*resonator.Table, error) {
	var tf tableFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("config: failed to parse coefficient table: %w", err)
	}

	if len(tf.Channels) != resonator.NumResonators {
		return nil, fmt.Errorf("config: %w: %d channels, want %d",
			resonator.ErrInvalidTable, len(tf.Channels), resonator.NumResonators)
	}

	t := &resonator.Table{SampleRate: tf.SampleRate, Q: tf.Q}
	for i, c := range tf.Channels {
		t.Channels[i] = resonator.Channel{
			CenterHz: c.CenterHz,
			Coefficients: resonator.Coefficients{
				B0: c.B0, B1: c.B1, B2: c.B2,
				A1: c.A1, A2: c.A2,
				PostShift: c.PostShift,
			},
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return t, nil
}

// ExportTable writes t as YAML in the layout ReadTable accepts.
func ExportTable(w io.Writer, t *resonator.Table) error {
	tf := tableFile{SampleRate: t.SampleRate, Q: t.Q}
	for _, ch := range t.Channels {
		c := ch.Coefficients
		tf.Channels = append(tf.Channels, channelFile{
			CenterHz:  ch.CenterHz,
			B0:        c.B0,
			B1:        c.B1,
			B2:        c.B2,
			A1:        c.A1,
			A2:        c.A2,
			PostShift: c.PostShift,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(&tf); err != nil {
		return fmt.Errorf("config: failed to encode coefficient table: %w", err)
	}

	return enc.Close()
}
