package resonator

import "fmt"

const (
	// FrameSize is the number of samples in one frame (20 ms at 16 kHz).
	FrameSize = 320

	// NumResonators is the number of channels in a bank.
	NumResonators = 4

	// maxPostShift keeps the output shift (15 - PostShift) at least 1 so
	// the rounding offset is defined.
	maxPostShift = 14
)

// Coefficients holds one second-order section in Direct Form I.
// a0 is normalized to 1 and not stored. The real value of each coefficient
// is v * 2^PostShift / 32768, so PostShift buys headroom for feedback
// coefficients with magnitude >= 1 (PostShift 1 stores them in Q14).
//
//	y = B0*x + B1*x1 + B2*x2 - A1*y1 - A2*y2
type Coefficients struct {
	B0, B1, B2 int16 // feedforward (numerator)
	A1, A2     int16 // feedback (denominator)
	PostShift  uint8
}

// Float returns the real-valued coefficients {b0, b1, b2, a1, a2}.
func (c Coefficients) Float() [5]float64 {
	scale := float64(int(1)<<c.PostShift) / 32768

	return [5]float64{
		float64(c.B0) * scale,
		float64(c.B1) * scale,
		float64(c.B2) * scale,
		float64(c.A1) * scale,
		float64(c.A2) * scale,
	}
}

// Channel binds a coefficient set to its nominal center frequency.
type Channel struct {
	CenterHz     uint16
	Coefficients Coefficients
}

// Table is the constant coefficient table a bank is built from.
type Table struct {
	SampleRate uint32  // sample rate the table was designed for, Hz
	Q          float64 // design quality factor (informational)
	Channels   [NumResonators]Channel
}

// defaultTable holds iirpeak(fc, Q=8, fs=16000) designs quantized to Q14
// with PostShift 1.
var defaultTable = Table{
	SampleRate: 16000,
	Q:          8,
	Channels: [NumResonators]Channel{
		{CenterHz: 300, Coefficients: Coefficients{B0: 120, B1: 0, B2: -120, A1: -32303, A2: 16144, PostShift: 1}},
		{CenterHz: 800, Coefficients: Coefficients{B0: 316, B1: 0, B2: -316, A1: -30564, A2: 15753, PostShift: 1}},
		{CenterHz: 1500, Coefficients: Coefficients{B0: 582, B1: 0, B2: -582, A1: -26278, A2: 15220, PostShift: 1}},
		{CenterHz: 2500, Coefficients: Coefficients{B0: 948, B1: 0, B2: -948, A1: -17151, A2: 14487, PostShift: 1}},
	},
}

// DefaultTable returns a copy of the built-in coefficient table.
func DefaultTable() *Table {
	t := defaultTable
	return &t
}

// CenterFreq returns the nominal center frequency of channel ch in Hz.
func (t *Table) CenterFreq(ch int) (uint16, error) {
	if ch < 0 || ch >= NumResonators {
		return 0, fmt.Errorf("%w: %d", ErrChannel, ch)
	}

	return t.Channels[ch].CenterHz, nil
}

// Validate checks that every channel is usable: post-shift in range,
// center frequency below Nyquist and poles inside the unit circle
// (|a2| < 1 and |a1| < 1 + a2).
func (t *Table) Validate() error {
	if t.SampleRate == 0 {
		return fmt.Errorf("%w: sample rate is zero", ErrInvalidTable)
	}

	for ch := range t.Channels {
		c := t.Channels[ch]
		if c.Coefficients.PostShift > maxPostShift {
			return fmt.Errorf("%w: channel %d post-shift %d exceeds %d",
				ErrInvalidTable, ch, c.Coefficients.PostShift, maxPostShift)
		}

		if c.CenterHz == 0 || uint32(c.CenterHz)*2 >= t.SampleRate {
			return fmt.Errorf("%w: channel %d center %d Hz outside (0, %d)",
				ErrInvalidTable, ch, c.CenterHz, t.SampleRate/2)
		}

		unity := int32(1) << (15 - c.Coefficients.PostShift)
		a1 := int32(c.Coefficients.A1)
		a2 := int32(c.Coefficients.A2)

		if a1 < 0 {
			a1 = -a1
		}

		if a2 >= unity || a2 <= -unity || a1 >= unity+a2 {
			return fmt.Errorf("%w: channel %d poles on or outside the unit circle (a1=%d a2=%d)",
				ErrInvalidTable, ch, c.Coefficients.A1, c.Coefficients.A2)
		}
	}

	return nil
}
