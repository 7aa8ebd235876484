package features

import (
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

// EnergyFeatures holds the RMS of every channel and their arithmetic mean.
type EnergyFeatures struct {
	Channel [resonator.NumResonators]int16 `json:"channel" yaml:"channel"`
	Total   int16                          `json:"total" yaml:"total"`
}

// Energy returns the per-channel RMS of outs and their mean. Total is the
// mean of the channel values (truncating), not an RMS of RMS values.
func Energy(outs *resonator.Outputs) EnergyFeatures {
	var e EnergyFeatures

	var sum int32
	for ch := range outs {
		e.Channel[ch] = fixed.RMS(outs[ch][:])
		sum += int32(e.Channel[ch])
	}

	e.Total = int16(sum / resonator.NumResonators)

	return e
}
