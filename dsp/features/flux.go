package features

import (
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

// FluxTracker measures frame-to-frame change of the channel energies.
// The zero value is ready to use and starts from all-zero history.
type FluxTracker struct {
	prev [resonator.NumResonators]int16
	flux int16
}

// Update returns the mean absolute difference (truncating) between e and
// the energies passed to the previous call, then stores e as the new
// history. Every call overwrites the history.
func (f *FluxTracker) Update(e EnergyFeatures) int16 {
	var sum int32
	for ch, v := range e.Channel {
		sum += fixed.Abs32(int32(v) - int32(f.prev[ch]))
	}

	f.prev = e.Channel
	f.flux = int16(sum / resonator.NumResonators)

	return f.flux
}

// Previous returns the stored channel energies.
func (f *FluxTracker) Previous() [resonator.NumResonators]int16 {
	return f.prev
}

// Flux returns the value computed by the last Update.
func (f *FluxTracker) Flux() int16 {
	return f.flux
}

// Reset clears the history, as on stream restart.
func (f *FluxTracker) Reset() {
	*f = FluxTracker{}
}
