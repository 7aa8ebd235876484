package testutil

import (
	"math"
	"math/rand"
)

// ToQ15 converts a real value in [-1, 1) to Q15, rounding half away from
// zero and saturating.
func ToQ15(v float64) int16 {
	q := math.Round(v * 32768)
	if q > 32767 {
		return 32767
	}

	if q < -32768 {
		return -32768
	}

	return int16(q)
}

// Sine generates a deterministic Q15 sine wave. offset shifts the phase by
// whole samples so consecutive frames of one tone can be generated
// independently.
func Sine(freqHz, sampleRate float64, amplitude int16, offset, length int) []int16 {
	out := make([]int16, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = int16(math.Round(float64(amplitude) * math.Sin(step*float64(offset+i))))
	}
	return out
}

// Noise generates Q15 white noise with a fixed seed for reproducibility.
func Noise(seed int64, amplitude int16, length int) []int16 {
	out := make([]int16, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = int16((rng.Float64()*2 - 1) * float64(amplitude))
	}
	return out
}

// Impulse generates an impulse of the given height at pos.
func Impulse(length, pos int, height int16) []int16 {
	out := make([]int16, length)
	if pos >= 0 && pos < length {
		out[pos] = height
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value int16, length int) []int16 {
	out := make([]int16, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ramp generates start, start+step, ... saturating at the int16 limits.
func Ramp(start, step int32, length int) []int16 {
	out := make([]int16, length)
	v := start
	for i := range out {
		switch {
		case v > 32767:
			out[i] = 32767
		case v < -32768:
			out[i] = -32768
		default:
			out[i] = int16(v)
		}
		v += step
	}
	return out
}

// Periodic repeats one period of a Q15 waveform until length samples.
func Periodic(period []int16, length int) []int16 {
	out := make([]int16, length)
	if len(period) == 0 {
		return out
	}
	for i := range out {
		out[i] = period[i%len(period)]
	}
	return out
}
