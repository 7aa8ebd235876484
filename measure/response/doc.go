// Package response measures the frequency response of a fixed-point
// resonator bank.
//
// A Q15 impulse is run through a fresh bank for a whole number of frames
// and the output of every channel is transformed with an FFT. Each channel
// reports its peak frequency and gain and its -3 dB band edges.
//
// The measurement observes the bank exactly as it runs, so coefficient
// quantization and rounding effects show up in the result. Channels with
// poles close to z = 1 settle into a small zero-input limit cycle; the peak
// search is therefore restricted to one octave either side of the nominal
// center frequency.
package response
