// Package features computes per-frame Q15 feature records from the output of
// a resonator bank.
//
// Energy, Correlation, Coherence and ZCR are pure functions of the current
// frame. FluxTracker is the only stateful extractor: it retains the previous
// frame's channel energies and must be owned by a single stream.
//
// Fixed-point conventions (see package fixed):
//
//   - Samples and coefficients are Q15.
//   - Products are formed in 64 bits and rescaled by an arithmetic shift of
//     15 immediately after each multiply.
//   - Divisions truncate toward zero.
//
// Nothing in this package allocates.
package features
