// Package fixed provides portable Q15 fixed-point arithmetic primitives.
//
// Every operation documents its intermediate bit width and rounding rule so
// results are reproducible on any platform:
//
//   - Sample values are Q15: an int16 v represents v/32768, range [-1, 1).
//   - Products of two Q15 values are formed in 32 bits (Q30). Sums of
//     products use a 64-bit accumulator and cannot overflow for any frame
//     length below 2^33 samples.
//   - Narrowing conversions saturate ([Sat16Wide], [Sat32]); they never
//     wrap.
//   - Rescaling shifts round half up ([RoundShift64]): add 2^(s-1), then
//     shift arithmetically. Plain >> (floor) is used only where a caller
//     documents it.
//   - Square roots are exact floor square roots ([Sqrt64], [SqrtQ15Wide]).
//
// The package has no state and allocates nothing.
package fixed
