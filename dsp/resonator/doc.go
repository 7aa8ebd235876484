// Package resonator provides a fixed-point bank of streaming resonant
// (peaking band-pass) filters.
//
// A [Bank] runs the same Q15 input frame through [NumResonators] independent
// second-order IIR sections, one per channel. Each channel keeps its own
// Direct Form I recursion state (two past inputs, two past outputs) and its
// most recent output frame. State persists across [Bank.Process] calls and
// is only cleared by [Bank.Reset] or [Bank.Init], so the output for frame N
// depends on every frame processed since the last reset.
//
// Coefficients are not designed here. They come from a [Table], an opaque
// pre-computed constant table injected at construction; [DefaultTable]
// holds peaking filters at 300, 800, 1500 and 2500 Hz for 16 kHz audio.
//
// Arithmetic contract of one output sample:
//
//	acc = b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2   (64-bit accumulator)
//	y   = sat16((acc + 2^(s-1)) >> s)            (s = 15 - PostShift)
//
// The final shift rounds half up and the result saturates instead of
// wrapping. Block kernels are chosen once per process from a CPU-feature
// registry; every kernel is bit-identical to [Section.ProcessSample]. The
// kernels are all scalar Go: "generic" runs everywhere, "unroll2" is
// registered at the SSE2 tier and "unroll4" at the NEON tier. Neither
// contains SIMD instructions, since the biquad recursion is serial.
//
// A Bank is owned by exactly one audio stream. It is not safe for
// concurrent use; give each stream its own Bank.
package resonator
