package fixed

import "math/bits"

// Sqrt64 returns floor(sqrt(x)), computed exactly with the digit-by-digit
// method (no floating point).
func Sqrt64(x uint64) uint64 {
	if x == 0 {
		return 0
	}

	var res uint64

	// Highest power of four not above x.
	bit := uint64(1) << ((bits.Len64(x) - 1) &^ 1)
	for bit != 0 {
		if x >= res+bit {
			x -= res + bit
			res = res>>1 + bit
		} else {
			res >>= 1
		}

		bit >>= 2
	}

	return res
}

// SqrtQ15Wide returns the Q15 square root of a Q15 value held in 64 bits,
// rounded down. The value may exceed the int16 range (sums and products of
// variances). sqrt(v/2^15)*2^15 = sqrt(v*2^15), so the argument is widened
// by FracBits before the integer root. Non-positive input returns 0. x must
// be below 2^48.
func SqrtQ15Wide(x int64) int64 {
	if x <= 0 {
		return 0
	}

	return int64(Sqrt64(uint64(x) << FracBits))
}
