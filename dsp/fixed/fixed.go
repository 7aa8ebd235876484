package fixed

// FracBits is the number of fractional bits of a Q15 value.
const FracBits = 15

const (
	// MaxQ15 is the largest Q15 value, 1 - 2^-15.
	MaxQ15 int16 = 32767
	// MinQ15 is the smallest Q15 value, -1.0.
	MinQ15 int16 = -32768
)

// Sat16Wide clamps a 64-bit value to the int16 range.
func Sat16Wide(x int64) int16 {
	if x > int64(MaxQ15) {
		return MaxQ15
	}

	if x < int64(MinQ15) {
		return MinQ15
	}

	return int16(x)
}

// Sat32 clamps a 64-bit value to the int32 range.
func Sat32(x int64) int32 {
	const (
		maxInt32 = 1<<31 - 1
		minInt32 = -1 << 31
	)

	if x > maxInt32 {
		return maxInt32
	}

	if x < minInt32 {
		return minInt32
	}

	return int32(x)
}

// RoundShift64 shifts x right by s bits, rounding half up. s == 0 returns x.
// x must be at least 2^(s-1) below the int64 maximum.
func RoundShift64(x int64, s uint) int64 {
	if s == 0 {
		return x
	}

	return (x + 1<<(s-1)) >> s
}

// Abs32 returns |x|. The result for math.MinInt32 is saturated to MaxInt32.
func Abs32(x int32) int32 {
	if x >= 0 {
		return x
	}

	if x == -1<<31 {
		return 1<<31 - 1
	}

	return -x
}
