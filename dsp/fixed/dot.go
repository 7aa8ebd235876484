package fixed

// Dot returns the dot product of a and b over the shorter of the two
// lengths. Each product is formed in 32 bits (Q30) and accumulated in 64
// bits without intermediate shifting; callers rescale the Q30 result.
func Dot(a, b []int16) int64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}

	a, b = a[:n], b[:n]

	var acc int64
	for i, x := range a {
		acc += int64(int32(x) * int32(b[i]))
	}

	return acc
}

// SumSquares returns sum(x[i]^2) as a Q30 value in 64 bits.
func SumSquares(x []int16) int64 {
	var acc int64
	for _, v := range x {
		acc += int64(int32(v) * int32(v))
	}

	return acc
}

// RMS returns the root-mean-square of x as Q15:
// floor(sqrt(sum(x^2) / len(x))). The mean square is kept in Q30 so the
// root lands directly in Q15 without a precision-losing shift. The only
// value that would exceed MaxQ15 (a frame of all MinQ15) is saturated.
// An empty slice returns 0.
func RMS(x []int16) int16 {
	if len(x) == 0 {
		return 0
	}

	meanSq := SumSquares(x) / int64(len(x))

	r := Sqrt64(uint64(meanSq))
	if r > uint64(MaxQ15) {
		return MaxQ15
	}

	return int16(r)
}
