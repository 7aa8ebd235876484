package features

// ZCR counts adjacent sample pairs whose signs differ, with zero counted as
// non-negative.
func ZCR(x []int16) uint16 {
	var n uint16
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}

	return n
}
