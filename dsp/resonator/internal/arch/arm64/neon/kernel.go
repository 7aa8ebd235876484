//go:build arm64 && !purego

package neon

import (
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"
)

// processBlock is a 4x-unrolled scalar kernel.
func processBlock(c registry.Coefficients, st registry.State, dst, src []int16) registry.State {
	b0, b1, b2 := int64(c.B0), int64(c.B1), int64(c.B2)
	a1, a2 := int64(c.A1), int64(c.A2)
	shift := c.Shift
	x1, x2, y1, y2 := int64(st.X1), int64(st.X2), int64(st.Y1), int64(st.Y2)

	step := func(x int64) int64 {
		y := int64(fixed.Sat16Wide(fixed.RoundShift64(b0*x+b1*x1+b2*x2-a1*y1-a2*y2, shift)))
		x2, x1 = x1, x
		y2, y1 = y1, y
		return y
	}

	i := 0
	n := len(src)
	for ; i+3 < n; i += 4 {
		o0 := step(int64(src[i]))
		o1 := step(int64(src[i+1]))
		o2 := step(int64(src[i+2]))
		o3 := step(int64(src[i+3]))

		dst[i] = int16(o0)
		dst[i+1] = int16(o1)
		dst[i+2] = int16(o2)
		dst[i+3] = int16(o3)
	}

	for ; i < n; i++ {
		dst[i] = int16(step(int64(src[i])))
	}

	return registry.State{X1: int16(x1), X2: int16(x2), Y1: int16(y1), Y2: int16(y2)}
}
