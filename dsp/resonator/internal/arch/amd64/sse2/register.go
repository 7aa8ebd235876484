//go:build amd64 && !purego

// Package sse2 registers the "unroll2" kernel at the SSE2 level. It is a
// 2x-unrolled scalar loop and contains no SIMD instructions; SSE2 is only
// the dispatch tier it is selected at.
package sse2

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "unroll2",
		SIMDLevel:    cpu.SIMDSSE2,
		Priority:     10,
		ProcessBlock: processBlock,
	})
}

// processBlock is a 2x-unrolled scalar kernel. The recursion is serial,
// so unrolling only trims loop overhead and keeps the coefficients in
// registers.
func processBlock(c registry.Coefficients, st registry.State, dst, src []int16) registry.State {
	b0, b1, b2 := int64(c.B0), int64(c.B1), int64(c.B2)
	a1, a2 := int64(c.A1), int64(c.A2)
	shift := c.Shift
	x1, x2, y1, y2 := int64(st.X1), int64(st.X2), int64(st.Y1), int64(st.Y2)

	i := 0
	n := len(src)
	for ; i+1 < n; i += 2 {
		x0 := int64(src[i])
		out0 := fixed.Sat16Wide(fixed.RoundShift64(b0*x0+b1*x1+b2*x2-a1*y1-a2*y2, shift))
		y0 := int64(out0)

		xn := int64(src[i+1])
		out1 := fixed.Sat16Wide(fixed.RoundShift64(b0*xn+b1*x0+b2*x1-a1*y0-a2*y1, shift))

		x2, x1 = x0, xn
		y2, y1 = y0, int64(out1)
		dst[i] = out0
		dst[i+1] = out1
	}

	if i < n {
		x := int64(src[i])
		out := fixed.Sat16Wide(fixed.RoundShift64(b0*x+b1*x1+b2*x2-a1*y1-a2*y2, shift))

		x2, x1 = x1, x
		y2, y1 = y1, int64(out)
		dst[i] = out
	}

	return registry.State{X1: int16(x1), X2: int16(x2), Y1: int16(y1), Y2: int16(y2)}
}
