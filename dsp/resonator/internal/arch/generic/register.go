// Package generic registers the portable scalar resonator kernel.
package generic

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "generic",
		SIMDLevel:    cpu.SIMDNone,
		Priority:     0,
		ProcessBlock: ProcessBlock,
	})
}

// ProcessBlock is the reference DF1 kernel: one sample per iteration,
// 64-bit accumulator, round-half-up output shift, int16 saturation.
func ProcessBlock(c registry.Coefficients, st registry.State, dst, src []int16) registry.State {
	if len(src) == 0 {
		return st
	}

	b0, b1, b2 := int64(c.B0), int64(c.B1), int64(c.B2)
	a1, a2 := int64(c.A1), int64(c.A2)
	x1, x2, y1, y2 := int64(st.X1), int64(st.X2), int64(st.Y1), int64(st.Y2)

	_ = dst[len(src)-1] // bounds check hint
	for i, s := range src {
		x := int64(s)
		acc := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		y := fixed.Sat16Wide(fixed.RoundShift64(acc, c.Shift))

		x2, x1 = x1, x
		y2, y1 = y1, int64(y)
		dst[i] = y
	}

	return registry.State{X1: int16(x1), X2: int16(x2), Y1: int16(y1), Y2: int16(y2)}
}
