//go:build arm64 && !purego

// Package neon registers the "unroll4" kernel at the NEON level. It is a
// 4x-unrolled scalar loop and contains no SIMD instructions; NEON is only
// the dispatch tier it is selected at.
package neon

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "unroll4",
		SIMDLevel:    cpu.SIMDNEON,
		Priority:     10,
		ProcessBlock: processBlock,
	})
}
