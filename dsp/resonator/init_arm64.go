//go:build arm64 && !purego

package resonator

import (
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/arm64/neon" // register NEON backend
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/generic"    // register generic backend
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"   // initialize backend registry
)
