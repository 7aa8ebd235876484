//go:build amd64 && !purego

package resonator

import (
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/amd64/sse2" // register SSE2 backend
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/generic"    // register generic backend
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"   // initialize backend registry
)
