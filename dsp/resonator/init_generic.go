//go:build (!amd64 && !arm64) || purego

package resonator

import (
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/generic"
	_ "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"
)
