package features

import "github.com/cwbudde/guardian-dsp/dsp/fixed"

// Lag window scanned by Coherence.
const (
	LagMin  = 80
	LagMax  = 250
	LagStep = 2
)

// CoherenceFeatures is the autocorrelation peak of one channel.
type CoherenceFeatures struct {
	Peak int32  `json:"peak" yaml:"peak"` // unnormalized dot product, Q15
	Lag  uint16 `json:"lag" yaml:"lag"`   // lag of Peak in samples, 0 if none
}

// Coherence scans lags LagMin, LagMin+LagStep, ... below
// min(LagMax, len(x)/2) and reports the largest positive autocorrelation
// x[:n-lag]·x[lag:] (Q30 accumulated, shifted right by 15). Ties keep the
// earliest lag. If no lag is positive the result is zero.
func Coherence(x []int16) CoherenceFeatures {
	var c CoherenceFeatures

	upper := min(LagMax, len(x)/2)
	for lag := LagMin; lag < upper; lag += LagStep {
		v := fixed.Sat32(fixed.Dot(x[:len(x)-lag], x[lag:]) >> fixed.FracBits)
		if v > c.Peak {
			c.Peak = v
			c.Lag = uint16(lag)
		}
	}

	return c
}
