package features

import (
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

// CorrelationFeatures holds the normalized Q15 correlation of each adjacent
// channel pair and the largest of the three.
type CorrelationFeatures struct {
	Corr01 int16 `json:"corr01" yaml:"corr01"`
	Corr12 int16 `json:"corr12" yaml:"corr12"`
	Corr23 int16 `json:"corr23" yaml:"corr23"`
	Max    int16 `json:"max" yaml:"max"`
}

// Correlation correlates channel pairs 0-1, 1-2 and 2-3 of outs.
func Correlation(outs *resonator.Outputs) CorrelationFeatures {
	c := CorrelationFeatures{
		Corr01: Correlate(outs[0][:], outs[1][:]),
		Corr12: Correlate(outs[1][:], outs[2][:]),
		Corr23: Correlate(outs[2][:], outs[3][:]),
	}

	c.Max = max(c.Corr01, c.Corr12, c.Corr23)

	return c
}

// Correlate returns the Pearson correlation of x and y in Q15 over the
// shorter length.
//
// Means are integer (truncating). Each centered product is formed in 64
// bits and shifted right by 15 before accumulation; covariance and
// variances are then divided by the length. The denominator is
// sqrt(((varX*varY) >> 15) << 15), computed with a wide integer square
// root. A non-positive variance product or a zero denominator yields 0.
//
// The variance product has an amplitude floor: when varX*varY < 2^15 the
// shifted product is 0 and the result is 0, even for identical inputs.
// Both variances must reach 182 (a centered RMS of about 2443, roughly
// -22.6 dBFS); a zero-mean sine needs a peak of about 3450.
// Above the floor the quotient saturates, so correlating a signal with
// itself yields 32767.
func Correlate(x, y []int16) int16 {
	n := min(len(x), len(y))
	if n == 0 {
		return 0
	}

	x, y = x[:n], y[:n]

	var sumX, sumY int64
	for i := range x {
		sumX += int64(x[i])
		sumY += int64(y[i])
	}

	meanX := sumX / int64(n)
	meanY := sumY / int64(n)

	var cov, varX, varY int64
	for i := range x {
		dx := int64(x[i]) - meanX
		dy := int64(y[i]) - meanY

		cov += (dx * dy) >> fixed.FracBits
		varX += (dx * dx) >> fixed.FracBits
		varY += (dy * dy) >> fixed.FracBits
	}

	cov /= int64(n)
	varX /= int64(n)
	varY /= int64(n)

	denomSq := (varX * varY) >> fixed.FracBits
	if denomSq <= 0 {
		return 0
	}

	denom := fixed.SqrtQ15Wide(denomSq)
	if denom == 0 {
		return 0
	}

	return fixed.Sat16Wide((cov << fixed.FracBits) / denom)
}
