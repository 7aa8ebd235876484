package response

import (
	"testing"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

func BenchmarkMeasure(b *testing.B) {
	tbl := resonator.DefaultTable()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Measure(tbl); err != nil {
			b.Fatal(err)
		}
	}
}
