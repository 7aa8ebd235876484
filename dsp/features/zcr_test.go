package features

import (
	"testing"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
	"github.com/cwbudde/guardian-dsp/internal/testutil"
)

func TestZCR(t *testing.T) {
	tests := []struct {
		name string
		in   []int16
		want uint16
	}{
		{"empty", nil, 0},
		{"single", []int16{-5}, 0},
		{"zeros", make([]int16, resonator.FrameSize), 0},
		{"ramp crossing once", testutil.Ramp(-160, 1, resonator.FrameSize), 1},
		{"zero is non-negative", []int16{0, -1, 0, 1}, 2},
		{"positive to zero", []int16{5, 0, 3}, 0},
		{"alternating", []int16{1, -1, 1, -1}, 3},
		{"800 Hz sine", testutil.Sine(800, 16000, 16000, 0, resonator.FrameSize), 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZCR(tt.in); got != tt.want {
				t.Fatalf("ZCR = %d, want %d", got, tt.want)
			}
		})
	}
}
