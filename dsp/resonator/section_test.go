package resonator

import (
	"testing"

	"github.com/cwbudde/guardian-dsp/internal/testutil"
)

var testCoeffs = defaultTable.Channels[1].Coefficients

// requireBlockMatchesSample checks that the dispatched block kernel yields
// exactly the per-sample recursion, including the carried state.
func requireBlockMatchesSample(t *testing.T, c Coefficients, input []int16) {
	t.Helper()

	ref := NewSection(c)
	want := make([]int16, len(input))
	for i, x := range input {
		want[i] = ref.ProcessSample(x)
	}

	got := append([]int16(nil), input...)
	s := NewSection(c)
	s.ProcessBlock(got)

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("sample %d mismatch: got %d, want %d", i, got[i], want[i])
		}
	}

	if s.State() != ref.State() {
		t.Fatalf("state mismatch: got %+v, want %+v", s.State(), ref.State())
	}
}

func TestSection_ImpulseResponse(t *testing.T) {
	s := NewSection(defaultTable.Channels[0].Coefficients)
	want := []int16{120, 237, 229, 218}

	for i, w := range want {
		x := int16(0)
		if i == 0 {
			x = 16384
		}
		if got := s.ProcessSample(x); got != w {
			t.Fatalf("y[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestSection_BlockMatchesSample(t *testing.T) {
	inputs := map[string][]int16{
		"impulse": testutil.Impulse(37, 0, 32767),
		"sine":    testutil.Sine(800, 16000, 20000, 0, 333),
		"noise":   testutil.Noise(7, 30000, 257),
		"odd":     testutil.Ramp(-100, 33, 5),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			for ch := range defaultTable.Channels {
				requireBlockMatchesSample(t, defaultTable.Channels[ch].Coefficients, in)
			}
		})
	}
}

func TestSection_BlockToPreservesSource(t *testing.T) {
	s := NewSection(testCoeffs)
	src := testutil.Sine(800, 16000, 16000, 0, 64)
	orig := append([]int16(nil), src...)
	dst := make([]int16, len(src))

	s.ProcessBlockTo(dst, src)

	if testutil.MaxAbsDiff(src, orig) != 0 {
		t.Fatal("ProcessBlockTo modified its source")
	}
}

func TestSection_EmptyBlock(t *testing.T) {
	s := NewSection(testCoeffs)
	s.SetState(State{X1: 1, X2: 2, Y1: 3, Y2: 4})
	s.ProcessBlock(nil)

	if s.State() != (State{X1: 1, X2: 2, Y1: 3, Y2: 4}) {
		t.Fatalf("empty block changed state: %+v", s.State())
	}
}

func TestSection_Saturates(t *testing.T) {
	s := NewSection(Coefficients{B0: 32767, PostShift: 1})
	if got := s.ProcessSample(30000); got != 32767 {
		t.Fatalf("positive overflow: got %d, want 32767", got)
	}

	s.Reset()
	if got := s.ProcessSample(-30000); got != -32768 {
		t.Fatalf("negative overflow: got %d, want -32768", got)
	}
}

func TestSection_RoundsHalfUp(t *testing.T) {
	// 1 * 16384 >> 15 is exactly 0.5 and rounds up; -0.5 rounds toward +inf.
	s := NewSection(Coefficients{B0: 1})
	if got := s.ProcessSample(16384); got != 1 {
		t.Fatalf("+0.5: got %d, want 1", got)
	}

	s.Reset()
	if got := s.ProcessSample(-16384); got != 0 {
		t.Fatalf("-0.5: got %d, want 0", got)
	}
}

func TestSection_ResetAndState(t *testing.T) {
	s := NewSection(testCoeffs)
	in := testutil.Noise(3, 10000, 100)
	s.ProcessBlock(append([]int16(nil), in...))

	saved := s.State()
	a := s.ProcessSample(1234)

	s.SetState(saved)
	if b := s.ProcessSample(1234); a != b {
		t.Fatalf("restored state gave %d, want %d", b, a)
	}

	s.Reset()
	if s.State() != (State{}) {
		t.Fatalf("Reset left state %+v", s.State())
	}
	if got := s.ProcessSample(0); got != 0 {
		t.Fatalf("zero input after reset gave %d", got)
	}
}

func TestKernelName(t *testing.T) {
	if KernelName() == "" {
		t.Fatal("no kernel selected")
	}
}
