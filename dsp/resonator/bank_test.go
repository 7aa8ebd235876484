package resonator

import (
	"errors"
	"testing"

	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	"github.com/cwbudde/guardian-dsp/internal/testutil"
)

func newTestBank(t *testing.T) *Bank {
	t.Helper()

	b, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return b
}

func TestBank_ImpulseFirstSamples(t *testing.T) {
	b := newTestBank(t)
	if err := b.Process(testutil.Impulse(FrameSize, 0, 16384)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := [NumResonators][4]int16{
		{120, 237, 229, 218},
		{316, 589, 479, 327},
		{582, 933, 374, -267},
		{948, 992, -748, -1660},
	}

	for ch := range want {
		out, err := b.Output(ch)
		if err != nil {
			t.Fatalf("Output(%d): %v", ch, err)
		}
		for i, w := range want[ch] {
			if out[i] != w {
				t.Fatalf("channel %d sample %d: got %d, want %d", ch, i, out[i], w)
			}
		}
	}
}

func TestBank_ToneSelectivity(t *testing.T) {
	for target, hz := range []float64{300, 800, 1500, 2500} {
		b := newTestBank(t)

		// Let the resonators ring up before measuring.
		for f := range 5 {
			frame := testutil.Sine(hz, 16000, 16000, f*FrameSize, FrameSize)
			if err := b.Process(frame); err != nil {
				t.Fatalf("Process: %v", err)
			}
		}

		outs := b.Outputs()
		peak := fixed.RMS(outs[target][:])
		if peak < 8000 {
			t.Fatalf("%v Hz: channel %d RMS %d, want >= 8000", hz, target, peak)
		}

		for ch := range outs {
			if ch == target {
				continue
			}
			if r := fixed.RMS(outs[ch][:]); int32(r)*5 > int32(peak) {
				t.Fatalf("%v Hz: channel %d RMS %d too close to target %d", hz, ch, r, peak)
			}
		}
	}
}

func TestBank_HistoryDependence(t *testing.T) {
	b := newTestBank(t)
	frame := testutil.Sine(800, 16000, 16000, 0, FrameSize)

	if err := b.Process(frame); err != nil {
		t.Fatal(err)
	}
	first := b.Outputs()

	if err := b.Process(frame); err != nil {
		t.Fatal(err)
	}
	second := b.Outputs()

	for ch := range first {
		if testutil.MaxAbsDiff(first[ch][:], second[ch][:]) == 0 {
			t.Fatalf("channel %d ignored history across frames", ch)
		}
	}
}

func TestBank_ResetMatchesFresh(t *testing.T) {
	b := newTestBank(t)
	noise := testutil.Noise(11, 20000, FrameSize)
	if err := b.Process(noise); err != nil {
		t.Fatal(err)
	}

	b.Reset()
	for ch, out := range b.Outputs() {
		testutil.RequireAllZero(t, "output after reset", out[:])
		if b.State()[ch] != (State{}) {
			t.Fatalf("channel %d state not cleared", ch)
		}
	}

	if err := b.Process(make([]int16, FrameSize)); err != nil {
		t.Fatal(err)
	}
	for _, out := range b.Outputs() {
		testutil.RequireAllZero(t, "zero input after reset", out[:])
	}

	tone := testutil.Sine(1500, 16000, 12000, 0, FrameSize)
	fresh := newTestBank(t)
	b.Reset()
	if err := b.Process(tone); err != nil {
		t.Fatal(err)
	}
	if err := fresh.Process(tone); err != nil {
		t.Fatal(err)
	}
	if b.Outputs() != fresh.Outputs() {
		t.Fatal("reset bank differs from fresh bank")
	}
}

func TestBank_StateRoundTrip(t *testing.T) {
	b := newTestBank(t)
	if err := b.Process(testutil.Noise(5, 15000, FrameSize)); err != nil {
		t.Fatal(err)
	}

	saved := b.State()
	next := testutil.Sine(300, 16000, 8000, 0, FrameSize)
	if err := b.Process(next); err != nil {
		t.Fatal(err)
	}
	want := b.Outputs()

	b.SetState(saved)
	if err := b.Process(next); err != nil {
		t.Fatal(err)
	}
	if b.Outputs() != want {
		t.Fatal("restored state did not reproduce outputs")
	}
}

func TestBank_Errors(t *testing.T) {
	var nilBank *Bank
	if err := nilBank.Init(DefaultTable()); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("nil bank Init: got %v", err)
	}

	var zero Bank
	if err := zero.Process(make([]int16, FrameSize)); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("uninitialized Process: got %v", err)
	}

	if _, err := zero.CenterFreq(0); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("uninitialized CenterFreq: got %v", err)
	}

	if _, err := zero.Table(); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("uninitialized Table: got %v", err)
	}

	if _, err := nilBank.CenterFreq(0); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("nil bank CenterFreq: got %v", err)
	}

	if err := zero.Init(nil); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("nil table: got %v", err)
	}

	if _, err := New(WithTable(nil)); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("New with nil table: got %v", err)
	}

	b := newTestBank(t)
	if err := b.Process(testutil.Impulse(FrameSize, 0, 16384)); err != nil {
		t.Fatal(err)
	}
	before := b.Outputs()
	stateBefore := b.State()

	if err := b.Process(make([]int16, FrameSize-1)); !errors.Is(err, ErrFrameSize) {
		t.Fatalf("short frame: got %v", err)
	}
	if b.Outputs() != before || b.State() != stateBefore {
		t.Fatal("rejected frame modified the bank")
	}

	for _, ch := range []int{-1, NumResonators} {
		if _, err := b.Output(ch); !errors.Is(err, ErrChannel) {
			t.Fatalf("Output(%d): got %v", ch, err)
		}
		if _, err := b.CenterFreq(ch); !errors.Is(err, ErrChannel) {
			t.Fatalf("CenterFreq(%d): got %v", ch, err)
		}
	}
}

func TestBank_CenterFreq(t *testing.T) {
	b := newTestBank(t)
	for ch, want := range []uint16{300, 800, 1500, 2500} {
		got, err := b.CenterFreq(ch)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("channel %d: got %d Hz, want %d", ch, got, want)
		}
	}
}

func TestBank_TableIsCopied(t *testing.T) {
	tbl := DefaultTable()
	b, err := New(WithTable(tbl))
	if err != nil {
		t.Fatal(err)
	}

	tbl.Channels[0].CenterHz = 1234
	if got, _ := b.CenterFreq(0); got != 300 {
		t.Fatalf("bank observed caller mutation: %d", got)
	}

	got, err := b.Table()
	if err != nil {
		t.Fatal(err)
	}

	got.Channels[1].CenterHz = 4321
	if hz, _ := b.CenterFreq(1); hz != 800 {
		t.Fatalf("Table() shares storage with the bank: %d", hz)
	}

	if DefaultTable().Channels[0].CenterHz != 300 {
		t.Fatal("DefaultTable shares storage between calls")
	}
}

func TestTable_Validate(t *testing.T) {
	if err := DefaultTable().Validate(); err != nil {
		t.Fatalf("default table: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Table)
	}{
		{"zero sample rate", func(tb *Table) { tb.SampleRate = 0 }},
		{"center above nyquist", func(tb *Table) { tb.Channels[3].CenterHz = 8000 }},
		{"zero center", func(tb *Table) { tb.Channels[0].CenterHz = 0 }},
		{"post shift", func(tb *Table) { tb.Channels[1].Coefficients.PostShift = 15 }},
		{"a2 on unit circle", func(tb *Table) { tb.Channels[2].Coefficients.A2 = 16384 }},
		{"a1 too large", func(tb *Table) { tb.Channels[0].Coefficients.A1 = -32767 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := DefaultTable()
			tt.mutate(tb)
			if err := tb.Validate(); !errors.Is(err, ErrInvalidTable) {
				t.Fatalf("got %v, want ErrInvalidTable", err)
			}

			var b Bank
			if err := b.Init(tb); !errors.Is(err, ErrInvalidTable) {
				t.Fatalf("Init: got %v, want ErrInvalidTable", err)
			}
		})
	}
}

func TestCoefficients_Float(t *testing.T) {
	f := Coefficients{B0: 16384, A1: -16384, PostShift: 1}.Float()
	if f[0] != 1 || f[3] != -1 {
		t.Fatalf("Float = %v", f)
	}
}
