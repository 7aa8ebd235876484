//nolint:funcorder
package resonator

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/guardian-dsp/dsp/fixed"
	archregistry "github.com/cwbudde/guardian-dsp/dsp/resonator/internal/arch/registry"
)

// State is the Direct Form I recursion state of one section: the two most
// recent inputs and the two most recent outputs.
type State struct {
	X1, X2 int16
	Y1, Y2 int16
}

// Section is a single fixed-point biquad with coefficients and its own
// recursion state.
type Section struct {
	Coefficients

	state State
}

var (
	processBlockImpl     archregistry.ProcessBlockFn
	processBlockInitOnce sync.Once
)

// NewSection returns a Section initialized with the given coefficients and
// zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

func (s *Section) shift() uint {
	return uint(fixed.FracBits) - uint(s.PostShift)
}

// ProcessSample filters one Q15 input sample and returns the Q15 output.
func (s *Section) ProcessSample(x int16) int16 {
	sh := s.shift()
	acc := int64(s.B0)*int64(x) +
		int64(s.B1)*int64(s.state.X1) +
		int64(s.B2)*int64(s.state.X2) -
		int64(s.A1)*int64(s.state.Y1) -
		int64(s.A2)*int64(s.state.Y2)
	y := fixed.Sat16Wide(fixed.RoundShift64(acc, sh))

	s.state.X2, s.state.X1 = s.state.X1, x
	s.state.Y2, s.state.Y1 = s.state.Y1, y

	return y
}

// ProcessBlockTo filters src into dst. Both slices must have the same
// length; dst may alias src. Zero-alloc.
func (s *Section) ProcessBlockTo(dst, src []int16) {
	processBlockInitOnce.Do(initProcessBlockKernel)

	coeffs := archregistry.Coefficients{
		B0:    s.B0,
		B1:    s.B1,
		B2:    s.B2,
		A1:    s.A1,
		A2:    s.A2,
		Shift: s.shift(),
	}

	st := processBlockImpl(coeffs, archregistry.State(s.state), dst[:len(src)], src)
	s.state = State(st)
}

// ProcessBlock filters buf in-place.
func (s *Section) ProcessBlock(buf []int16) {
	s.ProcessBlockTo(buf, buf)
}

// Reset clears the recursion state to zero. Coefficients are untouched.
func (s *Section) Reset() {
	s.state = State{}
}

// State returns the current recursion state.
func (s *Section) State() State {
	return s.state
}

// SetState restores a previously saved recursion state.
func (s *Section) SetState(st State) {
	s.state = st
}

// KernelName reports which block kernel this process selected.
func KernelName() string {
	processBlockInitOnce.Do(initProcessBlockKernel)
	return kernelName
}

var kernelName string

func initProcessBlockKernel() {
	entry := archregistry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil {
		panic("resonator: no ProcessBlock kernel registered (missing generic fallback?)")
	}

	if entry.ProcessBlock == nil {
		panic("resonator: selected kernel missing ProcessBlock")
	}

	processBlockImpl = entry.ProcessBlock
	kernelName = entry.Name
}
