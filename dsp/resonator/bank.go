package resonator

import "fmt"

// Frame is one fixed-length block of Q15 samples.
type Frame [FrameSize]int16

// Outputs holds one filtered frame per channel.
type Outputs [NumResonators]Frame

// Bank is a set of NumResonators resonators fed by the same input frame.
// The zero value is not usable; call [New] or [Bank.Init].
type Bank struct {
	table    *Table
	sections [NumResonators]Section
	outputs  Outputs
}

type bankConfig struct {
	table *Table
}

// Option configures a Bank.
type Option func(*bankConfig)

// WithTable binds the bank to a coefficient table instead of
// [DefaultTable]. A nil table is rejected by [New].
func WithTable(t *Table) Option {
	return func(cfg *bankConfig) { cfg.table = t }
}

// New allocates and initializes a bank.
func New(opts ...Option) (*Bank, error) {
	cfg := bankConfig{table: DefaultTable()}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	b := &Bank{}
	if err := b.Init(cfg.table); err != nil {
		return nil, err
	}

	return b, nil
}

// Init binds every channel to its coefficients in table and zeroes all
// recursion state and output frames. A nil bank or nil table yields
// ErrInvalidHandle; a table failing [Table.Validate] yields ErrInvalidTable.
func (b *Bank) Init(table *Table) error {
	if b == nil {
		return fmt.Errorf("%w: nil bank", ErrInvalidHandle)
	}

	if table == nil {
		return fmt.Errorf("%w: nil coefficient table", ErrInvalidHandle)
	}

	if err := table.Validate(); err != nil {
		return err
	}

	t := *table
	b.table = &t

	for ch := range b.sections {
		b.sections[ch] = Section{Coefficients: t.Channels[ch].Coefficients}
	}

	b.outputs = Outputs{}

	return nil
}

// Process filters frame through every channel, continuing from each
// channel's retained state. frame must hold exactly FrameSize samples; on
// a length mismatch nothing is modified.
func (b *Bank) Process(frame []int16) error {
	if b == nil || b.table == nil {
		return fmt.Errorf("%w: bank not initialized", ErrInvalidHandle)
	}

	if len(frame) != FrameSize {
		return fmt.Errorf("%w: got %d samples, want %d", ErrFrameSize, len(frame), FrameSize)
	}

	for ch := range b.sections {
		b.sections[ch].ProcessBlockTo(b.outputs[ch][:], frame)
	}

	return nil
}

// Reset zeroes the recursion state of every channel and the retained
// output frames. Coefficients are untouched.
func (b *Bank) Reset() {
	for ch := range b.sections {
		b.sections[ch].Reset()
	}

	b.outputs = Outputs{}
}

// Output returns a copy of the most recent filtered frame of channel ch.
func (b *Bank) Output(ch int) (Frame, error) {
	if ch < 0 || ch >= NumResonators {
		return Frame{}, fmt.Errorf("%w: %d", ErrChannel, ch)
	}

	return b.outputs[ch], nil
}

// Outputs returns a copy of the most recent filtered frames of all channels.
func (b *Bank) Outputs() Outputs {
	return b.outputs
}

// CenterFreq returns the center frequency of channel ch from the bound table.
// An uninitialized bank yields ErrInvalidHandle.
func (b *Bank) CenterFreq(ch int) (uint16, error) {
	if b == nil || b.table == nil {
		return 0, fmt.Errorf("%w: bank not initialized", ErrInvalidHandle)
	}

	return b.table.CenterFreq(ch)
}

// Table returns a copy of the bound coefficient table. An uninitialized
// bank yields ErrInvalidHandle.
func (b *Bank) Table() (Table, error) {
	if b == nil || b.table == nil {
		return Table{}, fmt.Errorf("%w: bank not initialized", ErrInvalidHandle)
	}

	return *b.table, nil
}

// State returns a snapshot of every channel's recursion state.
func (b *Bank) State() [NumResonators]State {
	var st [NumResonators]State
	for ch := range b.sections {
		st[ch] = b.sections[ch].State()
	}

	return st
}

// SetState restores recursion state saved with [Bank.State].
func (b *Bank) SetState(st [NumResonators]State) {
	for ch := range b.sections {
		b.sections[ch].SetState(st[ch])
	}
}
