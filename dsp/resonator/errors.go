package resonator

import "errors"

var (
	// ErrInvalidHandle is returned when a bank is initialized or used
	// without valid storage (nil bank) or without a coefficient table.
	ErrInvalidHandle = errors.New("resonator: invalid handle")

	// ErrInvalidTable is returned for a coefficient table that is
	// malformed or describes an unstable filter.
	ErrInvalidTable = errors.New("resonator: invalid coefficient table")

	// ErrFrameSize is returned when a frame does not hold exactly
	// FrameSize samples.
	ErrFrameSize = errors.New("resonator: frame length mismatch")

	// ErrChannel is returned for a channel index outside [0, NumResonators).
	ErrChannel = errors.New("resonator: channel out of range")
)
