// Package decomp - typed errors of the decomposition layer.
//
// All three are unrecoverable at this layer: they propagate to the driving
// tracing system, which either aborts the compilation or abandons the
// functionalized-RNG path entirely. None are retried here and no
// partial-success state is valid after one fires.
package decomp

import (
	"fmt"

	"github.com/Vysarat/pytorch/internal/rng/device"
)

// UnsupportedDeviceError reports a random-producing decomposition invoked
// for a device whose native RNG is not counter-based. There is no correct
// fallback: a non-counter-based stream cannot be partitioned by offset.
type UnsupportedDeviceError struct {
	Kind device.Kind
}

// Error implements the error interface. The offending device kind is named
// so the caller can report which backend lacks support.
func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf(
		"cannot functionalize a %s RNG operator: %s does not use a Philox/counter-based PRNG",
		e.Kind, e.Kind)
}

// OffsetStagnationError reports a registered decomposition that ran to
// completion without advancing the tracker's relative offset.
//
// A forgotten Advance call is a silent correctness bug — replay would serve
// stale random values with no crash — so the guard turns it into a hard
// failure on first invocation instead.
type OffsetStagnationError struct {
	Op     Op
	Offset uint64
}

// Error implements the error interface.
func (e *OffsetStagnationError) Error() string {
	return fmt.Sprintf(
		"philox offset did not advance after decomposition %q (still %d); the implementation must call Advance with the consumed offset",
		e.Op, e.Offset)
}

// UnknownOpError reports a dispatch for an operation no decomposition was
// registered for.
type UnknownOpError struct {
	Op Op
}

// Error implements the error interface.
func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("no rng decomposition registered for %q", e.Op)
}
