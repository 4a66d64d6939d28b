// Package device models the compute devices the RNG tracker can target.
//
// The tracing layer only needs three things from a device: whether its
// native RNG is counter-based (the capability that makes offset bookkeeping
// possible at all), the execution parameters that determine how many counter
// units a kernel launch consumes, and raw access to the device RNG state
// buffer. Device kinds form a closed enumeration with a capability flag,
// so dispatch never compares type strings.
package device

import "strconv"

// Kind identifies a device backend.
//
// The set is closed: adding a backend means adding a constant here and
// deciding its CounterBasedRNG capability, not threading new strings
// through dispatch sites.
type Kind uint8

const (
	// CPU is the host processor. Its native RNG (MT19937) is sequential,
	// not counter-based, so random ops cannot be functionalized for it.
	CPU Kind = iota

	// CUDA devices use the Philox counter-based generator (curand).
	CUDA

	// MPS is the Apple Metal backend. Not counter-based.
	MPS
)

// CounterBasedRNG reports whether the device kind's native generator is a
// counter-based PRNG. Only such devices support (seed, offset) bookkeeping;
// random ops targeting any other kind must be rejected, never approximated.
func (k Kind) CounterBasedRNG() bool {
	return k == CUDA
}

// String returns the backend name ("cpu", "cuda", "mps").
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case MPS:
		return "mps"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Device is a concrete device: a backend kind plus an ordinal index.
type Device struct {
	Kind  Kind
	Index int
}

// String formats the device the conventional way: "cuda:0", "cpu".
// CPU has no meaningful ordinal and prints without one.
func (d Device) String() string {
	if d.Kind == CPU {
		return "cpu"
	}
	return d.Kind.String() + ":" + strconv.Itoa(d.Index)
}

// Props carries the execution parameters of a device that determine how many
// counter units a single kernel launch consumes. They correspond to the
// device properties the offset calculator reads (max resident threads per
// multiprocessor and multiprocessor count).
type Props struct {
	// MaxThreadsPerSM is the maximum number of resident threads per
	// streaming multiprocessor.
	MaxThreadsPerSM int64

	// SMCount is the number of streaming multiprocessors on the device.
	SMCount int64
}

// DefaultProps are the execution parameters used when no real device has
// been queried. The values match a mid-range datacenter part and only
// influence how coarsely counter units are consumed, never correctness of
// replay (the same Props must simply be used for tracing and replay).
var DefaultProps = Props{
	MaxThreadsPerSM: 1536,
	SMCount:         108,
}

// Driver is the narrow surface this library needs from the real device
// runtime. The production implementation wraps the CUDA driver; tests and
// the demo binary use SimDriver.
//
// GetRNGStateBytes and SetRNGStateBytes move the opaque device RNG state
// buffer whole; interpreting its byte layout is the host bridge's job.
type Driver interface {
	// Available reports whether a counter-based device is present.
	Available() bool

	// Props returns the execution parameters of the device.
	Props() Props

	// GetRNGStateBytes returns a copy of the device RNG state buffer.
	GetRNGStateBytes() ([]byte, error)

	// SetRNGStateBytes installs buf as the new device RNG state.
	SetRNGStateBytes(buf []byte) error
}
