// Package philoxrng provides the public API for Philox RNG state tracking.
//
// See doc.go for detailed documentation and examples.
package philoxrng

import (
	internal "github.com/Vysarat/pytorch/internal/rng/api"
	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/tensor"
	"github.com/Vysarat/pytorch/internal/rng/tracker"
)

// Session is one tracing session's RNG coordination handle.
//
// It tracks the Philox (seed, offset) state across the forward and backward
// phases of a traced graph so that replaying either phase reproduces
// exactly the random values tracing saw.
type Session = internal.Session

// TotalOffsets is the per-graph pair of consumed forward/backward counter
// units, persisted with the compiled graph and fed back at replay.
type TotalOffsets = tracker.PhiloxTotalOffsets

// Phase names a tracing phase for RecordState.
type Phase = tracker.Phase

// Phase identifiers for RecordState.
const (
	Forward  = tracker.PhaseForward
	Backward = tracker.PhaseBackward
)

// Driver is the device contract a Session runs over: availability,
// execution parameters, and raw RNG state transport.
type Driver = device.Driver

// Props carries a device's execution parameters, the inputs of the offset
// calculator.
type Props = device.Props

// DefaultProps are the execution parameters of a typical large accelerator.
var DefaultProps = device.DefaultProps

// SimDriver is an in-memory Driver for tests, examples, and environments
// without the real device.
type SimDriver = device.SimDriver

// NewSimDriver returns an available simulated device with a zeroed RNG
// state buffer.
func NewSimDriver(props Props) *SimDriver {
	return device.NewSimDriver(props)
}

// NewUnavailableDriver returns a driver that reports no counter-based
// device, for exercising the degenerate (0, 0) paths.
func NewUnavailableDriver() *SimDriver {
	return device.NewUnavailableDriver()
}

// Device identifies a draw target.
type Device = device.Device

// Kind is a device backend. Only CUDA uses a counter-based generator.
type Kind = device.Kind

// Device backends.
const (
	CPU  = device.CPU
	CUDA = device.CUDA
	MPS  = device.MPS
)

// Tensor is the minimal draw result: shape, strides, dtype, device, data.
type Tensor = tensor.Tensor

// DType is a tensor element type.
type DType = tensor.DType

// Tensor element types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
)

// New starts a fresh tracing session over the given device driver.
//
// Each traced graph gets its own Session; concurrent traces must not share
// one. For environments without the real device driver, NewSimDriver
// provides an in-memory stand-in.
func New(drv Driver) *Session {
	return internal.NewSession(drv)
}
