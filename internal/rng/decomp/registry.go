// Package decomp substitutes counter-based implementations for high-level
// random-producing operations during tracing.
//
// Every registered implementation follows the same protocol: read the
// current (seed, effective offset) from the tracker's running state,
// perform the draw at that position, then advance the tracker by exactly
// the counter units the draw consumed. Registration wraps each
// implementation with an advance guard that turns a forgotten Advance call
// into an immediate OffsetStagnationError.
package decomp

import (
	"github.com/pkg/errors"

	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/offset"
	"github.com/Vysarat/pytorch/internal/rng/prims"
	"github.com/Vysarat/pytorch/internal/rng/tensor"
	"github.com/Vysarat/pytorch/internal/rng/tracker"
)

// Op identifies an abstract random-producing operation.
type Op string

// Operations with built-in counter-based decompositions.
const (
	OpRand      Op = "aten.rand"
	OpRandLike  Op = "aten.rand_like"
	OpRandn     Op = "aten.randn"
	OpRandnLike Op = "aten.randn_like"
)

// Call carries the operands of a random-producing op. Optional fields left
// at their zero/nil value take the op's defaults (for *_like variants, the
// reference tensor's properties).
type Call struct {
	// Shape of the draw. Ignored by *_like ops, which take it from Like.
	Shape []int64

	// DType of the result; nil selects float32, or Like's dtype for
	// *_like ops.
	DType *tensor.DType

	// Device to draw on; nil selects cpu (which is then rejected as
	// non-counter-based), or Like's device for *_like ops.
	Device *device.Device

	// Like is the reference tensor for *_like ops.
	Like *tensor.Tensor
}

// Impl is a counter-based implementation of one operation. It runs against
// the given tracker's running state.
type Impl func(tr *tracker.Tracker, call Call) (*tensor.Tensor, error)

// Registry maps operations to their guarded counter-based implementations.
// Registration is a pure association; nothing runs until Dispatch.
type Registry struct {
	ops     map[Op]Impl
	policy  offset.Policy
	uniform prims.Draw
	normal  prims.Draw
}

// NewRegistry builds a registry with the built-in decompositions registered
// against the given execution policy and draw primitives.
func NewRegistry(policy offset.Policy, uniform, normal prims.Draw) *Registry {
	r := &Registry{
		ops:     make(map[Op]Impl),
		policy:  policy,
		uniform: uniform,
		normal:  normal,
	}
	r.Register(OpRand, r.rand)
	r.Register(OpRandLike, r.randLike)
	r.Register(OpRandn, r.randn)
	r.Register(OpRandnLike, r.randnLike)
	return r
}

// Register associates op with impl, wrapped by the advance guard, and
// returns the wrapped implementation.
func (r *Registry) Register(op Op, impl Impl) Impl {
	guarded := guardAdvance(op, impl)
	r.ops[op] = guarded
	return guarded
}

// Lookup returns the guarded implementation for op.
func (r *Registry) Lookup(op Op) (Impl, bool) {
	impl, ok := r.ops[op]
	return impl, ok
}

// Dispatch invokes op's guarded implementation against tr.
func (r *Registry) Dispatch(op Op, tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
	impl, ok := r.ops[op]
	if !ok {
		return nil, &UnknownOpError{Op: op}
	}
	return impl(tr, call)
}

// guardAdvance wraps impl so that a successful invocation which did not
// move the tracker's relative offset fails with OffsetStagnationError.
// Errored invocations propagate untouched: an op that legitimately bailed
// out (unsupported device, empty shape) consumed nothing.
func guardAdvance(op Op, impl Impl) Impl {
	return func(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
		before := tr.CurrentRelativeOffset()
		out, err := impl(tr, call)
		if err != nil {
			return nil, err
		}
		after := tr.CurrentRelativeOffset()
		if after == before {
			return nil, &OffsetStagnationError{Op: op, Offset: after}
		}
		return out, nil
	}
}

// resolve applies Call defaults: explicit fields win, then the reference
// tensor's properties, then (cpu, float32).
func resolve(call Call) (shape []int64, strides []int64, dt tensor.DType, dev device.Device) {
	dt = tensor.Float32
	dev = device.Device{Kind: device.CPU}

	if call.Like != nil {
		shape = call.Like.Shape
		strides = call.Like.Strides
		dt = call.Like.DType
		dev = call.Like.Device
	} else {
		shape = call.Shape
	}
	if call.DType != nil {
		dt = *call.DType
	}
	if call.Device != nil {
		dev = *call.Device
	}
	return shape, strides, dt, dev
}

// draw is the shared body of the built-in decompositions: reject
// non-counter-based devices before touching the tracker, read the running
// (seed, offset), draw, advance by the computed consumption.
func (r *Registry) draw(prim prims.Draw, tr *tracker.Tracker, shape, strides []int64, dt tensor.DType, dev device.Device) (*tensor.Tensor, error) {
	if !dev.Kind.CounterBasedRNG() {
		return nil, &UnsupportedDeviceError{Kind: dev.Kind}
	}

	consumed, err := r.policy.ForShape(shape)
	if err != nil {
		return nil, err
	}
	seed, off, err := tr.StateAsTuple()
	if err != nil {
		return nil, err
	}
	out, err := prim(shape, seed, off, strides, dev, dt)
	if err != nil {
		return nil, errors.Wrapf(err, "philox draw for %v failed", shape)
	}
	tr.Advance(consumed)
	return out, nil
}

func (r *Registry) rand(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
	shape, _, dt, dev := resolve(call)
	return r.draw(r.uniform, tr, shape, tensor.ContiguousStridesFor(shape), dt, dev)
}

func (r *Registry) randLike(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
	if call.Like == nil {
		return nil, errors.Errorf("%s requires a reference tensor", OpRandLike)
	}
	shape, strides, dt, dev := resolve(call)
	return r.draw(r.uniform, tr, shape, strides, dt, dev)
}

func (r *Registry) randn(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
	shape, _, dt, dev := resolve(call)
	return r.draw(r.normal, tr, shape, tensor.ContiguousStridesFor(shape), dt, dev)
}

func (r *Registry) randnLike(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
	if call.Like == nil {
		return nil, errors.Errorf("%s requires a reference tensor", OpRandnLike)
	}
	shape, strides, dt, dev := resolve(call)
	return r.draw(r.normal, tr, shape, strides, dt, dev)
}
