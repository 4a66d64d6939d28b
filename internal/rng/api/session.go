// Package api wires the rng subsystem into tracing sessions.
//
// A Session is the explicit handle the driving tracing system threads
// through one trace: it owns a tracker, a decomposition registry, and a
// host bridge over one device driver. Sessions are independent; tracing two
// graphs concurrently means two Sessions on two threads of control, never
// one Session shared.
package api

import (
	"github.com/google/uuid"

	"github.com/Vysarat/pytorch/internal/rng/decomp"
	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/hostbridge"
	"github.com/Vysarat/pytorch/internal/rng/offset"
	"github.com/Vysarat/pytorch/internal/rng/prims"
	"github.com/Vysarat/pytorch/internal/rng/tensor"
	"github.com/Vysarat/pytorch/internal/rng/tracker"
)

// Session coordinates Philox offset bookkeeping for one traced graph.
//
// Phase flow:
//
//	s := api.NewSession(drv)
//	s.BeginForward()             // samples device state, starts fwd phase
//	out, _ := s.Rand([]int64{4, 4}, nil, &cudaDev)
//	s.BeginBackward()            // samples device state, starts bwd phase
//	g, _ := s.RandLike(out)
//	offs := s.EndTracing()       // persisted with the compiled graph
//	...
//	s.ReplayForward(offs)        // at runtime, after executing the graph
type Session struct {
	// ID identifies this tracing session in diagnostics.
	ID string

	tracker  *tracker.Tracker
	registry *decomp.Registry
	bridge   *hostbridge.Bridge
}

// NewSession builds a session over the given device driver, with the
// built-in decompositions and the driver's execution parameters.
func NewSession(drv device.Driver) *Session {
	policy := offset.NewPolicy(drv.Props())
	return &Session{
		ID:       uuid.NewString(),
		tracker:  tracker.New(),
		registry: decomp.NewRegistry(policy, prims.Uniform(policy), prims.Normal(policy)),
		bridge:   hostbridge.New(drv),
	}
}

// Tracker exposes the session's state tracker (the decomposition layer and
// tests read offsets through it).
func (s *Session) Tracker() *tracker.Tracker {
	return s.tracker
}

// Registry exposes the session's decomposition registry, for registering
// additional random-producing ops.
func (s *Session) Registry() *decomp.Registry {
	return s.registry
}

// Bridge exposes the session's host state bridge.
func (s *Session) Bridge() *hostbridge.Bridge {
	return s.bridge
}

// BeginForward starts the forward phase: repoints the tracker's running
// state and records the real device (seed, offset) as the phase's base.
func (s *Session) BeginForward() error {
	return s.begin(tracker.PhaseForward)
}

// BeginBackward starts the backward phase.
func (s *Session) BeginBackward() error {
	return s.begin(tracker.PhaseBackward)
}

func (s *Session) begin(phase tracker.Phase) error {
	seed, off, err := s.bridge.ReadState()
	if err != nil {
		return err
	}
	switch phase {
	case tracker.PhaseForward:
		s.tracker.MarkBeginningOfForward()
	case tracker.PhaseBackward:
		s.tracker.MarkBeginningOfBackward()
	}
	return s.tracker.RecordState(seed, off, phase)
}

// RecordState overrides the named phase's base state with an
// externally-sampled (seed, offset) pair, for callers that manage device
// state themselves.
func (s *Session) RecordState(seed, off uint64, phase tracker.Phase) error {
	return s.tracker.RecordState(seed, off, phase)
}

// Rand draws a uniform tensor of the given shape during the current phase.
// dt and dev may be nil for the defaults (float32; cpu, which is rejected
// as non-counter-based).
func (s *Session) Rand(shape []int64, dt *tensor.DType, dev *device.Device) (*tensor.Tensor, error) {
	return s.registry.Dispatch(decomp.OpRand, s.tracker, decomp.Call{Shape: shape, DType: dt, Device: dev})
}

// RandLike draws a uniform tensor shaped like x.
func (s *Session) RandLike(x *tensor.Tensor) (*tensor.Tensor, error) {
	return s.registry.Dispatch(decomp.OpRandLike, s.tracker, decomp.Call{Like: x})
}

// Randn draws a standard-normal tensor of the given shape.
func (s *Session) Randn(shape []int64, dt *tensor.DType, dev *device.Device) (*tensor.Tensor, error) {
	return s.registry.Dispatch(decomp.OpRandn, s.tracker, decomp.Call{Shape: shape, DType: dt, Device: dev})
}

// RandnLike draws a standard-normal tensor shaped like x.
func (s *Session) RandnLike(x *tensor.Tensor) (*tensor.Tensor, error) {
	return s.registry.Dispatch(decomp.OpRandnLike, s.tracker, decomp.Call{Like: x})
}

// AccumulatedOffsets snapshots the per-phase consumed offsets without
// ending the session.
func (s *Session) AccumulatedOffsets() tracker.PhiloxTotalOffsets {
	return s.tracker.AccumulatedOffsets()
}

// EndTracing snapshots the per-phase consumed offsets and clears the
// tracker. The returned pair is the only session state meant to be
// persisted (it is embedded in the compiled graph's configuration).
func (s *Session) EndTracing() tracker.PhiloxTotalOffsets {
	offs := s.tracker.AccumulatedOffsets()
	s.tracker.MarkEndOfTracing()
	return offs
}

// Clear discards the session's tracking state. The only valid recovery
// after a mid-phase error.
func (s *Session) Clear() {
	s.tracker.Clear()
}

// ReplayForward advances the real device offset by the forward phase's
// total, making the device stream consistent after the forward graph ran.
func (s *Session) ReplayForward(offs tracker.PhiloxTotalOffsets) error {
	return s.bridge.AdvanceState(offs.TotalFwdOffset)
}

// ReplayBackward advances the real device offset by the backward phase's
// total.
func (s *Session) ReplayBackward(offs tracker.PhiloxTotalOffsets) error {
	return s.bridge.AdvanceState(offs.TotalBwdOffset)
}
