// Package tracker coordinates Philox state across the two phases of a
// traced computation.
//
// A Tracker owns one philox.State per phase (forward, backward) plus a
// running pointer that always designates the state draws currently charge
// against. Switching phases repoints running and never touches the
// non-running state, which is what makes forward and backward offset
// accounting independent.
//
// A Tracker is deliberately unsynchronized: tracing records one operation
// after another on a single logical thread of control. Concurrent tracing
// sessions must use separate Trackers (the driving system enforces that,
// typically by thread confinement).
//
// Session shape:
//
//	t := tracker.New()
//	t.MarkBeginningOfForward()
//	t.RecordState(seed, offset, tracker.PhaseForward)
//	... draws advance the running state ...
//	t.MarkBeginningOfBackward()
//	t.RecordState(seed2, offset2, tracker.PhaseBackward)
//	... draws ...
//	offs := t.AccumulatedOffsets()
//	t.MarkEndOfTracing()
//
// If anything errors mid-session the tracker may be left inconsistent; the
// only valid recovery is Clear and a full retrace.
package tracker

import (
	"fmt"

	"github.com/Vysarat/pytorch/internal/rng/philox"
)

// Phase identifies which half of the traced computation is being recorded.
type Phase uint8

const (
	// PhaseForward is the forward half of the computation.
	PhaseForward Phase = iota + 1

	// PhaseBackward is the separately-executed backward half.
	PhaseBackward
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseForward:
		return "forward"
	case PhaseBackward:
		return "backward"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// InvalidPhaseError reports a RecordState call with a phase identifier
// outside {forward, backward}.
type InvalidPhaseError struct {
	Phase Phase
}

// Error implements the error interface.
func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("cannot record rng state for %s: phase must be forward or backward", e.Phase)
}

// PhiloxTotalOffsets is the immutable pair of counter units consumed by
// each phase of one traced graph. It is the only state that outlives a
// tracking session: the compiler embeds it in the graph's persisted
// configuration and replay feeds it to the host bridge.
type PhiloxTotalOffsets struct {
	TotalFwdOffset uint64
	TotalBwdOffset uint64
}

// Tracker holds the per-phase Philox states for one tracing session.
//
// Invariant: running aliases exactly one of fwd/bwd once a phase has begun;
// before that it points at a throwaway empty state so that stray operations
// fail validation instead of corrupting a phase.
type Tracker struct {
	fwd     *philox.State
	bwd     *philox.State
	running *philox.State
}

// New returns a cleared Tracker.
func New() *Tracker {
	t := &Tracker{}
	t.Clear()
	return t
}

// Clear resets all three states to empty. After Clear the running pointer
// designates a fresh state that belongs to neither phase.
func (t *Tracker) Clear() {
	t.fwd = &philox.State{}
	t.bwd = &philox.State{}
	t.running = &philox.State{}
}

// MarkBeginningOfForward makes the forward state the running one.
//
// No check that a prior phase was closed: phase sequencing is the driving
// system's contract, not an enforced invariant here.
func (t *Tracker) MarkBeginningOfForward() {
	t.running = t.fwd
}

// MarkBeginningOfBackward makes the backward state the running one.
func (t *Tracker) MarkBeginningOfBackward() {
	t.running = t.bwd
}

// MarkEndOfTracing resets the tracker so the next session starts from a
// clean slate.
func (t *Tracker) MarkEndOfTracing() {
	t.Clear()
}

// RecordState populates the named phase's state directly from an
// externally-sampled (seed, offset) pair. The named phase need not be the
// running one: the host bridge samples both phases' starting states up
// front.
func (t *Tracker) RecordState(seed, offset uint64, phase Phase) error {
	switch phase {
	case PhaseForward:
		t.fwd.SetState(seed, offset)
	case PhaseBackward:
		t.bwd.SetState(seed, offset)
	default:
		return &InvalidPhaseError{Phase: phase}
	}
	return nil
}

// Advance charges consumed counter units to the running state.
func (t *Tracker) Advance(consumed uint64) {
	t.running.Advance(consumed)
}

// CurrentRelativeOffset returns the running state's session-relative
// offset. The advance guard samples this around every decomposition.
func (t *Tracker) CurrentRelativeOffset() uint64 {
	return t.running.RelativeOffset()
}

// StateAsTuple returns the running state's (seed, effective_offset).
func (t *Tracker) StateAsTuple() (seed, offset uint64, err error) {
	return t.running.StateAsTuple()
}

// StateAsValue returns the running state packed as a transport value, for
// callers that checkpoint rng state mid-trace.
func (t *Tracker) StateAsValue() (philox.StateValue, error) {
	return t.running.AsValue()
}

// SetStateFromValue restores the running state from a transport value
// (relative offset resets to 0; see philox.State.SetFromValue).
func (t *Tracker) SetStateFromValue(v philox.StateValue) {
	t.running.SetFromValue(v)
}

// AccumulatedOffsets snapshots the counter units consumed by each phase so
// far. Typically read once at end of tracing, but valid at any time.
func (t *Tracker) AccumulatedOffsets() PhiloxTotalOffsets {
	return PhiloxTotalOffsets{
		TotalFwdOffset: t.fwd.RelativeOffset(),
		TotalBwdOffset: t.bwd.RelativeOffset(),
	}
}
