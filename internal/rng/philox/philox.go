// Package philox holds the per-phase Philox generator state record.
//
// A State is a (seed, base_offset, relative_offset) triple. Seed and base
// offset point at the real device RNG state just before tracing started;
// the relative offset accumulates the counter units consumed while tracing.
// The position an actual draw must use is always
//
//	effective_offset = base_offset + relative_offset
//
// A State knows nothing about phases or devices; the tracker composes three
// of them.
package philox

// UninitializedStateError reports a draw or offset read attempted before
// the state was populated for the active phase. There is no correct default
// seed to fall back to, so this is fatal to the tracing session.
type UninitializedStateError struct{}

// Error implements the error interface.
func (e *UninitializedStateError) Error() string {
	return "philox state has no seed/base offset recorded; record device rng state before drawing"
}

// State is one Philox RNG position with session-relative progress.
//
// Lifecycle: constructed empty, populated once by SetState at phase start,
// advanced monotonically during the phase, reset at end of tracing. The
// zero value is the uninitialized state.
type State struct {
	seed       uint64
	baseOffset uint64

	// relativeOffset only ever grows within a session. No upper bound is
	// enforced; the Philox counter range is the generator's own limit.
	relativeOffset uint64

	populated bool
}

// Reset clears the state back to uninitialized.
func (s *State) Reset() {
	*s = State{}
}

// Validate returns UninitializedStateError unless seed and base offset have
// been populated.
func (s *State) Validate() error {
	if !s.populated {
		return &UninitializedStateError{}
	}
	return nil
}

// SetState populates seed and base offset and resets relative progress.
func (s *State) SetState(seed, baseOffset uint64) {
	s.SetStateWithRelative(seed, baseOffset, 0)
}

// SetStateWithRelative populates the full triple.
func (s *State) SetStateWithRelative(seed, baseOffset, relativeOffset uint64) {
	s.seed = seed
	s.baseOffset = baseOffset
	s.relativeOffset = relativeOffset
	s.populated = true
}

// Advance adds consumed counter units to the relative offset.
//
// Monotonic by construction (consumed is unsigned). Advance does not bound
// the total against the generator's counter range; that is the caller's
// responsibility.
func (s *State) Advance(consumed uint64) {
	s.relativeOffset += consumed
}

// RelativeOffset returns the counter units consumed this session. Valid
// even on an uninitialized state, where it is 0.
func (s *State) RelativeOffset() uint64 {
	return s.relativeOffset
}

// EffectiveOffset returns base_offset + relative_offset, the position an
// actual draw must use. Fails on an uninitialized state.
func (s *State) EffectiveOffset() (uint64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return s.baseOffset + s.relativeOffset, nil
}

// StateAsTuple returns (seed, effective_offset), validating first. This is
// the pair a decomposition feeds to the counter-based draw primitive.
func (s *State) StateAsTuple() (seed, offset uint64, err error) {
	if err := s.Validate(); err != nil {
		return 0, 0, err
	}
	return s.seed, s.baseOffset + s.relativeOffset, nil
}
