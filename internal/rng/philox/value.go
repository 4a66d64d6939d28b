package philox

import (
	"encoding/binary"
	"fmt"
)

// StateValueBytes is the wire size of a packed StateValue.
const StateValueBytes = 16

// StateValue is a State packed into one composite value for checkpoint and
// restore interop: element 0 is the seed, element 1 the effective offset.
//
// A StateValue always represents a fully-resolved position. Restoring one
// therefore installs its offset as the new base and discards any pending
// relative progress.
type StateValue [2]uint64

// Seed returns the packed seed.
func (v StateValue) Seed() uint64 { return v[0] }

// Offset returns the packed effective offset.
func (v StateValue) Offset() uint64 { return v[1] }

// Bytes serializes the value as 16 little-endian bytes (seed then offset).
func (v StateValue) Bytes() []byte {
	buf := make([]byte, StateValueBytes)
	binary.LittleEndian.PutUint64(buf[0:8], v[0])
	binary.LittleEndian.PutUint64(buf[8:16], v[1])
	return buf
}

// String formats the value for diagnostics.
func (v StateValue) String() string {
	return fmt.Sprintf("philox(seed=%d, offset=%d)", v[0], v[1])
}

// StateValueFromBytes deserializes a 16-byte little-endian StateValue.
func StateValueFromBytes(buf []byte) (StateValue, error) {
	if len(buf) != StateValueBytes {
		return StateValue{}, fmt.Errorf("philox state value must be %d bytes, got %d", StateValueBytes, len(buf))
	}
	return StateValue{
		binary.LittleEndian.Uint64(buf[0:8]),
		binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// AsValue packs (seed, effective_offset) into a StateValue, validating
// first.
func (s *State) AsValue() (StateValue, error) {
	seed, off, err := s.StateAsTuple()
	if err != nil {
		return StateValue{}, err
	}
	return StateValue{seed, off}, nil
}

// SetFromValue restores the state from a packed value: seed and base offset
// come from v, relative offset resets to 0.
//
// The reset is deliberate. Transport values carry effective offsets, so any
// in-flight relative progress is already folded into v.Offset(); keeping it
// would double-count.
func (s *State) SetFromValue(v StateValue) {
	s.SetStateWithRelative(v.Seed(), v.Offset(), 0)
}
