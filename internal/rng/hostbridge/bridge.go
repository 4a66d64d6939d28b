// Package hostbridge reads and writes the real device RNG state.
//
// A tracing session samples the device's (seed, offset) through the bridge
// to initialize its Philox states, and after replay advances the real
// offset by what the traced graph consumed so the device stream stays
// consistent with what tracing assumed.
//
// The bridge mutates device-global state. Within one logical session it
// must have exclusive access to the device RNG: no other consumer may read
// or write between ReadState and the matching WriteState/AdvanceState.
package hostbridge

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/Vysarat/pytorch/internal/rng/device"
)

// Byte layout of the device RNG state buffer. The layout is the driver's
// contract and must be preserved exactly: an 800-byte opaque prefix (the
// legacy MT19937 region), then the 8-byte seed, then the 8-byte offset,
// both little-endian.
const (
	// PrefixBytes is the size of the opaque region preceding the Philox
	// fields.
	PrefixBytes = 800

	seedStart   = PrefixBytes
	offsetStart = PrefixBytes + 8

	// StateBytes is the total size of the state buffer.
	StateBytes = PrefixBytes + 16
)

// Bridge moves (seed, offset) pairs between the tracker's world of plain
// integers and the driver's opaque state buffer.
type Bridge struct {
	drv device.Driver
}

// New returns a Bridge over the given driver.
func New(drv device.Driver) *Bridge {
	return &Bridge{drv: drv}
}

// ReadState extracts (seed, offset) from the device RNG state buffer.
//
// Absence of a counter-based device is a degenerate-but-valid case and
// returns (0, 0): tracing on a machine without the device still produces a
// well-formed graph, it just records a trivial starting position.
func (b *Bridge) ReadState() (seed, off uint64, err error) {
	if !b.drv.Available() {
		return 0, 0, nil
	}
	buf, err := b.drv.GetRNGStateBytes()
	if err != nil {
		return 0, 0, errors.Wrap(err, "read device rng state")
	}
	if len(buf) < StateBytes {
		return 0, 0, errors.Errorf("device rng state buffer too short: %d bytes, need %d", len(buf), StateBytes)
	}
	seed = binary.LittleEndian.Uint64(buf[seedStart:offsetStart])
	off = binary.LittleEndian.Uint64(buf[offsetStart:StateBytes])
	return seed, off, nil
}

// WriteState rebuilds the full state buffer around (seed, offset) and
// installs it as the new device RNG state. The opaque prefix is filled with
// 0xFF bytes; the driver only interprets the Philox fields. With no device
// available WriteState is a no-op, mirroring ReadState's (0, 0).
func (b *Bridge) WriteState(seed, off uint64) error {
	if !b.drv.Available() {
		return nil
	}
	buf := make([]byte, StateBytes)
	for i := 0; i < PrefixBytes; i++ {
		buf[i] = 0xFF
	}
	binary.LittleEndian.PutUint64(buf[seedStart:offsetStart], seed)
	binary.LittleEndian.PutUint64(buf[offsetStart:StateBytes], off)
	if err := b.drv.SetRNGStateBytes(buf); err != nil {
		return errors.Wrap(err, "write device rng state")
	}
	return nil
}

// AdvanceState adds relativeOffset to the device's offset field, leaving
// the seed untouched. Called after replaying a traced graph so the real
// stream position accounts for the counter units the graph consumed.
func (b *Bridge) AdvanceState(relativeOffset uint64) error {
	seed, off, err := b.ReadState()
	if err != nil {
		return err
	}
	return b.WriteState(seed, off+relativeOffset)
}
