package device

import "github.com/pkg/errors"

// simStateBytes is the size of the simulated RNG state buffer. It matches
// the CUDA generator state: an 800-byte MT19937 region kept for layout
// compatibility, followed by the 8-byte Philox seed and 8-byte offset.
const simStateBytes = 816

// SimDriver is an in-memory Driver used by tests, examples, and the demo
// binary. It holds a single RNG state buffer and hands out copies, the same
// ownership contract the real driver has.
//
// SimDriver performs no synchronization; like the rest of the tracing layer
// it assumes one logical thread of control.
type SimDriver struct {
	props     Props
	available bool
	state     []byte
}

// NewSimDriver returns an available simulated device with a zeroed RNG
// state buffer (seed 0, offset 0).
func NewSimDriver(props Props) *SimDriver {
	return &SimDriver{
		props:     props,
		available: true,
		state:     make([]byte, simStateBytes),
	}
}

// NewUnavailableDriver returns a driver that reports no counter-based
// device. Used to exercise the degenerate (0, 0) paths.
func NewUnavailableDriver() *SimDriver {
	return &SimDriver{available: false}
}

// Available implements Driver.
func (s *SimDriver) Available() bool {
	return s.available
}

// Props implements Driver.
func (s *SimDriver) Props() Props {
	return s.props
}

// GetRNGStateBytes implements Driver. The returned slice is a copy; mutating
// it does not affect device state.
func (s *SimDriver) GetRNGStateBytes() ([]byte, error) {
	if !s.available {
		return nil, errors.New("no counter-based device available")
	}
	buf := make([]byte, len(s.state))
	copy(buf, s.state)
	return buf, nil
}

// SetRNGStateBytes implements Driver. The buffer must be exactly the device
// state size; anything else is a caller bug, not a truncation opportunity.
func (s *SimDriver) SetRNGStateBytes(buf []byte) error {
	if !s.available {
		return errors.New("no counter-based device available")
	}
	if len(buf) != simStateBytes {
		return errors.Errorf("rng state buffer must be %d bytes, got %d", simStateBytes, len(buf))
	}
	copy(s.state, buf)
	return nil
}
