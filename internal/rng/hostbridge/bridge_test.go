package hostbridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vysarat/pytorch/internal/rng/device"
)

// TestWriteReadRoundTrip asserts the byte layout: write (42, 7), read it
// back exactly.
func TestWriteReadRoundTrip(t *testing.T) {
	drv := device.NewSimDriver(device.DefaultProps)
	b := New(drv)

	require.NoError(t, b.WriteState(42, 7))

	seed, off, err := b.ReadState()
	require.NoError(t, err)
	require.Equal(t, uint64(42), seed)
	require.Equal(t, uint64(7), off)
}

// TestWritePrefixOpaque asserts bytes 0-799 of a written buffer are the
// fixed 0xFF prefix and the Philox fields sit at their contracted
// positions, little-endian.
func TestWritePrefixOpaque(t *testing.T) {
	drv := device.NewSimDriver(device.DefaultProps)
	b := New(drv)

	require.NoError(t, b.WriteState(0x0102030405060708, 0x1112131415161718))

	buf, err := drv.GetRNGStateBytes()
	require.NoError(t, err)
	require.Len(t, buf, StateBytes)

	for i := 0; i < PrefixBytes; i++ {
		require.Equal(t, byte(0xFF), buf[i], "prefix byte %d", i)
	}
	require.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, buf[800:808])
	require.Equal(t, []byte{0x18, 0x17, 0x16, 0x15, 0x14, 0x13, 0x12, 0x11}, buf[808:816])

	// A second write leaves the prefix untouched.
	require.NoError(t, b.WriteState(1, 2))
	buf, err = drv.GetRNGStateBytes()
	require.NoError(t, err)
	for i := 0; i < PrefixBytes; i++ {
		require.Equal(t, byte(0xFF), buf[i], "prefix byte %d after rewrite", i)
	}
}

// TestAdvanceState asserts AdvanceState moves only the offset field.
func TestAdvanceState(t *testing.T) {
	drv := device.NewSimDriver(device.DefaultProps)
	b := New(drv)
	require.NoError(t, b.WriteState(99, 1000))

	require.NoError(t, b.AdvanceState(24))

	seed, off, err := b.ReadState()
	require.NoError(t, err)
	require.Equal(t, uint64(99), seed)
	require.Equal(t, uint64(1024), off)

	// Advancing again accumulates.
	require.NoError(t, b.AdvanceState(8))
	_, off, err = b.ReadState()
	require.NoError(t, err)
	require.Equal(t, uint64(1032), off)
}

// TestNoDeviceDegenerate asserts absence of a counter-based device is a
// valid state: reads yield (0, 0), writes and advances are no-ops.
func TestNoDeviceDegenerate(t *testing.T) {
	b := New(device.NewUnavailableDriver())

	seed, off, err := b.ReadState()
	require.NoError(t, err)
	require.Equal(t, uint64(0), seed)
	require.Equal(t, uint64(0), off)

	require.NoError(t, b.WriteState(42, 7))
	require.NoError(t, b.AdvanceState(100))

	seed, off, err = b.ReadState()
	require.NoError(t, err)
	require.Equal(t, uint64(0), seed)
	require.Equal(t, uint64(0), off)
}

// shortDriver returns an undersized state buffer.
type shortDriver struct{}

func (shortDriver) Available() bool			{ return true }
func (shortDriver) Props() device.Props			{ return device.DefaultProps }
func (shortDriver) GetRNGStateBytes() ([]byte, error)	{ return make([]byte, 100), nil }
func (shortDriver) SetRNGStateBytes([]byte) error	{ return nil }

// TestShortBufferRejected asserts a malformed driver buffer is an error,
// never silently truncated.
func TestShortBufferRejected(t *testing.T) {
	b := New(shortDriver{})

	_, _, err := b.ReadState()
	require.Error(t, err)
	require.Contains(t, err.Error(), "too short")
}
