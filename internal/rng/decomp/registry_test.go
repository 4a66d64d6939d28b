package decomp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/offset"
	"github.com/Vysarat/pytorch/internal/rng/prims"
	"github.com/Vysarat/pytorch/internal/rng/tensor"
	"github.com/Vysarat/pytorch/internal/rng/tracker"
)

var cudaDev = device.Device{Kind: device.CUDA}

func newTestRegistry() *Registry {
	policy := offset.NewPolicy(device.DefaultProps)
	return NewRegistry(policy, prims.Uniform(policy), prims.Normal(policy))
}

func newTestTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	tr := tracker.New()
	require.NoError(t, tr.RecordState(42, 1000, tracker.PhaseForward))
	tr.MarkBeginningOfForward()
	return tr
}

// TestRandAdvancesByCalculatedOffset asserts each rand call advances the
// running state by exactly the offset calculator's result.
func TestRandAdvancesByCalculatedOffset(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)
	shape := []int64{4, 4}

	perDraw, err := offset.NewPolicy(device.DefaultProps).ForShape(shape)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		out, err := r.Dispatch(OpRand, tr, Call{Shape: shape, Device: &cudaDev})
		require.NoError(t, err)
		require.Equal(t, shape, out.Shape)
		require.Equal(t, tensor.ContiguousStridesFor(shape), out.Strides)
		require.Len(t, out.Data, 16)
		require.Equal(t, uint64(i)*perDraw, tr.CurrentRelativeOffset())
	}
}

// TestRandDeterministicReplay asserts a draw is a pure function of the
// recorded (seed, offset): a second tracker recording the same state
// reproduces the same tensor.
func TestRandDeterministicReplay(t *testing.T) {
	r := newTestRegistry()
	shape := []int64{3, 5}

	trace := func() []float64 {
		tr := tracker.New()
		require.NoError(t, tr.RecordState(7, 300, tracker.PhaseForward))
		tr.MarkBeginningOfForward()

		// Skip one draw so the second starts at an advanced offset.
		_, err := r.Dispatch(OpRand, tr, Call{Shape: shape, Device: &cudaDev})
		require.NoError(t, err)
		out, err := r.Dispatch(OpRand, tr, Call{Shape: shape, Device: &cudaDev})
		require.NoError(t, err)
		return out.Data
	}

	require.Equal(t, trace(), trace())
}

// TestRandUnsupportedDevice asserts non-counter-based devices are rejected
// by name before any tracker mutation.
func TestRandUnsupportedDevice(t *testing.T) {
	tests := []struct {
		name string
		dev  *device.Device
		want device.Kind
	}{
		{name: "default device is cpu", dev: nil, want: device.CPU},
		{name: "explicit cpu", dev: &device.Device{Kind: device.CPU}, want: device.CPU},
		{name: "mps", dev: &device.Device{Kind: device.MPS}, want: device.MPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			tr := newTestTracker(t)
			before := tr.CurrentRelativeOffset()

			_, err := r.Dispatch(OpRand, tr, Call{Shape: []int64{4, 4}, Device: tt.dev})

			var unsupported *UnsupportedDeviceError
			require.ErrorAs(t, err, &unsupported)
			require.Equal(t, tt.want, unsupported.Kind)
			require.Contains(t, err.Error(), tt.want.String())
			require.Equal(t, before, tr.CurrentRelativeOffset())
		})
	}
}

// TestRandLikeDefaults asserts rand_like inherits shape, strides, dtype,
// and device from the reference tensor.
func TestRandLikeDefaults(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)

	ref := tensor.New([]int64{2, 8}, tensor.Float64, cudaDev)
	out, err := r.Dispatch(OpRandLike, tr, Call{Like: ref})
	require.NoError(t, err)
	require.Equal(t, ref.Shape, out.Shape)
	require.Equal(t, ref.Strides, out.Strides)
	require.Equal(t, tensor.Float64, out.DType)
	require.Equal(t, cudaDev, out.Device)

	perDraw, err := offset.NewPolicy(device.DefaultProps).ForShape(ref.Shape)
	require.NoError(t, err)
	require.Equal(t, perDraw, tr.CurrentRelativeOffset())
}

// TestRandLikeCPUReference asserts a cpu reference tensor is rejected like
// an explicit cpu device.
func TestRandLikeCPUReference(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)

	ref := tensor.New([]int64{4}, tensor.Float32, device.Device{Kind: device.CPU})
	_, err := r.Dispatch(OpRandLike, tr, Call{Like: ref})

	var unsupported *UnsupportedDeviceError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, device.CPU, unsupported.Kind)
}

// TestRandnOps covers the normal-distribution variants' bookkeeping.
func TestRandnOps(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)
	shape := []int64{8, 8}

	perDraw, err := offset.NewPolicy(device.DefaultProps).ForShape(shape)
	require.NoError(t, err)

	out, err := r.Dispatch(OpRandn, tr, Call{Shape: shape, Device: &cudaDev})
	require.NoError(t, err)
	require.Equal(t, perDraw, tr.CurrentRelativeOffset())

	_, err = r.Dispatch(OpRandnLike, tr, Call{Like: out})
	require.NoError(t, err)
	require.Equal(t, 2*perDraw, tr.CurrentRelativeOffset())
}

// TestGuardCatchesStagnantDecomposition registers a deliberately broken
// implementation (never advances) and asserts the guard fails its first
// invocation.
func TestGuardCatchesStagnantDecomposition(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)

	const broken Op = "aten.broken_rand"
	r.Register(broken, func(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
		// Draws but forgets to advance the tracker.
		return tensor.New(call.Shape, tensor.Float32, cudaDev), nil
	})

	_, err := r.Dispatch(broken, tr, Call{Shape: []int64{4}})

	var stagnant *OffsetStagnationError
	require.ErrorAs(t, err, &stagnant)
	require.Equal(t, broken, stagnant.Op)
}

// TestGuardSkipsErroredCalls asserts an implementation that fails before
// consuming anything propagates its own error, not a stagnation error.
func TestGuardSkipsErroredCalls(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)

	// Empty shape: the offset calculator errors before any draw.
	_, err := r.Dispatch(OpRand, tr, Call{Shape: []int64{0, 4}, Device: &cudaDev})

	var emptyErr *offset.EmptyShapeError
	require.ErrorAs(t, err, &emptyErr)

	var stagnant *OffsetStagnationError
	require.False(t, errors.As(err, &stagnant))
	require.Equal(t, uint64(0), tr.CurrentRelativeOffset())
}

// TestRandUninitializedTracker asserts drawing before the phase state was
// recorded fails rather than defaulting a seed.
func TestRandUninitializedTracker(t *testing.T) {
	r := newTestRegistry()
	tr := tracker.New()
	tr.MarkBeginningOfForward()

	_, err := r.Dispatch(OpRand, tr, Call{Shape: []int64{4}, Device: &cudaDev})
	require.Error(t, err)
	require.Equal(t, uint64(0), tr.CurrentRelativeOffset())
}

// TestDispatchUnknownOp asserts unregistered ops fail with UnknownOpError.
func TestDispatchUnknownOp(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)

	_, err := r.Dispatch("aten.dropout", tr, Call{Shape: []int64{4}})
	var unknown *UnknownOpError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, Op("aten.dropout"), unknown.Op)
}

// TestRegisterReturnsGuardedImpl asserts Register hands back the wrapped
// implementation, matching what Dispatch runs.
func TestRegisterReturnsGuardedImpl(t *testing.T) {
	r := newTestRegistry()
	tr := newTestTracker(t)

	const op Op = "aten.custom_rand"
	guarded := r.Register(op, func(tr *tracker.Tracker, call Call) (*tensor.Tensor, error) {
		return tensor.New(call.Shape, tensor.Float32, cudaDev), nil
	})

	// Invoking the returned impl directly still trips the guard.
	_, err := guarded(tr, Call{Shape: []int64{4}})
	var stagnant *OffsetStagnationError
	require.ErrorAs(t, err, &stagnant)

	looked, ok := r.Lookup(op)
	require.True(t, ok)
	require.NotNil(t, looked)
}
