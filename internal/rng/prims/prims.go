// Package prims provides the counter-based draw primitives the rng
// decompositions dispatch to.
//
// A draw here is the functional analogue of a philox_rand kernel launch:
// a pure function of (shape, seed, offset) with no hidden generator state.
// Addressing follows the kernel it stands in for. The launch spans
// totalThreads = gridSize * BlockSize threads; element i belongs to thread
// i mod totalThreads, which produces it during engine call
// (i / totalThreads) / Unroll. Each thread is its own stream subsequence
// and the engine call index maps onto the counter, so one draw occupies
// exactly the counter span the offset calculator charges for it. Under-
// spanning that charge is how two independently-charged draws end up
// replaying each other's values.
//
// The stream itself is a stand-in: a splitmix64-style mix of seed,
// subsequence, and counter rather than real 10-round Philox. Statistical
// quality of the stream is outside this layer's contract; determinism and
// counter-addressability are the contract, and integrations that need the
// true device stream supply their own Draw backed by the device kernel.
package prims

import (
	"math"

	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/offset"
	"github.com/Vysarat/pytorch/internal/rng/tensor"
)

// Draw produces a tensor of the given shape from the counter-based stream
// identified by (seed, offset). Implementations must be pure: identical
// arguments always produce identical tensors.
type Draw func(shape []int64, seed, off uint64, strides []int64, dev device.Device, dt tensor.DType) (*tensor.Tensor, error)

// mix64 is the splitmix64 finalizer: a bijective avalanche of its input.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// at returns the stream word of thread subsequence sub at counter position
// ctr for the given seed. The golden-ratio increment keeps nearby
// (seed, ctr) pairs decorrelated; the subsequence enters through its own
// avalanche so neighboring threads at one counter position are as unrelated
// as one thread at neighboring positions.
func at(seed, sub, ctr uint64) uint64 {
	return mix64(seed ^ mix64(ctr*0x9e3779b97f4a7c15+seed) ^ mix64(sub*0xd1342543de82ef95+1))
}

// unitFloat maps a stream word onto [0, 1) using the top 53 bits.
func unitFloat(w uint64) float64 {
	return float64(w>>11) / (1 << 53)
}

// position maps element i of a draw spanning threads kernel threads onto
// its (subsequence, counter) address relative to the draw's offset.
func position(i, threads, off uint64) (sub, ctr uint64) {
	sub = i % threads
	slot := i / threads
	ctr = off + (slot/offset.Unroll)*offset.EngineCallsPerBlock + slot%offset.Unroll
	return sub, ctr
}

// Uniform returns a Draw producing values uniform on [0, 1) under the
// given execution policy. A draw of numel elements at offset n reads
// counter positions n through n + ForShape(shape) - 1, never beyond.
func Uniform(policy offset.Policy) Draw {
	return func(shape []int64, seed, off uint64, strides []int64, dev device.Device, dt tensor.DType) (*tensor.Tensor, error) {
		out := tensor.New(shape, dt, dev)
		if strides != nil {
			out.Strides = append([]int64(nil), strides...)
		}
		threads := uint64(policy.TotalThreads(shape))
		for i := range out.Data {
			sub, ctr := position(uint64(i), threads, off)
			out.Data[i] = unitFloat(at(seed, sub, ctr))
		}
		return out, nil
	}
}

// Normal returns a Draw producing standard-normal values via the
// Box-Muller transform. Element i sits at the same (subsequence, counter)
// address as Uniform's element i; the pair of uniforms Box-Muller needs
// both derive from that one address (an engine call yields four 32-bit
// words per thread, enough for the pair), so a normal draw occupies the
// identical counter span it is charged.
func Normal(policy offset.Policy) Draw {
	return func(shape []int64, seed, off uint64, strides []int64, dev device.Device, dt tensor.DType) (*tensor.Tensor, error) {
		out := tensor.New(shape, dt, dev)
		if strides != nil {
			out.Strides = append([]int64(nil), strides...)
		}
		threads := uint64(policy.TotalThreads(shape))
		for i := range out.Data {
			sub, ctr := position(uint64(i), threads, off)
			w := at(seed, sub, ctr)
			u1 := unitFloat(w)
			u2 := unitFloat(mix64(w + 0x9e3779b97f4a7c15))
			// Guard the log against an exact zero word.
			if u1 == 0 {
				u1 = math.SmallestNonzeroFloat64
			}
			out.Data[i] = math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		}
		return out, nil
	}
}
