// Package offset computes how many Philox counter units a single random
// draw consumes.
//
// The count must match the device kernel's execution policy bit-for-bit:
// under-counting makes later draws reuse counter positions (stream overlap,
// a silent correctness bug), over-counting merely leaves unreachable gaps.
// The formula mirrors calc_execution_policy in the CUDA distribution
// kernels: each thread generates Unroll elements per engine call and every
// engine call produces EngineCallsPerBlock counter units.
package offset

import (
	"fmt"

	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/tensor"
)

// Kernel launch constants of the counter-based distribution kernels. They
// are properties of the compiled kernels, not of any particular device.
const (
	// BlockSize is the number of threads per block.
	BlockSize = 256

	// Unroll is the number of elements each thread produces per engine call.
	Unroll = 4

	// EngineCallsPerBlock is the number of generator engine invocations per
	// unrolled block (curand produces four 32-bit words per call).
	EngineCallsPerBlock = 4
)

// EmptyShapeError reports a draw requested for a shape with zero elements.
// Zero-element draws launch no kernel and consume no counter units; callers
// must special-case them before asking for an offset.
type EmptyShapeError struct {
	Shape []int64
}

// Error implements the error interface.
func (e *EmptyShapeError) Error() string {
	return fmt.Sprintf("cannot compute philox offset for empty shape %v (numel = 0)", e.Shape)
}

// Policy binds the kernel launch constants to a device's execution
// parameters. A Policy is immutable and safe to share.
type Policy struct {
	props device.Props
}

// NewPolicy returns a Policy for a device with the given execution
// parameters.
func NewPolicy(props device.Props) Policy {
	return Policy{props: props}
}

// ForShape returns the number of counter units one draw of the given shape
// consumes.
//
// The computation follows the kernel launch exactly:
//
//	numel        = product of dims (empty shape is a scalar, numel = 1)
//	blocksPerSM  = floor(MaxThreadsPerSM / BlockSize)
//	gridSize     = ceil(numel / BlockSize), clamped to SMCount * blocksPerSM
//	offset       = ceil(numel / (BlockSize * gridSize * Unroll)) * EngineCallsPerBlock
//
// using the (numel-1)/d + 1 integer ceiling. Deterministic: identical
// inputs always yield identical output. Returns EmptyShapeError when
// numel == 0.
func (p Policy) ForShape(shape []int64) (uint64, error) {
	numel := tensor.Numel(shape)
	if numel == 0 {
		return 0, &EmptyShapeError{Shape: append([]int64(nil), shape...)}
	}

	perThread := (numel-1)/(BlockSize*p.grid(numel)*Unroll) + 1
	return uint64(perThread) * EngineCallsPerBlock, nil
}

// TotalThreads returns the number of threads the launch for a draw of the
// given shape spans (BlockSize per block across the grid). Draw primitives
// use it to map each element onto the thread subsequence that produces it,
// so the counter span they occupy is exactly the span ForShape charges.
// A zero-element shape launches nothing and spans zero threads.
func (p Policy) TotalThreads(shape []int64) int64 {
	numel := tensor.Numel(shape)
	if numel == 0 {
		return 0
	}
	return p.grid(numel) * BlockSize
}

// grid is the launch grid size for numel elements. numel must be positive.
func (p Policy) grid(numel int64) int64 {
	blocksPerSM := p.props.MaxThreadsPerSM / BlockSize
	gridSize := (numel + BlockSize - 1) / BlockSize
	if maxGrid := p.props.SMCount * blocksPerSM; maxGrid > 0 && gridSize > maxGrid {
		gridSize = maxGrid
	}
	return gridSize
}
