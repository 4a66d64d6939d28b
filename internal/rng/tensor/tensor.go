// Package tensor provides the minimal tensor value the RNG decompositions
// exchange with the draw primitives.
//
// This is deliberately not a tensor library: no views, no memory formats, no
// arithmetic. The decompositions only need a shape, strides, an element
// type, a device, and somewhere to put drawn values.
package tensor

import "github.com/Vysarat/pytorch/internal/rng/device"

// DType identifies the element type of a tensor.
type DType uint8

const (
	// Float32 is the default dtype for random draws.
	Float32 DType = iota

	// Float64 for double-precision draws.
	Float64
)

// String returns the dtype name ("float32", "float64").
func (d DType) String() string {
	if d == Float64 {
		return "float64"
	}
	return "float32"
}

// Tensor is a drawn value: metadata plus element data. Data is stored as
// float64 regardless of DType; DType records the precision the draw was
// requested at.
type Tensor struct {
	Shape   []int64
	Strides []int64
	DType   DType
	Device  device.Device
	Data    []float64
}

// Numel returns the number of elements a shape addresses. The empty shape
// is a scalar and has one element.
func Numel(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

// ContiguousStridesFor computes row-major contiguous strides for shape.
// The last dimension has stride 1; each earlier dimension's stride is the
// product of all later dimension sizes.
func ContiguousStridesFor(shape []int64) []int64 {
	strides := make([]int64, len(shape))
	stride := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// New allocates a tensor of the given shape with contiguous strides and
// zeroed data.
func New(shape []int64, dt DType, dev device.Device) *Tensor {
	return &Tensor{
		Shape:   append([]int64(nil), shape...),
		Strides: ContiguousStridesFor(shape),
		DType:   dt,
		Device:  dev,
		Data:    make([]float64, Numel(shape)),
	}
}
