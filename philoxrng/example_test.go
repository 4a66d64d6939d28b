package philoxrng_test

import (
	"fmt"

	"github.com/Vysarat/pytorch/philoxrng"
)

// Example demonstrates tracing a two-phase graph and reading the offsets
// persisted for replay.
func Example() {
	drv := philoxrng.NewSimDriver(philoxrng.DefaultProps)
	s := philoxrng.New(drv)

	cuda := philoxrng.Device{Kind: philoxrng.CUDA}

	// Forward phase: two 4x4 uniform draws.
	s.BeginForward()
	out, _ := s.Rand([]int64{4, 4}, nil, &cuda)
	s.Rand([]int64{4, 4}, nil, &cuda)

	// Backward phase: one draw shaped like an activation.
	s.BeginBackward()
	s.RandLike(out)

	offs := s.EndTracing()
	fmt.Printf("fwd=%d bwd=%d\n", offs.TotalFwdOffset, offs.TotalBwdOffset)

	// Output:
	// fwd=8 bwd=4
}

// Example_unsupportedDevice shows the rejection path for devices without a
// counter-based generator.
func Example_unsupportedDevice() {
	s := philoxrng.New(philoxrng.NewSimDriver(philoxrng.DefaultProps))
	s.BeginForward()

	_, err := s.Rand([]int64{4, 4}, nil, nil) // nil device defaults to cpu
	fmt.Println(err)

	// Output:
	// cannot functionalize a cpu RNG operator: cpu does not use a Philox/counter-based PRNG
}
