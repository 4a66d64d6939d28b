// Package main implements the philoxtrace demo CLI.
//
// philoxtrace runs one full trace/replay cycle against a simulated device
// driver and prints the offset bookkeeping at each step:
//
//  1. Seeds the simulated device RNG state with -seed/-offset
//  2. Traces a forward phase with -fwd-draws uniform draws of -shape
//  3. Traces a backward phase with -bwd-draws draws
//  4. Prints the PhiloxTotalOffsets the compiler would persist
//  5. Replays both phases, advancing the real device offset
//
// Usage:
//
//	philoxtrace -seed 42 -offset 0 -shape 4x4 -fwd-draws 2 -bwd-draws 1
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Vysarat/pytorch/internal/rng/device"
	"github.com/Vysarat/pytorch/internal/rng/hostbridge"
	"github.com/Vysarat/pytorch/philoxrng"
)

func main() {
	var (
		seed     = flag.Uint64("seed", 42, "device rng seed to install before tracing")
		offset   = flag.Uint64("offset", 0, "device rng offset to install before tracing")
		shapeArg = flag.String("shape", "4x4", "draw shape, dims separated by 'x'")
		fwdDraws = flag.Int("fwd-draws", 2, "number of draws in the forward phase")
		bwdDraws = flag.Int("bwd-draws", 1, "number of draws in the backward phase")
	)
	flag.Parse()

	shape, err := parseShape(*shapeArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "philoxtrace: %v\n", err)
		os.Exit(1)
	}

	drv := device.NewSimDriver(device.DefaultProps)
	bridge := hostbridge.New(drv)
	if err := bridge.WriteState(*seed, *offset); err != nil {
		fmt.Fprintf(os.Stderr, "philoxtrace: seed device state: %v\n", err)
		os.Exit(1)
	}

	info := philoxrng.GetInfo()
	fmt.Printf("philoxtrace %s — %s\n\n", info.Version, info.Generator)
	fmt.Printf("device state: seed=%d offset=%d\n", *seed, *offset)

	s := philoxrng.New(drv)
	fmt.Printf("session %s\n", s.ID)
	cuda := device.Device{Kind: device.CUDA}

	if err := s.BeginForward(); err != nil {
		fail(s, err)
	}
	for i := 0; i < *fwdDraws; i++ {
		if _, err := s.Rand(shape, nil, &cuda); err != nil {
			fail(s, err)
		}
	}
	fmt.Printf("forward:  %d draw(s) of %v, relative offset %d\n",
		*fwdDraws, shape, s.Tracker().CurrentRelativeOffset())

	if err := s.BeginBackward(); err != nil {
		fail(s, err)
	}
	for i := 0; i < *bwdDraws; i++ {
		if _, err := s.Rand(shape, nil, &cuda); err != nil {
			fail(s, err)
		}
	}
	fmt.Printf("backward: %d draw(s) of %v, relative offset %d\n",
		*bwdDraws, shape, s.Tracker().CurrentRelativeOffset())

	offs := s.EndTracing()
	fmt.Printf("\npersisted offsets: fwd=%d bwd=%d\n", offs.TotalFwdOffset, offs.TotalBwdOffset)

	// Replay: reconcile the real device stream with what tracing consumed.
	if err := s.ReplayForward(offs); err != nil {
		fail(s, err)
	}
	if err := s.ReplayBackward(offs); err != nil {
		fail(s, err)
	}
	newSeed, newOff, err := bridge.ReadState()
	if err != nil {
		fail(s, err)
	}
	fmt.Printf("device state after replay: seed=%d offset=%d\n", newSeed, newOff)
}

// fail discards the session (the only valid recovery after a mid-phase
// error) and exits.
func fail(s *philoxrng.Session, err error) {
	s.Clear()
	fmt.Fprintf(os.Stderr, "philoxtrace: session %s: %v\n", s.ID, err)
	os.Exit(1)
}

// parseShape turns "4x4" into []int64{4, 4}. An empty string is the scalar
// shape.
func parseShape(arg string) ([]int64, error) {
	if arg == "" {
		return []int64{}, nil
	}
	parts := strings.Split(arg, "x")
	shape := make([]int64, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.ParseInt(p, 10, 64)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("bad shape %q: dims must be non-negative integers separated by 'x'", arg)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
