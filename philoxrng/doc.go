// Package philoxrng makes randomness in two-phase traced computations
// reproducible.
//
// A counter-based PRNG (Philox) computes the value at stream position n as
// a pure function of (seed, n). That property lets a tracing compiler
// record, for every random-producing operation it sees, the exact stream
// position the operation will read — and later replay only the backward
// half of the computation with exactly the random values it was planned
// with, regardless of when or on which run it executes.
//
// This package does the bookkeeping that makes the recording correct: it
// partitions one global (seed, offset) stream between the forward and
// backward phases of a traced graph, charges every draw the precise number
// of counter units the device kernel consumes, and reconciles the real
// device RNG state after replay.
//
// # Quick Start
//
//	drv := philoxrng.NewSimDriver(philoxrng.DefaultProps)
//	s := philoxrng.New(drv)
//
//	s.BeginForward()
//	cuda := philoxrng.Device{Kind: philoxrng.CUDA}
//	out, err := s.Rand([]int64{4, 4}, nil, &cuda)
//
//	s.BeginBackward()
//	grad, err := s.RandLike(out)
//
//	offs := s.EndTracing()   // persist offs with the compiled graph
//
//	// At runtime, after executing each phase:
//	s.ReplayForward(offs)
//	s.ReplayBackward(offs)
//
// # What the guard catches
//
// Every registered decomposition is wrapped so that returning successfully
// without advancing the tracker fails immediately with
// OffsetStagnationError. A decomposition that forgets to advance would
// otherwise replay stale random values with no crash at all — the one class
// of bug this layer exists to prevent.
//
// # Unsupported devices
//
// Only devices whose native generator is counter-based can be
// functionalized. Draws targeting any other backend (cpu, mps) fail with
// UnsupportedDeviceError naming the backend; there is no approximate
// fallback.
//
// # Concurrency
//
// A Session is confined to one logical thread of control. Tracing is
// inherently sequential; concurrent graphs use separate Sessions.
package philoxrng
