// Package sim provides the link-level simulation engine for linksim: one base
// station sharing a bandwidth pool among several user terminals over a bounded
// number of discrete steps.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - channel.go: log-distance path loss, Rayleigh fading, SNR
//   - allocation.go: EqualShare and ProportionalFair bandwidth splitting
//   - engine.go: the step loop, throughput and latency derivation, run lifecycle
//
// # Determinism
//
// All randomness flows from the run's master seed through PartitionedRNG
// (rng.go). Every (user, step) fading draw has its own derived seed, so two runs
// of the same Config produce identical StepRecords.
//
// # Boundaries
//
// The engine never touches the filesystem. Config files are loaded by cmd/,
// records are written by sim/report/ and exported as metrics by sim/telemetry/.
package sim
