// Package testutil provides shared test fixtures and assertion helpers for the
// sim package and its sub-packages.
package testutil

import (
	"math"
	"testing"

	"github.com/inference-sim/linksim/sim"
)

// TwoUserConfig returns the reference scenario: users at 10 m and 100 m sharing
// 10 MHz for 5 steps under equal_share with a fixed seed.
func TwoUserConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.NumUsers = 2
	cfg.TotalBandwidthHz = 10_000_000
	cfg.NumSteps = 5
	cfg.SchedulingPolicy = string(sim.PolicyEqualShare)
	cfg.MasterSeed = 42
	cfg.UserPositions = []float64{10, 100}
	cfg.UserDemands = []float64{20e6, 20e6}
	cfg.Placement = nil
	cfg.UniformDemandBps = nil
	return cfg
}

// NUserConfig returns a config with n users spread from 20 m outwards in 40 m
// increments, each demanding 5 Mbit/s.
func NUserConfig(n int, policy sim.AllocationPolicy) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.NumUsers = n
	cfg.NumSteps = 20
	cfg.SchedulingPolicy = string(policy)
	cfg.UserPositions = make([]float64, n)
	cfg.UserDemands = make([]float64, n)
	for i := 0; i < n; i++ {
		cfg.UserPositions[i] = 20 + 40*float64(i)
		cfg.UserDemands[i] = 5e6
	}
	cfg.Placement = nil
	cfg.UniformDemandBps = nil
	return cfg
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
