package sim

import (
	"math"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// GIVEN two RNGs built from the same key
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	// WHEN three values are drawn from the placement subsystem of each
	for i := 0; i < 3; i++ {
		v1 := rng1.ForSubsystem(SubsystemPlacement).Float64()
		v2 := rng2.ForSubsystem(SubsystemPlacement).Float64()
		// THEN the sequences match
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// GIVEN draws from one channel subsystem
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemChannel(0, 0)).Float64()
	}

	// WHEN placement is drawn afterwards
	got := rngA.ForSubsystem(SubsystemPlacement).Float64()

	// THEN it equals the first placement value of a fresh RNG
	fresh := NewPartitionedRNG(NewSimulationKey(42))
	want := fresh.ForSubsystem(SubsystemPlacement).Float64()
	if got != want {
		t.Errorf("placement first value = %v, want %v (isolation broken)", got, want)
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))

	rng1 := rng.ForSubsystem(SubsystemPlacement)
	rng2 := rng.ForSubsystem(SubsystemPlacement)

	if rng1 != rng2 {
		t.Error("ForSubsystem returned different instances for the same name")
	}
}

func TestPartitionedRNG_ChannelSeed_DistinctPerUserAndStep(t *testing.T) {
	// GIVEN a fixed key
	rng := NewPartitionedRNG(NewSimulationKey(7))

	// WHEN seeds are derived for a grid of (user, step) pairs
	seen := make(map[int64]string)
	for user := UserID(0); user < 8; user++ {
		for step := 0; step < 50; step++ {
			seed := rng.ChannelSeed(user, step)
			name := SubsystemChannel(user, step)
			// THEN no two pairs share a seed
			if prev, dup := seen[seed]; dup {
				t.Fatalf("seed collision between %s and %s", prev, name)
			}
			seen[seed] = name
		}
	}
}

func TestPartitionedRNG_ChannelSeed_StableAcrossInstances(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(99))
	b := NewPartitionedRNG(NewSimulationKey(99))

	// Drawing from a cached subsystem must not shift channel seeds.
	a.ForSubsystem(SubsystemPlacement).Float64()

	if a.ChannelSeed(3, 11) != b.ChannelSeed(3, 11) {
		t.Error("ChannelSeed depends on prior draws; want a pure function of key, user and step")
	}
}

func TestPartitionedRNG_DifferentKeysDiffer(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1))
	b := NewPartitionedRNG(NewSimulationKey(2))
	if a.ChannelSeed(0, 0) == b.ChannelSeed(0, 0) {
		t.Error("different keys produced the same channel seed")
	}
	if a.Key() != NewSimulationKey(1) {
		t.Errorf("Key() = %d, want 1", a.Key())
	}
}
