package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func explicitConfig() Config {
	cfg := DefaultConfig()
	cfg.NumUsers = 3
	cfg.UserPositions = []float64{10, 50, 200}
	cfg.UserDemands = []float64{1e6, 5e6, 0}
	return cfg
}

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, explicitConfig().Validate())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero users", func(c *Config) { c.NumUsers = 0 }},
		{"negative users", func(c *Config) { c.NumUsers = -2 }},
		{"zero steps", func(c *Config) { c.NumSteps = 0 }},
		{"zero bandwidth", func(c *Config) { c.TotalBandwidthHz = 0 }},
		{"negative bandwidth", func(c *Config) { c.TotalBandwidthHz = -1e6 }},
		{"infinite bandwidth", func(c *Config) { c.TotalBandwidthHz = math.Inf(1) }},
		{"zero path-loss exponent", func(c *Config) { c.PathLossExponent = 0 }},
		{"NaN tx power", func(c *Config) { c.TxPowerDBm = math.NaN() }},
		{"infinite noise power", func(c *Config) { c.NoisePowerDBm = float64Ptr(math.Inf(-1)) }},
		{"unknown policy", func(c *Config) { c.SchedulingPolicy = "max-cqi" }},
		{"empty policy", func(c *Config) { c.SchedulingPolicy = "" }},
		{"EMA weight zero", func(c *Config) { c.PFEMAWeight = 0 }},
		{"EMA weight above one", func(c *Config) { c.PFEMAWeight = 1.5 }},
		{"zero packet", func(c *Config) { c.PacketBits = 0 }},
		{"negative base delay", func(c *Config) { c.BaseDelayS = -1 }},
		{"zero step duration", func(c *Config) { c.StepDurationS = 0 }},
		{"positions length mismatch", func(c *Config) { c.UserPositions = []float64{10, 20} }},
		{"zero distance", func(c *Config) { c.UserPositions = []float64{10, 0, 30} }},
		{"negative distance", func(c *Config) { c.UserPositions = []float64{10, -4, 30} }},
		{"demands length mismatch", func(c *Config) { c.UserDemands = []float64{1} }},
		{"negative demand", func(c *Config) { c.UserDemands = []float64{1, -1, 1} }},
		{"no positions and no placement", func(c *Config) { c.UserPositions = nil; c.Placement = nil }},
		{"inverted placement", func(c *Config) {
			c.UserPositions = nil
			c.Placement = &PlacementConfig{MinDistanceM: 100, MaxDistanceM: 50}
		}},
		{"no demands and no uniform demand", func(c *Config) { c.UserDemands = nil; c.UniformDemandBps = nil }},
		{"negative uniform demand", func(c *Config) { c.UserDemands = nil; c.UniformDemandBps = float64Ptr(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := explicitConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestConfig_NoisePower(t *testing.T) {
	cfg := DefaultConfig()
	// -174 dBm/Hz + 10·log10(20 MHz) + 7 dB NF
	assert.InDelta(t, -174+73.0103+7, cfg.NoisePower(), 1e-3)

	cfg.NoisePowerDBm = float64Ptr(-90)
	assert.Equal(t, -90.0, cfg.NoisePower())
}

func TestConfig_ChannelModel_UsesConfiguredPhysics(t *testing.T) {
	cfg := explicitConfig()
	cfg.PathLossExponent = 2.5
	cfg.TxPowerDBm = 30
	m := cfg.ChannelModel()
	assert.Equal(t, 2.5, m.PathLossExponent)
	assert.Equal(t, 30.0, m.TxPowerDBm)
	assert.Equal(t, cfg.NoisePower(), m.NoisePowerDBm)
	assert.Equal(t, cfg.ReferenceLossDB(), m.ReferenceLossDB)
}
