package sim

import (
	"fmt"
	"math"
)

// Physical constants shared by the channel model and latency derivation.
const (
	SpeedOfLight          = 3e8    // m/s
	ThermalNoiseDBmPerHz  = -174.0 // kT at room temperature
	DefaultCarrierFreqHz  = 3.5e9
	referenceDistanceM    = 1.0
	defaultMinPlacementM  = 50.0
	defaultMaxPlacementM  = 500.0
	defaultUniformDemand  = 10e6
	defaultMIMOGainLinear = 2.0
)

// PlacementConfig draws user distances uniformly in [MinDistanceM, MaxDistanceM)
// when no explicit positions are configured.
type PlacementConfig struct {
	MinDistanceM float64 `yaml:"min_distance_m" toml:"min_distance_m"`
	MaxDistanceM float64 `yaml:"max_distance_m" toml:"max_distance_m"`
}

// Config holds every recognized option of a simulation run.
// Nil pointer fields mean "not set"; see Validate for the fallback rules.
type Config struct {
	NumUsers           int              `yaml:"num_users" toml:"num_users"`
	TotalBandwidthHz   float64          `yaml:"total_bandwidth_hz" toml:"total_bandwidth_hz"`
	NumSteps           int              `yaml:"num_steps" toml:"num_steps"`
	PathLossExponent   float64          `yaml:"path_loss_exponent" toml:"path_loss_exponent"`
	TxPowerDBm         float64          `yaml:"tx_power_dbm" toml:"tx_power_dbm"`
	NoisePowerDBm      *float64         `yaml:"noise_power_dbm" toml:"noise_power_dbm"` // nil = thermal noise over the band + noise figure
	NoiseFigureDB      float64          `yaml:"noise_figure_db" toml:"noise_figure_db"`
	AntennaGainDB      float64          `yaml:"antenna_gain_db" toml:"antenna_gain_db"`
	CarrierFrequencyHz float64          `yaml:"carrier_frequency_hz" toml:"carrier_frequency_hz"`
	SchedulingPolicy   string           `yaml:"scheduling_policy" toml:"scheduling_policy"`
	MasterSeed         int64            `yaml:"master_seed" toml:"master_seed"`
	UserPositions      []float64        `yaml:"user_positions" toml:"user_positions"` // distance from the base station in meters
	UserDemands        []float64        `yaml:"user_demands" toml:"user_demands"`     // requested rate in bits/s
	UniformDemandBps   *float64         `yaml:"uniform_demand_bps" toml:"uniform_demand_bps"`
	PFEMAWeight        float64          `yaml:"pf_ema_weight" toml:"pf_ema_weight"`
	PacketBits         float64          `yaml:"packet_bits" toml:"packet_bits"`
	BaseDelayS         float64          `yaml:"base_delay_s" toml:"base_delay_s"`
	StepDurationS      float64          `yaml:"step_duration_s" toml:"step_duration_s"`
	Placement          *PlacementConfig `yaml:"placement" toml:"placement"`
}

// DefaultConfig returns a 5-user, 20 MHz, 50-step configuration with users
// placed randomly between 50 m and 500 m from a 43 dBm, 3.5 GHz base station.
func DefaultConfig() Config {
	demand := defaultUniformDemand
	return Config{
		NumUsers:           5,
		TotalBandwidthHz:   20e6,
		NumSteps:           50,
		PathLossExponent:   3.0,
		TxPowerDBm:         43,
		NoiseFigureDB:      7,
		AntennaGainDB:      10 * math.Log10(defaultMIMOGainLinear),
		CarrierFrequencyHz: DefaultCarrierFreqHz,
		SchedulingPolicy:   string(PolicyEqualShare),
		MasterSeed:         42,
		UniformDemandBps:   &demand,
		PFEMAWeight:        0.1,
		PacketBits:         1e6,
		BaseDelayS:         1e-3,
		StepDurationS:      1e-3,
		Placement:          &PlacementConfig{MinDistanceM: defaultMinPlacementM, MaxDistanceM: defaultMaxPlacementM},
	}
}

// Validate checks that all counts, physical parameters and per-user sequences
// are usable. Every failure wraps ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.NumUsers <= 0 {
		return invalidConfig("num_users must be > 0, got %d", c.NumUsers)
	}
	if c.NumSteps <= 0 {
		return invalidConfig("num_steps must be > 0, got %d", c.NumSteps)
	}
	if !isPositiveFinite(c.TotalBandwidthHz) {
		return invalidConfig("total_bandwidth_hz must be positive and finite, got %v", c.TotalBandwidthHz)
	}
	if !isPositiveFinite(c.PathLossExponent) {
		return invalidConfig("path_loss_exponent must be positive and finite, got %v", c.PathLossExponent)
	}
	if !isPositiveFinite(c.CarrierFrequencyHz) {
		return invalidConfig("carrier_frequency_hz must be positive and finite, got %v", c.CarrierFrequencyHz)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"tx_power_dbm", c.TxPowerDBm},
		{"noise_figure_db", c.NoiseFigureDB},
		{"antenna_gain_db", c.AntennaGainDB},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalidConfig("%s must be finite, got %v", f.name, f.v)
		}
	}
	if c.NoisePowerDBm != nil && (math.IsNaN(*c.NoisePowerDBm) || math.IsInf(*c.NoisePowerDBm, 0)) {
		return invalidConfig("noise_power_dbm must be finite, got %v", *c.NoisePowerDBm)
	}
	if _, err := ParseAllocationPolicy(c.SchedulingPolicy); err != nil {
		return err
	}
	if !(c.PFEMAWeight > 0 && c.PFEMAWeight <= 1) {
		return invalidConfig("pf_ema_weight must be in (0, 1], got %v", c.PFEMAWeight)
	}
	if !isPositiveFinite(c.PacketBits) {
		return invalidConfig("packet_bits must be positive and finite, got %v", c.PacketBits)
	}
	if !(c.BaseDelayS >= 0) || math.IsInf(c.BaseDelayS, 0) {
		return invalidConfig("base_delay_s must be non-negative and finite, got %v", c.BaseDelayS)
	}
	if !isPositiveFinite(c.StepDurationS) {
		return invalidConfig("step_duration_s must be positive and finite, got %v", c.StepDurationS)
	}

	switch {
	case len(c.UserPositions) > 0:
		if len(c.UserPositions) != c.NumUsers {
			return invalidConfig("user_positions has %d entries, want num_users=%d", len(c.UserPositions), c.NumUsers)
		}
		for i, d := range c.UserPositions {
			if !isPositiveFinite(d) {
				return invalidConfig("user_positions[%d] must be positive and finite, got %v", i, d)
			}
		}
	case c.Placement != nil:
		if !isPositiveFinite(c.Placement.MinDistanceM) || !(c.Placement.MaxDistanceM > c.Placement.MinDistanceM) ||
			math.IsInf(c.Placement.MaxDistanceM, 0) {
			return invalidConfig("placement range [%v, %v) must be positive and non-empty",
				c.Placement.MinDistanceM, c.Placement.MaxDistanceM)
		}
	default:
		return invalidConfig("user_positions missing and no placement configured")
	}

	switch {
	case len(c.UserDemands) > 0:
		if len(c.UserDemands) != c.NumUsers {
			return invalidConfig("user_demands has %d entries, want num_users=%d", len(c.UserDemands), c.NumUsers)
		}
		for i, d := range c.UserDemands {
			if !(d >= 0) || math.IsInf(d, 0) {
				return invalidConfig("user_demands[%d] must be non-negative and finite, got %v", i, d)
			}
		}
	case c.UniformDemandBps != nil:
		if !(*c.UniformDemandBps >= 0) || math.IsInf(*c.UniformDemandBps, 0) {
			return invalidConfig("uniform_demand_bps must be non-negative and finite, got %v", *c.UniformDemandBps)
		}
	default:
		return invalidConfig("user_demands missing and no uniform_demand_bps configured")
	}
	return nil
}

// NoisePower returns the noise floor in dBm: the explicit noise_power_dbm when set,
// otherwise thermal noise over the whole band plus the receiver noise figure.
func (c Config) NoisePower() float64 {
	if c.NoisePowerDBm != nil {
		return *c.NoisePowerDBm
	}
	return ThermalNoiseDBmPerHz + 10*math.Log10(c.TotalBandwidthHz) + c.NoiseFigureDB
}

// ReferenceLossDB returns the free-space loss at 1 m for the configured carrier.
func (c Config) ReferenceLossDB() float64 {
	return 20 * math.Log10(4*math.Pi*referenceDistanceM*c.CarrierFrequencyHz/SpeedOfLight)
}

// ChannelModel builds the channel model described by this configuration.
func (c Config) ChannelModel() ChannelModel {
	return ChannelModel{
		PathLossExponent: c.PathLossExponent,
		ReferenceLossDB:  c.ReferenceLossDB(),
		TxPowerDBm:       c.TxPowerDBm,
		AntennaGainDB:    c.AntennaGainDB,
		NoisePowerDBm:    c.NoisePower(),
	}
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
