package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// ChannelSample is the instantaneous channel state of one user at one step.
type ChannelSample struct {
	SNRDB       float64 // signal-to-noise ratio in dB
	ChannelGain float64 // linear SNR, 10^(SNRDB/10); feeds the capacity formula
	PathLossDB  float64
	FadingPower float64 // |h|^2, exponentially distributed with mean 1
}

// ChannelModel maps a user's distance and a fading seed to a ChannelSample using
// a log-distance path loss and Rayleigh (exponential power) fading.
type ChannelModel struct {
	PathLossExponent float64
	ReferenceLossDB  float64 // loss at 1 m
	TxPowerDBm       float64
	AntennaGainDB    float64
	NoisePowerDBm    float64
}

// PathLossDB returns ReferenceLossDB + 10·n·log10(d).
// Distances must be positive and finite; anything else wraps ErrInvalidConfiguration.
func (m ChannelModel) PathLossDB(distanceM float64) (float64, error) {
	if !isPositiveFinite(distanceM) {
		return 0, fmt.Errorf("%w: distance must be positive and finite, got %v", ErrInvalidConfiguration, distanceM)
	}
	return m.ReferenceLossDB + 10*m.PathLossExponent*math.Log10(distanceM/referenceDistanceM), nil
}

// MeanSNRDB returns the fading-free SNR at the given distance, which is also the
// long-run average SNR in the linear domain since the fading power has mean 1.
func (m ChannelModel) MeanSNRDB(distanceM float64) (float64, error) {
	pl, err := m.PathLossDB(distanceM)
	if err != nil {
		return 0, err
	}
	return m.TxPowerDBm + m.AntennaGainDB - pl - m.NoisePowerDBm, nil
}

// Sample draws one fading realisation from seed and returns the resulting channel state.
// The same (distance, seed) pair always yields the same sample.
func (m ChannelModel) Sample(distanceM float64, seed int64) (ChannelSample, error) {
	pl, err := m.PathLossDB(distanceM)
	if err != nil {
		return ChannelSample{}, err
	}
	meanSNR := m.TxPowerDBm + m.AntennaGainDB - pl - m.NoisePowerDBm
	fading := FadingPower(rand.New(rand.NewSource(seed)))
	snrDB := meanSNR + 10*math.Log10(fading)
	gain := math.Pow(10, snrDB/10)
	if math.IsNaN(snrDB) || math.IsInf(snrDB, 0) || math.IsInf(gain, 0) {
		return ChannelSample{}, fmt.Errorf("%w: SNR %v dB at distance %v m (fading power %v)",
			ErrNumericDegeneracy, snrDB, distanceM, fading)
	}
	return ChannelSample{
		SNRDB:       snrDB,
		ChannelGain: gain,
		PathLossDB:  pl,
		FadingPower: fading,
	}, nil
}

// FadingPower draws |h|^2 for a unit-power Rayleigh channel: h = (X + jY)/sqrt(2)
// with X, Y standard normal, so |h|^2 is exponential with mean 1.
func FadingPower(rng *rand.Rand) float64 {
	x := rng.NormFloat64()
	y := rng.NormFloat64()
	return (x*x + y*y) / 2
}

// SpectralEfficiency returns the Shannon bound log2(1 + gain) in bit/s/Hz.
func SpectralEfficiency(gain float64) float64 {
	return math.Log1p(gain) / math.Ln2
}
