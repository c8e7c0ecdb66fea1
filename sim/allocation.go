package sim

import (
	"fmt"
	"math"
)

// AllocationPolicy selects how the shared bandwidth pool is split each step.
// The set is closed: EqualShare and ProportionalFair.
type AllocationPolicy string

const (
	PolicyEqualShare       AllocationPolicy = "equal_share"
	PolicyProportionalFair AllocationPolicy = "proportional_fair"
)

// policyAliases maps accepted policy names, including the short forms
// "equal" and "pf", to their canonical policy.
var policyAliases = map[string]AllocationPolicy{
	"equal_share":       PolicyEqualShare,
	"equal":             PolicyEqualShare,
	"proportional_fair": PolicyProportionalFair,
	"pf":                PolicyProportionalFair,
}

// ParseAllocationPolicy resolves a configured policy name.
// Unknown names wrap ErrInvalidConfiguration.
func ParseAllocationPolicy(name string) (AllocationPolicy, error) {
	p, ok := policyAliases[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown scheduling policy %q", ErrInvalidConfiguration, name)
	}
	return p, nil
}

// AllocationInput is what a policy sees of one active user.
type AllocationInput struct {
	UserID         UserID
	Sample         ChannelSample
	DemandBps      float64
	AvgRateBps     float64 // historical EWMA throughput
	HasRateHistory bool
}

// AllocationResult maps every active user to its bandwidth share in Hz.
type AllocationResult struct {
	Shares    map[UserID]float64
	Weights   map[UserID]float64 // proportional-fair weights; nil for equal share
	Bootstrap bool               // only users without a positive rate average were weighted
}

// Total returns the sum of all shares.
func (r AllocationResult) Total() float64 {
	total := 0.0
	for _, s := range r.Shares {
		total += s
	}
	return total
}

// Allocate splits totalBandwidthHz across users. Policies are pure functions of
// their inputs; the caller owns all state updates.
//
// EqualShare gives every user totalBandwidthHz/len(users).
//
// ProportionalFair weights user i by r_i/avg_i where r_i is the rate the user
// would get with the whole band, r_i = total·log2(1+gain_i). Users without a
// positive rate average (no history, or only zero-throughput steps) bootstrap:
// when any of them has r_i > 0, only those users are weighted, each by r_i, so no
// division by zero occurs and new users are served first. A user with r_i = 0
// never triggers bootstrap and gets weight 0. If every weight is zero the band
// is split equally.
//
// Zero users yield an empty result. A negative or non-finite bandwidth wraps
// ErrInvalidConfiguration; a non-finite weight wraps ErrNumericDegeneracy.
func (p AllocationPolicy) Allocate(totalBandwidthHz float64, users []AllocationInput) (AllocationResult, error) {
	if !(totalBandwidthHz >= 0) || math.IsInf(totalBandwidthHz, 0) {
		return AllocationResult{}, fmt.Errorf("%w: total bandwidth must be non-negative and finite, got %v",
			ErrInvalidConfiguration, totalBandwidthHz)
	}
	result := AllocationResult{Shares: make(map[UserID]float64, len(users))}
	if len(users) == 0 {
		return result, nil
	}

	switch p {
	case PolicyEqualShare:
		share := totalBandwidthHz / float64(len(users))
		for _, u := range users {
			result.Shares[u.UserID] = share
		}
		return result, nil
	case PolicyProportionalFair:
		weights, bootstrap, err := proportionalFairWeights(totalBandwidthHz, users)
		if err != nil {
			return AllocationResult{}, err
		}
		result.Bootstrap = bootstrap
		result.Weights = make(map[UserID]float64, len(users))
		// sum in input order for bit-reproducible shares
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if math.IsInf(sum, 0) {
			return AllocationResult{}, fmt.Errorf("%w: proportional-fair weights overflow", ErrNumericDegeneracy)
		}
		for i, u := range users {
			result.Weights[u.UserID] = weights[i]
			if sum == 0 {
				result.Shares[u.UserID] = totalBandwidthHz / float64(len(users))
				continue
			}
			result.Shares[u.UserID] = totalBandwidthHz * weights[i] / sum
		}
		return result, nil
	default:
		return AllocationResult{}, fmt.Errorf("%w: unknown scheduling policy %q", ErrInvalidConfiguration, string(p))
	}
}

func proportionalFairWeights(totalBandwidthHz float64, users []AllocationInput) ([]float64, bool, error) {
	rates := make([]float64, len(users))
	bootstrap := false
	for i, u := range users {
		rates[i] = totalBandwidthHz * SpectralEfficiency(u.Sample.ChannelGain)
		if math.IsNaN(rates[i]) || math.IsInf(rates[i], 0) || rates[i] < 0 {
			return nil, false, fmt.Errorf("%w: proportional-fair rate %v for user %d", ErrNumericDegeneracy, rates[i], u.UserID)
		}
		if u.starved() && rates[i] > 0 {
			bootstrap = true
		}
	}
	weights := make([]float64, len(users))
	for i, u := range users {
		switch {
		case bootstrap && u.starved():
			weights[i] = rates[i]
		case bootstrap, u.starved():
			weights[i] = 0
		default:
			weights[i] = rates[i] / u.AvgRateBps
		}
		if math.IsInf(weights[i], 0) {
			return nil, false, fmt.Errorf("%w: proportional-fair weight %v for user %d", ErrNumericDegeneracy, weights[i], u.UserID)
		}
	}
	return weights, bootstrap, nil
}

// starved reports a user with no usable rate average: never served, or served
// only at zero throughput so far.
func (u AllocationInput) starved() bool {
	return !u.HasRateHistory || u.AvgRateBps <= 0
}
