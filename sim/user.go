package sim

// UserID identifies a user terminal for the lifetime of a run. IDs are assigned
// 0..N-1 in configuration order and never reused.
type UserID int

// UserTerminal is the per-user state the engine carries between steps.
// Only the engine writes to it, once per step, after every user's results for
// that step have been computed.
type UserTerminal struct {
	ID        UserID
	DistanceM float64
	DemandBps float64

	CumulativeBits     float64 // bits delivered so far
	LatencySumS        float64 // sum of per-step latency samples
	LatencySampleCount int
	AvgRateBps         float64 // EWMA of achieved throughput; 0 means no history yet
	HasRateHistory     bool
}

// MeanLatencyS returns the mean of all latency samples, or 0 before the first step.
func (u *UserTerminal) MeanLatencyS() float64 {
	if u.LatencySampleCount == 0 {
		return 0
	}
	return u.LatencySumS / float64(u.LatencySampleCount)
}

// record folds one step's outcome into the running counters.
// alpha is the EWMA weight of the newest sample; the first sample seeds the average.
func (u *UserTerminal) record(throughputBps, latencyS, stepDurationS, alpha float64) {
	u.CumulativeBits += throughputBps * stepDurationS
	u.LatencySumS += latencyS
	u.LatencySampleCount++
	if !u.HasRateHistory {
		u.AvgRateBps = throughputBps
		u.HasRateHistory = true
		return
	}
	u.AvgRateBps = (1-alpha)*u.AvgRateBps + alpha*throughputBps
}

// NewUsers builds one UserTerminal per configured user. Positions come from
// user_positions or, when empty, from the placement range using the placement
// RNG subsystem; demands come from user_demands or uniform_demand_bps.
// cfg must already be valid.
func NewUsers(cfg Config, rng *PartitionedRNG) []*UserTerminal {
	positions := cfg.UserPositions
	if len(positions) == 0 {
		positions = PlaceUsers(cfg, rng)
	}
	users := make([]*UserTerminal, cfg.NumUsers)
	for i := range users {
		demand := 0.0
		if len(cfg.UserDemands) > 0 {
			demand = cfg.UserDemands[i]
		} else if cfg.UniformDemandBps != nil {
			demand = *cfg.UniformDemandBps
		}
		users[i] = &UserTerminal{
			ID:        UserID(i),
			DistanceM: positions[i],
			DemandBps: demand,
		}
	}
	return users
}

// PlaceUsers draws cfg.NumUsers distances uniformly in the placement range.
func PlaceUsers(cfg Config, rng *PartitionedRNG) []float64 {
	r := rng.ForSubsystem(SubsystemPlacement)
	lo, hi := cfg.Placement.MinDistanceM, cfg.Placement.MaxDistanceM
	out := make([]float64, cfg.NumUsers)
	for i := range out {
		out[i] = lo + r.Float64()*(hi-lo)
	}
	return out
}
