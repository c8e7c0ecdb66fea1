package sim

// UserStepResult is one user's outcome for one step.
type UserStepResult struct {
	UserID        UserID  `json:"user_id"`
	DistanceM     float64 `json:"distance_m"`
	DemandBps     float64 `json:"demand_bps"`
	SNRDB         float64 `json:"snr_db"`
	ChannelGain   float64 `json:"channel_gain"`
	FadingPower   float64 `json:"fading_power"`
	BandwidthHz   float64 `json:"bandwidth_hz"`
	ThroughputBps float64 `json:"throughput_bps"`
	LatencyS      float64 `json:"latency_s"`
}

// StepRecord is the engine's output for one step: every active user's result,
// in UserID order. Records are never modified after Step returns them.
type StepRecord struct {
	Step  int              `json:"step"`
	Users []UserStepResult `json:"users"`
}

// CellThroughputBps returns the sum of all users' throughput in this step.
func (r StepRecord) CellThroughputBps() float64 {
	total := 0.0
	for _, u := range r.Users {
		total += u.ThroughputBps
	}
	return total
}

// AllocatedBandwidthHz returns the sum of all users' bandwidth shares in this step.
func (r StepRecord) AllocatedBandwidthHz() float64 {
	total := 0.0
	for _, u := range r.Users {
		total += u.BandwidthHz
	}
	return total
}
