package sim

import (
	"fmt"
	"iter"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/linksim/sim/trace"
)

// EngineState is the lifecycle state of a run.
type EngineState int

const (
	StateConfigured EngineState = iota
	StateRunning
	StateCompleted
)

func (s EngineState) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("EngineState(%d)", int(s))
	}
}

// Engine drives a bounded sequence of discrete steps over a fixed user set.
// Each step samples every user's channel, splits the band with the configured
// policy, derives throughput and latency, and only then updates user state.
//
// A run is Configured until the first Step, Running until NumSteps records have
// been produced, then Completed. Any error is fatal: the engine becomes
// Completed and every later Step returns ErrInvalidState.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type Engine struct {
	cfg     Config
	policy  AllocationPolicy
	channel ChannelModel
	rng     *PartitionedRNG
	users   []*UserTerminal
	trace   *trace.SimulationTrace // nil unless decision tracing is on

	state EngineState
	step  int   // index of the next step to run
	err   error // first fatal error, if any
}

// NewEngine validates cfg and builds a run in the Configured state.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParseAllocationPolicy(cfg.SchedulingPolicy)
	if err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.MasterSeed))
	return &Engine{
		cfg:     cfg,
		policy:  policy,
		channel: cfg.ChannelModel(),
		rng:     rng,
		users:   NewUsers(cfg, rng),
		state:   StateConfigured,
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState { return e.state }

// NextStep returns the index of the step the next call to Step will run.
func (e *Engine) NextStep() int { return e.step }

// Err returns the error that aborted the run, or nil.
func (e *Engine) Err() error { return e.err }

// Policy returns the active allocation policy.
func (e *Engine) Policy() AllocationPolicy { return e.policy }

// Users returns a snapshot of every user's state, in UserID order.
func (e *Engine) Users() []UserTerminal {
	out := make([]UserTerminal, len(e.users))
	for i, u := range e.users {
		out[i] = *u
	}
	return out
}

// SetTrace attaches a decision trace. Every later step records its allocation
// decision when the trace level is "decisions".
func (e *Engine) SetTrace(st *trace.SimulationTrace) { e.trace = st }

// Trace returns the attached decision trace, or nil.
func (e *Engine) Trace() *trace.SimulationTrace { return e.trace }

// Step runs one simulation step and returns its record.
func (e *Engine) Step() (StepRecord, error) {
	switch e.state {
	case StateCompleted:
		if e.err != nil {
			return StepRecord{}, fmt.Errorf("%w: run aborted at step %d: %v", ErrInvalidState, e.step, e.err)
		}
		return StepRecord{}, fmt.Errorf("%w: run already completed %d steps", ErrInvalidState, e.step)
	case StateConfigured:
		e.state = StateRunning
		logrus.Infof("[step %04d] Starting run: %d users, %d steps, policy=%s, bandwidth=%.0fHz, seed=%d",
			e.step, len(e.users), e.cfg.NumSteps, e.policy, e.cfg.TotalBandwidthHz, e.cfg.MasterSeed)
	}

	rec, err := e.advance()
	if err != nil {
		e.err = err
		e.state = StateCompleted
		logrus.Errorf("[step %04d] Run aborted: %v", e.step, err)
		return StepRecord{}, err
	}
	e.step++
	if e.step == e.cfg.NumSteps {
		e.state = StateCompleted
		logrus.Infof("[step %04d] Run completed", e.step)
	}
	return rec, nil
}

// Run steps the engine to completion and returns every remaining record.
// On error the partial run is discarded. Running a completed engine wraps ErrInvalidState.
func (e *Engine) Run() ([]StepRecord, error) {
	if e.state == StateCompleted {
		_, err := e.Step()
		return nil, err
	}
	records := make([]StepRecord, 0, e.cfg.NumSteps-e.step)
	for e.state != StateCompleted {
		rec, err := e.Step()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Records returns the step records of a run of cfg as a lazy sequence.
// Each iteration builds a fresh engine, so ranging twice replays the run from
// step 0 and yields identical records. Iteration stops after the first error,
// which is yielded with a zero StepRecord.
func Records(cfg Config) iter.Seq2[StepRecord, error] {
	return func(yield func(StepRecord, error) bool) {
		e, err := NewEngine(cfg)
		if err != nil {
			yield(StepRecord{}, err)
			return
		}
		for e.State() != StateCompleted {
			rec, err := e.Step()
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

func (e *Engine) advance() (StepRecord, error) {
	if len(e.users) == 0 {
		return StepRecord{}, fmt.Errorf("%w: no active users at step %d", ErrInvalidConfiguration, e.step)
	}

	inputs := make([]AllocationInput, len(e.users))
	for i, u := range e.users {
		sample, err := e.channel.Sample(u.DistanceM, e.rng.ChannelSeed(u.ID, e.step))
		if err != nil {
			return StepRecord{}, fmt.Errorf("step %d, user %d: %w", e.step, u.ID, err)
		}
		inputs[i] = AllocationInput{
			UserID:         u.ID,
			Sample:         sample,
			DemandBps:      u.DemandBps,
			AvgRateBps:     u.AvgRateBps,
			HasRateHistory: u.HasRateHistory,
		}
	}

	alloc, err := e.policy.Allocate(e.cfg.TotalBandwidthHz, inputs)
	if err != nil {
		return StepRecord{}, fmt.Errorf("step %d: %w", e.step, err)
	}

	if e.trace.Enabled() {
		e.trace.RecordAllocation(e.allocationRecord(inputs, alloc))
	}

	results := make([]UserStepResult, len(e.users))
	for i, u := range e.users {
		in := inputs[i]
		bw := alloc.Shares[u.ID]
		throughput := bw * SpectralEfficiency(in.Sample.ChannelGain)
		if math.IsNaN(throughput) || math.IsInf(throughput, 0) {
			return StepRecord{}, fmt.Errorf("%w: step %d, user %d: throughput %v", ErrNumericDegeneracy, e.step, u.ID, throughput)
		}
		latency, err := Latency(throughput, u.DemandBps, u.DistanceM, e.cfg.PacketBits, e.cfg.BaseDelayS)
		if err != nil {
			return StepRecord{}, fmt.Errorf("step %d, user %d: %w", e.step, u.ID, err)
		}
		results[i] = UserStepResult{
			UserID:        u.ID,
			DistanceM:     u.DistanceM,
			DemandBps:     u.DemandBps,
			SNRDB:         in.Sample.SNRDB,
			ChannelGain:   in.Sample.ChannelGain,
			FadingPower:   in.Sample.FadingPower,
			BandwidthHz:   bw,
			ThroughputBps: throughput,
			LatencyS:      latency,
		}
		logrus.Debugf("[step %04d] user %d: snr=%.2fdB bw=%.0fHz throughput=%.0fbps latency=%.3fms",
			e.step, u.ID, in.Sample.SNRDB, bw, throughput, latency*1e3)
	}

	// All reads for this step are done; apply writes.
	for i, u := range e.users {
		u.record(results[i].ThroughputBps, results[i].LatencyS, e.cfg.StepDurationS, e.cfg.PFEMAWeight)
	}
	return StepRecord{Step: e.step, Users: results}, nil
}

func (e *Engine) allocationRecord(inputs []AllocationInput, alloc AllocationResult) trace.AllocationRecord {
	shares := make([]trace.UserShare, len(inputs))
	for i, in := range inputs {
		shares[i] = trace.UserShare{
			UserID:      int(in.UserID),
			BandwidthHz: alloc.Shares[in.UserID],
			Weight:      alloc.Weights[in.UserID],
		}
	}
	return trace.AllocationRecord{
		Step:      e.step,
		Policy:    string(e.policy),
		Bootstrap: alloc.Bootstrap,
		Shares:    shares,
	}
}

// Latency estimates one user's delay for the step. When throughput meets demand
// it is the fixed base delay plus propagation; otherwise a queueing term
// packetBits/throughput - packetBits/demand is added, growing without bound as
// throughput falls. Zero throughput against positive demand, or a throughput so
// small the delay overflows, wraps ErrNumericDegeneracy.
func Latency(throughputBps, demandBps, distanceM, packetBits, baseDelayS float64) (float64, error) {
	base := baseDelayS + distanceM/SpeedOfLight
	if throughputBps >= demandBps {
		return base, nil
	}
	if throughputBps <= 0 {
		return 0, fmt.Errorf("%w: zero throughput against demand %v bps", ErrNumericDegeneracy, demandBps)
	}
	latency := base + packetBits/throughputBps - packetBits/demandBps
	if math.IsInf(latency, 0) || math.IsNaN(latency) {
		return 0, fmt.Errorf("%w: latency %v at throughput %v bps", ErrNumericDegeneracy, latency, throughputBps)
	}
	return latency, nil
}
