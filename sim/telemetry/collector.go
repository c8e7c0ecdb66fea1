// Package telemetry exports simulation step records as Prometheus metrics.
// It consumes sim.StepRecord values and never feeds anything back into the engine.
package telemetry

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/linksim/sim"
)

// Collector bundles the Prometheus metrics describing one run.
type Collector struct {
	gatherer prometheus.Gatherer

	Steps          prometheus.Counter
	CellThroughput prometheus.Gauge
	Throughput     *prometheus.GaugeVec
	Bandwidth      *prometheus.GaugeVec
	SNR            *prometheus.GaugeVec
	Latency        *prometheus.HistogramVec
	DeliveredBits  *prometheus.CounterVec
}

// NewCollector registers the run metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "linksim_steps_total",
		Help: "Number of simulation steps completed.",
	}), "linksim_steps_total")
	if err != nil {
		return nil, err
	}
	cell, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "linksim_cell_throughput_bps",
		Help: "Sum of all users' throughput in the latest step.",
	}), "linksim_cell_throughput_bps")
	if err != nil {
		return nil, err
	}
	throughput, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linksim_user_throughput_bps",
		Help: "Per-user throughput in the latest step.",
	}, []string{"user"}), "linksim_user_throughput_bps")
	if err != nil {
		return nil, err
	}
	bandwidth, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linksim_user_bandwidth_hz",
		Help: "Per-user bandwidth share in the latest step.",
	}, []string{"user"}), "linksim_user_bandwidth_hz")
	if err != nil {
		return nil, err
	}
	snr, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "linksim_user_snr_db",
		Help: "Per-user SNR in the latest step.",
	}, []string{"user"}), "linksim_user_snr_db")
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linksim_user_latency_seconds",
		Help:    "Per-user latency samples, one per step.",
		Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"user"}), "linksim_user_latency_seconds")
	if err != nil {
		return nil, err
	}
	delivered, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linksim_user_delivered_bits_total",
		Help: "Per-user bits delivered across the run.",
	}, []string{"user"}), "linksim_user_delivered_bits_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Steps:          steps,
		CellThroughput: cell,
		Throughput:     throughput,
		Bandwidth:      bandwidth,
		SNR:            snr,
		Latency:        latency,
		DeliveredBits:  delivered,
	}, nil
}

// ObserveStep folds one step record into the metrics. stepDurationS converts
// throughput into delivered bits.
func (c *Collector) ObserveStep(rec sim.StepRecord, stepDurationS float64) {
	if c == nil {
		return
	}
	c.Steps.Inc()
	c.CellThroughput.Set(rec.CellThroughputBps())
	for _, u := range rec.Users {
		user := strconv.Itoa(int(u.UserID))
		c.Throughput.WithLabelValues(user).Set(u.ThroughputBps)
		c.Bandwidth.WithLabelValues(user).Set(u.BandwidthHz)
		c.SNR.WithLabelValues(user).Set(u.SNRDB)
		c.Latency.WithLabelValues(user).Observe(u.LatencyS)
		c.DeliveredBits.WithLabelValues(user).Add(u.ThroughputBps * stepDurationS)
	}
}

// WriteTextfile writes the current metric values in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// register adds collector to reg, returning the already-registered collector of
// the same type when one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
