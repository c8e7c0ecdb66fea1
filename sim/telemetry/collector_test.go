package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/linksim/sim"
)

func sampleRecord(step int) sim.StepRecord {
	return sim.StepRecord{Step: step, Users: []sim.UserStepResult{
		{UserID: 0, SNRDB: 31.5, BandwidthHz: 5e6, ThroughputBps: 40e6, LatencyS: 0.001},
		{UserID: 1, SNRDB: 8.25, BandwidthHz: 5e6, ThroughputBps: 10e6, LatencyS: 0.02},
	}}
}

func TestCollector_ObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveStep(sampleRecord(0), 1e-3)
	c.ObserveStep(sampleRecord(1), 1e-3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Steps))
	assert.Equal(t, 50e6, testutil.ToFloat64(c.CellThroughput))
	assert.Equal(t, 40e6, testutil.ToFloat64(c.Throughput.WithLabelValues("0")))
	assert.Equal(t, 8.25, testutil.ToFloat64(c.SNR.WithLabelValues("1")))
	assert.Equal(t, 5e6, testutil.ToFloat64(c.Bandwidth.WithLabelValues("1")))
	assert.InDelta(t, 2*40e3, testutil.ToFloat64(c.DeliveredBits.WithLabelValues("0")), 1e-6)
	assert.Equal(t, 2, testutil.CollectAndCount(c.Latency))
}

func TestCollector_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)

	first.ObserveStep(sampleRecord(0), 1e-3)
	assert.Equal(t, 1.0, testutil.ToFloat64(second.Steps))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.ObserveStep(sampleRecord(0), 1e-3) })
}

func TestCollector_WriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.ObserveStep(sampleRecord(0), 1e-3)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "linksim_steps_total 1"), text)
	assert.Contains(t, text, `linksim_user_snr_db{user="0"} 31.5`)
	assert.Contains(t, text, "linksim_user_latency_seconds_bucket")
}
