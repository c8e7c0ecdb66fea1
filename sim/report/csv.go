// Package report writes simulation step records and summaries to files.
// It sits outside the engine: it only reads sim.StepRecord and sim.Summary values.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/inference-sim/linksim/sim"
)

// StepColumns is the header row of the per-step CSV.
var StepColumns = []string{
	"step", "user_id", "distance_m", "demand_mbps", "snr_db", "channel_gain",
	"fading_power", "bandwidth_hz", "throughput_mbps", "latency_ms",
}

// SummaryColumns is the header row of the per-user summary CSV.
var SummaryColumns = []string{
	"UE", "Distance (m)", "Mean Throughput (Mbps)", "Median Latency (ms)",
	"P95 Latency (ms)", "Mean SNR (dB)", "Mean Bandwidth (MHz)", "Delivered (Mbit)", "Demand Satisfied",
}

// StepWriter streams step records as CSV rows, one row per user per step.
type StepWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewStepWriter returns a StepWriter writing to w. The header is written with the first record.
func NewStepWriter(w io.Writer) *StepWriter {
	return &StepWriter{w: csv.NewWriter(w)}
}

// Write appends one step's rows.
func (sw *StepWriter) Write(rec sim.StepRecord) error {
	if !sw.wroteHeader {
		if err := sw.w.Write(StepColumns); err != nil {
			return fmt.Errorf("writing steps csv header: %w", err)
		}
		sw.wroteHeader = true
	}
	for _, u := range rec.Users {
		row := []string{
			strconv.Itoa(rec.Step),
			strconv.Itoa(int(u.UserID)),
			formatFloat(u.DistanceM),
			formatFloat(u.DemandBps / 1e6),
			formatFloat(u.SNRDB),
			formatFloat(u.ChannelGain),
			formatFloat(u.FadingPower),
			formatFloat(u.BandwidthHz),
			formatFloat(u.ThroughputBps / 1e6),
			formatFloat(u.LatencyS * 1e3),
		}
		if err := sw.w.Write(row); err != nil {
			return fmt.Errorf("writing steps csv row: %w", err)
		}
	}
	return nil
}

// Flush writes any buffered rows to the underlying writer.
func (sw *StepWriter) Flush() error {
	sw.w.Flush()
	if err := sw.w.Error(); err != nil {
		return fmt.Errorf("flushing steps csv: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes one row per user with the run's aggregate statistics.
func WriteSummaryCSV(w io.Writer, summary *sim.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryColumns); err != nil {
		return fmt.Errorf("writing summary csv header: %w", err)
	}
	for _, u := range summary.Users {
		row := []string{
			strconv.Itoa(int(u.UserID)),
			formatFloat(u.DistanceM),
			formatFloat(u.MeanThroughputMbps),
			formatFloat(u.MedianLatencyMs),
			formatFloat(u.P95LatencyMs),
			formatFloat(u.MeanSNRDB),
			formatFloat(u.MeanBandwidthMHz),
			formatFloat(u.DeliveredMegabits),
			formatFloat(u.DemandSatisfiedRatio),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing summary csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing summary csv: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
