// Aggregates step records into per-user and cell-wide QoS statistics.

package sim

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// UserSummary holds one user's statistics over a run.
type UserSummary struct {
	UserID               UserID
	DistanceM            float64
	MeanThroughputMbps   float64
	MedianLatencyMs      float64
	P95LatencyMs         float64
	MeanSNRDB            float64
	MeanBandwidthMHz     float64
	DeliveredMegabits    float64
	DemandSatisfiedRatio float64 // fraction of steps where throughput met demand
}

// Summary aggregates a whole run for final reporting.
type Summary struct {
	Steps                  int
	Users                  []UserSummary
	MeanCellThroughputMbps float64
	JainFairness           float64 // over per-user mean throughput
}

// Summarize computes per-user and cell statistics from the step records of one run.
// stepDurationS converts throughput to delivered bits. Safe for empty input.
func Summarize(records []StepRecord, stepDurationS float64) *Summary {
	summary := &Summary{Steps: len(records)}
	if len(records) == 0 {
		return summary
	}

	numUsers := len(records[0].Users)
	throughput := make([][]float64, numUsers)
	latency := make([][]float64, numUsers)
	snr := make([][]float64, numUsers)
	bandwidth := make([][]float64, numUsers)
	satisfied := make([]int, numUsers)
	cell := make([]float64, 0, len(records))

	for _, rec := range records {
		cell = append(cell, rec.CellThroughputBps())
		for i, u := range rec.Users {
			if i >= numUsers {
				break
			}
			throughput[i] = append(throughput[i], u.ThroughputBps)
			latency[i] = append(latency[i], u.LatencyS*1e3)
			snr[i] = append(snr[i], u.SNRDB)
			bandwidth[i] = append(bandwidth[i], u.BandwidthHz)
			if u.ThroughputBps >= u.DemandBps {
				satisfied[i]++
			}
		}
	}

	means := make([]float64, numUsers)
	for i := 0; i < numUsers; i++ {
		meanThroughput := stat.Mean(throughput[i], nil)
		means[i] = meanThroughput
		summary.Users = append(summary.Users, UserSummary{
			UserID:               records[0].Users[i].UserID,
			DistanceM:            records[0].Users[i].DistanceM,
			MeanThroughputMbps:   meanThroughput / 1e6,
			MedianLatencyMs:      CalculatePercentile(latency[i], 50),
			P95LatencyMs:         CalculatePercentile(latency[i], 95),
			MeanSNRDB:            stat.Mean(snr[i], nil),
			MeanBandwidthMHz:     stat.Mean(bandwidth[i], nil) / 1e6,
			DeliveredMegabits:    meanThroughput * float64(len(throughput[i])) * stepDurationS / 1e6,
			DemandSatisfiedRatio: float64(satisfied[i]) / float64(len(throughput[i])),
		})
	}
	summary.MeanCellThroughputMbps = stat.Mean(cell, nil) / 1e6
	summary.JainFairness = JainFairness(means)
	return summary
}

// Print writes a human-readable report of the summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Steps                : %d\n", s.Steps)
	if s.Steps == 0 {
		return
	}
	fmt.Fprintf(w, "Mean Cell Throughput : %.2f Mbps\n", s.MeanCellThroughputMbps)
	fmt.Fprintf(w, "Jain Fairness Index  : %.4f\n", s.JainFairness)
	fmt.Fprintln(w, "UE  Distance(m)  Throughput(Mbps)  MedianLatency(ms)  MeanSNR(dB)")
	for _, u := range s.Users {
		fmt.Fprintf(w, "%-3d %11.1f  %16.2f  %17.3f  %11.2f\n",
			u.UserID, u.DistanceM, u.MeanThroughputMbps, u.MedianLatencyMs, u.MeanSNRDB)
	}
}
