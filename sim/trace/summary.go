package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions     int
	BootstrapDecisions int
	MaxShareFraction   float64         // largest single-user fraction of a step's band
	MeanShareHz        map[int]float64 // user ID → mean bandwidth share
	TopUserCounts      map[int]int     // user ID → steps in which it held the largest share
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		MeanShareHz:   make(map[int]float64),
		TopUserCounts: make(map[int]int),
	}
	if st == nil || len(st.Allocations) == 0 {
		return summary
	}

	summary.TotalDecisions = len(st.Allocations)
	for _, a := range st.Allocations {
		if a.Bootstrap {
			summary.BootstrapDecisions++
		}
		total := 0.0
		top := -1
		topShare := -1.0
		for _, s := range a.Shares {
			total += s.BandwidthHz
			summary.MeanShareHz[s.UserID] += s.BandwidthHz
			if s.BandwidthHz > topShare {
				top, topShare = s.UserID, s.BandwidthHz
			}
		}
		if top >= 0 {
			summary.TopUserCounts[top]++
		}
		if total > 0 && topShare/total > summary.MaxShareFraction {
			summary.MaxShareFraction = topShare / total
		}
	}
	for id := range summary.MeanShareHz {
		summary.MeanShareHz[id] /= float64(summary.TotalDecisions)
	}
	return summary
}
