package report

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/inference-sim/linksim/sim"
)

// Workbook sheet names.
const (
	SummarySheet    = "Summary"
	LatencySheet    = "Latency_ms"
	ThroughputSheet = "Throughput_Mbps"
	SNRSheet        = "SNR_dB"
)

// WriteWorkbook saves an XLSX report with a summary sheet and one time-series
// sheet per metric (a row per step, a column per user).
func WriteWorkbook(path string, records []sim.StepRecord, summary *sim.Summary) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Warnf("closing workbook %s: %v", path, err)
		}
	}()

	for _, name := range []string{SummarySheet, LatencySheet, ThroughputSheet, SNRSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("deleting default sheet: %w", err)
	}

	header := make([]any, len(SummaryColumns))
	for i, c := range SummaryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("writing summary header: %w", err)
	}
	for i, u := range summary.Users {
		row := []any{
			int(u.UserID), u.DistanceM, u.MeanThroughputMbps, u.MedianLatencyMs,
			u.P95LatencyMs, u.MeanSNRDB, u.MeanBandwidthMHz, u.DeliveredMegabits, u.DemandSatisfiedRatio,
		}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("writing summary row: %w", err)
		}
	}

	series := []struct {
		sheet string
		value func(sim.UserStepResult) float64
	}{
		{LatencySheet, func(u sim.UserStepResult) float64 { return u.LatencyS * 1e3 }},
		{ThroughputSheet, func(u sim.UserStepResult) float64 { return u.ThroughputBps / 1e6 }},
		{SNRSheet, func(u sim.UserStepResult) float64 { return u.SNRDB }},
	}
	for _, s := range series {
		if err := writeSeries(f, s.sheet, records, s.value); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSeries(f *excelize.File, sheet string, records []sim.StepRecord, value func(sim.UserStepResult) float64) error {
	if len(records) == 0 {
		return nil
	}
	header := []any{"Step"}
	for _, u := range records[0].Users {
		header = append(header, fmt.Sprintf("UE %d", u.UserID))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, rec := range records {
		row := []any{rec.Step}
		for _, u := range rec.Users {
			row = append(row, value(u))
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("writing %s row: %w", sheet, err)
		}
	}
	return nil
}
