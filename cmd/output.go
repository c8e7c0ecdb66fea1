package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/linksim/sim"
	"github.com/inference-sim/linksim/sim/report"
	"github.com/inference-sim/linksim/sim/telemetry"
	"github.com/inference-sim/linksim/sim/trace"
)

// Report file names written into each run directory.
const (
	stepsFileName    = "steps.csv"
	summaryFileName  = "summary.csv"
	workbookFileName = "report.xlsx"
	metricsFileName  = "metrics.prom"
)

type outputOptions struct {
	Dir          string
	WriteXLSX    bool
	WriteMetrics bool
	TraceLevel   trace.TraceLevel
}

type runResult struct {
	RunID   string
	Dir     string
	Records []sim.StepRecord
	Summary *sim.Summary
	Trace   *trace.SimulationTrace // nil when tracing is off
}

// runSimulation runs cfg to completion, streaming every step record into the
// report writers and metrics collector, then writes the summary files into
// <opts.Dir>/<run id>/. A failed step aborts the run; files written so far are left
// in place for inspection but the run is reported as failed.
func runSimulation(cfg sim.Config, opts outputOptions) (*runResult, error) {
	runID, err := report.NewRunID()
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("run", runID)

	dir := filepath.Join(opts.Dir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	stepsFile, err := os.Create(filepath.Join(dir, stepsFileName))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", stepsFileName, err)
	}
	defer func() {
		if closeErr := stepsFile.Close(); closeErr != nil {
			log.Warnf("closing %s: %v", stepsFileName, closeErr)
		}
	}()
	steps := report.NewStepWriter(stepsFile)

	collector, err := telemetry.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}

	engine, err := sim.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	var st *trace.SimulationTrace
	if opts.TraceLevel == trace.TraceLevelDecisions {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: opts.TraceLevel})
		engine.SetTrace(st)
	}

	records := make([]sim.StepRecord, 0, cfg.NumSteps)
	for engine.State() != sim.StateCompleted {
		rec, err := engine.Step()
		if err != nil {
			return nil, err
		}
		if err := steps.Write(rec); err != nil {
			return nil, err
		}
		collector.ObserveStep(rec, cfg.StepDurationS)
		records = append(records, rec)
	}
	if err := steps.Flush(); err != nil {
		return nil, err
	}
	log.Infof("Simulated %d steps", len(records))

	summary := sim.Summarize(records, cfg.StepDurationS)
	if err := writeSummaryFile(filepath.Join(dir, summaryFileName), summary); err != nil {
		return nil, err
	}
	if opts.WriteXLSX {
		if err := report.WriteWorkbook(filepath.Join(dir, workbookFileName), records, summary); err != nil {
			return nil, err
		}
	}
	if opts.WriteMetrics {
		if err := collector.WriteTextfile(filepath.Join(dir, metricsFileName)); err != nil {
			return nil, err
		}
	}
	log.Debugf("Wrote reports to %s", dir)

	return &runResult{RunID: runID, Dir: dir, Records: records, Summary: summary, Trace: st}, nil
}

func writeSummaryFile(path string, summary *sim.Summary) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", filepath.Base(path), closeErr)
		}
	}()
	return report.WriteSummaryCSV(f, summary)
}
