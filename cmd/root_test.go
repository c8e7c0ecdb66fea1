package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/linksim/sim"
	"github.com/inference-sim/linksim/sim/trace"
)

func TestApplyFlagOverrides_OnlyChangedFlags(t *testing.T) {
	// GIVEN a config loaded from a file
	cfg := sim.DefaultConfig()
	cfg.NumSteps = 7
	cfg.MasterSeed = 1

	// WHEN only --users and --policy are set on the command line
	require.NoError(t, runCmd.Flags().Set("users", "3"))
	require.NoError(t, runCmd.Flags().Set("policy", "proportional_fair"))
	applyFlagOverrides(runCmd, &cfg)

	// THEN those fields change and the rest keep the file values
	assert.Equal(t, 3, cfg.NumUsers)
	assert.Equal(t, "proportional_fair", cfg.SchedulingPolicy)
	assert.Equal(t, 7, cfg.NumSteps)
	assert.Equal(t, int64(1), cfg.MasterSeed)
}

func TestDefaultsCommand_PrintsYAML(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"defaults"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "num_users: 5")
	assert.Contains(t, out, "scheduling_policy: equal_share")
}

func TestRunSimulation_WritesReports(t *testing.T) {
	// GIVEN the two-user example
	cfg, err := loadConfigFile(filepath.Join("..", "examples", "two-users.yaml"))
	require.NoError(t, err)
	dir := t.TempDir()

	// WHEN the run completes
	result, err := runSimulation(cfg, outputOptions{Dir: dir, WriteXLSX: true, WriteMetrics: true})
	require.NoError(t, err)

	// THEN every report lands in the run directory
	assert.Equal(t, filepath.Join(dir, result.RunID), result.Dir)
	for _, name := range []string{stepsFileName, summaryFileName, workbookFileName, metricsFileName} {
		_, err := os.Stat(filepath.Join(result.Dir, name))
		assert.NoError(t, err, name)
	}
	require.Len(t, result.Records, 5)
	require.Len(t, result.Summary.Users, 2)

	steps, err := os.ReadFile(filepath.Join(result.Dir, stepsFileName))
	require.NoError(t, err)
	// header + 2 users × 5 steps
	assert.Len(t, strings.Split(strings.TrimSpace(string(steps)), "\n"), 11)

	metrics, err := os.ReadFile(filepath.Join(result.Dir, metricsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "linksim_steps_total 5")
}

func TestRunSimulation_OptionalReportsSkipped(t *testing.T) {
	cfg, err := loadConfigFile(filepath.Join("..", "examples", "two-users.yaml"))
	require.NoError(t, err)

	result, err := runSimulation(cfg, outputOptions{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(result.Dir, workbookFileName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(result.Dir, metricsFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSimulation_InvalidConfig(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.NumUsers = 0
	_, err := runSimulation(cfg, outputOptions{Dir: t.TempDir()})
	assert.ErrorIs(t, err, sim.ErrInvalidConfiguration)
}

func TestRunSimulation_DecisionTrace(t *testing.T) {
	// GIVEN decision tracing is requested
	cfg, err := loadConfigFile(filepath.Join("..", "examples", "two-users.yaml"))
	require.NoError(t, err)

	// WHEN the run completes
	result, err := runSimulation(cfg, outputOptions{Dir: t.TempDir(), TraceLevel: trace.TraceLevelDecisions})
	require.NoError(t, err)

	// THEN one decision per step is captured and summarized
	require.NotNil(t, result.Trace)
	assert.Len(t, result.Trace.Allocations, len(result.Records))

	var buf bytes.Buffer
	printTraceSummary(&buf, trace.Summarize(result.Trace))
	assert.Contains(t, buf.String(), "=== Allocation Trace ===")
	assert.Contains(t, buf.String(), "Decisions: 5")
	assert.Contains(t, buf.String(), "user 1:")
}

func TestRunSimulation_NoTraceByDefault(t *testing.T) {
	cfg, err := loadConfigFile(filepath.Join("..", "examples", "two-users.yaml"))
	require.NoError(t, err)
	result, err := runSimulation(cfg, outputOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, result.Trace)
}
