package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/linksim/sim"
	"github.com/inference-sim/linksim/sim/trace"
)

var (
	// CLI flags for the run configuration
	configPath       string  // YAML or TOML config file
	seed             int64   // Master seed for fading and placement draws
	numUsers         int     // Number of user terminals
	numSteps         int     // Number of simulation steps
	bandwidthHz      float64 // Total bandwidth shared by all users
	policy           string  // Scheduling policy name
	pathLossExponent float64 // Log-distance path-loss exponent
	txPowerDBm       float64 // Base-station transmit power
	positions        []float64
	demands          []float64
	logLevel         string // Log verbosity level

	// CLI flags for outputs
	outDir       string // Parent directory for report files
	writeXLSX    bool   // Write report.xlsx
	writeMetrics bool   // Write metrics.prom
	traceLevel   string // Decision trace level

	defaultsFormat string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "linksim",
	Short: "Link-level simulator for a single base station sharing bandwidth among users",
}

// runCmd executes the simulation using a config file and/or CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the link-level simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, decisions)", traceLevel)
		}

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = loadConfigFile(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load config %s: %v", configPath, err)
			}
		}
		applyFlagOverrides(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Configuration rejected: %v", err)
		}

		result, err := runSimulation(cfg, outputOptions{
			Dir:          outDir,
			WriteXLSX:    writeXLSX,
			WriteMetrics: writeMetrics,
			TraceLevel:   trace.TraceLevel(traceLevel),
		})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		result.Summary.Print(os.Stdout)
		if result.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(result.Trace))
		}
		logrus.WithField("run", result.RunID).Infof("Results saved in folder: %s", result.Dir)
	},
}

// defaultsCmd prints the built-in configuration so it can be saved and edited
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default run configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := encodeConfig(sim.DefaultConfig(), defaultsFormat)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
		return err
	},
}

// applyFlagOverrides copies explicitly set flags onto cfg; unset flags leave the
// config file (or default) value in place.
func applyFlagOverrides(cmd *cobra.Command, cfg *sim.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.MasterSeed = seed
	}
	if flags.Changed("users") {
		cfg.NumUsers = numUsers
	}
	if flags.Changed("steps") {
		cfg.NumSteps = numSteps
	}
	if flags.Changed("bandwidth") {
		cfg.TotalBandwidthHz = bandwidthHz
	}
	if flags.Changed("policy") {
		cfg.SchedulingPolicy = policy
	}
	if flags.Changed("path-loss-exponent") {
		cfg.PathLossExponent = pathLossExponent
	}
	if flags.Changed("tx-power") {
		cfg.TxPowerDBm = txPowerDBm
	}
	if flags.Changed("positions") {
		cfg.UserPositions = positions
	}
	if flags.Changed("demands") {
		cfg.UserDemands = demands
	}
}

// printTraceSummary writes the allocation decision summary after the run metrics.
func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Allocation Trace ===")
	fmt.Fprintf(w, "Decisions: %d\n", ts.TotalDecisions)
	fmt.Fprintf(w, "Bootstrap decisions: %d\n", ts.BootstrapDecisions)
	fmt.Fprintf(w, "Max single-user share: %.3f\n", ts.MaxShareFraction)
	ids := make([]int, 0, len(ts.MeanShareHz))
	for id := range ts.MeanShareHz {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  user %d: mean share %.3f MHz, largest share in %d steps\n",
			id, ts.MeanShareHz[id]/1e6, ts.TopUserCounts[id])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML or TOML run configuration")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.MasterSeed, "Master seed for fading and placement draws")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().IntVar(&numUsers, "users", defaults.NumUsers, "Number of user terminals")
	runCmd.Flags().IntVar(&numSteps, "steps", defaults.NumSteps, "Number of simulation steps")
	runCmd.Flags().Float64Var(&bandwidthHz, "bandwidth", defaults.TotalBandwidthHz, "Total bandwidth in Hz")
	runCmd.Flags().StringVar(&policy, "policy", defaults.SchedulingPolicy, "Scheduling policy (equal_share, proportional_fair)")
	runCmd.Flags().Float64Var(&pathLossExponent, "path-loss-exponent", defaults.PathLossExponent, "Log-distance path-loss exponent")
	runCmd.Flags().Float64Var(&txPowerDBm, "tx-power", defaults.TxPowerDBm, "Base-station transmit power in dBm")
	runCmd.Flags().Float64SliceVar(&positions, "positions", nil, "Comma-separated user distances in meters (default: random placement)")
	runCmd.Flags().Float64SliceVar(&demands, "demands", nil, "Comma-separated user demands in bits/s (default: uniform demand)")

	runCmd.Flags().StringVar(&outDir, "out", "output", "Directory that receives one sub-directory of reports per run")
	runCmd.Flags().BoolVar(&writeXLSX, "xlsx", true, "Write report.xlsx")
	runCmd.Flags().BoolVar(&writeMetrics, "metrics", true, "Write metrics.prom in Prometheus text format")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")

	defaultsCmd.Flags().StringVar(&defaultsFormat, "format", "yaml", "Output format (yaml, toml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
