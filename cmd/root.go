package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/analysis"
	_ "github.com/lineopt/lineopt/sim/backend"
	"github.com/lineopt/lineopt/sim/engine"
	"github.com/lineopt/lineopt/sim/telemetry"
)

// options are the flags shared by every subcommand.
type options struct {
	seed        int64  // Seed of every sampling pass
	batchSize   int    // Monte Carlo samples per run
	device      string // Numeric backend
	precision   string // float64 or float32
	configPath  string // YAML overlay on the default constants
	logLevel    string // Log verbosity level
	metricsPath string // Prometheus text file written after the command
	envFile     string // dotenv file read before the LINEOPT_ variables
}

var opts options

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "lineopt",
	Short: "Monte Carlo optimizer for a food production line",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := applyEnv(cmd, &opts); err != nil {
			logrus.Fatalf("%v", err)
		}
		level, err := logrus.ParseLevel(opts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", opts.logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bindFlags registers the shared flags on c.
func bindFlags(c *cobra.Command, o *options) {
	f := c.PersistentFlags()
	f.Int64Var(&o.seed, "seed", defaultSeed, "Seed for every sampling pass")
	f.IntVar(&o.batchSize, "batch-size", defaultBatchSize, "Monte Carlo samples per run")
	f.StringVar(&o.device, "device", sim.DefaultDevice, "Numeric backend")
	f.StringVar(&o.precision, "precision", string(sim.Float64), "Array precision (float64, float32)")
	f.StringVar(&o.configPath, "config", "", "YAML file overriding the default constants")
	f.StringVar(&o.logLevel, "log", defaultLogLevel, "Log level (trace, debug, info, warn, error, fatal, panic)")
	f.StringVar(&o.envFile, "env-file", "", "Load LINEOPT_ variables from this dotenv file")
	f.StringVar(&o.metricsPath, "metrics", "", "Write Prometheus metrics of the command's runs to this file")
}

// loadConfig returns the defaults, overlaid with the config file when set.
func (o *options) loadConfig() (sim.Config, error) {
	if o.configPath == "" {
		return sim.DefaultConfig(), nil
	}
	return sim.LoadConfig(o.configPath)
}

func (o *options) contextConfig() sim.ContextConfig {
	return sim.ContextConfig{Device: o.device, Precision: sim.Precision(o.precision), Seed: o.seed}
}

// session is the engine of one command plus its optional metrics registry.
type session struct {
	eng      *engine.Engine
	cfg      sim.Config
	registry *prometheus.Registry
	path     string
}

// openSession builds the engine the command runs on.
func (o *options) openSession() (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, path: o.metricsPath}
	var engOpts []engine.Option
	if o.metricsPath != "" {
		s.registry = prometheus.NewRegistry()
		col, err := telemetry.NewCollector(s.registry)
		if err != nil {
			return nil, err
		}
		engOpts = append(engOpts, engine.WithObserver(col))
	}
	s.eng, err = engine.Open(o.contextConfig(), cfg, o.batchSize, engOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// close writes the metrics file, if one was requested.
func (s *session) close() error {
	if s.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	logrus.Infof("metrics written to %s", s.path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// init sets up CLI flags and subcommands
func init() {
	bindFlags(rootCmd, &opts)

	runCmd.Flags().StringVar(&groupBy, "group-by", string(analysis.ByGrinder), "Group dimension (grinder, dryer, extrusion)")
	runCmd.Flags().StringToStringVar(&overrideFlags, "override", nil, "Scalar sensitivity overrides, e.g. electricity_rate=20")
	analyzeCmd.Flags().StringVar(&targetMetric, "metric", engine.MetricUnitCost, "Metric the sensitivity ranking and interval target")
	labCmd.Flags().IntVar(&labSamples, "samples", 0, "Candidate protocols to evaluate (0 uses the configured count)")
	labCmd.Flags().StringVar(&labOut, "out", "", "Export the protocol as metric,value CSV to this file")
	trialCmd.Flags().IntVar(&trialSamples, "samples", 100_000, "Simulated lab batches")

	rootCmd.AddCommand(runCmd, analyzeCmd, stressCmd, labCmd, trialCmd)
}
