package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/analysis"
	"github.com/lineopt/lineopt/sim/lab"
)

var (
	groupBy       string            // Grouping dimension of the run summary
	overrideFlags map[string]string // name=value scalar overrides
	targetMetric  string            // Metric analyzed by `analyze`
	labSamples    int               // Pulse protocol candidates
	labOut        string            // Protocol CSV path
	trialSamples  int               // Lab trial batches
)

// runReport is printed by `run`.
type runReport struct {
	RunID     string                       `json:"run_id"`
	BatchSize int                          `json:"batch_size"`
	Overrides []sim.SensitivityVariable    `json:"overrides,omitempty"`
	Groups    []analysis.GroupStats        `json:"groups"`
	UnitCost  *analysis.ConfidenceInterval `json:"unit_cost"`
}

// analyzeReport is printed by `analyze`.
type analyzeReport struct {
	Sensitivity *analysis.SensitivityRanking `json:"sensitivity"`
	Interval    *analysis.ConfidenceInterval `json:"confidence_interval"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one Monte Carlo batch and summarize it by configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSummary(cmd.OutOrStdout(), &opts, groupBy, overrideFlags); err != nil {
			logrus.Fatalf("run failed: %v", err)
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank sensitivity drivers and report the confidence interval of a metric",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAnalyze(cmd.OutOrStdout(), &opts, targetMetric); err != nil {
			logrus.Fatalf("analysis failed: %v", err)
		}
	},
}

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run the standard stress scenarios against the baseline",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStress(cmd.OutOrStdout(), &opts); err != nil {
			logrus.Fatalf("stress tests failed: %v", err)
		}
	},
}

var labCmd = &cobra.Command{
	Use:   "lab",
	Short: "Search the fastest pulse grinding protocol for one lab batch",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runLab(cmd.OutOrStdout(), &opts, labSamples, labOut); err != nil {
			logrus.Fatalf("lab optimization failed: %v", err)
		}
	},
}

var trialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Simulate manual lab batches and summarize their variability",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTrial(cmd.OutOrStdout(), &opts, trialSamples); err != nil {
			logrus.Fatalf("lab trial failed: %v", err)
		}
	},
}

// parseOverrideFlags converts name=value pairs into scalar overrides.
// Unknown names are kept for the engine to report and ignore.
func parseOverrideFlags(flags map[string]string) (map[string]sim.Override, error) {
	out := make(map[string]sim.Override, len(flags))
	for name, text := range flags {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", name, err)
		}
		out[name] = sim.Scalar(v)
	}
	return out, nil
}

func runSummary(w io.Writer, o *options, dim string, flags map[string]string) error {
	d, err := analysis.ParseDimension(dim)
	if err != nil {
		return err
	}
	named, err := parseOverrideFlags(flags)
	if err != nil {
		return err
	}
	s, err := o.openSession()
	if err != nil {
		return err
	}
	r, err := s.eng.RunNamed(named)
	if err != nil {
		return err
	}
	a := analysis.New(s.eng)
	groups, err := a.GroupSummary(d)
	if err != nil {
		return err
	}
	ci, err := a.ConfidenceIntervals()
	if err != nil {
		return err
	}
	report := runReport{RunID: r.RunID, BatchSize: r.N, Overrides: r.Overrides, Groups: groups, UnitCost: ci}
	if err := writeJSON(w, report); err != nil {
		return err
	}
	return s.close()
}

func runAnalyze(w io.Writer, o *options, metric string) error {
	s, err := o.openSession()
	if err != nil {
		return err
	}
	a := analysis.New(s.eng)
	ranking, err := a.SensitivityTo(metric)
	if err != nil {
		return err
	}
	ci, err := a.IntervalOf(metric)
	if err != nil {
		return err
	}
	if err := writeJSON(w, analyzeReport{Sensitivity: ranking, Interval: ci}); err != nil {
		return err
	}
	return s.close()
}

func runStress(w io.Writer, o *options) error {
	s, err := o.openSession()
	if err != nil {
		return err
	}
	results, err := analysis.New(s.eng).StressTests()
	if err != nil {
		return err
	}
	if err := writeJSON(w, results); err != nil {
		return err
	}
	return s.close()
}

func runLab(w io.Writer, o *options, samples int, out string) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	ctx, err := sim.NewExecContext(o.contextConfig())
	if err != nil {
		return err
	}
	if samples > 0 {
		cfg.Lab.Samples = samples
	}
	p, err := lab.NewOptimizer(ctx, cfg.Lab, cfg.Thermal).Optimize()
	if err != nil {
		return err
	}
	if out != "" {
		if err := lab.ExportProtocol(out, p); err != nil {
			return err
		}
		logrus.Infof("protocol exported to %s", out)
	}
	return writeJSON(w, p)
}

func runTrial(w io.Writer, o *options, samples int) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	ctx, err := sim.NewExecContext(o.contextConfig())
	if err != nil {
		return err
	}
	r, err := lab.NewManualTrial(ctx, cfg.Lab.Trial, cfg.Thermal).Run(samples)
	if err != nil {
		return err
	}
	return writeJSON(w, r.Summary())
}
