package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/engine"
)

// Band classifies the strength of a correlation.
type Band string

const (
	Dominant Band = "dominant" // |r| > 0.5
	Moderate Band = "moderate" // 0.2 <= |r| <= 0.5
	Minor    Band = "minor"    // |r| < 0.2
)

// Classify returns the band of correlation r.
func Classify(r float64) Band {
	abs := math.Abs(r)
	switch {
	case abs > 0.5:
		return Dominant
	case abs >= 0.2:
		return Moderate
	}
	return Minor
}

// GrinderSystemFailure names the derived grinding-stage failure probability
// in sensitivity rankings.
const GrinderSystemFailure = "grinder_system_failure"

// SensitivityEntry is the correlation of one driver with the target metric.
// Degenerate marks a driver or target with zero variance; its correlation is reported as 0.
type SensitivityEntry struct {
	Variable    string  `json:"variable"`
	Correlation float64 `json:"correlation"`
	Band        Band    `json:"band"`
	Degenerate  bool    `json:"degenerate,omitempty"`
}

// SensitivityRanking is ordered by |Correlation| descending.
type SensitivityRanking struct {
	Target  string             `json:"target"`
	RunID   string             `json:"run_id"`
	Entries []SensitivityEntry `json:"entries"`
}

// GlobalSensitivity ranks the five sensitivity variables and the grinder
// system failure probability by Pearson correlation with unit cost.
func (a *Analyzer) GlobalSensitivity() (*SensitivityRanking, error) {
	return a.SensitivityTo(engine.MetricUnitCost)
}

// SensitivityTo ranks the drivers by correlation with the named metric.
func (a *Analyzer) SensitivityTo(metric string) (*SensitivityRanking, error) {
	r, err := a.Result()
	if err != nil {
		return nil, err
	}
	return Rank(r, metric)
}

// Rank computes the sensitivity ranking of r against metric.
func Rank(r *engine.AggregateResult, metric string) (*SensitivityRanking, error) {
	target := r.Metric(metric)
	if target == nil {
		return nil, fmt.Errorf("unknown metric %q; valid: %v", metric, engine.Metrics)
	}
	type driver struct {
		name   string
		values []float64
	}
	var drivers []driver
	for _, v := range sim.SensitivityVariables {
		drivers = append(drivers, driver{string(v), r.Batch.Sensitivity.Get(v)})
	}
	drivers = append(drivers, driver{GrinderSystemFailure, r.GrinderFailure})

	ranking := &SensitivityRanking{Target: metric, RunID: r.RunID}
	for _, d := range drivers {
		e := SensitivityEntry{Variable: d.name}
		if len(d.values) > 1 {
			e.Correlation = stat.Correlation(d.values, target, nil)
		}
		if math.IsNaN(e.Correlation) || len(d.values) < 2 {
			e.Correlation = 0
			e.Degenerate = true
		}
		e.Band = Classify(e.Correlation)
		ranking.Entries = append(ranking.Entries, e)
	}
	sort.SliceStable(ranking.Entries, func(i, j int) bool {
		return math.Abs(ranking.Entries[i].Correlation) > math.Abs(ranking.Entries[j].Correlation)
	})
	return ranking, nil
}
