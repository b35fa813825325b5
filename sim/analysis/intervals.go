package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/engine"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// ConfidenceInterval is the normal-approximation interval of one metric.
// StdDev is the sample standard deviation; WorstCase is the empirical 95th percentile.
type ConfidenceInterval struct {
	Metric    string  `json:"metric"`
	Samples   int     `json:"samples"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Median    float64 `json:"median"`
	WorstCase float64 `json:"worst_case_p95"`
}

// ConfidenceIntervals reports the interval of unit cost.
func (a *Analyzer) ConfidenceIntervals() (*ConfidenceInterval, error) {
	return a.IntervalOf(engine.MetricUnitCost)
}

// IntervalOf reports the interval of the named metric.
func (a *Analyzer) IntervalOf(metric string) (*ConfidenceInterval, error) {
	r, err := a.Result()
	if err != nil {
		return nil, err
	}
	data := r.Metric(metric)
	if data == nil {
		return nil, fmt.Errorf("unknown metric %q; valid: %v", metric, engine.Metrics)
	}
	ci := Interval(data)
	ci.Metric = metric
	return &ci, nil
}

// Interval computes mean ± 1.96·std over data. A single sample has zero
// spread; no data yields the zero interval.
func Interval(data []float64) ConfidenceInterval {
	ci := ConfidenceInterval{Samples: len(data)}
	if len(data) == 0 {
		return ci
	}
	ci.Mean, _ = stats.Mean(data)
	if len(data) > 1 {
		ci.StdDev, _ = stats.StandardDeviationSample(data)
	}
	ci.Median, _ = stats.Median(data)
	ci.Lower = ci.Mean - z95*ci.StdDev
	ci.Upper = ci.Mean + z95*ci.StdDev
	ci.WorstCase = sim.CalculatePercentile(data, 95)
	return ci
}
