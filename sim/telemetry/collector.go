// Package telemetry exports engine run statistics as Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lineopt/lineopt/sim/engine"
)

const namespace = "lineopt"

// Collector records every observed engine run.
// It is safe for concurrent use by forked engines.
type Collector struct {
	runs         *prometheus.CounterVec
	samples      prometheus.Counter
	duration     prometheus.Histogram
	meanUnitCost prometheus.Gauge
	meanScore    prometheus.Gauge
	meanDowntime prometheus.Gauge
	overrides    *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Monte Carlo runs by outcome",
		}, []string{"status", "device", "precision"}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "samples_total",
			Help:      "Samples evaluated by successful runs",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		meanUnitCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "result",
			Name:      "mean_unit_cost",
			Help:      "Mean unit cost of the most recent successful run",
		}),
		meanScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "result",
			Name:      "mean_score",
			Help:      "Mean score of the most recent successful run",
		}),
		meanDowntime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "result",
			Name:      "mean_downtime",
			Help:      "Mean downtime probability of the most recent successful run",
		}),
		overrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "overrides_total",
			Help:      "Runs with a sensitivity override, by variable",
		}, []string{"variable"}),
	}
	for _, m := range []prometheus.Collector{
		c.runs, c.samples, c.duration, c.meanUnitCost, c.meanScore, c.meanDowntime, c.overrides,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRun implements engine.Observer.
func (c *Collector) ObserveRun(s engine.RunStats) {
	status := "ok"
	if s.Err != nil {
		status = "error"
	}
	c.runs.WithLabelValues(status, s.Device, string(s.Precision)).Inc()
	c.duration.Observe(s.Elapsed.Seconds())
	for _, v := range s.Overrides {
		c.overrides.WithLabelValues(string(v)).Inc()
	}
	if s.Err != nil {
		return
	}
	c.samples.Add(float64(s.BatchSize))
	c.meanUnitCost.Set(s.MeanUnitCost)
	c.meanScore.Set(s.MeanScore)
	c.meanDowntime.Set(s.MeanDowntime)
}

var _ engine.Observer = (*Collector)(nil)

// RunsCounter returns the runs_total vector.
func (c *Collector) RunsCounter() *prometheus.CounterVec { return c.runs }

// SamplesCounter returns the samples_total counter.
func (c *Collector) SamplesCounter() prometheus.Counter { return c.samples }

// MeanUnitCostGauge returns the mean unit cost gauge.
func (c *Collector) MeanUnitCostGauge() prometheus.Gauge { return c.meanUnitCost }
