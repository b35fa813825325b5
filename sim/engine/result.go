package engine

import (
	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/cost"
)

// AggregateResult is the full outcome of one run: the sampled batch and
// every intermediate and final per-sample array. Analysis code treats it as
// read-only.
type AggregateResult struct {
	RunID     string
	N         int
	Overrides []sim.SensitivityVariable // variables overridden for this run

	// Batch is the sampled input; its Sensitivity arrays are the originating
	// sensitivity values used for correlation analysis.
	Batch *sim.ParameterBatch

	Capex        []float64 // grinder + extruder + dryer + ancillary, INR
	PowerKW      []float64
	WearPerHour  []float64
	GrinderTempC []float64
	Denaturation []float64 // grinding quality loss
	ProteinPct   []float64
	QualityFail  []float64 // formulation protein-threshold failure, 0 or 1
	RnDCost      []float64

	GrinderFailure  []float64
	ExtruderFailure []float64
	DryerFailure    []float64

	Downtime              []float64 // 1 - prod(1 - p_stage)
	Defect                []float64 // denaturation + quality fail + base rate, clamped to [0,1]
	EffectiveMaterialCost []float64 // formulation cost + binder, INR/kg
	TotalCost             []float64 // INR/h
	EffectiveOutput       []float64 // kg/h
	UnitCost              []float64 // INR/kg
	Score                 []float64

	Cost *cost.Breakdown
}

// Metric names accepted by Metric.
const (
	MetricUnitCost        = "unit_cost"
	MetricScore           = "score"
	MetricDowntime        = "downtime"
	MetricDefect          = "defect"
	MetricTotalCost       = "total_cost"
	MetricEffectiveOutput = "effective_output"
	MetricDenaturation    = "denaturation"
	MetricGrinderFailure  = "grinder_failure"
)

// Metric returns the per-sample array of a named metric, or nil for an unknown name.
func (r *AggregateResult) Metric(name string) []float64 {
	switch name {
	case MetricUnitCost:
		return r.UnitCost
	case MetricScore:
		return r.Score
	case MetricDowntime:
		return r.Downtime
	case MetricDefect:
		return r.Defect
	case MetricTotalCost:
		return r.TotalCost
	case MetricEffectiveOutput:
		return r.EffectiveOutput
	case MetricDenaturation:
		return r.Denaturation
	case MetricGrinderFailure:
		return r.GrinderFailure
	}
	return nil
}

// Metrics lists every name Metric accepts.
var Metrics = []string{
	MetricUnitCost, MetricScore, MetricDowntime, MetricDefect,
	MetricTotalCost, MetricEffectiveOutput, MetricDenaturation, MetricGrinderFailure,
}
