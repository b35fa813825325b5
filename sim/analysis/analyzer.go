// Package analysis post-processes engine results: grouped statistics,
// correlation-based sensitivity ranking, stress scenarios and confidence
// intervals. Every report reads the engine's most recent result and is a
// plain value the caller owns.
package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/engine"
)

// Analyzer reads results from one engine.
type Analyzer struct {
	eng *engine.Engine
}

// New creates an analyzer over eng.
func New(eng *engine.Engine) *Analyzer {
	return &Analyzer{eng: eng}
}

// Result returns the engine's most recent result, running a baseline first
// when the engine has none.
func (a *Analyzer) Result() (*engine.AggregateResult, error) {
	if r := a.eng.Result(); r != nil {
		return r, nil
	}
	logrus.Infof("no result to analyze yet; running baseline")
	r, err := a.eng.Run(sim.Overrides{})
	if err != nil {
		return nil, fmt.Errorf("baseline run: %w", err)
	}
	return r, nil
}

// Dimension is a categorical configuration axis samples can be grouped by.
type Dimension string

const (
	ByGrinder   Dimension = "grinder"
	ByDryer     Dimension = "dryer"
	ByExtrusion Dimension = "extrusion"
)

// Dimensions lists every grouping axis.
var Dimensions = []Dimension{ByGrinder, ByDryer, ByExtrusion}

// ParseDimension returns the named dimension.
func ParseDimension(name string) (Dimension, error) {
	for _, d := range Dimensions {
		if string(d) == name {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown group dimension %q; valid: %v", name, Dimensions)
}

// groups returns, for each variant of d in code order, its name and a sample predicate.
func groups(d Dimension, b *sim.ParameterBatch) ([]string, []func(i int) bool, error) {
	var names []string
	var preds []func(i int) bool
	switch d {
	case ByGrinder:
		for _, v := range sim.AllGrinderVariants {
			names = append(names, v.String())
			preds = append(preds, func(i int) bool { return b.Grinder[i] == v })
		}
	case ByDryer:
		for _, v := range sim.AllDryerVariants {
			names = append(names, v.String())
			preds = append(preds, func(i int) bool { return b.Dryer[i] == v })
		}
	case ByExtrusion:
		for _, v := range sim.AllExtruderVariants {
			names = append(names, v.String())
			preds = append(preds, func(i int) bool { return b.Extruder[i] == v })
		}
	default:
		return nil, nil, fmt.Errorf("unknown group dimension %q; valid: %v", d, Dimensions)
	}
	return names, preds, nil
}

// GroupStats summarizes the samples of one configuration.
// Empty is true, and every figure zero, when no sample matched.
type GroupStats struct {
	Dimension        Dimension `json:"dimension"`
	Variant          string    `json:"variant"`
	Samples          int       `json:"samples"`
	Empty            bool      `json:"empty"`
	MeanScore        float64   `json:"mean_score"`
	MeanUnitCost     float64   `json:"mean_unit_cost"`
	MeanDowntime     float64   `json:"mean_downtime"`
	MeanDefect       float64   `json:"mean_defect"`
	MeanDenaturation float64   `json:"mean_denaturation"`
	WorstDowntime    float64   `json:"worst_downtime_p95"`
}

// GroupSummary partitions the most recent result along d.
func (a *Analyzer) GroupSummary(d Dimension) ([]GroupStats, error) {
	r, err := a.Result()
	if err != nil {
		return nil, err
	}
	return Summarize(r, d)
}

// Summarize partitions r along d; one entry per variant in code order.
func Summarize(r *engine.AggregateResult, d Dimension) ([]GroupStats, error) {
	names, preds, err := groups(d, r.Batch)
	if err != nil {
		return nil, err
	}
	out := make([]GroupStats, len(names))
	for g, keep := range preds {
		gs := GroupStats{Dimension: d, Variant: names[g]}
		downtime := sim.Select(r.Downtime, keep)
		gs.Samples = len(downtime)
		if gs.Samples == 0 {
			gs.Empty = true
			out[g] = gs
			continue
		}
		gs.MeanScore = mean(sim.Select(r.Score, keep))
		gs.MeanUnitCost = mean(sim.Select(r.UnitCost, keep))
		gs.MeanDowntime = mean(downtime)
		gs.MeanDefect = mean(sim.Select(r.Defect, keep))
		gs.MeanDenaturation = mean(sim.Select(r.Denaturation, keep))
		gs.WorstDowntime = sim.CalculatePercentile(downtime, 95)
		out[g] = gs
	}
	return out, nil
}

// mean returns the arithmetic mean, 0 for no data.
func mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}
