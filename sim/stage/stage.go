// Package stage provides the per-stage models of the production line.
// Each model is a pure batch transform: it reads a *sim.ParameterBatch and
// returns a Result whose arrays all have length N. Models route by
// categorical code with elementwise selects evaluated through the
// ExecContext backend, and never mutate the batch.
package stage

import "github.com/lineopt/lineopt/sim"

// Result holds the per-sample outputs of one stage.
// Arrays a stage does not produce are nil.
type Result struct {
	Capex       []float64 // INR
	PowerKW     []float64
	WearPerHour []float64 // maintenance/wear, INR/h
	FailureProb []float64 // catastrophic failure probability, [0,1]
	Defect      []float64 // quality-defect contribution, [0,1]

	TempC             []float64 // grinding: charge temperature after the on-time
	MaterialCostPerKg []float64 // formulation: blended price; extrusion: binder delta
	ProteinPct        []float64 // formulation: protein content of the blend
}

// Model is a stage of the line.
type Model interface {
	// Name returns the stage name used in logs and reports.
	Name() string

	// Simulate evaluates the stage for every sample of b.
	Simulate(b *sim.ParameterBatch) *Result
}

// Line holds one model per stage, in the order the engine evaluates them.
type Line struct {
	Formulation *Formulation
	Grinding    *Grinding
	Extrusion   *Extrusion
	Drying      *Drying
}

// NewLine builds every stage model from one configuration.
func NewLine(ctx *sim.ExecContext, cfg sim.Config) *Line {
	return &Line{
		Formulation: NewFormulation(ctx, cfg.Formulation),
		Grinding:    NewGrinding(ctx, cfg.Grinding, cfg.Thermal),
		Extrusion:   NewExtrusion(ctx, cfg.Extrusion),
		Drying:      NewDrying(ctx, cfg.Drying),
	}
}

// Models returns the stages as Models in evaluation order.
func (l *Line) Models() []Model {
	return []Model{l.Formulation, l.Grinding, l.Extrusion, l.Drying}
}
