package stage

import (
	"math"

	"github.com/lineopt/lineopt/sim"
)

// Formulation models the filler substitution recipe.
//
// The primary ingredient is priced by the sampled material cost; the filler
// has a fixed price. The blend carries a flavor-correction cost proportional
// to dilution, and its protein content is the linear blend of both
// ingredients. A blend below the protein threshold fails quality outright
// (defect 1).
type Formulation struct {
	ctx *sim.ExecContext
	cfg sim.FormulationConfig
}

// NewFormulation creates the formulation stage.
func NewFormulation(ctx *sim.ExecContext, cfg sim.FormulationConfig) *Formulation {
	return &Formulation{ctx: ctx, cfg: cfg}
}

func (f *Formulation) Name() string { return "formulation" }

// ratio bounds the substitution ratio to [0, MaxSubstitution].
func (f *Formulation) ratio(r float64) float64 {
	return math.Min(math.Max(r, 0), f.cfg.MaxSubstitution)
}

// ProteinPct returns the protein content of a blend with substitution ratio r.
func (f *Formulation) ProteinPct(r float64) float64 {
	r = f.ratio(r)
	return (1-r)*f.cfg.PrimaryProteinPct + r*f.cfg.FillerProteinPct
}

// CostPerKg returns blended material plus flavor-correction cost for a
// primary ingredient priced at primary.
func (f *Formulation) CostPerKg(primary, r float64) float64 {
	r = f.ratio(r)
	blend := (1-r)*primary + r*f.cfg.FillerCostPerKg
	flavor := r * 10.0 * f.cfg.FlavorCostPer10Pct
	return blend + flavor
}

func (f *Formulation) Simulate(b *sim.ParameterBatch) *Result {
	n := b.N
	r := &Result{}
	r.MaterialCostPerKg = f.ctx.Vector(n, func(i int) float64 {
		return f.CostPerKg(b.Sensitivity.MaterialCost[i], b.SubstitutionRatio[i])
	})
	r.ProteinPct = f.ctx.Vector(n, func(i int) float64 { return f.ProteinPct(b.SubstitutionRatio[i]) })
	r.Defect = f.ctx.Vector(n, func(i int) float64 {
		if r.ProteinPct[i] < f.cfg.MinProteinPct {
			return 1
		}
		return 0
	})
	return r
}
