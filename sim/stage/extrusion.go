package stage

import "github.com/lineopt/lineopt/sim"

// Extrusion models cold and hot extrusion. All figures are per-variant
// constants; MaterialCostPerKg carries the binder cost cold extrusion adds
// to every kilogram of material.
type Extrusion struct {
	ctx *sim.ExecContext
	cfg sim.ExtrusionConfig
}

// NewExtrusion creates the extrusion stage.
func NewExtrusion(ctx *sim.ExecContext, cfg sim.ExtrusionConfig) *Extrusion {
	return &Extrusion{ctx: ctx, cfg: cfg}
}

func (e *Extrusion) Name() string { return "extrusion" }

func (e *Extrusion) spec(v sim.ExtruderVariant) sim.ExtruderSpec {
	if v == sim.HotExtrusion {
		return e.cfg.Hot
	}
	return e.cfg.Cold
}

func (e *Extrusion) Simulate(b *sim.ParameterBatch) *Result {
	n := b.N
	return &Result{
		Capex:             e.ctx.Vector(n, func(i int) float64 { return e.spec(b.Extruder[i]).Capex }),
		PowerKW:           e.ctx.Vector(n, func(i int) float64 { return e.spec(b.Extruder[i]).PowerKW }),
		WearPerHour:       make([]float64, n),
		FailureProb:       e.ctx.Vector(n, func(i int) float64 { return sim.Clamp01(e.spec(b.Extruder[i]).FailureProb) }),
		MaterialCostPerKg: e.ctx.Vector(n, func(i int) float64 { return e.spec(b.Extruder[i]).BinderCostPerKg }),
	}
}
