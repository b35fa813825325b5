package stage

import "github.com/lineopt/lineopt/sim"

// Drying models the resistive and heat-pump dryers.
// Power is the evaporative load divided by the coefficient of performance:
//
//	P_kW = feed * (M_in - M_out)/100 * L / (3600 * COP)
//
// COP is constant for the resistive dryer and the sampled heat-pump COP otherwise.
type Drying struct {
	ctx *sim.ExecContext
	cfg sim.DryingConfig
}

// NewDrying creates the drying stage.
func NewDrying(ctx *sim.ExecContext, cfg sim.DryingConfig) *Drying {
	return &Drying{ctx: ctx, cfg: cfg}
}

func (d *Drying) Name() string { return "drying" }

func (d *Drying) spec(v sim.DryerVariant) sim.DryerSpec {
	if v == sim.HeatPumpDryer {
		return d.cfg.HeatPump
	}
	return d.cfg.Resistive
}

// EvaporativeLoadKW returns the latent-heat load (kW) of evaporating the
// moisture delta from feedKgPerHour.
func (d *Drying) EvaporativeLoadKW(feedKgPerHour float64) float64 {
	waterKgPerHour := feedKgPerHour * (d.cfg.InitialMoisturePct - d.cfg.TargetMoisturePct) / 100.0
	return waterKgPerHour * d.cfg.LatentHeatKJPerKg / 3600.0
}

func (d *Drying) Simulate(b *sim.ParameterBatch) *Result {
	n := b.N
	r := &Result{}
	r.Capex = d.ctx.Vector(n, func(i int) float64 { return d.spec(b.Dryer[i]).Capex })
	r.PowerKW = d.ctx.Vector(n, func(i int) float64 {
		cop := d.cfg.ResistiveCOP
		if b.Dryer[i] == sim.HeatPumpDryer {
			cop = b.Sensitivity.HeatPumpCOP[i]
		}
		return d.EvaporativeLoadKW(b.FeedRate[i]) / cop
	})
	r.WearPerHour = make([]float64, n)
	r.FailureProb = d.ctx.Vector(n, func(i int) float64 { return sim.Clamp01(d.spec(b.Dryer[i]).FailureProb) })
	return r
}
