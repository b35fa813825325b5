package stage

import "github.com/lineopt/lineopt/sim"

// Grinding models the three grinder variants.
//
// Ball and hammer mills are single units with table capex, power, wear and
// failure, and a fixed empirical denaturation fraction. The mixie cluster
// scales capex and wear by the cluster size and power by size times duty
// cycle; its failure is the independent-failure composition of its units and
// its denaturation follows the convective heating and Arrhenius kinetics of
// one charge over the on-time.
type Grinding struct {
	ctx     *sim.ExecContext
	cfg     sim.GrindingConfig
	thermal sim.ThermalConfig
}

// NewGrinding creates the grinding stage.
func NewGrinding(ctx *sim.ExecContext, cfg sim.GrindingConfig, thermal sim.ThermalConfig) *Grinding {
	return &Grinding{ctx: ctx, cfg: cfg, thermal: thermal}
}

func (g *Grinding) Name() string { return "grinding" }

// spec returns the per-installation figures of variant v.
// For the cluster the figures are per unit.
func (g *Grinding) spec(v sim.GrinderVariant) sim.EquipmentSpec {
	switch v {
	case sim.BallMill:
		return g.cfg.BallMill
	case sim.HammerMill:
		return g.cfg.HammerMill
	default:
		return g.cfg.MixieUnit
	}
}

// SystemFailure returns the cluster failure probability for a unit failure rate.
func (g *Grinding) SystemFailure(unitFailure float64) float64 {
	return sim.ClusterFailure(unitFailure, g.cfg.ClusterSize)
}

func (g *Grinding) Simulate(b *sim.ParameterBatch) *Result {
	n := b.N
	k := float64(g.cfg.ClusterSize)
	cluster := func(i int) bool { return b.Grinder[i] == sim.MixieCluster }
	onTime := func(i int) float64 { return g.cfg.CycleTimeSec * b.DutyCycle[i] }

	r := &Result{}
	r.Capex = g.ctx.Vector(n, func(i int) float64 {
		if cluster(i) {
			return g.cfg.MixieUnit.Capex * k
		}
		return g.spec(b.Grinder[i]).Capex
	})
	r.PowerKW = g.ctx.Vector(n, func(i int) float64 {
		if cluster(i) {
			return g.cfg.MixieUnit.PowerKW * b.DutyCycle[i] * k
		}
		return g.spec(b.Grinder[i]).PowerKW
	})
	r.WearPerHour = g.ctx.Vector(n, func(i int) float64 {
		if cluster(i) {
			return g.cfg.MixieUnit.WearPerHour * k
		}
		return g.spec(b.Grinder[i]).WearPerHour
	})
	r.FailureProb = g.ctx.Vector(n, func(i int) float64 {
		if cluster(i) {
			return g.SystemFailure(b.Sensitivity.UnitFailureRate[i])
		}
		return sim.Clamp01(g.spec(b.Grinder[i]).FailureProb)
	})

	// Each charge is heated by one unit's rated draw, single mill or cluster member.
	tempK := g.ctx.Vector(n, func(i int) float64 {
		powerW := g.spec(b.Grinder[i]).PowerKW * 1000.0
		return b.Sensitivity.AmbientTempK[i] + g.thermal.ConvectiveRise(powerW, onTime(i), b.ChargeMassKg[i])
	})
	r.TempC = g.ctx.Vector(n, func(i int) float64 { return tempK[i] - sim.KelvinOffset })
	r.Defect = g.ctx.Vector(n, func(i int) float64 {
		switch b.Grinder[i] {
		case sim.BallMill:
			return sim.Clamp01(g.cfg.BallMillDenaturation)
		case sim.HammerMill:
			return sim.Clamp01(g.cfg.HammerMillDenaturation)
		}
		return g.thermal.Denaturation(tempK[i], onTime(i))
	})
	return r
}
