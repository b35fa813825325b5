// Package cost combines stage outputs into hourly operating cost, effective
// output, unit cost and the objective score.
package cost

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/lineopt/lineopt/sim"
)

// Inputs are the per-sample arrays TotalCost combines. All non-nil arrays
// must have the same length.
type Inputs struct {
	Capex              []float64 // INR, amortized over CostConfig.LifetimeHours
	PowerKW            []float64
	Throughput         []float64 // nominal kg/h
	DefectRate         []float64
	RnDCost            []float64 // INR, amortized like capex
	MaintenancePerHour []float64

	// Optional per-sample prices; nil falls back to the CostConfig baselines.
	ElectricityRate   []float64 // INR/kWh
	MaterialCostPerKg []float64 // INR/kg, formulation and binder adjusted
}

// Breakdown holds every additive cost component in INR/h.
type Breakdown struct {
	Energy       []float64
	Material     []float64
	Labor        []float64
	Depreciation []float64
	RnD          []float64
	Maintenance  []float64
	Defect       []float64
	Total        []float64
}

// Aggregator evaluates the cost and objective functions over whole batches.
type Aggregator struct {
	ctx *sim.ExecContext
	cfg sim.CostConfig
}

// NewAggregator creates an aggregator bound to an execution context.
func NewAggregator(ctx *sim.ExecContext, cfg sim.CostConfig) *Aggregator {
	return &Aggregator{ctx: ctx, cfg: cfg}
}

// Config returns the cost constants in use.
func (a *Aggregator) Config() sim.CostConfig { return a.cfg }

// TotalCost returns the hourly cost breakdown of every sample:
// energy + material + labor + depreciation + R&D + maintenance + defect.
func (a *Aggregator) TotalCost(in Inputs) (*Breakdown, error) {
	n := len(in.Throughput)
	if err := sameLength(n, map[string][]float64{
		"capex": in.Capex, "power_kw": in.PowerKW, "defect_rate": in.DefectRate,
		"rnd_cost": in.RnDCost, "maintenance": in.MaintenancePerHour,
	}); err != nil {
		return nil, err
	}
	if err := optionalLength(n, map[string][]float64{
		"electricity_rate": in.ElectricityRate, "material_cost": in.MaterialCostPerKg,
	}); err != nil {
		return nil, err
	}

	tariff := func(i int) float64 {
		if in.ElectricityRate == nil {
			return a.cfg.BaselineElectricityRate
		}
		return in.ElectricityRate[i]
	}
	material := func(i int) float64 {
		if in.MaterialCostPerKg == nil {
			return a.cfg.BaselineMaterialCost
		}
		return in.MaterialCostPerKg[i]
	}
	lifetime := a.cfg.LifetimeHours()

	bd := &Breakdown{
		Energy:       a.ctx.Vector(n, func(i int) float64 { return in.PowerKW[i] * tariff(i) }),
		Material:     a.ctx.Vector(n, func(i int) float64 { return in.Throughput[i] * material(i) }),
		Labor:        a.ctx.Vector(n, func(i int) float64 { return a.cfg.LaborBasePerHour + in.Throughput[i]*a.cfg.LaborPerKg }),
		Depreciation: a.ctx.Vector(n, func(i int) float64 { return in.Capex[i] / lifetime }),
		RnD:          a.ctx.Vector(n, func(i int) float64 { return in.RnDCost[i] / lifetime }),
		Maintenance:  a.ctx.Vector(n, func(i int) float64 { return in.MaintenancePerHour[i] }),
		Defect: a.ctx.Vector(n, func(i int) float64 {
			return in.Throughput[i] * in.DefectRate[i] * material(i) * a.cfg.DefectPenaltyMultiplier
		}),
	}
	bd.Total = make([]float64, n)
	for _, c := range bd.components() {
		floats.Add(bd.Total, c)
	}
	a.ctx.Quantize(bd.Total)
	return bd, nil
}

func (bd *Breakdown) components() [][]float64 {
	return [][]float64{bd.Energy, bd.Material, bd.Labor, bd.Depreciation, bd.RnD, bd.Maintenance, bd.Defect}
}

// RnDBudget returns the R&D budget of each sample's configuration.
// Cluster grinders carry the higher development budget.
func (a *Aggregator) RnDBudget(grinder []sim.GrinderVariant) []float64 {
	return a.ctx.Vector(len(grinder), func(i int) float64 {
		if grinder[i] == sim.MixieCluster {
			return a.cfg.RnDCluster
		}
		return a.cfg.RnDBaseline
	})
}

// EffectiveOutput returns nominal*(1-defect)*(1-downtime), clamped to >= 0.
func (a *Aggregator) EffectiveOutput(nominal, defect, downtime []float64) ([]float64, error) {
	n := len(nominal)
	if err := sameLength(n, map[string][]float64{"defect": defect, "downtime": downtime}); err != nil {
		return nil, err
	}
	return a.ctx.Vector(n, func(i int) float64 { return EffectiveOutputAt(nominal[i], defect[i], downtime[i]) }), nil
}

// Objective returns the score of every sample.
func (a *Aggregator) Objective(output, totalCost, defect, catastrophic []float64) ([]float64, error) {
	n := len(output)
	if err := sameLength(n, map[string][]float64{
		"cost": totalCost, "defect": defect, "catastrophic": catastrophic,
	}); err != nil {
		return nil, err
	}
	return a.ctx.Vector(n, func(i int) float64 {
		return ObjectiveAt(output[i], totalCost[i], defect[i], catastrophic[i], a.cfg.Epsilon)
	}), nil
}

// UnitCost returns cost/(output+eps) of every sample (INR/kg).
func (a *Aggregator) UnitCost(totalCost, output []float64) ([]float64, error) {
	n := len(totalCost)
	if err := sameLength(n, map[string][]float64{"output": output}); err != nil {
		return nil, err
	}
	return a.ctx.Vector(n, func(i int) float64 { return UnitCostAt(totalCost[i], output[i], a.cfg.Epsilon) }), nil
}

// EffectiveOutputAt returns nominal*(1-defect)*(1-downtime), clamped to >= 0.
func EffectiveOutputAt(nominal, defect, downtime float64) float64 {
	out := nominal * (1.0 - defect) * (1.0 - downtime)
	if !(out > 0) {
		return 0
	}
	return out
}

// ObjectiveAt returns (output/(cost+eps)) * (1-defect) * (1-catastrophic).
func ObjectiveAt(output, totalCost, defect, catastrophic, eps float64) float64 {
	return output / (totalCost + eps) * (1.0 - defect) * (1.0 - catastrophic)
}

// UnitCostAt returns cost/(output+eps).
func UnitCostAt(totalCost, output, eps float64) float64 {
	return totalCost / (output + eps)
}

func sameLength(n int, arrays map[string][]float64) error {
	for name, a := range arrays {
		if len(a) != n {
			return fmt.Errorf("%w: %s has %d samples, want %d", sim.ErrLengthMismatch, name, len(a), n)
		}
	}
	return nil
}

func optionalLength(n int, arrays map[string][]float64) error {
	for name, a := range arrays {
		if a != nil && len(a) != n {
			return fmt.Errorf("%w: %s has %d samples, want %d", sim.ErrLengthMismatch, name, len(a), n)
		}
	}
	return nil
}
