package analysis

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/engine"
)

// Scenario shifts exactly one sensitivity variable to a stress distribution.
type Scenario struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Variable    sim.SensitivityVariable `json:"variable"`
	Dist        sim.NormalDist          `json:"distribution"`
}

// Overrides returns the override set applying the scenario.
func (s Scenario) Overrides() sim.Overrides {
	return sim.Overrides{}.With(s.Variable, sim.Normal(s.Dist.Mean, s.Dist.StdDev))
}

// DefaultScenarios are the four standard stress cases.
var DefaultScenarios = []Scenario{
	{
		Name:        "A_high_unit_failure",
		Description: "cluster units fail more often",
		Variable:    sim.VarUnitFailureRate,
		Dist:        sim.NormalDist{Mean: 0.03, StdDev: 0.005},
	},
	{
		Name:        "B_electricity_shock",
		Description: "tariff doubles",
		Variable:    sim.VarElectricityRate,
		Dist:        sim.NormalDist{Mean: 24.0, StdDev: 2.0},
	},
	{
		Name:        "C_heat_wave",
		Description: "ambient at 40 C",
		Variable:    sim.VarAmbientTemp,
		Dist:        sim.NormalDist{Mean: 313.0, StdDev: 2.0},
	},
	{
		Name:        "D_material_inflation",
		Description: "primary ingredient price rises",
		Variable:    sim.VarMaterialCost,
		Dist:        sim.NormalDist{Mean: 65.0, StdDev: 5.0},
	},
}

// ConfigOutcome is the mean performance of one grinder configuration under a scenario.
type ConfigOutcome struct {
	Grinder      string  `json:"grinder"`
	Samples      int     `json:"samples"`
	Empty        bool    `json:"empty"`
	MeanUnitCost float64 `json:"mean_unit_cost"`
	MeanDowntime float64 `json:"mean_downtime"`
}

// StressCaseResult reports one scenario run.
// Winner is the compared configuration with the lower mean unit cost; it is
// empty, with Undecided set, when a compared configuration had no samples.
type StressCaseResult struct {
	Scenario  Scenario        `json:"scenario"`
	RunID     string          `json:"run_id"`
	Outcomes  []ConfigOutcome `json:"outcomes"`
	Baseline  []ConfigOutcome `json:"baseline"`
	Winner    string          `json:"winner,omitempty"`
	Undecided bool            `json:"undecided,omitempty"`
}

// ComparedGrinders are the configurations stress reports compare.
var ComparedGrinders = []sim.GrinderVariant{sim.BallMill, sim.MixieCluster}

// StressTests runs DefaultScenarios.
func (a *Analyzer) StressTests() ([]StressCaseResult, error) {
	return a.RunScenarios(DefaultScenarios)
}

// RunScenarios evaluates every scenario on its own fork of the engine,
// concurrently. Forks share the context seed, so each scenario differs from
// the baseline only in its shifted variable. The engine's own result is left
// untouched. Each result carries the baseline outcomes of the same
// configurations. Results follow the order of scenarios; the first failing
// scenario fails the whole call.
func (a *Analyzer) RunScenarios(scenarios []Scenario) ([]StressCaseResult, error) {
	base, err := a.Result()
	if err != nil {
		return nil, err
	}
	baseline := Compare(base, Scenario{Name: "baseline"}, ComparedGrinders).Outcomes

	out := make([]StressCaseResult, len(scenarios))
	var g errgroup.Group
	for i, sc := range scenarios {
		fork := a.eng.Fork()
		g.Go(func() error {
			r, err := fork.Run(sc.Overrides())
			if err != nil {
				return fmt.Errorf("stress scenario %s: %w", sc.Name, err)
			}
			out[i] = Compare(r, sc, ComparedGrinders)
			out[i].Baseline = baseline
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Compare summarizes r per compared grinder and picks the cheaper one.
func Compare(r *engine.AggregateResult, sc Scenario, grinders []sim.GrinderVariant) StressCaseResult {
	res := StressCaseResult{Scenario: sc, RunID: r.RunID}
	best := -1
	for _, v := range grinders {
		keep := func(i int) bool { return r.Batch.Grinder[i] == v }
		unitCost := sim.Select(r.UnitCost, keep)
		o := ConfigOutcome{Grinder: v.String(), Samples: len(unitCost)}
		if o.Samples == 0 {
			o.Empty = true
			res.Undecided = true
		} else {
			o.MeanUnitCost = mean(unitCost)
			o.MeanDowntime = mean(sim.Select(r.Downtime, keep))
			if best < 0 || o.MeanUnitCost < res.Outcomes[best].MeanUnitCost {
				best = len(res.Outcomes)
			}
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	if !res.Undecided && best >= 0 {
		res.Winner = res.Outcomes[best].Grinder
	}
	return res
}
