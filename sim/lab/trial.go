package lab

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lineopt/lineopt/sim"
)

// Trial streams.
const (
	subsystemTrialMass       = "trial/mass"
	subsystemTrialPower      = "trial/power"
	subsystemTrialGrindTime  = "trial/grind_time"
	subsystemTrialAmbient    = "trial/ambient"
	subsystemTrialMixTime    = "trial/mix_time"
	subsystemTrialDryingTime = "trial/drying_time"
	subsystemTrialDryingRate = "trial/drying_rate"
)

// ManualTrial simulates a hand-run 1 kg batch: weighing, grinder load,
// timer handling and lab conditions all vary from batch to batch.
type ManualTrial struct {
	ctx     *sim.ExecContext
	cfg     sim.TrialConfig
	thermal sim.ThermalConfig
}

// NewManualTrial creates a trial simulator.
func NewManualTrial(ctx *sim.ExecContext, cfg sim.TrialConfig, thermal sim.ThermalConfig) *ManualTrial {
	return &ManualTrial{ctx: ctx, cfg: cfg, thermal: thermal}
}

// TrialResult holds one array per outcome, one element per simulated batch.
type TrialResult struct {
	N             int
	TempRiseC     []float64 // adiabatic rise of the grind burst
	Denaturation  []float64
	MixingCV      []float64
	FinalMoisture []float64 // mass fraction
	BatchCost     []float64 // material + energy + labour
}

// Run simulates n batches.
func (m *ManualTrial) Run(n int) (*TrialResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: trial samples must be >= 1, got %d", sim.ErrInvalidConfig, n)
	}
	rng := m.ctx.NewRNG()
	normal := func(subsystem string, nd sim.NormalDist) []float64 {
		d := distuv.Normal{Mu: nd.Mean, Sigma: nd.StdDev, Src: rng.ForSubsystem(subsystem)}
		out := make([]float64, n)
		for i := range out {
			out[i] = d.Rand()
		}
		m.ctx.Quantize(out)
		return out
	}
	mass := normal(subsystemTrialMass, m.cfg.MassKg)
	power := normal(subsystemTrialPower, m.cfg.PowerW)
	grind := normal(subsystemTrialGrindTime, m.cfg.GrindTimeSec)
	ambient := normal(subsystemTrialAmbient, m.cfg.AmbientTempK)
	mix := normal(subsystemTrialMixTime, m.cfg.MixTimeSec)
	drying := normal(subsystemTrialDryingTime, m.cfg.DryingTimeSec)
	rate := normal(subsystemTrialDryingRate, m.cfg.DryingRate)

	r := &TrialResult{N: n}
	r.TempRiseC = m.ctx.Vector(n, func(i int) float64 {
		return m.thermal.AdiabaticRise(power[i], grind[i], mass[i])
	})
	r.Denaturation = m.ctx.Vector(n, func(i int) float64 {
		return m.thermal.Denaturation(ambient[i]+r.TempRiseC[i], grind[i])
	})
	r.MixingCV = m.ctx.Vector(n, func(i int) float64 {
		return m.cfg.MixingConstant / math.Sqrt(mix[i])
	})
	r.FinalMoisture = m.ctx.Vector(n, func(i int) float64 {
		return m.cfg.InitialMoisture * math.Exp(-rate[i]*drying[i])
	})
	r.BatchCost = m.ctx.Vector(n, func(i int) float64 {
		joules := power[i]*grind[i] + m.cfg.MixerPowerW*mix[i] + m.cfg.DryerPowerW*drying[i]
		kwh := joules / 3.6e6
		return mass[i]*m.cfg.MaterialCostPerKg + kwh*m.cfg.ElectricityRate + m.cfg.LaborPerBatch
	})
	return r, nil
}

// TrialSummary reports means and 95th-percentile worst cases of a trial.
type TrialSummary struct {
	Samples          int     `json:"samples"`
	MeanDenaturation float64 `json:"mean_denaturation"`
	P95Denaturation  float64 `json:"p95_denaturation"`
	MeanMixingCV     float64 `json:"mean_mixing_cv"`
	MeanMoisture     float64 `json:"mean_final_moisture"`
	MeanBatchCost    float64 `json:"mean_batch_cost"`
	MeanTempRiseC    float64 `json:"mean_temp_rise_c"`
	P95TempRiseC     float64 `json:"p95_temp_rise_c"`
}

// Summary reduces r.
func (r *TrialResult) Summary() TrialSummary {
	mean := func(v []float64) float64 {
		m, _ := stats.Mean(v)
		return m
	}
	return TrialSummary{
		Samples:          r.N,
		MeanDenaturation: mean(r.Denaturation),
		P95Denaturation:  sim.CalculatePercentile(r.Denaturation, 95),
		MeanMixingCV:     mean(r.MixingCV),
		MeanMoisture:     mean(r.FinalMoisture),
		MeanBatchCost:    mean(r.BatchCost),
		MeanTempRiseC:    mean(r.TempRiseC),
		P95TempRiseC:     sim.CalculatePercentile(r.TempRiseC, 95),
	}
}
