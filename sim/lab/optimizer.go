// Package lab holds the lab-scale tools: the pulse protocol search for a
// single grinder charge, its CSV export, and the manual-variability trial of a
// 1 kg batch. Both reuse the thermal and kinetic primitives of package sim.
package lab

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lineopt/lineopt/sim"
)

// Optimizer searches the (pulse-on, pulse-off) plane for the fastest protocol
// that keeps protein damage under the configured ceiling.
type Optimizer struct {
	ctx     *sim.ExecContext
	cfg     sim.LabConfig
	thermal sim.ThermalConfig
}

// NewOptimizer creates a pulse protocol optimizer.
func NewOptimizer(ctx *sim.ExecContext, cfg sim.LabConfig, thermal sim.ThermalConfig) *Optimizer {
	return &Optimizer{ctx: ctx, cfg: cfg, thermal: thermal}
}

// Candidates are evaluated pulse protocols as parallel arrays.
type Candidates struct {
	OnTimeSec    []float64
	OffTimeSec   []float64
	Pulses       []float64
	PeakTempK    []float64
	Denaturation []float64
	TotalTimeSec []float64
	Score        []float64 // TotalTimeSec plus the violation penalty
}

// Len returns the number of candidates.
func (c *Candidates) Len() int { return len(c.OnTimeSec) }

// PeakRise returns the steady-state temperature rise (K) of repeated pulses:
// each pulse adds the convective rise of onSec and each pause multiplies the
// excess by exp(-rate*offSec), so the excess converges to rise/(1-cool).
func (o *Optimizer) PeakRise(onSec, offSec float64) float64 {
	rise := o.thermal.ConvectiveRise(o.cfg.PowerW, onSec, o.cfg.BatchMassKg)
	// 1 - exp(-rate*off)
	retained := -math.Expm1(-o.thermal.CoolingRate(o.cfg.BatchMassKg) * offSec)
	return rise / retained
}

// Evaluate computes every candidate of the given on/off durations.
// The peak temperature is assumed held for one pulse-on period.
func (o *Optimizer) Evaluate(on, off []float64) (*Candidates, error) {
	if len(on) != len(off) {
		return nil, fmt.Errorf("%w: %d pulse-on vs %d pulse-off durations",
			sim.ErrLengthMismatch, len(on), len(off))
	}
	n := len(on)
	c := &Candidates{OnTimeSec: on, OffTimeSec: off}
	c.Pulses = o.ctx.Vector(n, func(i int) float64 {
		return math.Ceil(o.cfg.RequiredActiveSec / on[i])
	})
	c.PeakTempK = o.ctx.Vector(n, func(i int) float64 {
		return o.cfg.AmbientTempK + o.PeakRise(on[i], off[i])
	})
	c.Denaturation = o.ctx.Vector(n, func(i int) float64 {
		return o.thermal.Denaturation(c.PeakTempK[i], on[i])
	})
	c.TotalTimeSec = o.ctx.Vector(n, func(i int) float64 {
		return (on[i] + off[i]) * c.Pulses[i]
	})
	c.Score = o.ctx.Vector(n, func(i int) float64 {
		if c.Denaturation[i] > o.cfg.MaxDenaturation {
			return c.TotalTimeSec[i] + o.cfg.ViolationPenalty
		}
		return c.TotalTimeSec[i]
	})
	return c, nil
}

// Sample draws n candidates uniformly from the configured on/off ranges.
func (o *Optimizer) Sample(n int) *Candidates {
	rng := o.ctx.NewRNG()
	on := draw(o.ctx, distuv.Uniform{Min: o.cfg.PulseOnSec.Min, Max: o.cfg.PulseOnSec.Max,
		Src: rng.ForSubsystem(sim.SubsystemPulseOn)}, n)
	off := draw(o.ctx, distuv.Uniform{Min: o.cfg.PulseOffSec.Min, Max: o.cfg.PulseOffSec.Max,
		Src: rng.ForSubsystem(sim.SubsystemPulseOff)}, n)
	c, _ := o.Evaluate(on, off)
	return c
}

// Optimize samples the configured number of candidates and returns the one
// with the lowest penalized time. Feasible is false when every candidate
// broke the damage ceiling.
func (o *Optimizer) Optimize() (*Protocol, error) {
	if o.cfg.Samples < 1 {
		return nil, fmt.Errorf("%w: lab samples must be >= 1, got %d", sim.ErrInvalidConfig, o.cfg.Samples)
	}
	c := o.Sample(o.cfg.Samples)
	p := c.Protocol(floats.MinIdx(c.Score), o.cfg.MaxDenaturation)
	if p.Feasible {
		logrus.Infof("lab protocol: on=%.2fs off=%.2fs batch=%.1fmin peak=%.1fC",
			p.OnTimeSec, p.OffTimeSec, p.TotalBatchTimeMin, p.PeakTempC)
	} else {
		logrus.Warnf("no pulse protocol among %d candidates keeps damage <= %g",
			c.Len(), o.cfg.MaxDenaturation)
	}
	return p, nil
}

// Protocol returns candidate i as a protocol.
func (c *Candidates) Protocol(i int, maxDenaturation float64) *Protocol {
	on, off := c.OnTimeSec[i], c.OffTimeSec[i]
	return &Protocol{
		OnTimeSec:         on,
		OffTimeSec:        off,
		DutyCycle:         on / (on + off),
		TotalBatchTimeMin: c.TotalTimeSec[i] / 60.0,
		PeakTempC:         c.PeakTempK[i] - sim.KelvinOffset,
		ProteinDamage:     c.Denaturation[i],
		Feasible:          c.Denaturation[i] <= maxDenaturation,
	}
}

func draw(ctx *sim.ExecContext, d distuv.Uniform, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	ctx.Quantize(out)
	return out
}
