// Package engine provides the Monte Carlo orchestrator: one Run samples a
// batch, evaluates every stage model and the cost aggregator, and retains the
// result for analysis.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lineopt/lineopt/sim"
	"github.com/lineopt/lineopt/sim/cost"
	"github.com/lineopt/lineopt/sim/stage"
)

// RunStats summarizes a finished run for observers.
type RunStats struct {
	RunID        string
	BatchSize    int
	Device       string
	Precision    sim.Precision
	Overrides    []sim.SensitivityVariable
	Elapsed      time.Duration
	MeanUnitCost float64
	MeanScore    float64
	MeanDowntime float64
	Err          error // non-nil when the run failed; the other figures are zero
}

// Observer is notified after every Run.
type Observer interface {
	ObserveRun(stats RunStats)
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer notified after every run.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// Engine runs Monte Carlo batches over one execution context and configuration.
// An Engine is not safe for concurrent Run calls; use Fork for parallel runs.
type Engine struct {
	ctx       *sim.ExecContext
	cfg       sim.Config
	batchSize int

	sampler   *sim.Sampler
	line      *stage.Line
	agg       *cost.Aggregator
	observers []Observer

	result *AggregateResult
}

// New creates an engine drawing batchSize samples per run.
func New(ctx *sim.ExecContext, cfg sim.Config, batchSize int, opts ...Option) (*Engine, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil execution context", sim.ErrBackendUnavailable)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be >= 1, got %d", sim.ErrInvalidConfig, batchSize)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		ctx:       ctx,
		cfg:       cfg,
		batchSize: batchSize,
		sampler:   sim.NewSampler(ctx, cfg.Sampler),
		line:      stage.NewLine(ctx, cfg),
		agg:       cost.NewAggregator(ctx, cfg.Cost),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Open resolves an execution context and creates an engine on it.
// Fails with sim.ErrBackendUnavailable when the device has no usable backend.
func Open(cc sim.ContextConfig, cfg sim.Config, batchSize int, opts ...Option) (*Engine, error) {
	ctx, err := sim.NewExecContext(cc)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return New(ctx, cfg, batchSize, opts...)
}

// Fork returns an engine sharing this engine's context, configuration and
// observers but holding no result. Forks run independently of each other.
func (e *Engine) Fork() *Engine {
	return &Engine{
		ctx:       e.ctx,
		cfg:       e.cfg,
		batchSize: e.batchSize,
		sampler:   sim.NewSampler(e.ctx, e.cfg.Sampler),
		line:      stage.NewLine(e.ctx, e.cfg),
		agg:       cost.NewAggregator(e.ctx, e.cfg.Cost),
		observers: append([]Observer(nil), e.observers...),
	}
}

// Context returns the execution context.
func (e *Engine) Context() *sim.ExecContext { return e.ctx }

// Config returns the engine configuration.
func (e *Engine) Config() sim.Config { return e.cfg }

// BatchSize returns the number of samples per run.
func (e *Engine) BatchSize() int { return e.batchSize }

// Result returns the most recent successful run, or nil before the first run.
func (e *Engine) Result() *AggregateResult { return e.result }

// RunNamed maps a name-keyed override set onto the five sensitivity
// variables and runs. Unknown keys are logged and ignored.
func (e *Engine) RunNamed(overrides map[string]sim.Override) (*AggregateResult, error) {
	ov, ignored := sim.ParseOverrides(overrides)
	for _, name := range ignored {
		logrus.Warnf("ignoring override for unknown variable %q; valid: %v", name, sim.SensitivityVariables)
	}
	return e.Run(ov)
}

// Run samples one batch with ov applied, evaluates the line and replaces the
// retained result. On error the previous result is kept.
func (e *Engine) Run(ov sim.Overrides) (*AggregateResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logrus.Infof("[run %s] starting: batch=%d device=%s precision=%s overrides=%v",
		runID, e.batchSize, e.ctx.Device(), e.ctx.Precision(), ov.Active())

	res, err := e.evaluate(runID, ov)
	stats := RunStats{
		RunID:     runID,
		BatchSize: e.batchSize,
		Device:    e.ctx.Device(),
		Precision: e.ctx.Precision(),
		Overrides: ov.Active(),
		Elapsed:   time.Since(start),
		Err:       err,
	}
	if err != nil {
		e.notify(stats)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	e.result = res

	stats.MeanUnitCost = sim.CalculateMean(res.UnitCost)
	stats.MeanScore = sim.CalculateMean(res.Score)
	stats.MeanDowntime = sim.CalculateMean(res.Downtime)
	logrus.Infof("[run %s] finished in %v: mean unit cost %.2f INR/kg, mean downtime %.4f",
		runID, stats.Elapsed, stats.MeanUnitCost, stats.MeanDowntime)
	e.notify(stats)
	return res, nil
}

func (e *Engine) notify(stats RunStats) {
	for _, o := range e.observers {
		o.ObserveRun(stats)
	}
}

func (e *Engine) evaluate(runID string, ov sim.Overrides) (*AggregateResult, error) {
	b, err := e.sampler.Sample(e.batchSize, e.ctx.Key(), ov)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", err)
	}
	n := b.N

	form := e.line.Formulation.Simulate(b)
	grind := e.line.Grinding.Simulate(b)
	extr := e.line.Extrusion.Simulate(b)
	dry := e.line.Drying.Simulate(b)
	for _, m := range e.line.Models() {
		logrus.Debugf("[run %s] stage %s evaluated for %d samples", runID, m.Name(), n)
	}

	c := e.cfg.Cost
	res := &AggregateResult{
		RunID:           runID,
		N:               n,
		Overrides:       ov.Active(),
		Batch:           b,
		GrinderTempC:    grind.TempC,
		Denaturation:    grind.Defect,
		ProteinPct:      form.ProteinPct,
		QualityFail:     form.Defect,
		WearPerHour:     grind.WearPerHour,
		GrinderFailure:  grind.FailureProb,
		ExtruderFailure: extr.FailureProb,
		DryerFailure:    dry.FailureProb,
	}
	res.Capex = e.ctx.Vector(n, func(i int) float64 {
		return grind.Capex[i] + extr.Capex[i] + dry.Capex[i] + c.AncillaryCapex
	})
	res.PowerKW = e.ctx.Vector(n, func(i int) float64 {
		return grind.PowerKW[i] + extr.PowerKW[i] + dry.PowerKW[i]
	})
	res.Downtime = e.ctx.Vector(n, func(i int) float64 {
		return sim.ComposeFailures(grind.FailureProb[i], extr.FailureProb[i], dry.FailureProb[i])
	})
	res.Defect = e.ctx.Vector(n, func(i int) float64 {
		return sim.Clamp01(grind.Defect[i] + form.Defect[i] + c.BaseDefectRate)
	})
	res.EffectiveMaterialCost = e.ctx.Vector(n, func(i int) float64 {
		return form.MaterialCostPerKg[i] + extr.MaterialCostPerKg[i]
	})
	res.RnDCost = e.agg.RnDBudget(b.Grinder)

	if res.EffectiveOutput, err = e.agg.EffectiveOutput(b.FeedRate, res.Defect, res.Downtime); err != nil {
		return nil, err
	}
	if res.Cost, err = e.agg.TotalCost(cost.Inputs{
		Capex:              res.Capex,
		PowerKW:            res.PowerKW,
		Throughput:         b.FeedRate,
		DefectRate:         res.Defect,
		RnDCost:            res.RnDCost,
		MaintenancePerHour: res.WearPerHour,
		ElectricityRate:    b.Sensitivity.ElectricityRate,
		MaterialCostPerKg:  res.EffectiveMaterialCost,
	}); err != nil {
		return nil, err
	}
	res.TotalCost = res.Cost.Total
	if res.UnitCost, err = e.agg.UnitCost(res.TotalCost, res.EffectiveOutput); err != nil {
		return nil, err
	}
	// The dryer failure is the catastrophic stage risk carried into the score.
	if res.Score, err = e.agg.Objective(res.EffectiveOutput, res.TotalCost, res.Defect, res.DryerFailure); err != nil {
		return nil, err
	}
	return res, nil
}
