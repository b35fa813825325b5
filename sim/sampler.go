package sim

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws ParameterBatches from a SamplerConfig.
// Every named variable draws from its own PartitionedRNG subsystem, so the
// arrays of non-overridden variables are identical across runs with the same key.
type Sampler struct {
	ctx *ExecContext
	cfg SamplerConfig
}

// NewSampler creates a sampler bound to an execution context.
func NewSampler(ctx *ExecContext, cfg SamplerConfig) *Sampler {
	return &Sampler{ctx: ctx, cfg: cfg}
}

// Sample draws a fresh batch of n samples keyed by key.
// Overrides replace the default distribution of their variable verbatim;
// unit failure rates are clamped into [0,1] after sampling or substitution.
// Returns ErrLengthMismatch when an Array override does not have n values.
func (s *Sampler) Sample(n int, key SimulationKey, ov Overrides) (*ParameterBatch, error) {
	if n <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", n)
	}
	rng := NewPartitionedRNG(key)
	b := &ParameterBatch{N: n}

	b.FeedRate = s.uniform(rng.ForSubsystem(SubsystemFeedRate), n, s.cfg.FeedRate)
	b.Grinder = pick(rng.ForSubsystem(SubsystemGrinder), n, s.cfg.GrinderVariants)
	b.Dryer = pick(rng.ForSubsystem(SubsystemDryer), n, s.cfg.DryerVariants)
	b.Extruder = pick(rng.ForSubsystem(SubsystemExtruder), n, s.cfg.ExtruderVariants)

	duty := s.uniform(rng.ForSubsystem(SubsystemDutyCycle), n, s.cfg.DutyCycle)
	for i := range duty {
		// Single-unit mills run continuously.
		if b.Grinder[i] != MixieCluster {
			duty[i] = 1.0
		}
	}
	b.DutyCycle = duty
	b.SubstitutionRatio = s.uniform(rng.ForSubsystem(SubsystemSubstitution), n, s.cfg.SubstitutionRatio)
	b.ChargeMassKg = s.normal(rng.ForSubsystem(SubsystemChargeMass), n, s.cfg.ChargeMassKg)

	for _, v := range SensitivityVariables {
		values, err := s.sensitivity(rng, n, v, ov.Get(v))
		if err != nil {
			return nil, err
		}
		if v == VarUnitFailureRate {
			for i := range values {
				values[i] = Clamp01(values[i])
			}
		}
		b.Sensitivity.set(v, values)
	}
	return b, nil
}

func (s *Sampler) sensitivity(rng *PartitionedRNG, n int, v SensitivityVariable, ov Override) ([]float64, error) {
	switch ov.kind {
	case overrideScalar:
		return s.ctx.Full(n, ov.scalar), nil
	case overrideArray:
		if len(ov.values) != n {
			return nil, fmt.Errorf("%w: override %q has %d values, batch has %d",
				ErrLengthMismatch, v, len(ov.values), n)
		}
		values := make([]float64, n)
		copy(values, ov.values)
		s.ctx.Quantize(values)
		return values, nil
	case overrideNormal:
		return s.normal(rng.ForSubsystem(SubsystemSensitivity(v)), n, ov.dist), nil
	}
	return s.normal(rng.ForSubsystem(SubsystemSensitivity(v)), n, s.cfg.Distribution(v)), nil
}

// Draws are sequential: a subsystem stream is not safe for concurrent use.

func (s *Sampler) uniform(r *rand.Rand, n int, rg Range) []float64 {
	d := distuv.Uniform{Min: rg.Min, Max: rg.Max, Src: r}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	s.ctx.Quantize(out)
	return out
}

func (s *Sampler) normal(r *rand.Rand, n int, nd NormalDist) []float64 {
	d := distuv.Normal{Mu: nd.Mean, Sigma: nd.StdDev, Src: r}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	s.ctx.Quantize(out)
	return out
}

func pick[T any](r *rand.Rand, n int, set []T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = set[r.IntN(len(set))]
	}
	return out
}
