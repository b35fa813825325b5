package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_AllArraysHaveBatchLength(t *testing.T) {
	ctx := testContext(t, 42)
	s := NewSampler(ctx, DefaultConfig().Sampler)

	for _, n := range []int{1, 7, 1000} {
		b, err := s.Sample(n, ctx.Key(), Overrides{})
		require.NoError(t, err)
		require.NoError(t, b.Validate(), "n=%d", n)
		assert.Equal(t, n, b.N)
	}
}

func TestSampler_NonPositiveBatchRejected(t *testing.T) {
	ctx := testContext(t, 1)
	_, err := NewSampler(ctx, DefaultConfig().Sampler).Sample(0, ctx.Key(), Overrides{})
	assert.Error(t, err)
}

func TestSampler_DrawsWithinDocumentedRanges(t *testing.T) {
	ctx := testContext(t, 7)
	cfg := DefaultConfig().Sampler
	b, err := NewSampler(ctx, cfg).Sample(5000, ctx.Key(), Overrides{})
	require.NoError(t, err)

	seen := map[GrinderVariant]int{}
	for i := 0; i < b.N; i++ {
		assert.GreaterOrEqual(t, b.FeedRate[i], cfg.FeedRate.Min)
		assert.LessOrEqual(t, b.FeedRate[i], cfg.FeedRate.Max)
		assert.GreaterOrEqual(t, b.SubstitutionRatio[i], 0.0)
		assert.LessOrEqual(t, b.SubstitutionRatio[i], 0.5)
		assert.GreaterOrEqual(t, b.Sensitivity.UnitFailureRate[i], 0.0)
		assert.LessOrEqual(t, b.Sensitivity.UnitFailureRate[i], 1.0)
		seen[b.Grinder[i]]++
		if b.Grinder[i] == MixieCluster {
			assert.GreaterOrEqual(t, b.DutyCycle[i], cfg.DutyCycle.Min)
			assert.LessOrEqual(t, b.DutyCycle[i], cfg.DutyCycle.Max)
		} else {
			assert.Equal(t, 1.0, b.DutyCycle[i], "single-unit mills run continuously")
		}
	}
	// uniform over three variants
	for _, v := range AllGrinderVariants {
		assert.InDelta(t, float64(b.N)/3, float64(seen[v]), float64(b.N)*0.05, "variant %s", v)
	}
	assert.InDelta(t, 55.0, mean(b.Sensitivity.MaterialCost), 0.5)
	assert.InDelta(t, 12.0, mean(b.Sensitivity.ElectricityRate), 0.1)
	assert.InDelta(t, 298.0, mean(b.Sensitivity.AmbientTempK), 0.3)
}

func TestSampler_SameKeyIsReproducible(t *testing.T) {
	ctx := testContext(t, 99)
	s := NewSampler(ctx, DefaultConfig().Sampler)

	a, err := s.Sample(256, ctx.Key(), Overrides{})
	require.NoError(t, err)
	b, err := s.Sample(256, ctx.Key(), Overrides{})
	require.NoError(t, err)

	assert.Equal(t, a, b)

	c, err := s.Sample(256, NewSimulationKey(100), Overrides{})
	require.NoError(t, err)
	assert.NotEqual(t, a.FeedRate, c.FeedRate)
}

func TestSampler_OverrideLeavesOtherVariablesBitIdentical(t *testing.T) {
	// GIVEN a baseline batch and a batch with only electricity overridden
	ctx := testContext(t, 5)
	s := NewSampler(ctx, DefaultConfig().Sampler)
	base, err := s.Sample(512, ctx.Key(), Overrides{})
	require.NoError(t, err)
	shifted, err := s.Sample(512, ctx.Key(), Overrides{ElectricityRate: Normal(24, 2)})
	require.NoError(t, err)

	// THEN every non-overridden array is unchanged
	for _, v := range SensitivityVariables {
		if v == VarElectricityRate {
			continue
		}
		assert.Equal(t, base.Sensitivity.Get(v), shifted.Sensitivity.Get(v), "variable %s", v)
	}
	assert.Equal(t, base.FeedRate, shifted.FeedRate)
	assert.Equal(t, base.Grinder, shifted.Grinder)
	assert.Equal(t, base.DutyCycle, shifted.DutyCycle)
	assert.InDelta(t, 24.0, mean(shifted.Sensitivity.ElectricityRate), 0.5)
}

func TestSampler_ScalarOverride_IsConstant(t *testing.T) {
	ctx := testContext(t, 3)
	b, err := NewSampler(ctx, DefaultConfig().Sampler).Sample(10, ctx.Key(), Overrides{UnitFailureRate: Scalar(0.02)})
	require.NoError(t, err)
	for _, v := range b.Sensitivity.UnitFailureRate {
		assert.Equal(t, 0.02, v)
	}
}

func TestSampler_FailureOverrideIsClamped(t *testing.T) {
	ctx := testContext(t, 3)
	s := NewSampler(ctx, DefaultConfig().Sampler)

	b, err := s.Sample(3, ctx.Key(), Overrides{UnitFailureRate: Array([]float64{-0.2, 0.5, 1.7})})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, b.Sensitivity.UnitFailureRate)

	b, err = s.Sample(3, ctx.Key(), Overrides{UnitFailureRate: Scalar(3)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, b.Sensitivity.UnitFailureRate)
}

func TestSampler_ArrayOverride_CopiedNotAliased(t *testing.T) {
	ctx := testContext(t, 3)
	src := []float64{40, 50, 60}
	b, err := NewSampler(ctx, DefaultConfig().Sampler).Sample(3, ctx.Key(), Overrides{MaterialCost: Array(src)})
	require.NoError(t, err)

	src[0] = 1000
	assert.Equal(t, []float64{40, 50, 60}, b.Sensitivity.MaterialCost)
}

func TestSampler_ArrayOverride_LengthMismatch(t *testing.T) {
	ctx := testContext(t, 3)
	_, err := NewSampler(ctx, DefaultConfig().Sampler).Sample(4, ctx.Key(), Overrides{HeatPumpCOP: Array([]float64{3, 4})})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "heat_pump_cop")
}

func TestSampler_RestrictedVariantSet(t *testing.T) {
	ctx := testContext(t, 11)
	cfg := DefaultConfig().Sampler
	cfg.GrinderVariants = []GrinderVariant{MixieCluster}
	cfg.ExtruderVariants = []ExtruderVariant{HotExtrusion}

	b, err := NewSampler(ctx, cfg).Sample(50, ctx.Key(), Overrides{})
	require.NoError(t, err)
	for i := 0; i < b.N; i++ {
		assert.Equal(t, MixieCluster, b.Grinder[i])
		assert.Equal(t, HotExtrusion, b.Extruder[i])
	}
}

func TestSampler_Float32_ArraysAreRepresentable(t *testing.T) {
	ctx, err := NewExecContext(ContextConfig{Precision: Float32, Seed: 8})
	require.NoError(t, err)
	b, err := NewSampler(ctx, DefaultConfig().Sampler).Sample(64, ctx.Key(), Overrides{AmbientTempK: Array(make([]float64, 64))})
	require.NoError(t, err)

	for _, arr := range [][]float64{b.FeedRate, b.ChargeMassKg, b.Sensitivity.MaterialCost, b.Sensitivity.HeatPumpCOP} {
		for _, v := range arr {
			assert.Equal(t, float64(float32(v)), v)
			assert.False(t, math.IsNaN(v))
		}
	}
}
