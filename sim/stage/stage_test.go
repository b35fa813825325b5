package stage_test

import (
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineopt/lineopt/sim"
	_ "github.com/lineopt/lineopt/sim/backend"
	"github.com/lineopt/lineopt/sim/internal/testutil"
	"github.com/lineopt/lineopt/sim/stage"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func newContext(t *testing.T) *sim.ExecContext {
	t.Helper()
	ctx, err := sim.NewExecContext(sim.ContextConfig{Device: "cpu", Seed: 42})
	require.NoError(t, err)
	return ctx
}

// uniformBatch returns n identical samples at nominal conditions.
func uniformBatch(n int, g sim.GrinderVariant, d sim.DryerVariant, e sim.ExtruderVariant) *sim.ParameterBatch {
	fill := func(v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}
	b := &sim.ParameterBatch{
		N:                 n,
		FeedRate:          fill(200),
		Grinder:           make([]sim.GrinderVariant, n),
		Dryer:             make([]sim.DryerVariant, n),
		Extruder:          make([]sim.ExtruderVariant, n),
		DutyCycle:         fill(1),
		SubstitutionRatio: fill(0.2),
		ChargeMassKg:      fill(0.5),
		Sensitivity: sim.SensitivityArrays{
			MaterialCost:    fill(55),
			ElectricityRate: fill(12),
			AmbientTempK:    fill(298),
			UnitFailureRate: fill(0.02),
			HeatPumpCOP:     fill(3.5),
		},
	}
	for i := 0; i < n; i++ {
		b.Grinder[i], b.Dryer[i], b.Extruder[i] = g, d, e
		if g == sim.MixieCluster {
			b.DutyCycle[i] = 0.25
		}
	}
	return b
}

func TestLine_EveryStageArrayHasBatchLength(t *testing.T) {
	// GIVEN a sampled batch covering every variant
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	b, err := sim.NewSampler(ctx, cfg.Sampler).Sample(333, ctx.Key(), sim.Overrides{})
	require.NoError(t, err)

	// WHEN every stage runs
	for _, m := range stage.NewLine(ctx, cfg).Models() {
		r := m.Simulate(b)

		// THEN every produced array has length N and probabilities stay in [0,1]
		arrays := map[string][]float64{}
		for name, a := range map[string][]float64{
			"capex": r.Capex, "power": r.PowerKW, "wear": r.WearPerHour, "failure": r.FailureProb,
			"defect": r.Defect, "temp": r.TempC, "material": r.MaterialCostPerKg, "protein": r.ProteinPct,
		} {
			if a != nil {
				arrays[m.Name()+"."+name] = a
			}
		}
		testutil.AssertLen(t, b.N, arrays)
		testutil.AssertProbabilities(t, m.Name()+".failure", r.FailureProb)
		testutil.AssertProbabilities(t, m.Name()+".defect", r.Defect)
		testutil.AssertNonNegative(t, m.Name()+".capex", r.Capex)
		testutil.AssertNonNegative(t, m.Name()+".power", r.PowerKW)
	}
}

func TestGrinding_ClusterScenario_SystemFailure(t *testing.T) {
	// GIVEN N=10, every grinder a cluster of 5 and unit failure fixed at 0.02
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	cfg.Sampler.GrinderVariants = []sim.GrinderVariant{sim.MixieCluster}
	b, err := sim.NewSampler(ctx, cfg.Sampler).Sample(10, ctx.Key(), sim.Overrides{UnitFailureRate: sim.Scalar(0.02)})
	require.NoError(t, err)

	// WHEN the grinding stage runs
	r := stage.NewGrinding(ctx, cfg.Grinding, cfg.Thermal).Simulate(b)

	// THEN every sample reports 1-(0.98)^5 with zero variance
	want := 1 - math.Pow(0.98, 5)
	assert.InDelta(t, 0.09608, want, 1e-5)
	require.Len(t, r.FailureProb, 10)
	for i, p := range r.FailureProb {
		assert.InDelta(t, want, p, 1e-15, "sample %d", i)
	}
}

func TestGrinding_VariantTables(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	g := stage.NewGrinding(ctx, cfg.Grinding, cfg.Thermal)

	ball := g.Simulate(uniformBatch(2, sim.BallMill, sim.ResistiveDryer, sim.ColdExtrusion))
	assert.Equal(t, cfg.Grinding.BallMill.Capex, ball.Capex[0])
	assert.Equal(t, cfg.Grinding.BallMill.PowerKW, ball.PowerKW[1])
	assert.Equal(t, cfg.Grinding.BallMill.FailureProb, ball.FailureProb[0])
	assert.Equal(t, cfg.Grinding.BallMillDenaturation, ball.Defect[0])

	hammer := g.Simulate(uniformBatch(2, sim.HammerMill, sim.ResistiveDryer, sim.ColdExtrusion))
	assert.Equal(t, cfg.Grinding.HammerMill.WearPerHour, hammer.WearPerHour[0])
	assert.Equal(t, 0.12, hammer.Defect[1])

	cluster := g.Simulate(uniformBatch(2, sim.MixieCluster, sim.ResistiveDryer, sim.ColdExtrusion))
	k := float64(cfg.Grinding.ClusterSize)
	assert.Equal(t, cfg.Grinding.MixieUnit.Capex*k, cluster.Capex[0])
	assert.InDelta(t, cfg.Grinding.MixieUnit.PowerKW*0.25*k, cluster.PowerKW[0], 1e-12)
	assert.Equal(t, cfg.Grinding.MixieUnit.WearPerHour*k, cluster.WearPerHour[0])
}

func TestGrinding_ClusterDenaturationMatchesPrimitives(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	b := uniformBatch(1, sim.MixieCluster, sim.ResistiveDryer, sim.ColdExtrusion)

	r := stage.NewGrinding(ctx, cfg.Grinding, cfg.Thermal).Simulate(b)

	onTime := cfg.Grinding.CycleTimeSec * 0.25
	tempK := 298 + cfg.Thermal.ConvectiveRise(cfg.Grinding.MixieUnit.PowerKW*1000, onTime, 0.5)
	assert.InDelta(t, tempK-sim.KelvinOffset, r.TempC[0], 1e-9)
	assert.InDelta(t, cfg.Thermal.Denaturation(tempK, onTime), r.Defect[0], 1e-15)
}

func TestGrinding_HotterAmbientNeverLowersDenaturation(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	g := stage.NewGrinding(ctx, cfg.Grinding, cfg.Thermal)

	cool := uniformBatch(1, sim.MixieCluster, sim.ResistiveDryer, sim.ColdExtrusion)
	hot := uniformBatch(1, sim.MixieCluster, sim.ResistiveDryer, sim.ColdExtrusion)
	hot.Sensitivity.AmbientTempK[0] = 318

	assert.GreaterOrEqual(t, g.Simulate(hot).Defect[0], g.Simulate(cool).Defect[0])
	assert.Greater(t, g.Simulate(hot).TempC[0], g.Simulate(cool).TempC[0])
}

func TestDrying_PowerFromEvaporativeLoad(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	d := stage.NewDrying(ctx, cfg.Drying)

	// 200 kg/h * 25% = 50 kg/h water; 50 * 2260 / 3600 = 31.39 kW of latent heat
	load := 200.0 * 0.25 * 2260.0 / 3600.0
	assert.InDelta(t, load, d.EvaporativeLoadKW(200), 1e-12)

	res := d.Simulate(uniformBatch(1, sim.BallMill, sim.ResistiveDryer, sim.ColdExtrusion))
	assert.InDelta(t, load/0.95, res.PowerKW[0], 1e-9)
	assert.Equal(t, 150000.0, res.Capex[0])
	assert.Equal(t, 0.005, res.FailureProb[0])

	hp := uniformBatch(1, sim.BallMill, sim.HeatPumpDryer, sim.ColdExtrusion)
	hp.Sensitivity.HeatPumpCOP[0] = 4.0
	res = d.Simulate(hp)
	assert.InDelta(t, load/4.0, res.PowerKW[0], 1e-9)
	assert.Equal(t, 450000.0, res.Capex[0])
	assert.Equal(t, 0.001, res.FailureProb[0])
}

func TestExtrusion_VariantConstants(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	e := stage.NewExtrusion(ctx, cfg.Extrusion)

	cold := e.Simulate(uniformBatch(1, sim.BallMill, sim.ResistiveDryer, sim.ColdExtrusion))
	hot := e.Simulate(uniformBatch(1, sim.BallMill, sim.ResistiveDryer, sim.HotExtrusion))

	assert.Equal(t, []float64{150000}, cold.Capex)
	assert.Equal(t, []float64{1500000}, hot.Capex)
	assert.Equal(t, []float64{8.45}, cold.MaterialCostPerKg)
	assert.Equal(t, []float64{0}, hot.MaterialCostPerKg)
	assert.Equal(t, []float64{0.05}, hot.FailureProb)
}

func TestFormulation_BlendAndProteinThreshold(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	f := stage.NewFormulation(ctx, cfg.Formulation)

	tests := []struct {
		ratio       float64
		wantCost    float64
		wantProtein float64
		wantDefect  float64
	}{
		{0.0, 55, 22, 0},
		{0.2, 0.8*55 + 0.2*28 + 4, 0.8*22 + 0.2*7, 0},
		{0.45, 0.55*55 + 0.45*28 + 9, 0.55*22 + 0.45*7, 0},
		// 14.5% protein fails the 15% threshold
		{0.5, 0.5*55 + 0.5*28 + 10, 14.5, 1},
		// bounded at the maximum substitution
		{0.9, 0.5*55 + 0.5*28 + 10, 14.5, 1},
	}
	for _, tt := range tests {
		b := uniformBatch(1, sim.BallMill, sim.ResistiveDryer, sim.ColdExtrusion)
		b.SubstitutionRatio[0] = tt.ratio
		r := f.Simulate(b)
		assert.InDelta(t, tt.wantCost, r.MaterialCostPerKg[0], 1e-9, "ratio %v", tt.ratio)
		assert.InDelta(t, tt.wantProtein, r.ProteinPct[0], 1e-9, "ratio %v", tt.ratio)
		assert.Equal(t, tt.wantDefect, r.Defect[0], "ratio %v", tt.ratio)
	}
}

func TestFormulation_MaterialCostFollowsPrimaryPrice(t *testing.T) {
	ctx := newContext(t)
	f := stage.NewFormulation(ctx, sim.DefaultConfig().Formulation)

	cheap := uniformBatch(1, sim.BallMill, sim.ResistiveDryer, sim.ColdExtrusion)
	dear := uniformBatch(1, sim.BallMill, sim.ResistiveDryer, sim.ColdExtrusion)
	dear.Sensitivity.MaterialCost[0] = 65

	assert.InDelta(t, 0.8*10, f.Simulate(dear).MaterialCostPerKg[0]-f.Simulate(cheap).MaterialCostPerKg[0], 1e-9)
}

func TestStages_DoNotMutateBatch(t *testing.T) {
	ctx := newContext(t)
	cfg := sim.DefaultConfig()
	b := uniformBatch(4, sim.MixieCluster, sim.HeatPumpDryer, sim.HotExtrusion)
	before := uniformBatch(4, sim.MixieCluster, sim.HeatPumpDryer, sim.HotExtrusion)

	for _, m := range stage.NewLine(ctx, cfg).Models() {
		m.Simulate(b)
	}
	assert.Equal(t, before, b)
}
