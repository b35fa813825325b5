package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClusterFailure_Properties(t *testing.T) {
	for _, p := range []float64{0, 0.001, 0.02, 0.3, 1} {
		// k=1 is the unit itself
		assert.InDelta(t, p, ClusterFailure(p, 1), 1e-15, "p=%v", p)
		prev := p
		for k := 2; k <= 50; k++ {
			got := ClusterFailure(p, k)
			assert.GreaterOrEqual(t, got, prev, "p=%v k=%d", p, k)
			assert.LessOrEqual(t, got, 1.0)
			prev = got
		}
	}
	// tends to 1 for any p > 0
	assert.InDelta(t, 1.0, ClusterFailure(0.02, 5000), 1e-12)
	assert.InDelta(t, 1-math.Pow(0.98, 5), ClusterFailure(0.02, 5), 1e-15)
}

func TestClusterFailure_ClampsUnitProbability(t *testing.T) {
	assert.Equal(t, 0.0, ClusterFailure(-0.5, 3))
	assert.Equal(t, 1.0, ClusterFailure(1.5, 3))
}

func TestComposeFailures_MonotoneAndBounded(t *testing.T) {
	grid := []float64{0, 0.01, 0.1, 0.5, 0.99, 1}
	for _, p1 := range grid {
		for _, p2 := range grid {
			for _, p3 := range grid {
				d := ComposeFailures(p1, p2, p3)
				assert.GreaterOrEqual(t, d, 0.0)
				assert.LessOrEqual(t, d, 1.0)
				assert.InDelta(t, 1-(1-p1)*(1-p2)*(1-p3), d, 1e-15)
				// raising any single stage never lowers downtime
				assert.GreaterOrEqual(t, ComposeFailures(math.Min(1, p1+0.05), p2, p3), d)
				assert.GreaterOrEqual(t, ComposeFailures(p1, math.Min(1, p2+0.05), p3), d)
				assert.GreaterOrEqual(t, ComposeFailures(p1, p2, math.Min(1, p3+0.05)), d)
			}
		}
	}
	assert.Equal(t, 0.0, ComposeFailures())
}

func TestDenaturation_ZeroAtTimeZero(t *testing.T) {
	th := DefaultConfig().Thermal
	for _, temp := range []float64{250, 298, 350, 400} {
		assert.Equal(t, 0.0, th.Denaturation(temp, 0), "T=%v", temp)
	}
}

func TestDenaturation_MonotoneInTemperatureAndTime(t *testing.T) {
	th := DefaultConfig().Thermal
	temps := []float64{290, 310, 330, 350, 370, 390}
	times := []float64{0, 1, 10, 60, 600, 3600}
	for i, temp := range temps {
		for j, tm := range times {
			p := th.Denaturation(temp, tm)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			if i > 0 {
				assert.GreaterOrEqual(t, p, th.Denaturation(temps[i-1], tm))
			}
			if j > 0 {
				assert.GreaterOrEqual(t, p, th.Denaturation(temp, times[j-1]))
			}
		}
	}
	// saturates at very high temperature
	assert.Equal(t, 1.0, th.Denaturation(500, 3600))
}

func TestConvectiveRise_ApproachesSteadyState(t *testing.T) {
	th := DefaultConfig().Thermal
	power, mass := 750.0, 0.5
	steady := th.HeatConversionEfficiency * power / th.HeatLossCoeff()

	assert.Equal(t, 0.0, th.ConvectiveRise(power, 0, mass))
	short := th.ConvectiveRise(power, 1, mass)
	// for t much shorter than the time constant the rise is nearly adiabatic
	assert.InDelta(t, th.HeatConversionEfficiency*th.AdiabaticRise(power, 1, mass), short, short*1e-3)
	assert.InDelta(t, steady, th.ConvectiveRise(power, 1e9, mass), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 0.25, Clamp01(0.25))
	assert.Equal(t, 1.0, Clamp01(math.Inf(1)))
}
