package sim

import "math"

// KelvinOffset converts between Celsius and Kelvin.
const KelvinOffset = 273.15

// HeatLossCoeff returns h*A of the casing (W/K).
func (t ThermalConfig) HeatLossCoeff() float64 {
	return t.ConvectionCoeffWPerM2K * t.CasingAreaM2
}

// CoolingRate returns hA/(m*Cp) (1/s) for a charge of massKg.
func (t ThermalConfig) CoolingRate(massKg float64) float64 {
	return t.HeatLossCoeff() / (massKg * t.SpecificHeatKJPerKgK * 1000.0)
}

// ConvectiveRise returns the transient temperature rise (K) after heating a
// charge of massKg with powerW for timeSec against convective loss:
//
//	dT = (eta*P/hA) * (1 - exp(-hA*t/(m*Cp)))
func (t ThermalConfig) ConvectiveRise(powerW, timeSec, massKg float64) float64 {
	hA := t.HeatLossCoeff()
	steady := t.HeatConversionEfficiency * powerW / hA
	return steady * -math.Expm1(-t.CoolingRate(massKg)*timeSec)
}

// AdiabaticRise returns P*t/(m*Cp), the rise of a short burst with no heat loss.
func (t ThermalConfig) AdiabaticRise(powerW, timeSec, massKg float64) float64 {
	return powerW * timeSec / (massKg * t.SpecificHeatKJPerKgK * 1000.0)
}

// RateConstant returns the Arrhenius rate k = A*exp(-Ea/(R*T)) (1/s).
func (t ThermalConfig) RateConstant(tempK float64) float64 {
	return t.FrequencyFactor * math.Exp(-t.ActivationEnergyJPerMol/(t.GasConstant*tempK))
}

// Denaturation returns the protein denaturation probability after timeSec at
// tempK: P = 1 - exp(-k*t), clamped to [0,1]. Exactly 0 at t = 0.
func (t ThermalConfig) Denaturation(tempK, timeSec float64) float64 {
	return Clamp01(-math.Expm1(-t.RateConstant(tempK) * timeSec))
}

// ClusterFailure returns the probability that at least one of k independent
// units fails: 1 - (1-p)^k.
func ClusterFailure(pUnit float64, k int) float64 {
	return Clamp01(1.0 - math.Pow(1.0-Clamp01(pUnit), float64(k)))
}

// ComposeFailures returns 1 - prod(1-p_i), the probability that any of the
// independent stages fails.
func ComposeFailures(ps ...float64) float64 {
	survival := 1.0
	for _, p := range ps {
		survival *= 1.0 - Clamp01(p)
	}
	return Clamp01(1.0 - survival)
}

// Clamp01 clamps x into [0,1]; NaN maps to 0.
func Clamp01(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
