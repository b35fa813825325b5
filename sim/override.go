package sim

import (
	"fmt"
	"sort"
)

// SensitivityVariable names one of the five external/economic variables.
type SensitivityVariable string

const (
	VarMaterialCost    SensitivityVariable = "material_cost"
	VarElectricityRate SensitivityVariable = "electricity_rate"
	VarAmbientTemp     SensitivityVariable = "ambient_temp_k"
	VarUnitFailureRate SensitivityVariable = "unit_failure_rate"
	VarHeatPumpCOP     SensitivityVariable = "heat_pump_cop"
)

// SensitivityVariables lists the closed set of overridable variables in sampling order.
var SensitivityVariables = []SensitivityVariable{
	VarMaterialCost,
	VarElectricityRate,
	VarAmbientTemp,
	VarUnitFailureRate,
	VarHeatPumpCOP,
}

// IsSensitivityVariable reports whether name is one of the five variables.
func IsSensitivityVariable(name string) bool {
	for _, v := range SensitivityVariables {
		if string(v) == name {
			return true
		}
	}
	return false
}

type overrideKind int

const (
	overrideNone overrideKind = iota
	overrideScalar
	overrideArray
	overrideNormal
)

// Override replaces the default distribution of one sensitivity variable for one run.
// The zero value means "not overridden".
type Override struct {
	kind   overrideKind
	scalar float64
	values []float64
	dist   NormalDist
}

// Scalar fixes every sample of the variable to v.
func Scalar(v float64) Override {
	return Override{kind: overrideScalar, scalar: v}
}

// Array uses values verbatim; its length must equal the batch size.
func Array(values []float64) Override {
	return Override{kind: overrideArray, values: values}
}

// Normal draws the variable from N(mean, std) instead of its default distribution,
// using the variable's own random stream.
func Normal(mean, std float64) Override {
	return Override{kind: overrideNormal, dist: NormalDist{Mean: mean, StdDev: std}}
}

// IsSet reports whether the override replaces the default distribution.
func (o Override) IsSet() bool { return o.kind != overrideNone }

// String describes the override for logs.
func (o Override) String() string {
	switch o.kind {
	case overrideScalar:
		return fmt.Sprintf("scalar(%g)", o.scalar)
	case overrideArray:
		return fmt.Sprintf("array(len=%d)", len(o.values))
	case overrideNormal:
		return fmt.Sprintf("normal(%g, %g)", o.dist.Mean, o.dist.StdDev)
	}
	return "default"
}

// Overrides is the closed set of per-run sensitivity overrides.
type Overrides struct {
	MaterialCost    Override
	ElectricityRate Override
	AmbientTempK    Override
	UnitFailureRate Override
	HeatPumpCOP     Override
}

// Get returns the override of the named variable (zero value for unknown names).
func (o Overrides) Get(v SensitivityVariable) Override {
	switch v {
	case VarMaterialCost:
		return o.MaterialCost
	case VarElectricityRate:
		return o.ElectricityRate
	case VarAmbientTemp:
		return o.AmbientTempK
	case VarUnitFailureRate:
		return o.UnitFailureRate
	case VarHeatPumpCOP:
		return o.HeatPumpCOP
	}
	return Override{}
}

// With returns a copy with the named variable overridden.
// Unknown names leave the copy unchanged.
func (o Overrides) With(v SensitivityVariable, ov Override) Overrides {
	switch v {
	case VarMaterialCost:
		o.MaterialCost = ov
	case VarElectricityRate:
		o.ElectricityRate = ov
	case VarAmbientTemp:
		o.AmbientTempK = ov
	case VarUnitFailureRate:
		o.UnitFailureRate = ov
	case VarHeatPumpCOP:
		o.HeatPumpCOP = ov
	}
	return o
}

// Active returns the overridden variables in sampling order.
func (o Overrides) Active() []SensitivityVariable {
	var active []SensitivityVariable
	for _, v := range SensitivityVariables {
		if o.Get(v).IsSet() {
			active = append(active, v)
		}
	}
	return active
}

// ParseOverrides maps a name-keyed override set onto Overrides.
// Keys outside the five sensitivity variables are not applied anywhere;
// they are returned, sorted, so the caller can report them.
func ParseOverrides(m map[string]Override) (Overrides, []string) {
	var out Overrides
	var ignored []string
	for name, ov := range m {
		if !IsSensitivityVariable(name) {
			ignored = append(ignored, name)
			continue
		}
		out = out.With(SensitivityVariable(name), ov)
	}
	sort.Strings(ignored)
	return out, ignored
}
