package sim

import "fmt"

// GrinderVariant identifies the grinding equipment of a sample.
type GrinderVariant int

const (
	BallMill GrinderVariant = iota
	HammerMill
	MixieCluster
)

// DryerVariant identifies the drying equipment of a sample.
type DryerVariant int

const (
	ResistiveDryer DryerVariant = iota
	HeatPumpDryer
)

// ExtruderVariant identifies the extrusion technology of a sample.
type ExtruderVariant int

const (
	ColdExtrusion ExtruderVariant = iota
	HotExtrusion
)

var (
	grinderNames  = []string{"ball_mill", "hammer_mill", "mixie_cluster"}
	dryerNames    = []string{"resistive", "heat_pump"}
	extruderNames = []string{"cold", "hot"}
)

// AllGrinderVariants lists every grinder variant in code order.
var AllGrinderVariants = []GrinderVariant{BallMill, HammerMill, MixieCluster}

// AllDryerVariants lists every dryer variant in code order.
var AllDryerVariants = []DryerVariant{ResistiveDryer, HeatPumpDryer}

// AllExtruderVariants lists every extruder variant in code order.
var AllExtruderVariants = []ExtruderVariant{ColdExtrusion, HotExtrusion}

func variantName(names []string, code int) string {
	if code < 0 || code >= len(names) {
		return fmt.Sprintf("variant_%d", code)
	}
	return names[code]
}

func parseVariant(kind string, names []string, text []byte) (int, error) {
	for i, n := range names {
		if n == string(text) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s variant %q; valid: %v", kind, string(text), names)
}

func (v GrinderVariant) String() string { return variantName(grinderNames, int(v)) }
func (v DryerVariant) String() string   { return variantName(dryerNames, int(v)) }
func (v ExtruderVariant) String() string {
	return variantName(extruderNames, int(v))
}

func (v GrinderVariant) MarshalText() ([]byte, error)  { return []byte(v.String()), nil }
func (v DryerVariant) MarshalText() ([]byte, error)    { return []byte(v.String()), nil }
func (v ExtruderVariant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *GrinderVariant) UnmarshalText(text []byte) error {
	code, err := parseVariant("grinder", grinderNames, text)
	*v = GrinderVariant(code)
	return err
}

func (v *DryerVariant) UnmarshalText(text []byte) error {
	code, err := parseVariant("dryer", dryerNames, text)
	*v = DryerVariant(code)
	return err
}

func (v *ExtruderVariant) UnmarshalText(text []byte) error {
	code, err := parseVariant("extruder", extruderNames, text)
	*v = ExtruderVariant(code)
	return err
}

// SensitivityArrays holds the five external/economic variables of a batch.
type SensitivityArrays struct {
	MaterialCost    []float64 // primary ingredient price (INR/kg)
	ElectricityRate []float64 // tariff (INR/kWh)
	AmbientTempK    []float64 // ambient temperature (K)
	UnitFailureRate []float64 // per-unit failure probability of a cluster grinder, in [0,1]
	HeatPumpCOP     []float64 // heat-pump coefficient of performance
}

// Get returns the array of the named variable, or nil for an unknown name.
func (s *SensitivityArrays) Get(v SensitivityVariable) []float64 {
	switch v {
	case VarMaterialCost:
		return s.MaterialCost
	case VarElectricityRate:
		return s.ElectricityRate
	case VarAmbientTemp:
		return s.AmbientTempK
	case VarUnitFailureRate:
		return s.UnitFailureRate
	case VarHeatPumpCOP:
		return s.HeatPumpCOP
	}
	return nil
}

func (s *SensitivityArrays) set(v SensitivityVariable, values []float64) {
	switch v {
	case VarMaterialCost:
		s.MaterialCost = values
	case VarElectricityRate:
		s.ElectricityRate = values
	case VarAmbientTemp:
		s.AmbientTempK = values
	case VarUnitFailureRate:
		s.UnitFailureRate = values
	case VarHeatPumpCOP:
		s.HeatPumpCOP = values
	}
}

// ParameterBatch is one Monte Carlo batch: N samples as parallel arrays.
// A batch is never mutated after the sampler returns it.
type ParameterBatch struct {
	N int

	FeedRate          []float64 // kg/h
	Grinder           []GrinderVariant
	Dryer             []DryerVariant
	Extruder          []ExtruderVariant
	DutyCycle         []float64 // 1.0 for single-unit mills
	SubstitutionRatio []float64 // filler share of the formulation, [0, 0.5]
	ChargeMassKg      []float64 // mass heated per grinder charge

	Sensitivity SensitivityArrays
}

// Validate checks that every array has length N.
func (b *ParameterBatch) Validate() error {
	lengths := map[string]int{
		"feed_rate":          len(b.FeedRate),
		"grinder":            len(b.Grinder),
		"dryer":              len(b.Dryer),
		"extruder":           len(b.Extruder),
		"duty_cycle":         len(b.DutyCycle),
		"substitution_ratio": len(b.SubstitutionRatio),
		"charge_mass":        len(b.ChargeMassKg),
	}
	for _, v := range SensitivityVariables {
		lengths[string(v)] = len(b.Sensitivity.Get(v))
	}
	for name, n := range lengths {
		if n != b.N {
			return fmt.Errorf("%w: %s has %d samples, batch has %d", ErrLengthMismatch, name, n, b.N)
		}
	}
	return nil
}
