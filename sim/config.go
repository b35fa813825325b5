package sim

import (
	"fmt"
	"math"
)

// Range is a closed interval for uniform draws.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// NormalDist parameterizes a Gaussian draw.
type NormalDist struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
}

// EquipmentSpec holds the variant-constant figures of one piece of equipment.
type EquipmentSpec struct {
	Capex       float64 `yaml:"capex"`         // INR
	PowerKW     float64 `yaml:"power_kw"`      // rated draw
	WearPerHour float64 `yaml:"wear_per_hour"` // INR/h
	FailureProb float64 `yaml:"failure_prob"`  // per-run catastrophic failure probability
}

// GrindingConfig groups the grinder tables.
type GrindingConfig struct {
	BallMill   EquipmentSpec `yaml:"ball_mill"`
	HammerMill EquipmentSpec `yaml:"hammer_mill"`
	MixieUnit  EquipmentSpec `yaml:"mixie_unit"` // one unit of the cluster; PowerKW is peak draw

	ClusterSize  int     `yaml:"cluster_size"`
	CycleTimeSec float64 `yaml:"cycle_time_sec"` // on-time = cycle * duty

	// Empirical denaturation fractions of the single-unit mills.
	BallMillDenaturation   float64 `yaml:"ball_mill_denaturation"`
	HammerMillDenaturation float64 `yaml:"hammer_mill_denaturation"`
}

// ThermalConfig groups the heating and kinetics constants.
type ThermalConfig struct {
	SpecificHeatKJPerKgK     float64 `yaml:"specific_heat_kj_per_kg_k"`
	ActivationEnergyJPerMol  float64 `yaml:"activation_energy_j_per_mol"`
	FrequencyFactor          float64 `yaml:"frequency_factor"` // 1/s
	GasConstant              float64 `yaml:"gas_constant"`
	HeatConversionEfficiency float64 `yaml:"heat_conversion_efficiency"`
	ConvectionCoeffWPerM2K   float64 `yaml:"convection_coeff_w_per_m2k"`
	CasingAreaM2             float64 `yaml:"casing_area_m2"`
}

// DryerSpec holds the fixed figures of one dryer variant.
type DryerSpec struct {
	Capex       float64 `yaml:"capex"`
	FailureProb float64 `yaml:"failure_prob"`
}

// DryingConfig groups the evaporative-load constants.
type DryingConfig struct {
	Resistive          DryerSpec `yaml:"resistive"`
	HeatPump           DryerSpec `yaml:"heat_pump"`
	ResistiveCOP       float64   `yaml:"resistive_cop"`
	InitialMoisturePct float64   `yaml:"initial_moisture_pct"`
	TargetMoisturePct  float64   `yaml:"target_moisture_pct"`
	LatentHeatKJPerKg  float64   `yaml:"latent_heat_kj_per_kg"`
}

// ExtruderSpec holds the fixed figures of one extrusion variant.
type ExtruderSpec struct {
	Capex           float64 `yaml:"capex"`
	PowerKW         float64 `yaml:"power_kw"`
	FailureProb     float64 `yaml:"failure_prob"`
	BinderCostPerKg float64 `yaml:"binder_cost_per_kg"` // extra stabilizer cost added to material
}

// ExtrusionConfig groups the two extrusion variants.
type ExtrusionConfig struct {
	Cold ExtruderSpec `yaml:"cold"`
	Hot  ExtruderSpec `yaml:"hot"`
}

// FormulationConfig groups the recipe constants.
type FormulationConfig struct {
	FillerCostPerKg    float64 `yaml:"filler_cost_per_kg"`
	FlavorCostPer10Pct float64 `yaml:"flavor_cost_per_10pct"` // INR/kg for each 10% of dilution
	PrimaryProteinPct  float64 `yaml:"primary_protein_pct"`
	FillerProteinPct   float64 `yaml:"filler_protein_pct"`
	MinProteinPct      float64 `yaml:"min_protein_pct"`
	MaxSubstitution    float64 `yaml:"max_substitution"`
}

// CostConfig groups the economic constants of the aggregator.
type CostConfig struct {
	BaselineMaterialCost    float64 `yaml:"baseline_material_cost"`    // INR/kg when no formulation price exists
	BaselineElectricityRate float64 `yaml:"baseline_electricity_rate"` // INR/kWh when no tariff array exists
	LaborBasePerHour        float64 `yaml:"labor_base_per_hour"`
	LaborPerKg              float64 `yaml:"labor_per_kg"`
	AmortizationYears       float64 `yaml:"amortization_years"`
	AnnualOperatingHours    float64 `yaml:"annual_operating_hours"`
	DefectPenaltyMultiplier float64 `yaml:"defect_penalty_multiplier"`
	BaseDefectRate          float64 `yaml:"base_defect_rate"`
	AncillaryCapex          float64 `yaml:"ancillary_capex"`
	RnDBaseline             float64 `yaml:"rnd_baseline"`
	RnDCluster              float64 `yaml:"rnd_cluster"`
	Epsilon                 float64 `yaml:"epsilon"`
}

// LifetimeHours returns the amortization horizon in operating hours.
func (c CostConfig) LifetimeHours() float64 {
	return c.AmortizationYears * c.AnnualOperatingHours
}

// SamplerConfig documents every distribution the sampler draws from.
type SamplerConfig struct {
	FeedRate          Range      `yaml:"feed_rate"`
	DutyCycle         Range      `yaml:"duty_cycle"`
	SubstitutionRatio Range      `yaml:"substitution_ratio"`
	ChargeMassKg      NormalDist `yaml:"charge_mass_kg"`

	GrinderVariants  []GrinderVariant  `yaml:"grinder_variants"`
	DryerVariants    []DryerVariant    `yaml:"dryer_variants"`
	ExtruderVariants []ExtruderVariant `yaml:"extruder_variants"`

	MaterialCost    NormalDist `yaml:"material_cost"`
	ElectricityRate NormalDist `yaml:"electricity_rate"`
	AmbientTempK    NormalDist `yaml:"ambient_temp_k"`
	UnitFailureRate NormalDist `yaml:"unit_failure_rate"`
	HeatPumpCOP     NormalDist `yaml:"heat_pump_cop"`
}

// Distribution returns the default distribution of a sensitivity variable.
func (c SamplerConfig) Distribution(v SensitivityVariable) NormalDist {
	switch v {
	case VarMaterialCost:
		return c.MaterialCost
	case VarElectricityRate:
		return c.ElectricityRate
	case VarAmbientTemp:
		return c.AmbientTempK
	case VarUnitFailureRate:
		return c.UnitFailureRate
	case VarHeatPumpCOP:
		return c.HeatPumpCOP
	}
	return NormalDist{}
}

// TrialConfig groups the manual-variability distributions of a 1 kg lab trial.
type TrialConfig struct {
	MassKg            NormalDist `yaml:"mass_kg"`
	PowerW            NormalDist `yaml:"power_w"`
	GrindTimeSec      NormalDist `yaml:"grind_time_sec"`
	AmbientTempK      NormalDist `yaml:"ambient_temp_k"`
	MixTimeSec        NormalDist `yaml:"mix_time_sec"`
	DryingTimeSec     NormalDist `yaml:"drying_time_sec"`
	DryingRate        NormalDist `yaml:"drying_rate"` // 1/s
	MixingConstant    float64    `yaml:"mixing_constant"`
	InitialMoisture   float64    `yaml:"initial_moisture"`
	MaterialCostPerKg float64    `yaml:"material_cost_per_kg"`
	MixerPowerW       float64    `yaml:"mixer_power_w"`
	DryerPowerW       float64    `yaml:"dryer_power_w"`
	ElectricityRate   float64    `yaml:"electricity_rate"`
	LaborPerBatch     float64    `yaml:"labor_per_batch"`
}

// LabConfig groups the lab-scale pulse protocol search.
type LabConfig struct {
	Samples           int     `yaml:"samples"`
	PulseOnSec        Range   `yaml:"pulse_on_sec"`
	PulseOffSec       Range   `yaml:"pulse_off_sec"`
	RequiredActiveSec float64 `yaml:"required_active_sec"`
	BatchMassKg       float64 `yaml:"batch_mass_kg"`
	PowerW            float64 `yaml:"power_w"`
	AmbientTempK      float64 `yaml:"ambient_temp_k"`
	MaxDenaturation   float64 `yaml:"max_denaturation"`
	ViolationPenalty  float64 `yaml:"violation_penalty"` // seconds added to infeasible candidates

	Trial TrialConfig `yaml:"trial"`
}

// Config groups every named constant of the engine.
type Config struct {
	Grinding    GrindingConfig    `yaml:"grinding"`
	Thermal     ThermalConfig     `yaml:"thermal"`
	Drying      DryingConfig      `yaml:"drying"`
	Extrusion   ExtrusionConfig   `yaml:"extrusion"`
	Formulation FormulationConfig `yaml:"formulation"`
	Cost        CostConfig        `yaml:"cost"`
	Sampler     SamplerConfig     `yaml:"sampler"`
	Lab         LabConfig         `yaml:"lab"`
}

// DefaultConfig returns the baseline constants.
func DefaultConfig() Config {
	return Config{
		Grinding: GrindingConfig{
			BallMill:               EquipmentSpec{Capex: 800000, PowerKW: 15.0, WearPerHour: 45.0, FailureProb: 0.01},
			HammerMill:             EquipmentSpec{Capex: 350000, PowerKW: 11.0, WearPerHour: 60.0, FailureProb: 0.03},
			MixieUnit:              EquipmentSpec{Capex: 6000, PowerKW: 0.75, WearPerHour: 2.5, FailureProb: 0.02},
			ClusterSize:            5,
			CycleTimeSec:           60.0,
			BallMillDenaturation:   0.0,
			HammerMillDenaturation: 0.12,
		},
		Thermal: ThermalConfig{
			SpecificHeatKJPerKgK:     1.8,
			ActivationEnergyJPerMol:  250000.0,
			FrequencyFactor:          1e35,
			GasConstant:              8.314,
			HeatConversionEfficiency: 0.3,
			ConvectionCoeffWPerM2K:   25.0,
			CasingAreaM2:             0.05,
		},
		Drying: DryingConfig{
			Resistive:          DryerSpec{Capex: 150000, FailureProb: 0.005},
			HeatPump:           DryerSpec{Capex: 450000, FailureProb: 0.001},
			ResistiveCOP:       0.95,
			InitialMoisturePct: 35.0,
			TargetMoisturePct:  10.0,
			LatentHeatKJPerKg:  2260.0,
		},
		Extrusion: ExtrusionConfig{
			Cold: ExtruderSpec{Capex: 150000, PowerKW: 3.7, FailureProb: 0.02, BinderCostPerKg: 8.45},
			Hot:  ExtruderSpec{Capex: 1500000, PowerKW: 22.0, FailureProb: 0.05, BinderCostPerKg: 0.0},
		},
		Formulation: FormulationConfig{
			FillerCostPerKg:    28.0,
			FlavorCostPer10Pct: 2.0,
			PrimaryProteinPct:  22.0,
			FillerProteinPct:   7.0,
			MinProteinPct:      15.0,
			MaxSubstitution:    0.5,
		},
		Cost: CostConfig{
			BaselineMaterialCost:    55.0,
			BaselineElectricityRate: 12.0,
			LaborBasePerHour:        400.0,
			LaborPerKg:              0.1,
			AmortizationYears:       5.0,
			AnnualOperatingHours:    6000.0,
			DefectPenaltyMultiplier: 1.5,
			BaseDefectRate:          0.005,
			AncillaryCapex:          50000.0,
			RnDBaseline:             100000.0,
			RnDCluster:              500000.0,
			Epsilon:                 1e-6,
		},
		Sampler: SamplerConfig{
			FeedRate:          Range{Min: 50.0, Max: 500.0},
			DutyCycle:         Range{Min: 0.05, Max: 0.5},
			SubstitutionRatio: Range{Min: 0.0, Max: 0.5},
			ChargeMassKg:      NormalDist{Mean: 0.5, StdDev: 0.05},
			GrinderVariants:   append([]GrinderVariant(nil), AllGrinderVariants...),
			DryerVariants:     append([]DryerVariant(nil), AllDryerVariants...),
			ExtruderVariants:  append([]ExtruderVariant(nil), AllExtruderVariants...),
			MaterialCost:      NormalDist{Mean: 55.0, StdDev: 7.0},
			ElectricityRate:   NormalDist{Mean: 12.0, StdDev: 1.5},
			AmbientTempK:      NormalDist{Mean: 298.0, StdDev: 5.0},
			UnitFailureRate:   NormalDist{Mean: 0.02, StdDev: 0.005},
			HeatPumpCOP:       NormalDist{Mean: 3.5, StdDev: 0.4},
		},
		Lab: LabConfig{
			Samples:           1_000_000,
			PulseOnSec:        Range{Min: 1.0, Max: 30.0},
			PulseOffSec:       Range{Min: 1.0, Max: 60.0},
			RequiredActiveSec: 90.0,
			BatchMassKg:       1.0,
			PowerW:            750.0,
			AmbientTempK:      298.0,
			MaxDenaturation:   0.001,
			ViolationPenalty:  1e6,
			Trial: TrialConfig{
				MassKg:            NormalDist{Mean: 1.0, StdDev: 0.02},
				PowerW:            NormalDist{Mean: 550.0, StdDev: 50.0},
				GrindTimeSec:      NormalDist{Mean: 30.0, StdDev: 5.0},
				AmbientTempK:      NormalDist{Mean: 298.0, StdDev: 2.0},
				MixTimeSec:        NormalDist{Mean: 120.0, StdDev: 20.0},
				DryingTimeSec:     NormalDist{Mean: 1800.0, StdDev: 200.0},
				DryingRate:        NormalDist{Mean: 0.02, StdDev: 0.005},
				MixingConstant:    0.15,
				InitialMoisture:   0.35,
				MaterialCostPerKg: 55.0,
				MixerPowerW:       200.0,
				DryerPowerW:       2000.0,
				ElectricityRate:   12.0,
				LaborPerBatch:     300.0,
			},
		},
	}
}

// Validate checks ranges, probabilities and non-negative costs.
func (c *Config) Validate() error {
	for name, spec := range map[string]EquipmentSpec{
		"grinding.ball_mill":   c.Grinding.BallMill,
		"grinding.hammer_mill": c.Grinding.HammerMill,
		"grinding.mixie_unit":  c.Grinding.MixieUnit,
	} {
		if err := validateEquipment(name, spec); err != nil {
			return err
		}
	}
	if c.Grinding.ClusterSize < 1 {
		return invalidf("grinding.cluster_size must be >= 1, got %d", c.Grinding.ClusterSize)
	}
	if c.Grinding.CycleTimeSec < 0 {
		return invalidf("grinding.cycle_time_sec must be non-negative, got %f", c.Grinding.CycleTimeSec)
	}
	for name, p := range map[string]float64{
		"grinding.ball_mill_denaturation":   c.Grinding.BallMillDenaturation,
		"grinding.hammer_mill_denaturation": c.Grinding.HammerMillDenaturation,
		"drying.resistive.failure_prob":     c.Drying.Resistive.FailureProb,
		"drying.heat_pump.failure_prob":     c.Drying.HeatPump.FailureProb,
		"extrusion.cold.failure_prob":       c.Extrusion.Cold.FailureProb,
		"extrusion.hot.failure_prob":        c.Extrusion.Hot.FailureProb,
		"cost.base_defect_rate":             c.Cost.BaseDefectRate,
		"lab.max_denaturation":              c.Lab.MaxDenaturation,
	} {
		if err := validateProbability(name, p); err != nil {
			return err
		}
	}

	t := c.Thermal
	for name, v := range map[string]float64{
		"thermal.specific_heat_kj_per_kg_k":  t.SpecificHeatKJPerKgK,
		"thermal.gas_constant":               t.GasConstant,
		"thermal.convection_coeff_w_per_m2k": t.ConvectionCoeffWPerM2K,
		"thermal.casing_area_m2":             t.CasingAreaM2,
		"drying.resistive_cop":               c.Drying.ResistiveCOP,
		"drying.latent_heat_kj_per_kg":       c.Drying.LatentHeatKJPerKg,
		"cost.amortization_years":            c.Cost.AmortizationYears,
		"cost.annual_operating_hours":        c.Cost.AnnualOperatingHours,
		"cost.epsilon":                       c.Cost.Epsilon,
		"lab.batch_mass_kg":                  c.Lab.BatchMassKg,
		"lab.required_active_sec":            c.Lab.RequiredActiveSec,
	} {
		if err := validateFinitePositive(name, v); err != nil {
			return err
		}
	}
	for name, v := range map[string]float64{
		"thermal.activation_energy_j_per_mol": t.ActivationEnergyJPerMol,
		"thermal.frequency_factor":            t.FrequencyFactor,
		"thermal.heat_conversion_efficiency":  t.HeatConversionEfficiency,
		"drying.resistive.capex":              c.Drying.Resistive.Capex,
		"drying.heat_pump.capex":              c.Drying.HeatPump.Capex,
		"extrusion.cold.capex":                c.Extrusion.Cold.Capex,
		"extrusion.hot.capex":                 c.Extrusion.Hot.Capex,
		"extrusion.cold.power_kw":             c.Extrusion.Cold.PowerKW,
		"extrusion.hot.power_kw":              c.Extrusion.Hot.PowerKW,
		"extrusion.cold.binder_cost_per_kg":   c.Extrusion.Cold.BinderCostPerKg,
		"extrusion.hot.binder_cost_per_kg":    c.Extrusion.Hot.BinderCostPerKg,
		"formulation.filler_cost_per_kg":      c.Formulation.FillerCostPerKg,
		"formulation.flavor_cost_per_10pct":   c.Formulation.FlavorCostPer10Pct,
		"cost.baseline_material_cost":         c.Cost.BaselineMaterialCost,
		"cost.baseline_electricity_rate":      c.Cost.BaselineElectricityRate,
		"cost.labor_base_per_hour":            c.Cost.LaborBasePerHour,
		"cost.labor_per_kg":                   c.Cost.LaborPerKg,
		"cost.defect_penalty_multiplier":      c.Cost.DefectPenaltyMultiplier,
		"cost.ancillary_capex":                c.Cost.AncillaryCapex,
		"cost.rnd_baseline":                   c.Cost.RnDBaseline,
		"cost.rnd_cluster":                    c.Cost.RnDCluster,
		"lab.power_w":                         c.Lab.PowerW,
		"lab.violation_penalty":               c.Lab.ViolationPenalty,
	} {
		if err := validateNonNegative(name, v); err != nil {
			return err
		}
	}
	if c.Drying.InitialMoisturePct < c.Drying.TargetMoisturePct {
		return invalidf("drying.initial_moisture_pct (%f) must be >= target_moisture_pct (%f)",
			c.Drying.InitialMoisturePct, c.Drying.TargetMoisturePct)
	}
	if c.Formulation.MaxSubstitution < 0 || c.Formulation.MaxSubstitution > 1 {
		return invalidf("formulation.max_substitution must be in [0,1], got %f", c.Formulation.MaxSubstitution)
	}

	s := c.Sampler
	for name, r := range map[string]Range{
		"sampler.feed_rate":          s.FeedRate,
		"sampler.duty_cycle":         s.DutyCycle,
		"sampler.substitution_ratio": s.SubstitutionRatio,
		"lab.pulse_on_sec":           c.Lab.PulseOnSec,
		"lab.pulse_off_sec":          c.Lab.PulseOffSec,
	} {
		if r.Min > r.Max {
			return invalidf("%s: min (%f) must not exceed max (%f)", name, r.Min, r.Max)
		}
	}
	if s.FeedRate.Min < 0 {
		return invalidf("sampler.feed_rate must be non-negative, got min %f", s.FeedRate.Min)
	}
	if s.DutyCycle.Min < 0 || s.DutyCycle.Max > 1 {
		return invalidf("sampler.duty_cycle must lie in [0,1], got [%f, %f]", s.DutyCycle.Min, s.DutyCycle.Max)
	}
	if c.Lab.PulseOnSec.Min <= 0 {
		return invalidf("lab.pulse_on_sec must be positive, got min %f", c.Lab.PulseOnSec.Min)
	}
	if c.Lab.PulseOffSec.Min <= 0 {
		return invalidf("lab.pulse_off_sec must be positive, got min %f", c.Lab.PulseOffSec.Min)
	}
	if len(s.GrinderVariants) == 0 || len(s.DryerVariants) == 0 || len(s.ExtruderVariants) == 0 {
		return invalidf("sampler variant sets must not be empty")
	}
	for _, v := range s.GrinderVariants {
		if v < BallMill || v > MixieCluster {
			return invalidf("sampler.grinder_variants: unknown code %d", int(v))
		}
	}
	for _, v := range s.DryerVariants {
		if v < ResistiveDryer || v > HeatPumpDryer {
			return invalidf("sampler.dryer_variants: unknown code %d", int(v))
		}
	}
	for _, v := range s.ExtruderVariants {
		if v < ColdExtrusion || v > HotExtrusion {
			return invalidf("sampler.extruder_variants: unknown code %d", int(v))
		}
	}
	for _, v := range SensitivityVariables {
		if d := s.Distribution(v); d.StdDev < 0 {
			return invalidf("sampler.%s.std_dev must be non-negative, got %f", v, d.StdDev)
		}
	}
	if c.Lab.Samples < 1 {
		return invalidf("lab.samples must be >= 1, got %d", c.Lab.Samples)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func validateEquipment(name string, spec EquipmentSpec) error {
	if err := validateNonNegative(name+".capex", spec.Capex); err != nil {
		return err
	}
	if err := validateNonNegative(name+".power_kw", spec.PowerKW); err != nil {
		return err
	}
	if err := validateNonNegative(name+".wear_per_hour", spec.WearPerHour); err != nil {
		return err
	}
	return validateProbability(name+".failure_prob", spec.FailureProb)
}

func validateProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return invalidf("%s must be a probability in [0,1], got %f", name, p)
	}
	return nil
}

func validateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalidf("%s must be a finite non-negative number, got %f", name, v)
	}
	return nil
}

func validateFinitePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalidf("%s must be a finite positive number, got %f", name, v)
	}
	return nil
}
