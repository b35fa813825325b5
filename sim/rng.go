package sim

import (
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible sampling pass.
// Two batches drawn with the same SimulationKey, configuration and overrides
// MUST be bit-for-bit identical.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

// Design variables draw from their own streams.
const (
	SubsystemFeedRate     = "feed_rate"
	SubsystemGrinder      = "grinder_variant"
	SubsystemDryer        = "dryer_variant"
	SubsystemExtruder     = "extruder_variant"
	SubsystemDutyCycle    = "duty_cycle"
	SubsystemSubstitution = "substitution_ratio"
	SubsystemChargeMass   = "charge_mass"
)

// Lab-scale subsystems.
const (
	SubsystemPulseOn  = "pulse_on"
	SubsystemPulseOff = "pulse_off"
)

// SubsystemSensitivity returns the stream name of a sensitivity variable.
// Each variable owns a stream, so overriding one leaves the others untouched.
func SubsystemSensitivity(v SensitivityVariable) string {
	return "sensitivity/" + string(v)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName), fed into a PCG
// source. The returned *rand.Rand satisfies rand.Source, so it can drive gonum
// distributions directly.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := newRandFromSeed(int64(p.key) ^ fnv1a64(name))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func newRandFromSeed(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
