package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"negative capex", func(c *Config) { c.Grinding.BallMill.Capex = -1 }, "grinding.ball_mill.capex"},
		{"probability above one", func(c *Config) { c.Extrusion.Hot.FailureProb = 1.2 }, "extrusion.hot.failure_prob"},
		{"zero cluster", func(c *Config) { c.Grinding.ClusterSize = 0 }, "cluster_size"},
		{"inverted range", func(c *Config) { c.Sampler.FeedRate = Range{Min: 10, Max: 5} }, "sampler.feed_rate"},
		{"empty variant set", func(c *Config) { c.Sampler.DryerVariants = nil }, "variant sets"},
		{"unknown variant code", func(c *Config) { c.Sampler.GrinderVariants = []GrinderVariant{7} }, "unknown code 7"},
		{"zero epsilon", func(c *Config) { c.Cost.Epsilon = 0 }, "cost.epsilon"},
		{"negative std", func(c *Config) { c.Sampler.HeatPumpCOP.StdDev = -0.1 }, "heat_pump_cop"},
		{"moisture inverted", func(c *Config) { c.Drying.TargetMoisturePct = 50 }, "moisture"},
		{"duty above one", func(c *Config) { c.Sampler.DutyCycle.Max = 1.5 }, "duty_cycle"},
		{"no lab samples", func(c *Config) { c.Lab.Samples = 0 }, "lab.samples"},
		{"zero pulse off", func(c *Config) { c.Lab.PulseOffSec = Range{Min: 0, Max: 5} }, "lab.pulse_off_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseConfig_OverlayKeepsUnsetDefaults(t *testing.T) {
	// GIVEN an overlay that changes one constant and restricts the grinder set
	data := []byte(`
grinding:
  cluster_size: 8
sampler:
  grinder_variants: [mixie_cluster]
`)

	// WHEN parsed
	cfg, err := ParseConfig(data)

	// THEN the named keys change and everything else keeps its default
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, 8, cfg.Grinding.ClusterSize)
	assert.Equal(t, []GrinderVariant{MixieCluster}, cfg.Sampler.GrinderVariants)
	assert.Equal(t, def.Grinding.MixieUnit, cfg.Grinding.MixieUnit)
	assert.Equal(t, def.Cost, cfg.Cost)
}

func TestParseConfig_EmptyDocumentIsDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_UnknownKeyRejected(t *testing.T) {
	_, err := ParseConfig([]byte("grinding:\n  clustr_size: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clustr_size")
}

func TestParseConfig_UnknownVariantNameRejected(t *testing.T) {
	_, err := ParseConfig([]byte("sampler:\n  dryer_variants: [solar]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solar")
}

func TestParseConfig_InvalidValueRejected(t *testing.T) {
	_, err := ParseConfig([]byte("cost:\n  labor_per_kg: -3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cost:\n  epsilon: 0.001\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.001, cfg.Cost.Epsilon)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSamplerConfig_Distribution(t *testing.T) {
	s := DefaultConfig().Sampler
	assert.Equal(t, NormalDist{Mean: 55, StdDev: 7}, s.Distribution(VarMaterialCost))
	assert.Equal(t, NormalDist{Mean: 0.02, StdDev: 0.005}, s.Distribution(VarUnitFailureRate))
	assert.Equal(t, NormalDist{}, s.Distribution("humidity"))
}
