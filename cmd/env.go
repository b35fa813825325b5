package cmd

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	defaultSeed      = 42
	defaultBatchSize = 100_000
	defaultLogLevel  = "warn"
)

// envDefaults are flag defaults read from the environment.
// A flag set on the command line always wins.
type envDefaults struct {
	Seed      int64  `env:"LINEOPT_SEED" envDefault:"42"`
	BatchSize int    `env:"LINEOPT_BATCH_SIZE" envDefault:"100000"`
	Device    string `env:"LINEOPT_DEVICE" envDefault:"cpu"`
	Precision string `env:"LINEOPT_PRECISION" envDefault:"float64"`
	LogLevel  string `env:"LINEOPT_LOG_LEVEL" envDefault:"warn"`
}

// applyEnv copies environment defaults into o for every flag not set on c.
// Variables in o.envFile fill in those missing from the process environment.
func applyEnv(c *cobra.Command, o *options) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	d, err := env.ParseAs[envDefaults]()
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	flags := c.Flags()
	if !flags.Changed("seed") {
		o.seed = d.Seed
	}
	if !flags.Changed("batch-size") {
		o.batchSize = d.BatchSize
	}
	if !flags.Changed("device") {
		o.device = d.Device
	}
	if !flags.Changed("precision") {
		o.precision = d.Precision
	}
	if !flags.Changed("log") {
		o.logLevel = d.LogLevel
	}
	return nil
}
