package sim

import "testing"

// testContext returns a float64 cpu context keyed by seed.
func testContext(t *testing.T, seed int64) *ExecContext {
	t.Helper()
	ctx, err := NewExecContext(ContextConfig{Device: "cpu", Seed: seed})
	if err != nil {
		t.Fatalf("NewExecContext: %v", err)
	}
	return ctx
}

func mean(v []float64) float64 { return CalculateMean(v) }
