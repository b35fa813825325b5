package backend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineopt/lineopt/sim"
)

func TestCPUBackend_Map_ChunkedMatchesSequential(t *testing.T) {
	// GIVEN a kernel over an array large enough to be split across workers
	n := 100_003
	kernel := func(i int) float64 { return math.Sin(float64(i)) * float64(i%7) }

	sequential := make([]float64, n)
	NewCPUBackend(1, 16).Map(sequential, kernel)

	// WHEN the same kernel runs on a multi-worker backend with small chunks
	parallel := make([]float64, n)
	NewCPUBackend(8, 16).Map(parallel, kernel)

	// THEN every element is identical
	assert.Equal(t, sequential, parallel)
}

func TestCPUBackend_Map_SmallArrayRunsInline(t *testing.T) {
	dst := make([]float64, 3)
	NewCPUBackend(4, DefaultMinChunk).Map(dst, func(i int) float64 { return float64(i) + 0.5 })
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, dst)
}

func TestCPUBackend_Map_EmptyArray(t *testing.T) {
	NewCPUBackend(4, 1).Map(nil, func(i int) float64 {
		t.Fatalf("kernel called for index %d of empty array", i)
		return 0
	})
}

func TestRegister_CPUDeviceResolves(t *testing.T) {
	// GIVEN the package init() has registered the cpu backend
	// WHEN a context is created for the cpu device
	ctx, err := sim.NewExecContext(sim.ContextConfig{Device: CPUDevice, Seed: 1})

	// THEN it resolves without error
	require.NoError(t, err)
	assert.Equal(t, CPUDevice, ctx.Device())
	assert.Contains(t, sim.RegisteredBackends(), CPUDevice)
}
