// Package backend provides the native numeric backend.
package backend

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CPUDevice is the device name the native backend registers under.
const CPUDevice = "cpu"

// DefaultMinChunk is the smallest slice a worker is handed.
const DefaultMinChunk = 1 << 14

// CPUBackend evaluates elementwise kernels on host cores, splitting large
// arrays into contiguous chunks evaluated concurrently. Kernels are pure per
// index, so the result does not depend on the split.
type CPUBackend struct {
	workers  int
	minChunk int
}

// NewCPUBackend creates a backend using up to workers goroutines per kernel.
func NewCPUBackend(workers, minChunk int) *CPUBackend {
	if workers < 1 {
		workers = 1
	}
	if minChunk < 1 {
		minChunk = DefaultMinChunk
	}
	return &CPUBackend{workers: workers, minChunk: minChunk}
}

func (b *CPUBackend) Name() string { return CPUDevice }

func (b *CPUBackend) Check() error {
	if runtime.GOMAXPROCS(0) < 1 {
		return fmt.Errorf("no schedulable processors")
	}
	return nil
}

// Workers returns the maximum goroutines per kernel.
func (b *CPUBackend) Workers() int { return b.workers }

func (b *CPUBackend) Map(dst []float64, fn func(i int) float64) {
	n := len(dst)
	chunks := min(b.workers, n/b.minChunk)
	if chunks <= 1 {
		for i := range dst {
			dst[i] = fn(i)
		}
		return
	}
	size := (n + chunks - 1) / chunks
	var g errgroup.Group
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				dst[i] = fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
