package sim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrBackendUnavailable is returned when no usable numeric backend exists for a device.
	ErrBackendUnavailable = errors.New("numeric backend unavailable")
	// ErrLengthMismatch is returned when an array does not match the batch size.
	ErrLengthMismatch = errors.New("array length does not match batch size")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Precision selects the floating-point width of every array an ExecContext produces.
type Precision string

const (
	Float64 Precision = "float64"
	Float32 Precision = "float32"
)

// DefaultDevice is used when ContextConfig.Device is empty.
const DefaultDevice = "cpu"

// Backend executes whole-batch elementwise kernels.
type Backend interface {
	// Name returns the device name the backend serves.
	Name() string

	// Check reports whether the backend can execute on this host.
	Check() error

	// Map sets dst[i] = fn(i) for every index of dst.
	// fn must read only index i of its inputs; Map may evaluate indices concurrently.
	Map(dst []float64, fn func(i int) float64)
}

// BackendFactory constructs a Backend.
type BackendFactory func() (Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
)

// RegisterBackend makes a backend available under a device name.
// Called from init() in backend packages; a later registration replaces an earlier one.
func RegisterBackend(device string, factory BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[device] = factory
}

// RegisteredBackends returns the sorted device names with a registered backend.
func RegisteredBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContextConfig selects device, precision and seed for an ExecContext.
type ContextConfig struct {
	Device    string    // registered backend name ("" = DefaultDevice)
	Precision Precision // Float64 (default) or Float32
	Seed      int64     // master seed for every sampling pass
}

// ExecContext is the explicit execution context threaded into every component.
// It is immutable after construction and safe for concurrent use.
type ExecContext struct {
	device    string
	precision Precision
	key       SimulationKey
	backend   Backend
}

// NewExecContext resolves the backend for cfg.Device.
// It fails with ErrBackendUnavailable when no backend is registered for the
// device or the backend's check fails; it never falls back to another device.
func NewExecContext(cfg ContextConfig) (*ExecContext, error) {
	device := cfg.Device
	if device == "" {
		device = DefaultDevice
	}
	precision := cfg.Precision
	if precision == "" {
		precision = Float64
	}
	if precision != Float64 && precision != Float32 {
		return nil, fmt.Errorf("%w: unknown precision %q; valid: float64, float32", ErrInvalidConfig, precision)
	}

	backendsMu.RLock()
	factory, ok := backends[device]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no backend registered for device %q (registered: [%s])",
			ErrBackendUnavailable, device, strings.Join(RegisteredBackends(), ", "))
	}
	backend, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: constructing %q backend: %v", ErrBackendUnavailable, device, err)
	}
	if err := backend.Check(); err != nil {
		return nil, fmt.Errorf("%w: %q backend check failed: %v", ErrBackendUnavailable, device, err)
	}
	return &ExecContext{
		device:    device,
		precision: precision,
		key:       NewSimulationKey(cfg.Seed),
		backend:   backend,
	}, nil
}

// Device returns the resolved device name.
func (c *ExecContext) Device() string { return c.device }

// Precision returns the array precision.
func (c *ExecContext) Precision() Precision { return c.precision }

// Key returns the SimulationKey every sampling pass in this context uses.
func (c *ExecContext) Key() SimulationKey { return c.key }

// WithSeed returns a copy of the context keyed by a different seed.
func (c *ExecContext) WithSeed(seed int64) *ExecContext {
	cp := *c
	cp.key = NewSimulationKey(seed)
	return &cp
}

// NewRNG returns a fresh PartitionedRNG for the context key.
func (c *ExecContext) NewRNG() *PartitionedRNG {
	return NewPartitionedRNG(c.key)
}

// Round converts v to the context precision.
func (c *ExecContext) Round(v float64) float64 {
	if c.precision == Float32 {
		return float64(float32(v))
	}
	return v
}

// Quantize rounds every element of v to the context precision in place.
func (c *ExecContext) Quantize(v []float64) {
	if c.precision != Float32 {
		return
	}
	for i := range v {
		v[i] = float64(float32(v[i]))
	}
}

// Map runs fn over dst on the backend and rounds the result to the context precision.
func (c *ExecContext) Map(dst []float64, fn func(i int) float64) {
	c.backend.Map(dst, fn)
	c.Quantize(dst)
}

// Vector allocates an n-length array filled by fn.
func (c *ExecContext) Vector(n int, fn func(i int) float64) []float64 {
	dst := make([]float64, n)
	c.Map(dst, fn)
	return dst
}

// Full allocates an n-length array holding v.
func (c *ExecContext) Full(n int, v float64) []float64 {
	v = c.Round(v)
	dst := make([]float64, n)
	for i := range dst {
		dst[i] = v
	}
	return dst
}
