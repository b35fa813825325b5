// register.go wires the native backend into the sim package's backend registry.
// This init() runs when any package imports sim/backend, breaking the import
// cycle between sim/ (interface owner) and sim/backend/ (implementation).
// Production code imports sim/backend directly; test code in package sim uses
// backend_import_test.go for the blank import.
package backend

import (
	"runtime"

	"github.com/lineopt/lineopt/sim"
)

func init() {
	sim.RegisterBackend(CPUDevice, func() (sim.Backend, error) {
		return NewCPUBackend(runtime.GOMAXPROCS(0), DefaultMinChunk), nil
	})
}
