package sim_test

// Blank import triggers sim/backend's init(), which registers the "cpu" backend.
// This allows package sim's internal test files to build execution contexts
// without directly importing sim/backend (which would create an import cycle).
import _ "github.com/lineopt/lineopt/sim/backend"
