// Package sim provides the core primitives of the production-line Monte Carlo engine.
//
// # Reading Guide
//
// Start with these files to understand the data flow of one run:
//   - context.go: ExecContext (device, precision, seed) and the backend registry
//   - params.go: ParameterBatch, the N-sample collection of named arrays
//   - sampler.go: draws a ParameterBatch from the configured distributions
//   - override.go: the closed set of five sensitivity overrides
//   - physics.go: convective heating, Arrhenius kinetics, failure composition
//
// # Architecture
//
// The sim package owns the shared types; the pipeline lives in sub-packages:
//   - sim/backend/: numeric backends (the native "cpu" backend registers itself in init())
//   - sim/stage/: grinding, drying, extrusion and formulation stage models
//   - sim/cost/: cost and objective aggregation
//   - sim/engine/: the Monte Carlo orchestrator
//   - sim/analysis/: grouped statistics, sensitivity ranking, stress scenarios, intervals
//   - sim/lab/: lab-scale pulse protocol optimizer and manual-variability trials
//   - sim/telemetry/: Prometheus collector for engine runs
//
// Backends register their factories via RegisterBackend from init() functions,
// which breaks the import cycle between sim/ (interface owner) and sim/backend/
// (implementation). NewExecContext fails when the requested device has no
// registered backend; it never substitutes another one.
//
// # Samples
//
// Every array in a ParameterBatch, a stage Result and an AggregateResult has
// the same length N. Sample i downstream depends only on sample i upstream.
package sim
