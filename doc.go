// Package frankenpandas provides a scoped, pandas-like columnar
// dataframe engine: immutable typed columns and series, label-aligned
// arithmetic/comparison/logical kernels, groupby and join, an
// expression DAG with incremental delta evaluation, a Bayesian
// RuntimePolicy that gates Strict/Hardened admission decisions onto an
// append-only evidence ledger, a conformal calibration guard, an
// erasure-coded sidecar envelope, and a differential conformance
// harness that checks the kernel against fixtures or a live oracle.
//
// # Key packages
//
//	pkg/dtype    - scalar types, null-kind sentinels, dtype promotion
//	pkg/column   - immutable typed columnar storage
//	pkg/rindex   - row index, alignment plans, set operations, leapfrog merge
//	pkg/frame    - Series/DataFrame, arithmetic/compare/logical kernels
//	pkg/groupby  - group-key aggregation (sum/mean/count/min/max/first/last/std/var/median)
//	pkg/join     - inner/left/right/outer series join
//	pkg/exprtree - expression DAG with full and incremental delta evaluation
//	pkg/policy   - Bayesian RuntimePolicy, EvidenceLedger, erasure sidecar
//	pkg/harness  - ConformanceHarness: packet/fixture differential testing
//	pkg/ioadapter - the engine's entire I/O surface: typed column source/sink
//	pkg/config   - PolicyConfig/GateConfig, viper-backed YAML+env loaders
//	pkg/logger   - structured logging (zap)
//	pkg/metrics  - Prometheus counters/histograms
//	pkg/tracing  - OpenTelemetry spans for the harness's packet state machine
//
// # Command-line entry point
//
// cmd/frankenpandas is the reference CLI: it loads packet fixture
// files, builds a Harness from a policy/gate configuration, runs one
// packet or every packet under a fixture root, and enforces each
// packet's gate, exiting non-zero on any failure.
package frankenpandas
