// Package group classifies flip-flops and builds the equivalence groups the
// substituter and banker operate on.
//
// Two granularities of grouping are used:
//
//   - Cell equivalence: library cells keyed by (clock edge, pin-type set,
//     bit width). Within each group the library is scored and the single
//     best cell is cached (the "optimal cache").
//   - Instance equivalence: netlist instances keyed by
//     (scanChain|module|clockNet) before banking and (module|clockNet) for
//     banking, so that grouping never crosses hierarchy or clock domains.
//
// Classification is fail-open: a malformed input (missing cell, unknown
// edge) leaves the instance as-is with a warning and never halts the
// pipeline.
package group
