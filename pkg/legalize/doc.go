// Package legalize implements an Abacus-style row legalizer for flip-flop
// instances.
//
// Rows are carved into blockage-free sub-rows; flip-flops are processed in
// ascending-x order, each assigned to the (row, sub-row) minimizing its
// displacement, and packed into left-anchored clusters that merge with
// their left neighbour whenever they would overlap. A final pass lays the
// cluster members out at consecutive site-aligned positions.
//
// Non-flip-flop placed instances act as obstacles alongside the explicit
// blockage rectangles. An instance that fits nowhere — or whose placement
// would push any cell past the maximum displacement bound — is left at its
// original position with a warning; legalization never aborts.
//
// Clusters are arena-allocated and referenced by index. The chain runs
// strictly leftward (one back-index per cluster), so the structure is
// cycle-free and the whole arena is released when the legalizer is dropped.
package legalize
