// Package design holds the in-memory model of a placed netlist: the cell
// library, instances, nets, placement rows, blockages, scan chains, and the
// objective weights that drive optimization.
//
// The model is populated by external parsers (Liberty/LEF/Verilog/DEF live
// outside this repository; the CLI loads a JSON snapshot via pkg/designio)
// and mutated in place by the transformation pipeline and the legalizer.
//
// # Units
//
// All geometric quantities are in design database units (nanometres). Site
// steps, row widths, and banking distance thresholds share this unit.
// Conversion from/to micron happens only at the loader/writer boundary.
//
// # Ownership
//
// Cell templates are immutable after load. Instances are created by the
// loader, by debanking (N new, one removed), and by banking (one new, N
// removed); their cell-template pointer is mutated by substitution and their
// new position is written exactly once by the legalizer.
package design
