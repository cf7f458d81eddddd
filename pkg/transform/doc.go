// Package transform implements the staged rewriting of the flip-flop
// population: debanking multi-bit FFs into single-bit fragments, the
// three-stage cell substitution, spatial banking into 2- and 4-bit MBFFs,
// and the post-banking revert of surviving single-bit FFs.
//
// Every mutation appends records through a trail.Recorder so the pipeline
// stays fully replayable. All passes iterate sorted key sets; re-running
// the same input produces an identical record stream.
//
// All failure handling is fail-open: a missing cell, degenerate, or
// optimal-cache entry logs a warning and carries the affected instance
// through unchanged. No pass aborts the pipeline.
package transform
