// Package pipeline orchestrates the complete MBFF optimization pipeline.
//
// This package wires the stages — debank → substitute → bank →
// post-substitute → legalize — over one design model, recording every
// mutation in the transformation trail and capturing a snapshot after each
// stage. The CLI drives a Runner; embedding callers can too.
//
// # Architecture
//
// The pipeline consists of five mutating stages plus bookkeeping:
//
//  1. Debank: split multi-bit FFs into single-bit fragments
//  2. Substitute: three-stage cell substitution over equivalence groups
//  3. Bank: spatial re-clustering into 2- and 4-bit MBFFs
//  4. Post-substitute: revert surviving single-bit FFs when beneficial
//  5. Legalize: Abacus row legalization of the surviving FFs
//
// Every stage is fail-open: data anomalies are logged and skipped, and the
// driver always carries whatever state exists into the next stage.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Weights: db.Weights, Timing: table}
//	result, err := runner.Execute(ctx, db, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary.Placed, "flip-flops placed")
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/cache"
	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/legalize"
	"github.com/matzehuels/ffbank/pkg/timing"
	"github.com/matzehuels/ffbank/pkg/transform"
)

// Options contains all configuration for one pipeline run.
type Options struct {
	// Weights override the design's objective weights when non-zero.
	Weights design.ObjectiveWeights `json:"weights"`

	// Timing is the per-cell timing surrogate table.
	Timing timing.Table `json:"-"`

	// Thresholds are the banking clustering distances.
	Thresholds transform.Thresholds `json:"thresholds"`

	// MaxDisplacement bounds legalization moves (0 = unbounded).
	MaxDisplacement float64 `json:"max_displacement,omitempty"`

	// SkipLegalize stops after post-substitution.
	SkipLegalize bool `json:"skip_legalize,omitempty"`

	// Refresh bypasses the result cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once. Missing weights default to zero (the
// scoring then ranks purely by the remaining terms), missing thresholds
// to the reference distances.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Thresholds == (transform.Thresholds{}) {
		o.Thresholds = transform.DefaultThresholds()
	}
	if o.Timing == nil {
		o.Timing = timing.Table{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResultKeyOpts returns the cache key options for a pipeline result.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Alpha:           o.Weights.Alpha,
		Beta:            o.Weights.Beta,
		Gamma:           o.Weights.Gamma,
		Fsdn2Distance:   o.Thresholds.Fsdn2,
		Fsdn4Distance:   o.Thresholds.Fsdn4,
		Lsrdpq4Distance: o.Thresholds.Lsrdpq4,
		MaxDisplacement: o.MaxDisplacement,
		SkipLegalize:    o.SkipLegalize,
	}
}

// LegalizeOptions returns the legalizer options derived from the run
// options.
func (o *Options) LegalizeOptions() legalize.Options {
	return legalize.Options{MaxDisplacement: o.MaxDisplacement}
}
