// Package cache provides content-addressed caching for pipeline stages.
//
// The transformation result and the placement result are cached against a
// hash of the design snapshot plus the options that shaped them, so
// re-running an unchanged design skips straight to the cached artifacts.
// A file backend serves the CLI; a null backend disables caching.
package cache

import (
	"context"
	"time"
)

// Cache TTLs per artifact kind.
const (
	// TTLDesign is the lifetime of cached design snapshots.
	TTLDesign = 7 * 24 * time.Hour

	// TTLResult is the lifetime of cached transformation results.
	TTLResult = 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiration.
type Cache interface {
	// Get retrieves a value; the bool reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL (0 = no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// ResultKey keys a full transformation+legalization result by the
	// design hash and the options that shaped it.
	ResultKey(designHash string, opts ResultKeyOpts) string
}

// ResultKeyOpts are the option fields that change a pipeline result.
type ResultKeyOpts struct {
	Alpha           float64 `json:"alpha"`
	Beta            float64 `json:"beta"`
	Gamma           float64 `json:"gamma"`
	Fsdn2Distance   float64 `json:"fsdn2_distance"`
	Fsdn4Distance   float64 `json:"fsdn4_distance"`
	Lsrdpq4Distance float64 `json:"lsrdpq4_distance"`
	MaxDisplacement float64 `json:"max_displacement"`
	SkipLegalize    bool    `json:"skip_legalize,omitempty"`
}

// DefaultKeyer hashes the key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// ResultKey generates a key for a pipeline result.
func (k *DefaultKeyer) ResultKey(designHash string, opts ResultKeyOpts) string {
	return hashKey("result", designHash, opts)
}
