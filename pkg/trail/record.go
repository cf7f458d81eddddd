// Package trail records every atomic transformation applied to the flip-flop
// population and exposes the replayable audit artifacts derived from it:
// per-stage snapshots, original→final chains, the pin-accurate mapping from
// every original pin to its final destination, and the operation log.
//
// The record list is append-only. A KEEP record is pre-created for every
// flip-flop at pipeline start and later removed when the instance is
// debanked or banked, so an untouched instance always has exactly one
// terminal record.
package trail

// Operation is the kind of an atomic transformation.
type Operation string

// Operations, in pipeline order.
const (
	OpKeep           Operation = "KEEP"
	OpDebank         Operation = "DEBANK"
	OpSubstitute     Operation = "SUBSTITUTE"
	OpBank           Operation = "BANK"
	OpPostSubstitute Operation = "POST_SUBSTITUTE"
)

// Record is one atomic transformation. For BANK the original is the primary
// source and Related lists the remaining sources; for DEBANK one record is
// emitted per fragment with the sibling fragments in Related.
type Record struct {
	Operation Operation `json:"operation"`

	Original string `json:"original"`
	Result   string `json:"result"`

	OriginalCell string `json:"original_cell"`
	ResultCell   string `json:"result_cell"`

	// PinMapping maps original pin names to result pin names. For DEBANK
	// the direction is originalPin→fragmentPin (D3→D on fragment 3,
	// CK→CK everywhere); for BANK it is endpoint paths from the original
	// 1-bit pins to the multi-bit pins, never intermediate fragments.
	PinMapping map[string]string `json:"pin_mapping,omitempty"`

	Related []string `json:"related,omitempty"`

	ResultX           float64 `json:"result_x,omitempty"`
	ResultY           float64 `json:"result_y,omitempty"`
	ResultOrientation string  `json:"result_orientation,omitempty"`

	ClusterID string `json:"cluster_id,omitempty"`
	Stage     string `json:"stage,omitempty"`
}

// Arity returns the number of source instances of the record.
func (r *Record) Arity() int { return 1 + len(r.Related) }
