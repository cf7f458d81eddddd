package group

import (
	"math"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/timing"
)

// Timing scale factors. The per-group optimal cache ranks cells with the
// timing term scaled by 1000, while the substituter's local comparisons use
// the unscaled term. The asymmetry is deliberate — the cache is a coarse
// ranking, substitution compares locally — and both factors are kept as
// named constants so parity runs can calibrate them.
const (
	TimingScaleCache      = 1000.0
	TimingScaleSubstitute = 1.0
)

// Scorer evaluates the per-bit cost of a library cell under the objective
// weights. Lower is better.
type Scorer struct {
	Weights design.ObjectiveWeights
	Timing  timing.Table
}

// Score computes (β·power·10⁻³ + γ·area)/bits + α·T(cell)·timingScale.
// The division normalizes power and area to per-bit cost; the timing term
// stays per-cell. Non-flip-flop and unknown cells score +Inf so they never
// win a comparison.
func (s Scorer) Score(cell *design.CellTemplate, timingScale float64) float64 {
	if cell == nil || !cell.IsFlipFlop() {
		return math.Inf(1)
	}
	bits := cell.BitWidth
	if bits < 1 {
		bits = 1
	}
	delta := s.Weights.Alpha * s.Timing.Lookup(cell.Name) * timingScale
	return (s.Weights.Beta*cell.LeakagePower*0.001+s.Weights.Gamma*cell.Area)/float64(bits) + delta
}

// ScoreName looks the cell up in db and scores it, +Inf when missing.
func (s Scorer) ScoreName(db *design.Database, cellName string, timingScale float64) float64 {
	return s.Score(db.Cell(cellName), timingScale)
}
