package transform

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/group"
	"github.com/matzehuels/ffbank/pkg/trail"
)

// PostSubstitute walks the instance table and reverts every surviving
// single-bit flip-flop to the best alternative the three-stage substituter
// ever recorded for it, when that alternative still scores strictly below
// the current cell. One POST_SUBSTITUTE record per revert.
//
// Rationale: stage 3 may have pushed an FF onto a banking-preparation cell
// that never got banked; the earlier, cheaper choice wins it back.
func PostSubstitute(db *design.Database, scorer group.Scorer, rec *trail.Recorder, logger *log.Logger) int {
	reverted := 0
	for _, inst := range db.FlipFlops() {
		if inst.BitWidth() != 1 || inst.BestAltCell == "" {
			continue
		}

		current := scorer.Score(inst.Cell, group.TimingScaleSubstitute)
		if inst.BestAltScore >= current || inst.BestAltCell == inst.Cell.Name {
			continue
		}

		best := db.Cell(inst.BestAltCell)
		if best == nil {
			logger.Warn("best alternative missing from library",
				"instance", inst.Name, "cell", inst.BestAltCell)
			continue
		}

		oldCell := inst.Cell.Name
		inst.Cell = best
		inst.CellName = best.Name
		rec.RecordPostSubstitute(inst, oldCell, best.Name)
		reverted++

		logger.Debug("post-banking revert",
			"instance", inst.Name, "from", oldCell, "to", best.Name,
			"score", inst.BestAltScore)
	}

	logger.Info("post-banking substitution complete", "reverted", reverted)
	return reverted
}
