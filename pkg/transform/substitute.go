package transform

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/group"
	"github.com/matzehuels/ffbank/pkg/trail"
)

// SubstituteResult summarizes a three-stage substitution run.
type SubstituteResult struct {
	Stage1   int // unconditional nominal-group swaps
	Stage2   int // effective-pin conditional swaps
	Stage3   int // banking-preparation swaps
	Recorded int // SUBSTITUTE records emitted (net changes only)
}

// Substituter runs the three-stage flip-flop substitution. All three
// stages mutate only the cell-template reference of an instance; names,
// positions, and connections are untouched. One SUBSTITUTE record per
// instance is emitted after all stages, iff the final cell differs from
// the cell snapshot at pass start.
type Substituter struct {
	DB     *design.Database
	Groups *group.CellGroups
	Scorer group.Scorer
	Logger *log.Logger
}

// Run executes stages 1–3 over the grouped population, updates each
// instance's best-alternative scratch field, and records net changes.
func (s *Substituter) Run(rec *trail.Recorder) SubstituteResult {
	var res SubstituteResult

	// Snapshot pre-substitution cells so only net changes get recorded.
	originalCells := make(map[string]string)
	for _, inst := range s.DB.FlipFlops() {
		originalCells[inst.Name] = inst.Cell.Name
	}

	buckets, keys := group.GroupInstances(s.DB, func(inst *design.Instance) string {
		return group.SubstitutionKey(s.DB, inst)
	})

	for _, key := range keys {
		for _, inst := range buckets[key] {
			if s.stage1(inst) {
				res.Stage1++
			}
		}
	}
	for _, key := range keys {
		for _, inst := range buckets[key] {
			if s.stage2(inst) {
				res.Stage2++
			}
		}
	}
	res.Stage3 = s.stage3(buckets, keys)

	// Emit one SUBSTITUTE per net change.
	for _, inst := range s.DB.FlipFlops() {
		orig, ok := originalCells[inst.Name]
		if !ok || orig == inst.Cell.Name {
			continue
		}
		rec.RecordSubstitute(inst, orig, inst.Cell.Name)
		res.Recorded++
	}

	s.Logger.Info("three-stage substitution complete",
		"stage1", res.Stage1, "stage2", res.Stage2, "stage3", res.Stage3, "recorded", res.Recorded)
	return res
}

// swapTo replaces the instance's template with the named cell and updates
// the best-alternative record. Returns false when the cell is unknown.
func (s *Substituter) swapTo(inst *design.Instance, cellName string) bool {
	cell := s.DB.Cell(cellName)
	if cell == nil {
		s.Logger.Warn("optimal cell missing from library", "instance", inst.Name, "cell", cellName)
		return false
	}
	inst.Cell = cell
	inst.CellName = cellName
	inst.SetBestAlt(cellName, s.Scorer.Score(cell, group.TimingScaleSubstitute))
	return true
}

// stage1 replaces the instance's cell with the cached optimal of its
// nominal group — the group derived from the template's pin list, not the
// connections. Unconditional: the cache winner is taken even when scores
// tie.
func (s *Substituter) stage1(inst *design.Instance) bool {
	key := s.Groups.KeyOf(inst.Cell.Name)
	if key == "" {
		s.Logger.Debug("no nominal group for cell", "instance", inst.Name, "cell", inst.Cell.Name)
		return false
	}
	optimal := s.Groups.OptimalFor(key)
	if optimal == "" || optimal == inst.Cell.Name {
		return false
	}
	return s.swapTo(inst, optimal)
}

// stage2 recomputes the instance's effective pin set from its connections
// and substitutes into that group's optimal only when it scores strictly
// lower than the current cell. Pins tied to ground do not need to exist on
// the implementation cell.
func (s *Substituter) stage2(inst *design.Instance) bool {
	sig := group.EffectivePinSignature(inst)
	if sig == "" {
		return false
	}
	edge := group.InstanceEdge(inst)
	if edge == design.EdgeUnknown {
		return false
	}
	key := group.Key(edge, sig, 1)
	optimal := s.Groups.OptimalFor(key)
	if optimal == "" || optimal == inst.Cell.Name {
		return false
	}

	current := s.Scorer.Score(inst.Cell, group.TimingScaleSubstitute)
	candidate := s.Scorer.ScoreName(s.DB, optimal, group.TimingScaleSubstitute)
	if candidate >= current {
		return false
	}
	return s.swapTo(inst, optimal)
}

// stage3 prepares eligible single-bit FFs for MBFF banking: falling-edge
// FFs without active RD/SD pins move to the optimal FSDN 1-bit cell when
// the 4-bit FSDN target beats them per-bit; rising-edge FFs in the
// D_Q_CK / D_QN_CK groups move to the optimal D_Q_QN_CK 1-bit cell when
// the LSRDPQ4 target beats them.
func (s *Substituter) stage3(buckets map[string][]*design.Instance, keys []string) int {
	fsdn4 := s.Groups.OptimalFor(group.KeyFsdn4Bit)
	fsdnSingle := s.Groups.OptimalFor(group.KeyFsdn1Bit)
	fsdnReady := fsdn4 != "" && fsdnSingle != ""
	fsdn4Score := s.Scorer.ScoreName(s.DB, fsdn4, group.TimingScaleSubstitute)

	lsrdpq4 := s.Groups.OptimalFor(group.KeyLsrdpq4Bit)
	lsrdpqSingle := s.Groups.OptimalFor(group.KeyLsrdpq1Bit)
	lsrdpqReady := lsrdpq4 != "" && lsrdpqSingle != ""
	lsrdpq4Score := s.Scorer.ScoreName(s.DB, lsrdpq4, group.TimingScaleSubstitute)

	if !fsdnReady && !lsrdpqReady {
		s.Logger.Debug("no MBFF targets; skipping banking preparation")
		return 0
	}

	swapped := 0
	for _, key := range keys {
		for _, inst := range buckets[key] {
			edge := group.InstanceEdge(inst)
			current := s.Scorer.Score(inst.Cell, group.TimingScaleSubstitute)

			switch {
			case edge == design.EdgeFalling && fsdnReady:
				if hasActiveDisablePins(inst) {
					continue
				}
				if fsdn4Score < current && s.swapTo(inst, fsdnSingle) {
					swapped++
				}
			case edge == design.EdgeRising && lsrdpqReady:
				if !eligibleForLsrdpq(inst) {
					continue
				}
				if lsrdpq4Score < current && s.swapTo(inst, lsrdpqSingle) {
					swapped++
				}
			}
		}
	}
	return swapped
}

// hasActiveDisablePins reports whether the instance drives an RD or SD pin
// with a live net. MBFF targets do not carry these pins, so such FFs stay
// out of banking preparation.
func hasActiveDisablePins(inst *design.Instance) bool {
	if inst.Cell == nil {
		return false
	}
	for _, conn := range inst.Connections {
		if !design.IsActiveConnection(conn.Net) {
			continue
		}
		pin := inst.Cell.FindPin(conn.Pin)
		if pin == nil {
			continue
		}
		if pin.Type == design.PinRD || pin.Type == design.PinSD {
			return true
		}
	}
	return false
}

// eligibleForLsrdpq reports whether a rising-edge FF sits in the D_Q_CK or
// D_QN_CK effective groups — both can upgrade to the D_Q_QN_CK pattern the
// LSRDPQ4 target banks from.
func eligibleForLsrdpq(inst *design.Instance) bool {
	if group.InstanceEdge(inst) != design.EdgeRising {
		return false
	}
	switch group.EffectivePinSignature(inst) {
	case "D_Q_CK", "D_QN_CK":
		return true
	}
	return false
}
