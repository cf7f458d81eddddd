package group

import (
	"testing"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/timing"
)

func TestBuildCellGroups(t *testing.T) {
	db := design.NewDatabase()
	cheap := ffCell("FSDN_CHEAP", 1, design.EdgeFalling, "D", "Q", "QN", "CK", "SI", "SE")
	cheap.Area = 4
	costly := ffCell("FSDN_COSTLY", 1, design.EdgeFalling, "D", "Q", "QN", "CK", "SI", "SE")
	costly.Area = 9
	quad := ffCell("FSDN4_X", 4, design.EdgeFalling, "D0", "D1", "D2", "D3", "Q0", "Q1", "Q2", "Q3", "QN0", "QN1", "QN2", "QN3", "CK", "SI", "SE")
	quad.Area = 12
	gate := &design.CellTemplate{Name: "AND2", Kind: design.KindOther}
	db.AddCell(cheap)
	db.AddCell(costly)
	db.AddCell(quad)
	db.AddCell(gate)

	scorer := Scorer{Weights: design.ObjectiveWeights{Gamma: 1}, Timing: timing.Table{}}
	groups := BuildCellGroups(db, scorer, discardLogger())

	if got := groups.OptimalFor(KeyFsdn1Bit); got != "FSDN_CHEAP" {
		t.Errorf("optimal for %s = %q, want FSDN_CHEAP", KeyFsdn1Bit, got)
	}
	if got := groups.OptimalFor(KeyFsdn4Bit); got != "FSDN4_X" {
		t.Errorf("optimal for %s = %q, want FSDN4_X", KeyFsdn4Bit, got)
	}
	if got := groups.KeyOf("FSDN_COSTLY"); got != KeyFsdn1Bit {
		t.Errorf("KeyOf(FSDN_COSTLY) = %q, want %s", got, KeyFsdn1Bit)
	}
	if got := groups.KeyOf("AND2"); got != "" {
		t.Errorf("KeyOf(AND2) = %q, want empty", got)
	}
}

func TestBuildCellGroupsTimingTieBreak(t *testing.T) {
	// Identical power/area: the cache-scale timing term decides.
	db := design.NewDatabase()
	slow := ffCell("FF_SLOW", 1, design.EdgeRising, "D", "Q", "QN", "CK")
	fast := ffCell("FF_FAST", 1, design.EdgeRising, "D", "Q", "QN", "CK")
	slow.Area, fast.Area = 5, 5
	db.AddCell(slow)
	db.AddCell(fast)

	scorer := Scorer{
		Weights: design.ObjectiveWeights{Alpha: 1, Gamma: 1},
		Timing:  timing.Table{"FF_SLOW": 0.5, "FF_FAST": 0.1},
	}
	groups := BuildCellGroups(db, scorer, discardLogger())

	if got := groups.OptimalFor(KeyLsrdpq1Bit); got != "FF_FAST" {
		t.Errorf("optimal = %q, want FF_FAST", got)
	}
}

func TestUnknownEdgeCellsGetTheirOwnGroup(t *testing.T) {
	db := design.NewDatabase()
	odd := ffCell("ODD_FF", 1, design.EdgeUnknown, "D", "Q", "CK")
	db.AddCell(odd)

	groups := BuildCellGroups(db, Scorer{}, discardLogger())
	key := groups.KeyOf("ODD_FF")
	if key != "UNKNOWN|D_Q_CK|1bit" {
		t.Errorf("KeyOf(ODD_FF) = %q, want UNKNOWN|D_Q_CK|1bit", key)
	}
	// Still substitutable against itself.
	if got := groups.OptimalFor(key); got != "ODD_FF" {
		t.Errorf("optimal = %q, want ODD_FF", got)
	}
}
