package transform

import (
	"testing"

	"github.com/matzehuels/ffbank/pkg/group"
	"github.com/matzehuels/ffbank/pkg/timing"
	"github.com/matzehuels/ffbank/pkg/trail"
)

func TestPostSubstituteRevertsToBestAlternative(t *testing.T) {
	db := testLibrary()
	scorer := group.Scorer{Weights: db.Weights, Timing: timing.Table{}}

	inst := addInstance(db, "u", "FSDN_A", 0, 0, map[string]string{"D": "n", "CK": "clk"})
	inst.SetBestAlt("FSDN_B", scorer.ScoreName(db, "FSDN_B", group.TimingScaleSubstitute))

	rec := trail.NewRecorder()
	reverted := PostSubstitute(db, scorer, rec, discardLogger())

	if reverted != 1 {
		t.Fatalf("reverted = %d, want 1", reverted)
	}
	if inst.Cell.Name != "FSDN_B" {
		t.Errorf("cell = %s, want FSDN_B", inst.Cell.Name)
	}

	r := rec.Records[rec.IndicesOf(trail.OpPostSubstitute)[0]]
	if r.OriginalCell != "FSDN_A" || r.ResultCell != "FSDN_B" {
		t.Errorf("record = %s→%s, want FSDN_A→FSDN_B", r.OriginalCell, r.ResultCell)
	}
}

func TestPostSubstituteSkipsWorseAlternative(t *testing.T) {
	db := testLibrary()
	scorer := group.Scorer{Weights: db.Weights, Timing: timing.Table{}}

	inst := addInstance(db, "u", "FSDN_B", 0, 0, nil)
	inst.SetBestAlt("FSDN_A", scorer.ScoreName(db, "FSDN_A", group.TimingScaleSubstitute))

	if got := PostSubstitute(db, scorer, rec0(), discardLogger()); got != 0 {
		t.Errorf("reverted = %d, want 0 (alternative is worse)", got)
	}
	if inst.Cell.Name != "FSDN_B" {
		t.Errorf("cell = %s, want FSDN_B untouched", inst.Cell.Name)
	}
}

func TestPostSubstituteIgnoresMultiBit(t *testing.T) {
	db := testLibrary()
	scorer := group.Scorer{Weights: db.Weights, Timing: timing.Table{}}

	inst := addInstance(db, "u", "FSDN4_A", 0, 0, nil)
	inst.SetBestAlt("FSDN_B", 0.001)

	if got := PostSubstitute(db, scorer, rec0(), discardLogger()); got != 0 {
		t.Errorf("reverted = %d, want 0 (multi-bit survivor)", got)
	}
}

func rec0() *trail.Recorder { return trail.NewRecorder() }
