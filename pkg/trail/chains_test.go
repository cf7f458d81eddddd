package trail

import (
	"strings"
	"testing"

	"github.com/matzehuels/ffbank/pkg/design"
)

// buildRebankScenario models a 2-bit FF debanked into two fragments and
// rebanked into a fresh 2-bit FF, with the design holding only the result.
func buildRebankScenario(t *testing.T) (*design.Database, *Recorder) {
	t.Helper()

	orig := ffInstance("m", "FF2", map[string]string{
		"D0": "n0", "D1": "n1", "Q0": "q0", "Q1": "q1", "CK": "clk",
	})
	frag0 := ffInstance("m_BIT0", "FF1", map[string]string{"D": "n0", "Q": "q0", "CK": "clk"})
	frag1 := ffInstance("m_BIT1", "FF1", map[string]string{"D": "n1", "Q": "q1", "CK": "clk"})

	rec := NewRecorder()
	rec.RecordDebank(orig, []*design.Instance{frag0, frag1}, "FF1")

	sources := []*design.Instance{frag0, frag1}
	rec.RecordBank(sources, "m_REBANKED", "FF2", BankPinMapping(sources, "m_REBANKED", 0))

	db := design.NewDatabase()
	cell2 := &design.CellTemplate{
		Name: "FF2", Kind: design.KindFlipFlop, BitWidth: 2,
		Pins: []design.Pin{{Name: "D0"}, {Name: "D1"}, {Name: "Q0"}, {Name: "Q1"}, {Name: "CK"}},
	}
	cell2.ClassifyPins()
	db.AddCell(cell2)
	result := design.NewInstance("m_REBANKED", "FF2")
	result.Cell = cell2
	db.AddInstance(result)

	return db, rec
}

func TestBuildChainsCollapsesDebank(t *testing.T) {
	_, rec := buildRebankScenario(t)
	chains := BuildChains(rec)

	if _, ok := chains["m"]; ok {
		t.Error("debanked original must not own a chain")
	}
	c, ok := chains["m_BIT0"]
	if !ok {
		t.Fatal("fragment chain missing")
	}
	if c.Final != "m_REBANKED" || !c.Banked {
		t.Errorf("fragment chain = %+v, want final m_REBANKED banked", c)
	}
}

func TestFinalPinMappingAcrossDebankAndRebank(t *testing.T) {
	db, rec := buildRebankScenario(t)
	entries := FinalPinMapping(db, rec)

	byKey := make(map[string]PinMapEntry)
	for _, e := range entries {
		byKey[e.OriginalInstance+"/"+e.OriginalPin] = e
	}

	d1, ok := byKey["m/D1"]
	if !ok {
		t.Fatalf("no entry for m/D1; entries = %v", entries)
	}
	if d1.FinalInstance != "m_REBANKED" || d1.FinalPin != "D1" {
		t.Errorf("m/D1 resolves to %s/%s, want m_REBANKED/D1", d1.FinalInstance, d1.FinalPin)
	}

	ck, ok := byKey["m/CK"]
	if !ok {
		t.Fatal("no entry for m/CK")
	}
	if ck.FinalInstance != "m_REBANKED" || ck.FinalPin != "CK" {
		t.Errorf("m/CK resolves to %s/%s, want m_REBANKED/CK", ck.FinalInstance, ck.FinalPin)
	}

	// Exactly one destination per original pin.
	seen := make(map[string]int)
	for _, e := range entries {
		seen[e.OriginalInstance+"/"+e.OriginalPin]++
	}
	for key, n := range seen {
		if n != 1 {
			t.Errorf("pin %s has %d destinations, want 1", key, n)
		}
	}
}

func TestFinalPinMappingKeepOnly(t *testing.T) {
	db := design.NewDatabase()
	cell := &design.CellTemplate{
		Name: "FF1", Kind: design.KindFlipFlop, BitWidth: 1,
		Pins: []design.Pin{{Name: "D"}, {Name: "Q"}, {Name: "CK"}},
	}
	cell.ClassifyPins()
	db.AddCell(cell)
	inst := ffInstance("u", "FF1", map[string]string{"D": "n", "CK": "clk"})
	inst.Cell = cell
	db.AddInstance(inst)

	rec := NewRecorder()
	rec.Init(db)

	entries := FinalPinMapping(db, rec)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.FinalInstance != "u" || e.FinalPin != e.OriginalPin {
			t.Errorf("keep-only entry %v should be identity", e)
		}
	}
}

func TestOperationLogLines(t *testing.T) {
	_, rec := buildRebankScenario(t)
	lines := NewOperationLog().Lines(rec)

	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2 (split + create)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "split_multibit { {m FF2 2} {dummy_1 FF1 1} {dummy_2 FF1 1} }") {
		t.Errorf("split line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "create_multibit") ||
		!strings.Contains(lines[1], "{dummy_1 FF1 1}") ||
		!strings.Contains(lines[1], "{m_REBANKED FF2 2}") {
		t.Errorf("create line = %q", lines[1])
	}
}

func TestOperationLogSizeCellUsesDummies(t *testing.T) {
	orig := ffInstance("m", "FF2", map[string]string{"D0": "n0"})
	frag := ffInstance("m_BIT0", "FF1", map[string]string{"D": "n0"})

	rec := NewRecorder()
	rec.RecordDebank(orig, []*design.Instance{frag}, "FF1")
	rec.RecordSubstitute(frag, "FF1", "FF1_CHEAP")

	lines := NewOperationLog().Lines(rec)
	var sizeLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "size_cell") {
			sizeLine = l
		}
	}
	if sizeLine != "size_cell {dummy_1 FF1 FF1_CHEAP}" {
		t.Errorf("size_cell line = %q, want dummy name", sizeLine)
	}
}

func TestOperationLogPostSubstituteUsesRealName(t *testing.T) {
	orig := ffInstance("m", "FF2", map[string]string{"D0": "n0"})
	frag := ffInstance("m_BIT0", "FF1", map[string]string{"D": "n0"})

	rec := NewRecorder()
	rec.RecordDebank(orig, []*design.Instance{frag}, "FF1")
	rec.RecordPostSubstitute(frag, "FF1", "FF1_CHEAP")

	lines := NewOperationLog().Lines(rec)
	var sizeLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "size_cell") {
			sizeLine = l
		}
	}
	// Post-banking substitutions always name the instance verbatim, even
	// though the debank minted a dummy for the same fragment.
	if sizeLine != "size_cell {m_BIT0 FF1 FF1_CHEAP}" {
		t.Errorf("post-substitute line = %q, want real instance name", sizeLine)
	}
}
