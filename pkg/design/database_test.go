package design

import (
	"slices"
	"testing"
)

func newTestDB() *Database {
	db := NewDatabase()
	db.AddCell(&CellTemplate{Name: "FF1", Kind: KindFlipFlop, BitWidth: 1, Area: 2, LeakagePower: 1})
	db.AddCell(&CellTemplate{
		Name: "FF4", Kind: KindFlipFlop, BitWidth: 4,
		SingleBitDegenerate: "FF1", Area: 6, LeakagePower: 3,
	})
	db.AddCell(&CellTemplate{Name: "AND2", Kind: KindOther, Area: 1})

	a := NewInstance("a", "FF1")
	b := NewInstance("b", "FF4")
	c := NewInstance("c", "AND2")
	db.AddInstance(a)
	db.AddInstance(b)
	db.AddInstance(c)
	return db
}

func TestLinkInstances(t *testing.T) {
	db := newTestDB()
	db.AddInstance(NewInstance("ghost", "MISSING"))

	missing := db.LinkInstances()

	if len(missing) != 1 || missing[0] != "ghost" {
		t.Errorf("LinkInstances() missing = %v, want [ghost]", missing)
	}
	if db.Instances["a"].Cell == nil {
		t.Error("instance a not linked")
	}
}

func TestBuildBankingRelations(t *testing.T) {
	db := newTestDB()
	db.BuildBankingRelations()

	single := db.Cell("FF1")
	if !slices.Contains(single.BankingTargets, "FF4") {
		t.Errorf("FF1 banking targets = %v, want to contain FF4", single.BankingTargets)
	}
	if !single.CanBeBanked() {
		t.Error("FF1 should be bankable after relation build")
	}
}

func TestFlipFlopsSorted(t *testing.T) {
	db := newTestDB()
	db.LinkInstances()

	ffs := db.FlipFlops()
	if len(ffs) != 2 {
		t.Fatalf("FlipFlops() returned %d, want 2", len(ffs))
	}
	if ffs[0].Name != "a" || ffs[1].Name != "b" {
		t.Errorf("FlipFlops() order = [%s %s], want [a b]", ffs[0].Name, ffs[1].Name)
	}
}

func TestComputeStats(t *testing.T) {
	db := newTestDB()
	db.LinkInstances()
	db.BuildBankingRelations()

	stats := db.ComputeStats()
	if stats.Instances != 3 {
		t.Errorf("Instances = %d, want 3", stats.Instances)
	}
	if stats.FlipFlops != 2 {
		t.Errorf("FlipFlops = %d, want 2", stats.FlipFlops)
	}
	if stats.BankableFFs != 2 {
		t.Errorf("BankableFFs = %d, want 2", stats.BankableFFs)
	}
	if stats.TotalArea != 9 {
		t.Errorf("TotalArea = %v, want 9", stats.TotalArea)
	}
}

func TestScanChainOf(t *testing.T) {
	db := newTestDB()
	db.ScanChains = []ScanChain{{
		Name:     "chain0",
		Sequence: []ScanConnection{{Instance: "a", ScanIn: "SI", ScanOut: "Q"}},
	}}

	if got := db.ScanChainOf("a"); got != "chain0" {
		t.Errorf("ScanChainOf(a) = %q, want chain0", got)
	}
	if got := db.ScanChainOf("b"); got != "" {
		t.Errorf("ScanChainOf(b) = %q, want empty", got)
	}
}
