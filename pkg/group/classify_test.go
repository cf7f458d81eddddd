package group

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
)

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestInstanceHierarchy(t *testing.T) {
	inst := design.NewInstance("top/sub/ff1", "FF")
	if got := InstanceHierarchy(inst); got != "top/sub" {
		t.Errorf("InstanceHierarchy = %q, want top/sub", got)
	}

	inst.Module = "core_a"
	if got := InstanceHierarchy(inst); got != "core_a" {
		t.Errorf("InstanceHierarchy with module = %q, want core_a", got)
	}

	flat := design.NewInstance("ff2", "FF")
	if got := InstanceHierarchy(flat); got != TopLevelModule {
		t.Errorf("InstanceHierarchy flat = %q, want %s", got, TopLevelModule)
	}
}

func TestInstanceClockNet(t *testing.T) {
	cell := ffCell("FF", 1, design.EdgeRising, "D", "Q", "CK")
	inst := design.NewInstance("u1", "FF")
	inst.Cell = cell
	inst.Connect("CK", "clk_a")

	if got := InstanceClockNet(inst); got != "clk_a" {
		t.Errorf("InstanceClockNet = %q, want clk_a", got)
	}

	tied := design.NewInstance("u2", "FF")
	tied.Cell = cell
	tied.Connect("CK", design.NetVSS)
	if got := InstanceClockNet(tied); got != UnknownClock {
		t.Errorf("InstanceClockNet(tied low) = %q, want %s", got, UnknownClock)
	}
}

func TestInstanceScanChain(t *testing.T) {
	db := design.NewDatabase()
	db.ScanChains = []design.ScanChain{{
		Name:     "chain0",
		Sequence: []design.ScanConnection{{Instance: "u1", ScanIn: "SI", ScanOut: "Q"}},
	}}

	cell := ffCell("FSDN", 1, design.EdgeFalling, "D", "Q", "CK", "SI", "SE")
	onChain := design.NewInstance("u1", "FSDN")
	onChain.Cell = cell
	onChain.Connect("SI", "scan_net")

	offChain := design.NewInstance("u2", "FSDN")
	offChain.Cell = cell
	offChain.Connect("SI", "scan_net2")

	noScan := design.NewInstance("u3", "FSDN")
	noScan.Cell = cell
	noScan.Connect("SI", design.NetUnconnected)

	if got := InstanceScanChain(db, onChain); got != "chain0" {
		t.Errorf("InstanceScanChain(on chain) = %q, want chain0", got)
	}
	if got := InstanceScanChain(db, offChain); got != ScanUnassigned {
		t.Errorf("InstanceScanChain(off chain) = %q, want %s", got, ScanUnassigned)
	}
	if got := InstanceScanChain(db, noScan); got != ScanNone {
		t.Errorf("InstanceScanChain(no scan) = %q, want %s", got, ScanNone)
	}
}

func TestAssignBankingTypes(t *testing.T) {
	db := design.NewDatabase()
	db.AddCell(ffCell("SNPS_FSDN_V2", 1, design.EdgeFalling, "D", "Q", "QN", "CK", "SI", "SE"))
	db.AddCell(ffCell("SNPS_LSRDPQ_V1", 1, design.EdgeRising, "D", "Q", "QN", "CK"))
	db.AddCell(ffCell("SNPS_FDP_V1", 1, design.EdgeRising, "D", "Q", "CK"))
	db.AddCell(ffCell("PLAIN_FF", 1, design.EdgeRising, "D", "Q", "CK"))

	for _, name := range []string{"SNPS_FSDN_V2", "SNPS_LSRDPQ_V1", "SNPS_FDP_V1", "PLAIN_FF"} {
		inst := design.NewInstance("i_"+name, name)
		db.AddInstance(inst)
	}
	db.LinkInstances()

	AssignBankingTypes(db, discardLogger())

	want := map[string]design.BankingType{
		"i_SNPS_FSDN_V2":   design.BankFsdn,
		"i_SNPS_LSRDPQ_V1": design.BankRisingLsrdpq,
		"i_SNPS_FDP_V1":    design.BankRisingLsrdpq,
		"i_PLAIN_FF":       design.BankNone,
	}
	for name, wantType := range want {
		if got := db.Instances[name].BankingType; got != wantType {
			t.Errorf("%s banking type = %q, want %q", name, got, wantType)
		}
	}
}

func TestGroupInstancesDeterministic(t *testing.T) {
	db := design.NewDatabase()
	cell := ffCell("FF", 1, design.EdgeRising, "D", "Q", "CK")
	db.AddCell(cell)
	for _, name := range []string{"m1/a", "m1/b", "m2/c"} {
		inst := design.NewInstance(name, "FF")
		inst.Connect("CK", "clk")
		db.AddInstance(inst)
	}
	db.LinkInstances()

	buckets, keys := GroupInstances(db, BankingKey)
	if len(keys) != 2 {
		t.Fatalf("got %d groups, want 2", len(keys))
	}
	if keys[0] != "m1|clk" || keys[1] != "m2|clk" {
		t.Errorf("keys = %v, want [m1|clk m2|clk]", keys)
	}
	if len(buckets["m1|clk"]) != 2 {
		t.Errorf("group m1|clk has %d members, want 2", len(buckets["m1|clk"]))
	}
}
