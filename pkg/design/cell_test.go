package design

import "testing"

func TestParseClockEdge(t *testing.T) {
	tests := []struct {
		name      string
		clockedOn string
		cellName  string
		want      ClockEdge
	}{
		{"negated paren", "(!CK)", "FF1", EdgeFalling},
		{"tilde", "~CK", "FF1", EdgeFalling},
		{"bare clock", "CK", "FF1", EdgeRising},
		{"clk identifier", "CLK", "FF1", EdgeRising},
		{"compound and", "CK&SR", "FF1", EdgeUnknown},
		{"compound or", "CK|EN", "FF1", EdgeUnknown},
		{"empty with sr name", "", "SSRRFF_X1", EdgeRising},
		{"empty plain", "", "FF1", EdgeUnknown},
		{"no clock identifier", "EN", "FF1", EdgeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseClockEdge(tt.clockedOn, tt.cellName); got != tt.want {
				t.Errorf("ParseClockEdge(%q, %q) = %q, want %q", tt.clockedOn, tt.cellName, got, tt.want)
			}
		})
	}
}

func TestEdgeFromName(t *testing.T) {
	tests := []struct {
		cell string
		want ClockEdge
	}{
		{"SNPSHOPT25_FSDN_V2_1", EdgeFalling},
		{"FDN_X2", EdgeFalling},
		{"FDP_X1", EdgeRising},
		{"FSDP_V3", EdgeRising},
		{"AND2_X1", EdgeUnknown},
	}
	for _, tt := range tests {
		if got := EdgeFromName(tt.cell); got != tt.want {
			t.Errorf("EdgeFromName(%q) = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestCanBeBanked(t *testing.T) {
	ff := &CellTemplate{Name: "FF1", Kind: KindFlipFlop, BitWidth: 1}
	if ff.CanBeBanked() {
		t.Error("FF without targets or degenerate should not be bankable")
	}

	ff.BankingTargets = []string{"FF2"}
	if !ff.CanBeBanked() {
		t.Error("FF with a banking target should be bankable")
	}

	mb := &CellTemplate{Name: "FF4", Kind: KindFlipFlop, BitWidth: 4, SingleBitDegenerate: "FF1"}
	if !mb.CanBeBanked() {
		t.Error("multi-bit FF with degenerate should be bankable")
	}

	mb.SingleBitDegenerate = NoDegenerate
	if mb.CanBeBanked() {
		t.Error("null degenerate should not count")
	}

	gate := &CellTemplate{Name: "AND2", Kind: KindOther, BankingTargets: []string{"x"}}
	if gate.CanBeBanked() {
		t.Error("non-FF cell should never be bankable")
	}
}

func TestClassifyPins(t *testing.T) {
	cell := &CellTemplate{
		Name: "FF4",
		Kind: KindFlipFlop,
		Pins: []Pin{{Name: "D0"}, {Name: "QN2"}, {Name: "CK"}, {Name: "VDD"}},
	}
	cell.ClassifyPins()

	want := []PinType{PinD, PinQN, PinCK, PinNotFFPin}
	for i, pin := range cell.Pins {
		if pin.Type != want[i] {
			t.Errorf("pin %s classified %q, want %q", pin.Name, pin.Type, want[i])
		}
	}
}
