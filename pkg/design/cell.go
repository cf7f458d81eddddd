package design

import "strings"

// ClockEdge is the triggering edge of a flip-flop cell.
type ClockEdge string

// Clock edges.
const (
	EdgeRising  ClockEdge = "RISING"
	EdgeFalling ClockEdge = "FALLING"
	EdgeUnknown ClockEdge = "UNKNOWN"
)

// CellKind classifies a library cell.
type CellKind string

// Cell kinds. Only flip-flops participate in the transformation pipeline;
// everything else acts as a placement obstacle.
const (
	KindFlipFlop CellKind = "flip_flop"
	KindOther    CellKind = "other"
)

// NoDegenerate marks a multi-bit cell without a single-bit degenerate.
const NoDegenerate = "null"

// CellTemplate is an immutable library cell combining physical (LEF) and
// electrical (Liberty) properties.
type CellTemplate struct {
	Name    string `json:"name"`
	Library string `json:"library,omitempty"`

	// Physical properties
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Site   string  `json:"site,omitempty"`
	Pins   []Pin   `json:"pins,omitempty"`

	// Electrical properties
	Area         float64 `json:"area"`
	LeakagePower float64 `json:"leakage_power"`

	// Flip-flop banking properties. SingleBitDegenerate names the 1-bit
	// cell a multi-bit FF splits into; BankingTargets is the reverse
	// relation built at load time by Database.BuildBankingRelations.
	SingleBitDegenerate string   `json:"single_bit_degenerate,omitempty"`
	BankingTargets      []string `json:"banking_targets,omitempty"`
	BitWidth            int      `json:"bit_width"`

	ClockEdge ClockEdge `json:"clock_edge,omitempty"`
	Kind      CellKind  `json:"kind,omitempty"`
}

// IsFlipFlop reports whether the cell is a flip-flop.
func (c *CellTemplate) IsFlipFlop() bool { return c.Kind == KindFlipFlop }

// IsMultiBit reports whether the cell implements more than one bit.
func (c *CellTemplate) IsMultiBit() bool { return c.BitWidth > 1 }

// HasDegenerate reports whether the cell names a single-bit degenerate.
func (c *CellTemplate) HasDegenerate() bool {
	return c.SingleBitDegenerate != "" && c.SingleBitDegenerate != NoDegenerate
}

// CanBeBanked reports whether the cell participates in banking: it is a
// flip-flop with at least one banking target or a non-null degenerate.
func (c *CellTemplate) CanBeBanked() bool {
	return c.IsFlipFlop() && (len(c.BankingTargets) > 0 || c.HasDegenerate())
}

// FindPin returns the pin with the given name, or nil.
func (c *CellTemplate) FindPin(name string) *Pin {
	for i := range c.Pins {
		if c.Pins[i].Name == name {
			return &c.Pins[i]
		}
	}
	return nil
}

// ClassifyPins derives the functional type of every pin once. Loaders call
// this after populating the pin list; the types are never recomputed per
// instance.
func (c *CellTemplate) ClassifyPins() {
	for i := range c.Pins {
		c.Pins[i].Type = ClassifyPin(c.Pins[i].Name)
	}
}

// ParseClockEdge derives the clock edge from a Liberty clocked_on
// expression. A leading negation ("(!CK)", "~CK") means falling; compound
// expressions (CK&EN, CK|SR) cannot be classified; a bare clock identifier
// means rising. An empty expression falls back to the cell-name rule:
// SR-style cells default to rising, everything else stays unknown.
func ParseClockEdge(clockedOn, cellName string) ClockEdge {
	if clockedOn != "" {
		switch {
		case strings.Contains(clockedOn, "(!") || strings.Contains(clockedOn, "~"):
			return EdgeFalling
		case strings.Contains(clockedOn, "&") || strings.Contains(clockedOn, "|"):
			return EdgeUnknown
		case strings.Contains(clockedOn, "CK") || strings.Contains(clockedOn, "CLK"):
			return EdgeRising
		}
		return EdgeUnknown
	}
	if strings.Contains(cellName, "SR") || strings.Contains(cellName, "SSRR") {
		return EdgeRising
	}
	return EdgeUnknown
}

// EdgeFromName infers a clock edge from naming conventions. This is a
// fallback for cells whose clocked_on expression was absent or unparseable;
// prefer the explicit expression.
func EdgeFromName(cellName string) ClockEdge {
	switch {
	case strings.Contains(cellName, "FDN") || strings.Contains(cellName, "FSDN"):
		return EdgeFalling
	case strings.Contains(cellName, "FDP") || strings.Contains(cellName, "FSDP"):
		return EdgeRising
	}
	return EdgeUnknown
}
