package design

import "strings"

// PinDirection is the electrical direction of a pin.
type PinDirection string

// Pin directions.
const (
	DirIn    PinDirection = "in"
	DirOut   PinDirection = "out"
	DirInOut PinDirection = "inout"
)

// PinUsage classifies what a pin carries.
type PinUsage string

// Pin usages.
const (
	UsageSignal PinUsage = "signal"
	UsageClock  PinUsage = "clock"
	UsagePower  PinUsage = "power"
	UsageGround PinUsage = "ground"
)

// PinType is the flip-flop functional role of a pin, derived once per
// (cell, pin) from the pin name and never recomputed per instance.
type PinType string

// Flip-flop pin types.
const (
	PinD        PinType = "D"
	PinQ        PinType = "Q"
	PinQN       PinType = "QN"
	PinCK       PinType = "CK"
	PinSI       PinType = "SI"
	PinSO       PinType = "SO"
	PinSE       PinType = "SE"
	PinR        PinType = "R"
	PinS        PinType = "S"
	PinRD       PinType = "RD"
	PinSD       PinType = "SD"
	PinSR       PinType = "SR"
	PinRS       PinType = "RS"
	PinVDDR     PinType = "VDDR"
	PinOther    PinType = "OTHER"
	PinNotFFPin PinType = "N/A"
)

// Pin describes one pin of a cell template.
type Pin struct {
	Name      string       `json:"name"`
	Direction PinDirection `json:"direction,omitempty"`
	Usage     PinUsage     `json:"usage,omitempty"`
	Type      PinType      `json:"type,omitempty"`
	Offset    Point        `json:"offset,omitempty"`
}

// pinAliases maps exact upper-cased pin names to their functional type.
// Indexed data pins (D0..D7, Q0..Q7, QN0..QN7) and bracketed forms
// (D[3], Q[0]) are handled by ClassifyPin before this table is consulted.
var pinAliases = map[string]PinType{
	"CLK": PinCK, "CK": PinCK, "CLOCK": PinCK, "CP": PinCK,

	"SI": PinSI, "SCAN_IN": PinSI, "SCIN": PinSI, "TI": PinSI,
	"SO": PinSO, "SCAN_OUT": PinSO, "SCOUT": PinSO, "TO": PinSO,
	"SE": PinSE, "SCAN_EN": PinSE, "SCAN_ENABLE": PinSE, "TE": PinSE,

	"RD": PinRD, "SD": PinSD, "SR": PinSR, "RS": PinRS, "VDDR": PinVDDR,

	"R": PinR, "RST": PinR, "RESET": PinR, "RN": PinR, "RESETN": PinR,
	"RSTB": PinR, "CDN": PinR, "RSTN": PinR, "CLR": PinR, "CLRN": PinR,

	"S": PinS, "SET": PinS, "SN": PinS, "SETN": PinS, "SETB": PinS,
	"SDN": PinS, "PRE": PinS, "PREN": PinS, "PRESET": PinS,

	"VDD": PinNotFFPin, "VSS": PinNotFFPin, "VDDPE": PinNotFFPin,
	"VSSE": PinNotFFPin, "VNW": PinNotFFPin, "VPW": PinNotFFPin,
	"VSDR": PinNotFFPin, "AVDD": PinNotFFPin, "AVSS": PinNotFFPin,
	"DVDD": PinNotFFPin, "DVSS": PinNotFFPin,
}

// ClassifyPin maps a pin name to its flip-flop functional type by exact,
// case-insensitive match against a fixed dictionary. Bit-indexed data pins
// (D3, QN[1]) map to the unindexed type; QN is checked before Q so that
// "QN0" does not classify as a Q pin.
func ClassifyPin(name string) PinType {
	upper := strings.ToUpper(name)

	if isIndexedData(upper, "QN") {
		return PinQN
	}
	if isIndexedData(upper, "D") {
		return PinD
	}
	if isIndexedData(upper, "Q") {
		return PinQ
	}
	if t, ok := pinAliases[upper]; ok {
		return t
	}
	return PinOther
}

// isIndexedData reports whether name is prefix, prefix<digits>, or
// prefix[<digits>].
func isIndexedData(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	rest := name[len(prefix):]
	if rest == "" {
		return true
	}
	if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
		rest = rest[1 : len(rest)-1]
	}
	if rest == "" {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsSharedControl reports whether a pin type is shared across the bits of a
// multi-bit flip-flop (clock, scan, set/reset) rather than bit-indexed.
func (t PinType) IsSharedControl() bool {
	switch t {
	case PinCK, PinSI, PinSO, PinSE, PinR, PinS, PinRD, PinSD, PinSR, PinRS:
		return true
	}
	return false
}

// IsData reports whether a pin type carries per-bit data.
func (t PinType) IsData() bool {
	return t == PinD || t == PinQ || t == PinQN
}
