package group

import (
	"fmt"
	"strings"

	"github.com/matzehuels/ffbank/pkg/design"
)

// cellSignatureOrder is the canonical pin order for cell-level signatures,
// derived from the template pin list.
var cellSignatureOrder = []design.PinType{
	design.PinD, design.PinQ, design.PinQN, design.PinCK,
	design.PinSI, design.PinSO, design.PinSE,
	design.PinR, design.PinS, design.PinRD, design.PinSD,
	design.PinSR, design.PinRS,
}

// effectiveSignatureOrder is the pin order used for effective (connection
// derived) signatures. It omits SO and interleaves the disable variants
// (R,RD,S,SD). For the common pin sets both orders yield the same string,
// which is what makes effective-key lookups against the cell groups work;
// keep them in sync when extending either.
var effectiveSignatureOrder = []design.PinType{
	design.PinD, design.PinQ, design.PinQN, design.PinCK,
	design.PinSI, design.PinSE,
	design.PinR, design.PinRD, design.PinS, design.PinSD,
	design.PinRS, design.PinSR,
}

// signatureBasic is the signature of a flip-flop exposing no classified
// functional pins.
const signatureBasic = "BASIC"

// signature joins the present pin types in the given order with "_".
func signature(present map[design.PinType]bool, order []design.PinType) string {
	var parts []string
	for _, t := range order {
		if present[t] {
			parts = append(parts, string(t))
		}
	}
	if len(parts) == 0 {
		return signatureBasic
	}
	return strings.Join(parts, "_")
}

// CellPinSignature derives the nominal pin signature from a template's pin
// list. Retention power, unclassified, and non-FF pins are excluded.
func CellPinSignature(cell *design.CellTemplate) string {
	present := make(map[design.PinType]bool)
	for i := range cell.Pins {
		t := cell.Pins[i].Type
		if t == design.PinVDDR || t == design.PinOther || t == design.PinNotFFPin {
			continue
		}
		present[t] = true
	}
	return signature(present, cellSignatureOrder)
}

// EffectivePinSignature derives the signature of an instance's active pins:
// the functional types whose connection is neither unconnected nor tied to
// ground. Returns "" when the instance has no template.
func EffectivePinSignature(inst *design.Instance) string {
	if inst.Cell == nil {
		return ""
	}
	present := make(map[design.PinType]bool)
	for _, conn := range inst.Connections {
		if !design.IsActiveConnection(conn.Net) {
			continue
		}
		pin := inst.Cell.FindPin(conn.Pin)
		if pin == nil {
			continue
		}
		switch pin.Type {
		case design.PinVDDR, design.PinOther, design.PinNotFFPin, design.PinSO:
			continue
		}
		present[pin.Type] = true
	}
	return signature(present, effectiveSignatureOrder)
}

// Key identifies a cell-equivalence group: clock edge, pin signature, and
// bit width, rendered as "EDGE|SIG|<n>bit".
func Key(edge design.ClockEdge, pinSignature string, bits int) string {
	return fmt.Sprintf("%s|%s|%dbit", edge, pinSignature, bits)
}

// ReplaceBits returns the key with its bit-width component swapped, or ""
// when the key is malformed.
func ReplaceBits(key string, bits int) string {
	idx := strings.LastIndex(key, "|")
	if idx < 0 {
		return ""
	}
	return fmt.Sprintf("%s|%dbit", key[:idx], bits)
}

// Well-known group keys used by banking preparation and Pass A.
const (
	KeyFsdn1Bit   = "FALLING|D_Q_QN_CK_SI_SE|1bit"
	KeyFsdn2Bit   = "FALLING|D_Q_QN_CK_SI_SE|2bit"
	KeyFsdn4Bit   = "FALLING|D_Q_QN_CK_SI_SE|4bit"
	KeyLsrdpq1Bit = "RISING|D_Q_QN_CK|1bit"
	KeyLsrdpq4Bit = "RISING|D_Q_QN_CK|4bit"
)
