package group

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
)

// TopLevelModule is the hierarchy tag for instances outside any module.
const TopLevelModule = "TOP_LEVEL"

// Scan-chain classification for instance group keys.
const (
	ScanUnassigned = "UNASSIGNED_SCAN"
	ScanNone       = "NON_SCAN"
)

// UnknownClock is used when no active clock connection exists.
const UnknownClock = "UNKNOWN_CLK"

// InstanceEdge returns the clock edge of an instance: the template edge
// when known, otherwise the cell-name fallback.
func InstanceEdge(inst *design.Instance) design.ClockEdge {
	if inst.Cell == nil {
		return design.EdgeUnknown
	}
	if inst.Cell.ClockEdge != design.EdgeUnknown && inst.Cell.ClockEdge != "" {
		return inst.Cell.ClockEdge
	}
	return design.EdgeFromName(inst.Cell.Name)
}

// InstanceHierarchy returns the module tag of an instance, falling back to
// the name prefix before the last '/' for flat inputs without module tags.
func InstanceHierarchy(inst *design.Instance) string {
	if inst.Module != "" {
		return inst.Module
	}
	if idx := strings.LastIndex(inst.Name, "/"); idx >= 0 {
		return inst.Name[:idx]
	}
	return TopLevelModule
}

// HierarchyPrefix returns everything before the last '/' of an instance
// name, or "" for top-level names. Banked instances inherit this prefix.
func HierarchyPrefix(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[:idx]
	}
	return ""
}

// InstanceClockNet returns the net on the instance's active clock pin.
func InstanceClockNet(inst *design.Instance) string {
	for _, conn := range inst.Connections {
		if design.ClassifyPin(conn.Pin) != design.PinCK {
			continue
		}
		if design.IsActiveConnection(conn.Net) && conn.Net != design.NetVDD {
			return conn.Net
		}
	}
	return UnknownClock
}

// InstanceScanChain classifies the instance's scan membership. An instance
// is scan-connected when any SI/SE pin carries a net other than the
// unconnected markers (a pin tied to power or ground counts as connected).
// A scan-connected instance gets the name of its detected chain, or
// UNASSIGNED_SCAN when it is on no chain; all others get NON_SCAN.
func InstanceScanChain(db *design.Database, inst *design.Instance) string {
	scanConnected := false
	for _, conn := range inst.Connections {
		t := design.ClassifyPin(conn.Pin)
		if t != design.PinSI && t != design.PinSE {
			continue
		}
		if conn.Net != design.NetUnconnected && !design.IsUnconnectedNet(conn.Net) {
			scanConnected = true
		}
	}
	if !scanConnected {
		return ScanNone
	}
	if chain := db.ScanChainOf(inst.Name); chain != "" {
		return chain
	}
	return ScanUnassigned
}

// SubstitutionKey is the instance group key used before banking:
// scanChain|module|clockNet. Substitution never moves an instance between
// these groups.
func SubstitutionKey(db *design.Database, inst *design.Instance) string {
	return InstanceScanChain(db, inst) + "|" + InstanceHierarchy(inst) + "|" + clockDomain(inst)
}

// clockDomain is the clock net for grouping purposes; unlike
// InstanceClockNet it accepts VDD-tied clocks as a domain of their own.
func clockDomain(inst *design.Instance) string {
	for _, conn := range inst.Connections {
		if design.ClassifyPin(conn.Pin) == design.PinCK && design.IsActiveConnection(conn.Net) {
			return conn.Net
		}
	}
	return UnknownClock
}

// BankingKey is the instance group key used by the banker: module|clockNet.
// Cross-hierarchy and cross-clock banking are disallowed.
func BankingKey(inst *design.Instance) string {
	return InstanceHierarchy(inst) + "|" + InstanceClockNet(inst)
}

// AssignBankingTypes classifies every flip-flop instance for banking:
// falling-edge FSDN cells bank into FSDN2/FSDN4, rising-edge FDP/LSRDPQ
// cells into LSRDPQ4, everything else cannot bank.
func AssignBankingTypes(db *design.Database, logger *log.Logger) {
	var fsdn, lsrdpq, none int
	for _, inst := range db.FlipFlops() {
		edge := InstanceEdge(inst)
		name := inst.Cell.Name
		switch {
		case edge == design.EdgeFalling && strings.Contains(name, "FSDN"):
			inst.BankingType = design.BankFsdn
			fsdn++
		case edge == design.EdgeRising &&
			(strings.Contains(name, "FDP") || strings.Contains(name, "LSRDPQ")):
			inst.BankingType = design.BankRisingLsrdpq
			lsrdpq++
		default:
			inst.BankingType = design.BankNone
			none++
		}
	}
	logger.Debug("assigned banking types", "fsdn", fsdn, "rising_lsrdpq", lsrdpq, "none", none)
}

// GroupInstances buckets flip-flops by the given key function, returning
// the bucket map and its sorted key list for deterministic iteration.
func GroupInstances(db *design.Database, key func(*design.Instance) string) (map[string][]*design.Instance, []string) {
	buckets := make(map[string][]*design.Instance)
	for _, inst := range db.FlipFlops() {
		k := key(inst)
		buckets[k] = append(buckets[k], inst)
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return buckets, keys
}
