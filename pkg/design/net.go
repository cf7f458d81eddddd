package design

import "strings"

// NetType classifies a net.
type NetType string

// Net types.
const (
	NetSignal NetType = "signal"
	NetClock  NetType = "clock"
	NetPower  NetType = "power"
	NetGround NetType = "ground"
)

// Canonical net names produced at load time. Nets carrying these names are
// not materialized into the net table.
const (
	NetUnconnected = "UNCONNECTED"
	NetVDD         = "VDD"
	NetVSS         = "VSS"
)

// NetConnection is one (instance, pin) endpoint of a net.
type NetConnection struct {
	Instance string `json:"instance"`
	Pin      string `json:"pin"`
}

// Net is a named signal with its endpoints.
type Net struct {
	Name        string          `json:"name"`
	Type        NetType         `json:"type,omitempty"`
	IsClock     bool            `json:"is_clock,omitempty"`
	Connections []NetConnection `json:"connections,omitempty"`
}

// Fanout returns the endpoint count.
func (n *Net) Fanout() int { return len(n.Connections) }

// IsPowerNet reports whether a net name is a power alias.
func IsPowerNet(name string) bool {
	switch strings.ToUpper(name) {
	case "VDD", "VCC", "VDDPE", "VDDR", "AVDD", "DVDD":
		return true
	}
	return false
}

// IsGroundNet reports whether a net name is a ground alias.
func IsGroundNet(name string) bool {
	switch strings.ToUpper(name) {
	case "VSS", "GND", "VSSE", "AVSS", "DVSS":
		return true
	}
	return false
}

// IsUnconnectedNet reports whether a net name marks an unconnected pin.
func IsUnconnectedNet(name string) bool {
	return strings.Contains(name, "SYNOPSYS_UNCONNECTED")
}

// CanonicalNetName collapses unconnected markers and power/ground aliases to
// their canonical names. All other names pass through unchanged.
func CanonicalNetName(name string) string {
	switch {
	case IsUnconnectedNet(name):
		return NetUnconnected
	case IsPowerNet(name):
		return NetVDD
	case IsGroundNet(name):
		return NetVSS
	}
	return name
}

// IsActiveConnection reports whether a pin connection is functionally
// present. A pin tied to ground or left unconnected is absent and must not
// prevent substitution into a cheaper variant lacking that pin; a pin tied
// to VDD stays active (control pins may be tied high to enable a function).
func IsActiveConnection(net string) bool {
	if net == "" || net == NetUnconnected || IsUnconnectedNet(net) {
		return false
	}
	return net != NetVSS
}
