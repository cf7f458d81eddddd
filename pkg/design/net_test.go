package design

import "testing"

func TestCanonicalNetName(t *testing.T) {
	tests := []struct {
		name string
		net  string
		want string
	}{
		{"synopsys unconnected", "SYNOPSYS_UNCONNECTED_12", NetUnconnected},
		{"embedded unconnected", "net_SYNOPSYS_UNCONNECTED_3_", NetUnconnected},
		{"power alias", "VCC", NetVDD},
		{"power lowercase", "vdd", NetVDD},
		{"ground alias", "GND", NetVSS},
		{"ground", "VSS", NetVSS},
		{"signal passthrough", "clk_main", "clk_main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalNetName(tt.net); got != tt.want {
				t.Errorf("CanonicalNetName(%q) = %q, want %q", tt.net, got, tt.want)
			}
		})
	}
}

func TestIsActiveConnection(t *testing.T) {
	tests := []struct {
		net  string
		want bool
	}{
		{"clk_main", true},
		{NetVDD, true}, // tied high still enables the pin
		{NetVSS, false},
		{NetUnconnected, false},
		{"SYNOPSYS_UNCONNECTED_7", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsActiveConnection(tt.net); got != tt.want {
			t.Errorf("IsActiveConnection(%q) = %v, want %v", tt.net, got, tt.want)
		}
	}
}
