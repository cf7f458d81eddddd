package design

// PlacementRow is one horizontal row of the legal placement grid.
//
// Height defaults to StepY and SiteWidth to StepX when the loader leaves
// them zero; the legalizer normalizes both before building sub-rows. Row
// heights are uniform across the design.
type PlacementRow struct {
	Name   string  `json:"name,omitempty"`
	Site   string  `json:"site,omitempty"`
	Origin Point   `json:"origin"`
	NumX   int     `json:"num_x"`
	NumY   int     `json:"num_y,omitempty"`
	StepX  float64 `json:"step_x"`
	StepY  float64 `json:"step_y,omitempty"`

	Height    float64 `json:"height,omitempty"`
	SiteWidth float64 `json:"site_width,omitempty"`
	ID        int     `json:"id,omitempty"`
}

// EndX returns the exclusive right edge of the row.
func (r *PlacementRow) EndX() float64 {
	return r.Origin.X + r.StepX*float64(r.NumX)
}

// Normalize fills Height and SiteWidth from the step values when unset.
func (r *PlacementRow) Normalize() {
	if r.Height == 0 {
		r.Height = r.StepY
	}
	if r.SiteWidth == 0 {
		r.SiteWidth = r.StepX
	}
}

// ScanConnection is one flip-flop hop of a scan chain.
type ScanConnection struct {
	Instance string `json:"instance"`
	ScanIn   string `json:"scan_in"`
	ScanOut  string `json:"scan_out"`
}

// ScanChain is an ordered SI→FF→...→SO sequence detected from the netlist.
type ScanChain struct {
	Name     string           `json:"name"`
	ScanIn   string           `json:"scan_in,omitempty"`
	ScanOut  string           `json:"scan_out,omitempty"`
	Sequence []ScanConnection `json:"sequence,omitempty"`
}

// Length returns the number of flip-flops on the chain.
func (c *ScanChain) Length() int { return len(c.Sequence) }
