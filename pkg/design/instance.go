package design

import "math"

// Orientation is the placement orientation of an instance.
type Orientation string

// Placement orientations (DEF convention).
const (
	OrientN  Orientation = "N"
	OrientS  Orientation = "S"
	OrientE  Orientation = "E"
	OrientW  Orientation = "W"
	OrientFN Orientation = "FN"
	OrientFS Orientation = "FS"
	OrientFE Orientation = "FE"
	OrientFW Orientation = "FW"
)

// PlacementStatus tracks whether an instance has a committed location.
type PlacementStatus string

// Placement statuses.
const (
	StatusUnplaced PlacementStatus = "unplaced"
	StatusPlaced   PlacementStatus = "placed"
	StatusFixed    PlacementStatus = "fixed"
)

// BankingType is the banking eligibility class of a flip-flop instance.
type BankingType string

// Banking types. Fsdn instances (falling edge) bank into FSDN2/FSDN4;
// RisingLsrdpq instances bank into LSRDPQ4.
const (
	BankFsdn         BankingType = "FSDN"
	BankRisingLsrdpq BankingType = "RISING_LSRDPQ"
	BankNone         BankingType = "NONE"
)

// Connection binds an instance pin to a net by name.
type Connection struct {
	Pin string `json:"pin"`
	Net string `json:"net"`
}

// Instance is one placed occurrence of a library cell.
type Instance struct {
	Name string `json:"name"`

	// CellName names the current template; Cell is the resolved pointer.
	// Substitution swaps both together.
	CellName string        `json:"cell"`
	Cell     *CellTemplate `json:"-"`

	// Module is the hierarchy tag; banking never crosses it.
	Module string `json:"module,omitempty"`

	// ClusterID groups the fragments of one debanked multi-bit FF so the
	// banker can preferentially reconstitute them.
	ClusterID   string      `json:"cluster_id,omitempty"`
	BankingType BankingType `json:"banking_type,omitempty"`

	Position    Point           `json:"position"`
	Orientation Orientation     `json:"orientation,omitempty"`
	Status      PlacementStatus `json:"status,omitempty"`

	Connections []Connection `json:"connections,omitempty"`

	// Legalizer outputs. NewX/NewY are written exactly once per run.
	NewX   float64 `json:"new_x,omitempty"`
	NewY   float64 `json:"new_y,omitempty"`
	Weight int     `json:"-"`

	// Scratch fields for the post-banking substituter: the cheapest cell
	// this instance was ever substituted to, and its score.
	BestAltCell  string  `json:"-"`
	BestAltScore float64 `json:"-"`
}

// NewInstance creates an instance with the scratch fields initialized.
func NewInstance(name, cellName string) *Instance {
	return &Instance{
		Name:         name,
		CellName:     cellName,
		Orientation:  OrientN,
		Status:       StatusUnplaced,
		Weight:       1,
		BestAltScore: math.Inf(1),
	}
}

// IsFlipFlop reports whether the instance's template is a flip-flop.
func (inst *Instance) IsFlipFlop() bool {
	return inst.Cell != nil && inst.Cell.IsFlipFlop()
}

// BitWidth returns the template bit width, defaulting to 1.
func (inst *Instance) BitWidth() int {
	if inst.Cell == nil {
		return 1
	}
	return inst.Cell.BitWidth
}

// CellWidth returns the template's physical width, or 0.
func (inst *Instance) CellWidth() float64 {
	if inst.Cell == nil {
		return 0
	}
	return inst.Cell.Width
}

// CellHeight returns the template's physical height, or 0.
func (inst *Instance) CellHeight() float64 {
	if inst.Cell == nil {
		return 0
	}
	return inst.Cell.Height
}

// FindConnection returns the connection on the named pin, or nil.
func (inst *Instance) FindConnection(pin string) *Connection {
	for i := range inst.Connections {
		if inst.Connections[i].Pin == pin {
			return &inst.Connections[i]
		}
	}
	return nil
}

// Connect appends a pin→net binding.
func (inst *Instance) Connect(pin, net string) {
	inst.Connections = append(inst.Connections, Connection{Pin: pin, Net: net})
}

// SetBestAlt records cellName as the best alternative seen so far if its
// score beats the current record. Only the substituter calls this.
func (inst *Instance) SetBestAlt(cellName string, score float64) {
	if score < inst.BestAltScore {
		inst.BestAltCell = cellName
		inst.BestAltScore = score
	}
}
