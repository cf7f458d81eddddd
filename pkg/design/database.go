package design

import (
	"maps"
	"slices"
)

// Database is the main design model: cell library, netlist, layout, scan
// chains, and objective weights. A single pipeline run owns one Database
// and mutates it in place; there is no concurrent access.
type Database struct {
	Name string `json:"name,omitempty"`

	Cells     map[string]*CellTemplate `json:"cells"`
	Instances map[string]*Instance     `json:"instances"`
	Nets      map[string]*Net          `json:"nets"`

	Rows      []PlacementRow `json:"rows,omitempty"`
	Blockages []Rect         `json:"blockages,omitempty"`
	DieArea   Rect           `json:"die_area,omitempty"`

	ScanChains []ScanChain      `json:"scan_chains,omitempty"`
	Weights    ObjectiveWeights `json:"weights"`
}

// NewDatabase returns an empty database with all maps initialized.
func NewDatabase() *Database {
	return &Database{
		Cells:     make(map[string]*CellTemplate),
		Instances: make(map[string]*Instance),
		Nets:      make(map[string]*Net),
	}
}

// Cell returns the named cell template, or nil.
func (db *Database) Cell(name string) *CellTemplate {
	return db.Cells[name]
}

// AddCell registers a cell template.
func (db *Database) AddCell(c *CellTemplate) {
	db.Cells[c.Name] = c
}

// AddInstance registers an instance.
func (db *Database) AddInstance(inst *Instance) {
	db.Instances[inst.Name] = inst
}

// RemoveInstance deletes an instance by name.
func (db *Database) RemoveInstance(name string) {
	delete(db.Instances, name)
}

// LinkInstances resolves every instance's cell-template pointer from its
// cell name. Returns the names of instances whose cell is missing; those
// instances are carried through the pipeline unchanged.
func (db *Database) LinkInstances() []string {
	var missing []string
	for _, name := range db.InstanceNames() {
		inst := db.Instances[name]
		if cell := db.Cells[inst.CellName]; cell != nil {
			inst.Cell = cell
		} else {
			missing = append(missing, name)
		}
	}
	return missing
}

// BuildBankingRelations builds the reverse degenerate relation: for every
// multi-bit FF naming a single-bit degenerate, the degenerate gains the
// multi-bit cell as a banking target.
func (db *Database) BuildBankingRelations() {
	for _, name := range db.CellNames() {
		cell := db.Cells[name]
		if !cell.IsFlipFlop() || !cell.HasDegenerate() {
			continue
		}
		if single := db.Cells[cell.SingleBitDegenerate]; single != nil {
			single.BankingTargets = append(single.BankingTargets, cell.Name)
		}
	}
	for _, cell := range db.Cells {
		slices.Sort(cell.BankingTargets)
	}
}

// CellNames returns all cell names sorted for deterministic iteration.
func (db *Database) CellNames() []string {
	return slices.Sorted(maps.Keys(db.Cells))
}

// InstanceNames returns all instance names sorted for deterministic
// iteration. Hash-map iteration order must never leak into the record
// stream or the placement result.
func (db *Database) InstanceNames() []string {
	return slices.Sorted(maps.Keys(db.Instances))
}

// FlipFlops returns all flip-flop instances sorted by name.
func (db *Database) FlipFlops() []*Instance {
	var ffs []*Instance
	for _, name := range db.InstanceNames() {
		if inst := db.Instances[name]; inst.IsFlipFlop() {
			ffs = append(ffs, inst)
		}
	}
	return ffs
}

// BankableFlipFlops returns flip-flops whose template can participate in
// banking, sorted by name.
func (db *Database) BankableFlipFlops() []*Instance {
	var ffs []*Instance
	for _, inst := range db.FlipFlops() {
		if inst.Cell.CanBeBanked() {
			ffs = append(ffs, inst)
		}
	}
	return ffs
}

// ClockNets returns nets flagged as clock, sorted by name.
func (db *Database) ClockNets() []*Net {
	var clocks []*Net
	for _, name := range slices.Sorted(maps.Keys(db.Nets)) {
		if n := db.Nets[name]; n.IsClock {
			clocks = append(clocks, n)
		}
	}
	return clocks
}

// ScanChainOf returns the name of the scan chain containing the instance,
// or "" when the instance is on no chain.
func (db *Database) ScanChainOf(instanceName string) string {
	for i := range db.ScanChains {
		for _, hop := range db.ScanChains[i].Sequence {
			if hop.Instance == instanceName {
				return db.ScanChains[i].Name
			}
		}
	}
	return ""
}

// Stats summarizes the database contents.
type Stats struct {
	Instances   int
	FlipFlops   int
	BankableFFs int
	Nets        int
	TotalArea   float64
	TotalPower  float64
}

// ComputeStats walks the instance table and totals areas and powers.
func (db *Database) ComputeStats() Stats {
	s := Stats{Instances: len(db.Instances), Nets: len(db.Nets)}
	for _, inst := range db.Instances {
		if inst.Cell == nil {
			continue
		}
		if inst.IsFlipFlop() {
			s.FlipFlops++
			if inst.Cell.CanBeBanked() {
				s.BankableFFs++
			}
		}
		s.TotalArea += inst.Cell.Area
		s.TotalPower += inst.Cell.LeakagePower
	}
	return s
}
