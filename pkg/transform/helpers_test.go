package transform

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/group"
	"github.com/matzehuels/ffbank/pkg/timing"
)

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func addFF(db *design.Database, name string, bits int, edge design.ClockEdge, area, power float64, pins ...string) *design.CellTemplate {
	cell := &design.CellTemplate{
		Name: name, Kind: design.KindFlipFlop, BitWidth: bits, ClockEdge: edge,
		Area: area, LeakagePower: power, Width: 400, Height: 200,
	}
	for _, p := range pins {
		cell.Pins = append(cell.Pins, design.Pin{Name: p})
	}
	cell.ClassifyPins()
	db.AddCell(cell)
	return cell
}

// testLibrary builds the standard fixture library: an FSDN family with a
// cheap and a costly single-bit variant plus 2- and 4-bit versions, an
// LSRDPQ family, and a plain falling-edge FF outside the scan group.
func testLibrary() *design.Database {
	db := design.NewDatabase()
	db.Weights = design.ObjectiveWeights{Beta: 1, Gamma: 1}

	scanPins1 := []string{"D", "Q", "QN", "CK", "SI", "SE"}
	addFF(db, "FSDN_A", 1, design.EdgeFalling, 10, 2, scanPins1...)
	addFF(db, "FSDN_B", 1, design.EdgeFalling, 6, 1, scanPins1...)

	pins2 := []string{"D0", "D1", "Q0", "Q1", "QN0", "QN1", "CK", "SI", "SE"}
	cell2 := addFF(db, "FSDN2_A", 2, design.EdgeFalling, 10, 2, pins2...)
	cell2.SingleBitDegenerate = "FSDN_A"

	pins4 := []string{
		"D0", "D1", "D2", "D3", "Q0", "Q1", "Q2", "Q3",
		"QN0", "QN1", "QN2", "QN3", "CK", "SI", "SE",
	}
	cell4 := addFF(db, "FSDN4_A", 4, design.EdgeFalling, 16, 4, pins4...)
	cell4.SingleBitDegenerate = "FSDN_A"

	addFF(db, "LSRDPQ_A", 1, design.EdgeRising, 8, 2, "D", "Q", "QN", "CK")
	lpins4 := []string{
		"D1", "D2", "D3", "D4", "Q1", "Q2", "Q3", "Q4",
		"QN1", "QN2", "QN3", "QN4", "CK",
	}
	addFF(db, "LSRDPQ4_A", 4, design.EdgeRising, 20, 4, lpins4...)

	addFF(db, "FDN_PLAIN", 1, design.EdgeFalling, 5, 1, "D", "Q", "CK")

	db.BuildBankingRelations()
	return db
}

func addInstance(db *design.Database, name, cellName string, x, y float64, conns map[string]string) *design.Instance {
	inst := design.NewInstance(name, cellName)
	inst.Position = design.Point{X: x, Y: y}
	for pin, net := range conns {
		inst.Connect(pin, net)
	}
	inst.Cell = db.Cell(cellName)
	db.AddInstance(inst)
	return inst
}

// addFsdnRow adds n single-bit FSDN_B instances spaced step apart along
// y=0, fully scan-connected and sharing one clock.
func addFsdnRow(db *design.Database, n int, step float64) {
	for i := 0; i < n; i++ {
		addInstance(db, fmt.Sprintf("ff%d", i), "FSDN_B", float64(i)*step, 0, map[string]string{
			"D": fmt.Sprintf("d%d", i), "Q": fmt.Sprintf("q%d", i),
			"QN": fmt.Sprintf("qn%d", i), "CK": "clk", "SI": fmt.Sprintf("si%d", i), "SE": "se",
		})
	}
}

func buildGroups(t *testing.T, db *design.Database) (*group.CellGroups, group.Scorer) {
	t.Helper()
	scorer := group.Scorer{Weights: db.Weights, Timing: timing.Table{}}
	return group.BuildCellGroups(db, scorer, discardLogger()), scorer
}
