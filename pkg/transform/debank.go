package transform

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/trail"
)

// DebankResult summarizes one debanking pass.
type DebankResult struct {
	Debanked  int // multi-bit FFs split
	Fragments int // single-bit fragments created
	Skipped   int // multi-bit FFs with a missing degenerate
}

// Debank splits every multi-bit flip-flop with a single-bit degenerate into
// bit-width fragments named <orig>_BIT<i>. Each fragment copies the
// original's position, orientation, banking type and module, and carries
// cluster_id = <orig> so Pass A of the banker can preferentially regroup
// the family. The original's KEEP record is replaced by one DEBANK record
// per fragment.
func Debank(db *design.Database, rec *trail.Recorder, logger *log.Logger) DebankResult {
	var res DebankResult

	for _, name := range db.InstanceNames() {
		inst := db.Instances[name]
		if inst.Cell == nil || !inst.Cell.IsFlipFlop() || !inst.Cell.IsMultiBit() {
			continue
		}
		if !inst.Cell.HasDegenerate() {
			continue
		}

		parentName := inst.Cell.SingleBitDegenerate
		parent := db.Cell(parentName)
		if parent == nil {
			logger.Warn("degenerate cell not found; keeping multi-bit FF",
				"instance", inst.Name, "cell", inst.Cell.Name, "degenerate", parentName)
			res.Skipped++
			continue
		}

		bits := inst.Cell.BitWidth
		fragments := make([]*design.Instance, 0, bits)
		for bit := 0; bit < bits; bit++ {
			frag := design.NewInstance(fmt.Sprintf("%s_BIT%d", inst.Name, bit), parentName)
			frag.Cell = parent
			frag.Position = inst.Position
			frag.Orientation = inst.Orientation
			frag.Module = inst.Module
			frag.BankingType = inst.BankingType
			frag.ClusterID = inst.Name
			wireFragment(inst, frag, bit)
			fragments = append(fragments, frag)
		}

		rec.RecordDebank(inst, fragments, parentName)
		rec.RemoveKeep(inst.Name)

		db.RemoveInstance(inst.Name)
		for _, frag := range fragments {
			db.AddInstance(frag)
		}

		logger.Debug("debanked", "instance", inst.Name, "cell", inst.Cell.Name, "bits", bits)
		res.Debanked++
		res.Fragments += bits
	}

	logger.Info("debanking complete", "debanked", res.Debanked, "fragments", res.Fragments, "skipped", res.Skipped)
	return res
}

// wireFragment connects the fragment's pins from the multi-bit source:
// a data pin D/Q/QN takes the bit-indexed net (D<i>), any pin whose exact
// name exists on the source takes that net (shared controls like CK, SE,
// RD), everything else stays unconnected.
func wireFragment(src, frag *design.Instance, bit int) {
	for i := range frag.Cell.Pins {
		pinName := frag.Cell.Pins[i].Name
		if conn := src.FindConnection(indexedPinName(pinName, bit)); conn != nil {
			frag.Connect(pinName, conn.Net)
			continue
		}
		if conn := src.FindConnection(pinName); conn != nil {
			frag.Connect(pinName, conn.Net)
		}
	}
}

// indexedPinName maps a single-bit data pin to its bit-indexed multi-bit
// name; shared pins pass through unchanged.
func indexedPinName(pin string, bit int) string {
	switch pin {
	case "D", "Q", "QN":
		return fmt.Sprintf("%s%d", pin, bit)
	}
	return pin
}
