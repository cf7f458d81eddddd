package trail

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/ffbank/pkg/design"
)

// Recorder accumulates transformation records and the side maps needed for
// the final pin-mapping export. It is owned by the pipeline driver; every
// mutation of the flip-flop population goes through it.
type Recorder struct {
	Records []Record

	// debankPins maps "origInstance/origPin" → "fragment/pin" so that
	// debanked-then-rebanked chains can collapse the _BIT<i> names.
	debankPins map[string]string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{debankPins: make(map[string]string)}
}

// Init pre-creates one KEEP record per flip-flop instance: identity pin
// mapping, current position and orientation, instance name as cluster id.
func (rec *Recorder) Init(db *design.Database) {
	for _, inst := range db.FlipFlops() {
		r := Record{
			Operation:         OpKeep,
			Original:          inst.Name,
			Result:            inst.Name,
			OriginalCell:      inst.CellName,
			ResultCell:        inst.CellName,
			PinMapping:        make(map[string]string, len(inst.Connections)),
			ResultX:           inst.Position.X,
			ResultY:           inst.Position.Y,
			ResultOrientation: string(inst.Orientation),
			ClusterID:         inst.Name,
			Stage:             "KEEP",
		}
		for _, conn := range inst.Connections {
			r.PinMapping[conn.Pin] = conn.Pin
		}
		rec.Records = append(rec.Records, r)
	}
}

// RemoveKeep deletes the KEEP record pre-created for an instance. Called
// when the instance is consumed by debanking or banking.
func (rec *Recorder) RemoveKeep(instanceName string) {
	kept := rec.Records[:0]
	for _, r := range rec.Records {
		if r.Operation == OpKeep && r.Original == instanceName {
			continue
		}
		kept = append(kept, r)
	}
	rec.Records = kept
}

// RecordDebank emits one DEBANK record per fragment. The pin mapping runs
// originalPin→fragmentPin: bit-indexed data pins of the multi-bit source
// map to their unindexed fragment pin, shared control pins map to
// themselves. The sibling fragments are recorded as related instances.
func (rec *Recorder) RecordDebank(orig *design.Instance, fragments []*design.Instance, parentCell string) {
	for i, frag := range fragments {
		r := Record{
			Operation:         OpDebank,
			Original:          orig.Name,
			Result:            frag.Name,
			OriginalCell:      orig.CellName,
			ResultCell:        parentCell,
			PinMapping:        make(map[string]string),
			ResultX:           frag.Position.X,
			ResultY:           frag.Position.Y,
			ResultOrientation: string(frag.Orientation),
			ClusterID:         orig.Name,
			Stage:             "DEBANK",
		}
		for _, t := range []string{"D", "Q", "QN", "CK", "SI", "SE", "SO", "R", "S"} {
			indexed := t + strconv.Itoa(i)
			if orig.FindConnection(indexed) != nil {
				r.PinMapping[indexed] = t
			} else if orig.FindConnection(t) != nil {
				r.PinMapping[t] = t
			}
		}
		for _, conn := range orig.Connections {
			if _, done := r.PinMapping[conn.Pin]; !done && frag.FindConnection(conn.Pin) != nil {
				r.PinMapping[conn.Pin] = conn.Pin
			}
		}
		for _, sibling := range fragments {
			if sibling.Name != frag.Name {
				r.Related = append(r.Related, sibling.Name)
			}
		}
		rec.Records = append(rec.Records, r)
		rec.recordDebankPins(&r)
	}
}

// recordDebankPins stores the record's mapping as instance-qualified paths.
func (rec *Recorder) recordDebankPins(r *Record) {
	for origPin, fragPin := range r.PinMapping {
		rec.debankPins[r.Original+"/"+origPin] = r.Result + "/" + fragPin
	}
}

// DebankPinPath resolves an original multi-bit pin path to its fragment
// path, or "" when the pin was never debanked.
func (rec *Recorder) DebankPinPath(origPath string) string {
	return rec.debankPins[origPath]
}

// RecordSubstitute emits a SUBSTITUTE record for an in-place cell swap.
// Pin names are unchanged by substitution, so the mapping is the identity
// over the instance's connected pins. The cluster id is inherited from the
// earliest record touching the instance.
func (rec *Recorder) RecordSubstitute(inst *design.Instance, originalCell, resultCell string) {
	rec.recordInPlace(OpSubstitute, "SUBSTITUTE", inst, originalCell, resultCell)
}

// RecordPostSubstitute emits a POST_SUBSTITUTE record for the post-banking
// revert of a surviving single-bit flip-flop.
func (rec *Recorder) RecordPostSubstitute(inst *design.Instance, originalCell, resultCell string) {
	rec.recordInPlace(OpPostSubstitute, "POST_BANKING", inst, originalCell, resultCell)
}

func (rec *Recorder) recordInPlace(op Operation, stage string, inst *design.Instance, originalCell, resultCell string) {
	r := Record{
		Operation:         op,
		Original:          inst.Name,
		Result:            inst.Name,
		OriginalCell:      originalCell,
		ResultCell:        resultCell,
		PinMapping:        make(map[string]string),
		ResultX:           inst.Position.X,
		ResultY:           inst.Position.Y,
		ResultOrientation: string(inst.Orientation),
		Stage:             stage,
	}
	for _, conn := range inst.Connections {
		r.PinMapping[conn.Pin] = conn.Pin
	}
	r.ClusterID = rec.inheritedCluster(inst.Name)
	if r.ClusterID == "" {
		r.ClusterID = inst.Name
	}
	rec.Records = append(rec.Records, r)
}

// RecordBank emits one BANK record: the first source is the primary
// original, the rest become related instances. The pin mapping is the
// end-to-end mapping from the original 1-bit pins to the multi-bit pins.
func (rec *Recorder) RecordBank(sources []*design.Instance, resultName, resultCell string, pinMapping map[string]string) {
	if len(sources) == 0 {
		return
	}
	primary := sources[0]
	r := Record{
		Operation:         OpBank,
		Original:          primary.Name,
		Result:            resultName,
		OriginalCell:      primary.CellName,
		ResultCell:        resultCell,
		PinMapping:        pinMapping,
		ResultX:           primary.Position.X,
		ResultY:           primary.Position.Y,
		ResultOrientation: string(primary.Orientation),
		Stage:             "BANK",
	}
	for _, src := range sources[1:] {
		r.Related = append(r.Related, src.Name)
	}
	r.ClusterID = rec.inheritedCluster(primary.Name)
	rec.Records = append(rec.Records, r)
}

// inheritedCluster returns the cluster id of the first existing record
// touching the instance.
func (rec *Recorder) inheritedCluster(instanceName string) string {
	for i := range rec.Records {
		r := &rec.Records[i]
		if (r.Original == instanceName || r.Result == instanceName) && r.ClusterID != "" {
			return r.ClusterID
		}
	}
	return ""
}

// IndicesOf returns the indices of all records with the given operation.
func (rec *Recorder) IndicesOf(op Operation) []int {
	var idx []int
	for i := range rec.Records {
		if rec.Records[i].Operation == op {
			idx = append(idx, i)
		}
	}
	return idx
}

// CountOf returns the number of records with the given operation.
func (rec *Recorder) CountOf(op Operation) int {
	return len(rec.IndicesOf(op))
}

// BankPinMapping builds the end-to-end pin mapping for a banking operation:
// data pins (D/Q/QN) of the i-th source map to their bit-indexed multi-bit
// pin starting at pinOffset (0 for FSDN cells, 1 for LSRDPQ cells whose
// pins run D1..D4), shared pins map unindexed. Paths are
// instance-qualified so the export never has to guess the owner.
func BankPinMapping(sources []*design.Instance, resultName string, pinOffset int) map[string]string {
	mapping := make(map[string]string)
	for i, src := range sources {
		for _, conn := range src.Connections {
			origPath := src.Name + "/" + conn.Pin
			var finalPin string
			switch conn.Pin {
			case "D", "Q", "QN":
				finalPin = fmt.Sprintf("%s%d", conn.Pin, i+pinOffset)
			default:
				finalPin = conn.Pin
			}
			mapping[origPath] = resultName + "/" + finalPin
		}
	}
	return mapping
}
