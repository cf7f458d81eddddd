package trail

import (
	"github.com/matzehuels/ffbank/pkg/design"
)

// Stage names of the pipeline, in execution order.
const (
	StageOriginal     = "ORIGINAL"
	StageDebank       = "DEBANK"
	StageSubstitution = "SUBSTITUTION"
	StageBank         = "BANK"
	StagePostBanking  = "POST_BANKING"
	StageLegalize     = "LEGALIZE"
)

// StageOrder lists the snapshot stages in capture order.
var StageOrder = []string{
	StageOriginal, StageDebank, StageSubstitution,
	StageBank, StagePostBanking, StageLegalize,
}

// InstanceSnapshot freezes one flip-flop's state at a stage boundary.
type InstanceSnapshot struct {
	Name        string            `json:"name"`
	Cell        string            `json:"cell"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Orientation string            `json:"orientation,omitempty"`
	Pins        map[string]string `json:"pins,omitempty"`

	ClusterID     string    `json:"cluster_id,omitempty"`
	OriginalName  string    `json:"original_name,omitempty"`
	LastOperation Operation `json:"last_operation,omitempty"`
}

// StageSnapshot is the set of flip-flops alive when a stage finished, plus
// the indices of the records that stage generated.
type StageSnapshot struct {
	Stage         string             `json:"stage"`
	Instances     []InstanceSnapshot `json:"instances"`
	RecordIndices []int              `json:"record_indices,omitempty"`
}

// Pipeline collects the six stage snapshots of one run. Each stage is
// captured exactly once, after the stage finishes.
type Pipeline struct {
	Stages []StageSnapshot `json:"stages"`

	index map[string]int
}

// NewPipeline returns a pipeline with the standard stages pre-created.
func NewPipeline() *Pipeline {
	p := &Pipeline{index: make(map[string]int, len(StageOrder))}
	for _, name := range StageOrder {
		p.index[name] = len(p.Stages)
		p.Stages = append(p.Stages, StageSnapshot{Stage: name})
	}
	return p
}

// Stage returns the named stage snapshot, or nil.
func (p *Pipeline) Stage(name string) *StageSnapshot {
	if i, ok := p.index[name]; ok {
		return &p.Stages[i]
	}
	return nil
}

// Capture snapshots all live flip-flops into the named stage and attaches
// the record indices generated during the stage. The latest record touching
// each instance supplies its cluster id, original name, and last operation.
func (p *Pipeline) Capture(stageName string, db *design.Database, rec *Recorder, recordIndices []int) {
	stage := p.Stage(stageName)
	if stage == nil {
		return
	}
	stage.Instances = stage.Instances[:0]
	stage.RecordIndices = recordIndices

	// Latest record per instance name, scanning forward so later records win.
	latest := make(map[string]*Record)
	for i := range rec.Records {
		r := &rec.Records[i]
		latest[r.Original] = r
		latest[r.Result] = r
	}

	for _, inst := range db.FlipFlops() {
		snap := InstanceSnapshot{
			Name:         inst.Name,
			Cell:         inst.CellName,
			X:            inst.Position.X,
			Y:            inst.Position.Y,
			Orientation:  string(inst.Orientation),
			Pins:         make(map[string]string, len(inst.Connections)),
			OriginalName: inst.Name,
		}
		if inst.Cell != nil {
			snap.Cell = inst.Cell.Name
		}
		for _, conn := range inst.Connections {
			snap.Pins[conn.Pin] = conn.Net
		}
		if r, ok := latest[inst.Name]; ok {
			snap.ClusterID = r.ClusterID
			snap.LastOperation = r.Operation
			snap.OriginalName = r.Original
		}
		stage.Instances = append(stage.Instances, snap)
	}
}
