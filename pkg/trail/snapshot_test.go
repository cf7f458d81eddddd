package trail

import (
	"testing"
)

func TestPipelineCapture(t *testing.T) {
	db := newFFDB(
		ffInstance("a", "FF1", map[string]string{"D": "n1", "CK": "clk"}),
	)
	rec := NewRecorder()
	rec.Init(db)

	pipe := NewPipeline()
	pipe.Capture(StageOriginal, db, rec, nil)

	stage := pipe.Stage(StageOriginal)
	if stage == nil {
		t.Fatal("original stage missing")
	}
	if len(stage.Instances) != 1 {
		t.Fatalf("snapshot has %d instances, want 1", len(stage.Instances))
	}
	snap := stage.Instances[0]
	if snap.Name != "a" || snap.Cell != "FF1" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Pins["D"] != "n1" {
		t.Errorf("snapshot pins = %v", snap.Pins)
	}
	if snap.LastOperation != OpKeep {
		t.Errorf("last operation = %q, want KEEP", snap.LastOperation)
	}
}

func TestPipelineCaptureTracksLatestRecord(t *testing.T) {
	db := newFFDB(ffInstance("a", "FF1", nil))
	rec := NewRecorder()
	rec.Init(db)
	rec.RecordSubstitute(db.Instances["a"], "FF1", "FF1_CHEAP")

	pipe := NewPipeline()
	pipe.Capture(StageSubstitution, db, rec, rec.IndicesOf(OpSubstitute))

	stage := pipe.Stage(StageSubstitution)
	if stage.Instances[0].LastOperation != OpSubstitute {
		t.Errorf("last operation = %q, want SUBSTITUTE", stage.Instances[0].LastOperation)
	}
	if len(stage.RecordIndices) != 1 {
		t.Errorf("record indices = %v, want one entry", stage.RecordIndices)
	}
}

func TestPipelineUnknownStageIgnored(t *testing.T) {
	db := newFFDB(ffInstance("a", "FF1", nil))
	pipe := NewPipeline()
	pipe.Capture("NOT_A_STAGE", db, NewRecorder(), nil)

	for _, s := range pipe.Stages {
		if len(s.Instances) != 0 {
			t.Errorf("stage %s unexpectedly populated", s.Stage)
		}
	}
}
