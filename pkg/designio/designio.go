// Package designio serializes the design model and pipeline results.
//
// Parsers for Liberty/LEF/Verilog/DEF live outside this repository; they
// hand the engine a JSON snapshot of the populated design model. This
// package reads that snapshot, re-links it, and writes the mutated model
// plus the transformation artifacts back out. The same bytes feed the
// content hash the stage cache keys on.
package designio

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/errors"
	"github.com/matzehuels/ffbank/pkg/trail"
)

// ReadDesign decodes a design snapshot and prepares it for the pipeline:
// pins are classified, instances linked to their templates, and the
// banking relations built. Instances whose cell template is missing are
// returned by name; the pipeline carries them through unchanged.
func ReadDesign(r io.Reader) (*design.Database, []string, error) {
	db := design.NewDatabase()
	if err := json.NewDecoder(r).Decode(db); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidDesign, err, "decode design")
	}
	if db.Cells == nil {
		db.Cells = make(map[string]*design.CellTemplate)
	}
	if db.Instances == nil {
		db.Instances = make(map[string]*design.Instance)
	}
	if db.Nets == nil {
		db.Nets = make(map[string]*design.Net)
	}

	for _, cell := range db.Cells {
		cell.ClassifyPins()
		if cell.BitWidth <= 0 {
			cell.BitWidth = 1
		}
	}
	for _, inst := range db.Instances {
		if inst.Weight <= 0 {
			inst.Weight = 1
		}
		if inst.BestAltScore == 0 {
			inst.BestAltScore = math.Inf(1)
		}
		for i := range inst.Connections {
			inst.Connections[i].Net = design.CanonicalNetName(inst.Connections[i].Net)
		}
	}
	missing := db.LinkInstances()
	db.BuildBankingRelations()
	return db, missing, nil
}

// LoadDesign reads a design snapshot from a file.
func LoadDesign(path string) (*design.Database, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open design %s", path)
	}
	defer f.Close()
	return ReadDesign(f)
}

// MarshalDesign encodes the design model deterministically (JSON object
// keys sort by map key, so identical designs hash identically).
func MarshalDesign(db *design.Database) ([]byte, error) {
	return json.MarshalIndent(db, "", "  ")
}

// Result bundles everything a pipeline run produces for export.
type Result struct {
	RunID string `json:"run_id,omitempty"`

	Design *design.Database `json:"design"`

	History    []trail.Record      `json:"history"`
	Pipeline   *trail.Pipeline     `json:"pipeline,omitempty"`
	PinMap     []trail.PinMapEntry `json:"pin_map,omitempty"`
	Operations []string            `json:"operations,omitempty"`
}

// MarshalResult encodes a pipeline result.
func MarshalResult(res *Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}

// WriteResult writes a pipeline result to a file.
func WriteResult(path string, res *Result) error {
	data, err := MarshalResult(res)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// UnmarshalResult decodes a pipeline result, re-linking the design.
func UnmarshalResult(data []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode result")
	}
	if res.Design != nil {
		for _, cell := range res.Design.Cells {
			cell.ClassifyPins()
		}
		res.Design.LinkInstances()
	}
	return &res, nil
}
