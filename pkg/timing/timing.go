// Package timing provides the per-cell timing surrogate table.
//
// Timing cost enters the optimization only as a precomputed scalar per cell
// name. The table is supplied by a collaborator; unknown cells map to 0 so
// that a missing entry never blocks substitution or banking.
package timing

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ffbank/pkg/errors"
)

// Table maps cell names to their timing surrogate value.
type Table map[string]float64

// Lookup returns the surrogate for a cell, 0 when unknown.
func (t Table) Lookup(cellName string) float64 {
	if t == nil {
		return 0
	}
	return t[cellName]
}

// tableFile is the TOML shape: a [cells] table of name = value pairs.
type tableFile struct {
	Cells map[string]float64 `toml:"cells"`
}

// LoadTOML reads a surrogate table from a TOML file. A missing file is not
// an error: the pipeline runs with an empty table and every cell scores a
// zero timing term.
func LoadTOML(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Table{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read timing table %s", path)
	}

	var file tableFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "decode timing table %s", path)
	}
	if file.Cells == nil {
		return Table{}, nil
	}
	return Table(file.Cells), nil
}
