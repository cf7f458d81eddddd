package group

import (
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
)

func sortStrings(s []string) { slices.Sort(s) }

// CellGroups holds the cell-equivalence groups of a library and the cached
// optimal cell per group. Built once after load; read-only afterwards.
type CellGroups struct {
	// Members maps "EDGE|SIG|<n>bit" keys to the member cell names.
	Members map[string][]string

	// Optimal caches the lowest-scoring member per group, ranked with
	// TimingScaleCache.
	Optimal map[string]string

	// cellKey maps each flip-flop cell name to its group key.
	cellKey map[string]string

	scorer Scorer
}

// BuildCellGroups classifies every flip-flop cell into its equivalence
// group and caches the optimal member per group. Cells with an unknown
// clock edge still land in an UNKNOWN-edge group: they remain substitutable
// against themselves but are excluded from banking by the banker's
// edge-specific target keys.
func BuildCellGroups(db *design.Database, scorer Scorer, logger *log.Logger) *CellGroups {
	g := &CellGroups{
		Members: make(map[string][]string),
		Optimal: make(map[string]string),
		cellKey: make(map[string]string),
		scorer:  scorer,
	}

	for _, name := range db.CellNames() {
		cell := db.Cells[name]
		if !cell.IsFlipFlop() {
			continue
		}
		bits := cell.BitWidth
		if bits <= 0 {
			bits = 1
		}
		edge := cell.ClockEdge
		if edge == "" {
			edge = design.EdgeUnknown
		}
		key := Key(edge, CellPinSignature(cell), bits)
		g.Members[key] = append(g.Members[key], name)
		g.cellKey[name] = key
	}

	for _, key := range slices.Sorted(maps.Keys(g.Members)) {
		best := ""
		bestScore := 0.0
		for _, name := range g.Members[key] {
			score := scorer.Score(db.Cells[name], TimingScaleCache)
			if best == "" || score < bestScore {
				best = name
				bestScore = score
			}
		}
		if best != "" {
			g.Optimal[key] = best
			logger.Debug("group optimal", "group", key, "cell", best, "score", bestScore)
		}
	}

	logger.Info("built cell equivalence groups", "groups", len(g.Members), "optimal", len(g.Optimal))
	return g
}

// KeyOf returns the group key of a flip-flop cell, "" when unknown.
func (g *CellGroups) KeyOf(cellName string) string {
	return g.cellKey[cellName]
}

// OptimalFor returns the cached optimal cell of a group, "" when the group
// does not exist or is empty.
func (g *CellGroups) OptimalFor(key string) string {
	return g.Optimal[key]
}

// Keys returns the sorted group keys.
func (g *CellGroups) Keys() []string {
	return slices.Sorted(maps.Keys(g.Members))
}
