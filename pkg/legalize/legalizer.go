package legalize

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
)

// alignmentTolerance is the site-alignment test tolerance:
// abs(offset/step − round(offset/step)) must stay below it.
const alignmentTolerance = 1e-9

// Options configure a legalization run.
type Options struct {
	// MaxDisplacement bounds the distance any cell may move from its
	// pre-legalization position. Zero or negative means unbounded.
	MaxDisplacement float64 `toml:"max_displacement"`
}

// Result summarizes a legalization run.
type Result struct {
	Placed            int
	Failed            []string
	TotalDisplacement float64
	MaxDisplacement   float64
}

// Legalizer assigns flip-flops to rows Abacus-style.
type Legalizer struct {
	db      *design.Database
	maxDisp float64
	logger  *log.Logger

	rows  []rowState // sorted by origin.y
	arena arena
}

// New prepares a legalizer: rows get IDs and normalized heights/site
// widths and are ordered by y. Sub-rows are built when Run executes.
func New(db *design.Database, opts Options, logger *log.Logger) *Legalizer {
	maxDisp := opts.MaxDisplacement
	if maxDisp <= 0 {
		maxDisp = math.Inf(1)
	}
	l := &Legalizer{db: db, maxDisp: maxDisp, logger: logger}

	for i := range db.Rows {
		db.Rows[i].Normalize()
		l.rows = append(l.rows, rowState{row: &db.Rows[i]})
	}
	sort.SliceStable(l.rows, func(i, j int) bool {
		return l.rows[i].row.Origin.Y < l.rows[j].row.Origin.Y
	})
	for i := range l.rows {
		l.rows[i].row.ID = i
	}
	return l
}

// Run legalizes all flip-flop instances and returns the placement summary.
// Non-flip-flops keep their position and act as obstacles.
func (l *Legalizer) Run() Result {
	var ffs []*design.Instance
	for _, name := range l.db.InstanceNames() {
		inst := l.db.Instances[name]
		if inst.IsFlipFlop() {
			ffs = append(ffs, inst)
		} else {
			inst.NewX = inst.Position.X
			inst.NewY = inst.Position.Y
		}
	}

	l.buildSubRows(collectObstacles(l.db))

	sort.SliceStable(ffs, func(i, j int) bool {
		if ffs[i].Position.X != ffs[j].Position.X {
			return ffs[i].Position.X < ffs[j].Position.X
		}
		return ffs[i].Name < ffs[j].Name
	})

	var res Result
	for _, inst := range ffs {
		if l.placeInstance(inst) {
			res.Placed++
		} else {
			inst.NewX = inst.Position.X
			inst.NewY = inst.Position.Y
			res.Failed = append(res.Failed, inst.Name)
			l.logger.Warn("no row accepts instance; leaving at original position",
				"instance", inst.Name, "x", inst.Position.X, "y", inst.Position.Y)
		}
	}

	l.layoutClusters()

	res.TotalDisplacement, res.MaxDisplacement = l.displacement(ffs)
	l.logger.Info("legalization complete",
		"placed", res.Placed, "failed", len(res.Failed),
		"total_displacement", res.TotalDisplacement,
		"max_displacement", res.MaxDisplacement)
	return res
}

// placeInstance finds and commits the cheapest (row, sub-row) for one
// instance. Returns false when nothing accepts it.
func (l *Legalizer) placeInstance(inst *design.Instance) bool {
	if len(l.rows) == 0 || inst.Cell == nil {
		return false
	}
	origin := l.closestRow(inst.Position.Y)

	cBest := math.Inf(1)
	bestRow, bestSub := -1, -1

	// Walk outward from the closest row in both directions at once,
	// pruning a direction as soon as its pure y-distance already exceeds
	// the best full cost seen.
	for i := 0; i < len(l.rows); i++ {
		up := origin + i
		down := origin - i

		tryUp := up < len(l.rows) &&
			math.Abs(inst.Position.Y-l.rows[up].row.Origin.Y) < cBest
		tryDown := i > 0 && down >= 0 &&
			math.Abs(inst.Position.Y-l.rows[down].row.Origin.Y) < cBest
		if !tryUp && !tryDown {
			break
		}

		if tryUp {
			if sub := findSubRowPos(inst, l.rows[up].sub); sub != -1 {
				if cost := l.placeRow(up, sub, inst, false); cost < cBest {
					cBest, bestRow, bestSub = cost, up, sub
				}
			}
		}
		if tryDown {
			if sub := findSubRowPos(inst, l.rows[down].sub); sub != -1 {
				if cost := l.placeRow(down, sub, inst, false); cost < cBest {
					cBest, bestRow, bestSub = cost, down, sub
				}
			}
		}
	}

	if bestRow == -1 {
		return false
	}
	l.placeRow(bestRow, bestSub, inst, true)
	inst.Status = design.StatusPlaced
	return true
}

// closestRow returns the index of the row whose origin.y is nearest to y;
// an exact midpoint resolves to the lower row.
func (l *Legalizer) closestRow(y float64) int {
	idx := sort.Search(len(l.rows), func(i int) bool {
		return l.rows[i].row.Origin.Y >= y
	})
	if idx == 0 {
		return 0
	}
	if idx == len(l.rows) {
		return len(l.rows) - 1
	}
	below, above := l.rows[idx-1].row.Origin.Y, l.rows[idx].row.Origin.Y
	if y-below <= above-y {
		return idx - 1
	}
	return idx
}

// nominalX snaps the instance's target x into the sub-row on the site grid.
func nominalX(inst *design.Instance, row *design.PlacementRow, s *subRow) float64 {
	x := inst.Position.X
	switch {
	case x <= s.XMin:
		return s.XMin
	case x+inst.CellWidth() >= s.XMax:
		x = s.XMax - inst.CellWidth()
	}
	return math.Floor((x-s.XMin)/row.SiteWidth)*row.SiteWidth + s.XMin
}

// placeRow inserts the instance into (row, sub-row). With commit=false it
// simulates the cluster merge chain without mutating and returns the
// displacement the instance would incur (math.Inf(1) when the
// max-displacement bound would be violated, for the instance itself or any
// already-placed member of a touched cluster). With commit=true it mutates
// the cluster structure for real.
func (l *Legalizer) placeRow(rowIdx, subIdx int, inst *design.Instance, commit bool) float64 {
	row := l.rows[rowIdx].row
	s := &l.rows[rowIdx].sub[subIdx]

	w := math.Ceil(inst.CellWidth()/row.SiteWidth) * row.SiteWidth
	tempX := nominalX(inst, row, s)

	var trialX float64
	if commit {
		s.UsableWidth -= w
		if s.Last == noCluster || l.arena.at(s.Last).X+l.arena.at(s.Last).Width <= tempX {
			id := l.arena.new(cluster{X: tempX, Left: s.Last})
			s.Last = id
			inst.NewX = tempX
			inst.NewY = row.Origin.Y
			l.arena.addCell(id, inst, tempX, w)
		} else {
			l.arena.addCell(s.Last, inst, tempX, w)
			l.collapse(s, row)
		}
		trialX = inst.NewX
	} else {
		if s.Last == noCluster || l.arena.at(s.Last).X+l.arena.at(s.Last).Width <= tempX {
			trialX = tempX
		} else {
			last := l.arena.at(s.Last)
			weight := instWeight(inst)
			W := last.Weight + weight
			Q := last.Q + weight*(tempX-last.Width)
			TW := last.Width + w

			var x float64
			touched := []int{}
			curr := s.Last
			for {
				x = s.XMin + math.Floor((Q/W-s.XMin)/row.SiteWidth)*row.SiteWidth
				if x < s.XMin {
					x = s.XMin
				}
				if x+TW > s.XMax {
					x = s.XMax - TW
				}
				touched = append(touched, curr)

				pred := l.arena.at(curr).Left
				if pred != noCluster && l.arena.at(pred).X+l.arena.at(pred).Width > x {
					p := l.arena.at(pred)
					Q += p.Q - W*p.Width
					W += p.Weight
					TW += p.Width
					curr = pred
				} else {
					break
				}
			}
			trialX = x + TW - w

			// Every member of a touched cluster shifts; reject the trial
			// if any would exceed the displacement bound.
			memberX := x
			for _, id := range touched {
				for _, cell := range l.arena.at(id).Cells {
					dx := cell.Position.X - memberX
					dy := cell.Position.Y - row.Origin.Y
					if math.Sqrt(dx*dx+dy*dy) > l.maxDisp {
						return math.Inf(1)
					}
					memberX += math.Ceil(cell.CellWidth()/row.SiteWidth) * row.SiteWidth
				}
			}
		}
	}

	dx := inst.Position.X - trialX
	dy := inst.Position.Y - row.Origin.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if !commit && dist > l.maxDisp {
		return math.Inf(1)
	}
	return dist
}

// collapse re-anchors the sub-row's last cluster at its optimal snapped x
// and merges leftward while it overlaps its predecessor.
func (l *Legalizer) collapse(s *subRow, row *design.PlacementRow) {
	id := s.Last
	for {
		c := l.arena.at(id)
		x := math.Floor((c.Q/c.Weight-s.XMin)/row.SiteWidth)*row.SiteWidth + s.XMin
		if x < s.XMin {
			x = s.XMin
		}
		if x+c.Width > s.XMax {
			x = s.XMax - c.Width
		}
		c.X = x

		pred := c.Left
		if pred != noCluster && l.arena.at(pred).X+l.arena.at(pred).Width > x {
			l.arena.addCluster(pred, id)
			id = pred
		} else {
			break
		}
	}
	s.Last = id
}

// layoutClusters walks every sub-row's cluster chain right-to-left and
// writes the final site-aligned coordinates onto the member instances.
func (l *Legalizer) layoutClusters() {
	for i := range l.rows {
		row := l.rows[i].row
		for j := range l.rows[i].sub {
			s := &l.rows[i].sub[j]
			for id := s.Last; id != noCluster; id = l.arena.at(id).Left {
				c := l.arena.at(id)
				x := s.XMin + math.Floor((c.X-s.XMin)/row.SiteWidth)*row.SiteWidth
				for _, inst := range c.Cells {
					inst.NewX = x
					inst.NewY = row.Origin.Y
					x += math.Ceil(inst.CellWidth()/row.SiteWidth) * row.SiteWidth
				}
			}
		}
	}
}

// displacement totals Euclidean displacement over the flip-flops.
func (l *Legalizer) displacement(ffs []*design.Instance) (total, maxDisp float64) {
	for _, inst := range ffs {
		dx := inst.NewX - inst.Position.X
		dy := inst.NewY - inst.Position.Y
		d := math.Sqrt(dx*dx + dy*dy)
		total += d
		if d > maxDisp {
			maxDisp = d
		}
	}
	return total, maxDisp
}

// Aligned reports whether x sits on the site grid of the row.
func Aligned(x float64, row *design.PlacementRow) bool {
	if row.SiteWidth <= 0 {
		return false
	}
	offset := (x - row.Origin.X) / row.SiteWidth
	return math.Abs(offset-math.Round(offset)) < alignmentTolerance
}
