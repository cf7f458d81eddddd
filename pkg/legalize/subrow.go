package legalize

import (
	"math"
	"sort"

	"github.com/matzehuels/ffbank/pkg/design"
)

// siteEps absorbs numerical placement exactly on a site boundary when
// snapping obstacle edges to the site grid.
const siteEps = 1e-6

// rowState pairs a placement row with its mutable sub-row list.
type rowState struct {
	row *design.PlacementRow
	sub []subRow
}

// obstacle is one rectangle sub-rows must be carved around.
type obstacle struct {
	rect design.Rect
}

// collectObstacles gathers the footprints of placed non-flip-flop
// instances and the explicit blockage rectangles, sorted left-to-right so
// carving order is deterministic.
func collectObstacles(db *design.Database) []obstacle {
	var obs []obstacle
	for _, name := range db.InstanceNames() {
		inst := db.Instances[name]
		if inst.IsFlipFlop() {
			continue
		}
		if inst.Cell == nil {
			continue
		}
		obs = append(obs, obstacle{rect: design.Rect{
			X1: inst.Position.X,
			Y1: inst.Position.Y,
			X2: inst.Position.X + inst.Cell.Width,
			Y2: inst.Position.Y + inst.Cell.Height,
		}})
	}
	for _, rect := range db.Blockages {
		obs = append(obs, obstacle{rect: rect})
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].rect.X1 < obs[j].rect.X1 })
	return obs
}

// buildSubRows initializes one full-width sub-row per row and carves every
// obstacle out of the rows it vertically overlaps. Carving is commutative
// on disjoint sub-rows, so only the left-to-right obstacle order matters
// for determinism.
func (l *Legalizer) buildSubRows(obstacles []obstacle) {
	for i := range l.rows {
		r := l.rows[i].row
		l.rows[i].sub = []subRow{{
			XMin:        r.Origin.X,
			XMax:        r.EndX(),
			UsableWidth: r.EndX() - r.Origin.X,
			Last:        noCluster,
		}}
	}

	for _, ob := range obstacles {
		for i := range l.rows {
			r := l.rows[i].row
			if !(r.Origin.Y+r.Height > ob.rect.Y1 && r.Origin.Y < ob.rect.Y2) {
				continue
			}
			front := r.Origin.X + math.Floor((ob.rect.X1-r.Origin.X)/r.SiteWidth+siteEps)*r.SiteWidth
			back := r.Origin.X + math.Ceil((ob.rect.X2-r.Origin.X)/r.SiteWidth-siteEps)*r.SiteWidth
			l.rows[i].sub = carve(l.rows[i].sub, front, back)
		}
	}
}

// carve cuts [front, back) out of every overlapping sub-row: contained
// sub-rows vanish, edge overlaps shrink, and a middle overlap splits the
// sub-row in two. Touching at the boundary is not an overlap.
func carve(subs []subRow, front, back float64) []subRow {
	out := subs[:0]
	for _, s := range subs {
		switch {
		case s.XMax <= front || back <= s.XMin:
			out = append(out, s)
		case front <= s.XMin && back >= s.XMax:
			// erased
		case front <= s.XMin:
			s.XMin = back
			s.UsableWidth = s.XMax - s.XMin
			out = append(out, s)
		case back >= s.XMax:
			s.XMax = front
			s.UsableWidth = s.XMax - s.XMin
			out = append(out, s)
		default:
			left := subRow{XMin: s.XMin, XMax: front, UsableWidth: front - s.XMin, Last: noCluster}
			right := subRow{XMin: back, XMax: s.XMax, UsableWidth: s.XMax - back, Last: noCluster}
			out = append(out, left, right)
		}
	}
	return out
}

// findSubRowPos picks the sub-row of a row requiring the minimum
// horizontal move for the instance: 0 when the target x range is
// contained, otherwise the distance to the nearer end. Sub-rows are
// ordered by x, so the scan breaks as soon as moving right gets worse.
// Returns -1 when no sub-row has enough usable width.
func findSubRowPos(inst *design.Instance, subs []subRow) int {
	best := -1
	minMove := math.Inf(1)
	for idx := range subs {
		if inst.CellWidth() > subs[idx].UsableWidth {
			continue
		}
		move := 0.0
		if inst.Position.X < subs[idx].XMin {
			move = subs[idx].XMin - inst.Position.X
		} else if inst.Position.X+inst.CellWidth() > subs[idx].XMax {
			move = inst.Position.X + inst.CellWidth() - subs[idx].XMax
		}
		if move < minMove {
			minMove = move
			best = idx
		} else {
			break
		}
	}
	return best
}
