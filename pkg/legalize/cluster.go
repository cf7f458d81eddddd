package legalize

import "github.com/matzehuels/ffbank/pkg/design"

// noCluster marks an absent cluster reference.
const noCluster = -1

// cluster is one left-anchored packing of placed cells inside a sub-row.
// Q is the weighted position sum Σ wᵢ·(tᵢ − Wᵢ) where tᵢ is the target x
// of the i-th member and Wᵢ the width accumulated before it; the
// unconstrained optimal anchor is Q/Weight.
type cluster struct {
	X      float64
	Width  float64
	Weight float64
	Q      float64
	Left   int // arena index of the left neighbour, noCluster if none
	Cells  []*design.Instance
}

// subRow is a blockage-free [XMin, XMax) range of one placement row.
type subRow struct {
	XMin        float64
	XMax        float64
	UsableWidth float64
	Last        int // arena index of the rightmost cluster, noCluster if none
}

// arena owns all clusters of one legalization run. Merged-away clusters
// stay allocated but unreachable; the arena frees everything at once.
type arena struct {
	clusters []cluster
}

func (a *arena) new(c cluster) int {
	a.clusters = append(a.clusters, c)
	return len(a.clusters) - 1
}

func (a *arena) at(id int) *cluster {
	return &a.clusters[id]
}

// addCell appends an instance to a cluster with target x and site-rounded
// width w.
func (a *arena) addCell(id int, inst *design.Instance, targetX, w float64) {
	c := a.at(id)
	weight := instWeight(inst)
	c.Cells = append(c.Cells, inst)
	c.Weight += weight
	c.Q += weight * (targetX - c.Width)
	c.Width += w
}

// addCluster merges the right cluster into its left predecessor.
func (a *arena) addCluster(predID, rightID int) {
	pred, right := a.at(predID), a.at(rightID)
	pred.Cells = append(pred.Cells, right.Cells...)
	oldWidth := pred.Width
	pred.Weight += right.Weight
	pred.Q += right.Q - right.Weight*oldWidth
	pred.Width += right.Width
}

func instWeight(inst *design.Instance) float64 {
	if inst.Weight <= 0 {
		return 1
	}
	return float64(inst.Weight)
}
