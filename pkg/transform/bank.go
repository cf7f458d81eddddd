package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/group"
	"github.com/matzehuels/ffbank/pkg/trail"
)

// Thresholds are the maximum Manhattan distances for spatial clustering,
// in design database units.
type Thresholds struct {
	Fsdn2   float64 `toml:"fsdn2"`
	Fsdn4   float64 `toml:"fsdn4"`
	Lsrdpq4 float64 `toml:"lsrdpq4"`
}

// DefaultThresholds are the reference clustering distances.
func DefaultThresholds() Thresholds {
	return Thresholds{Fsdn2: 10000, Fsdn4: 10000, Lsrdpq4: 10000}
}

// BankResult summarizes a banking run.
type BankResult struct {
	Rebanked    int // Pass A: debank clusters reconstituted
	Fsdn2Bit    int // Pass B phase 1: 2-bit FSDN created
	Fsdn4Bit    int // Pass B phase 2: 4-bit FSDN created
	Lsrdpq4Bit  int // Pass C: 4-bit LSRDPQ created
	BankRecords int // BANK records emitted
}

// pendingBank is one banking synthesis awaiting its record. Records are
// emitted after all passes so that 2-bit intermediates absorbed by phase 2
// never surface in the audit trail.
type pendingBank struct {
	sources    []*design.Instance
	resultName string
	resultCell string
	pinMapping map[string]string
}

// Banker re-clusters single-bit flip-flops into multi-bit cells. Three
// passes share the (module, clockNet) instance grouping: Pass A
// reconstitutes debank clusters, Pass B runs the FSDN 1→2→4 two-phase
// banking, Pass C forms LSRDPQ quadruples directly.
type Banker struct {
	DB         *design.Database
	Groups     *group.CellGroups
	Scorer     group.Scorer
	Thresholds Thresholds
	Logger     *log.Logger

	fsdn2Counter   int
	fsdn4Counter   int
	lsrdpqCounter  int
	twoBitSources  map[string][]*design.Instance
	twoBitAbsorbed map[string]bool
	twoBitCell     map[string]string
	pending        []pendingBank
}

// NewBanker returns a banker with counters at 1 and reference thresholds
// when the zero value is passed.
func NewBanker(db *design.Database, groups *group.CellGroups, scorer group.Scorer, thresholds Thresholds, logger *log.Logger) *Banker {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Banker{
		DB:             db,
		Groups:         groups,
		Scorer:         scorer,
		Thresholds:     thresholds,
		Logger:         logger,
		fsdn2Counter:   1,
		fsdn4Counter:   1,
		lsrdpqCounter:  1,
		twoBitSources:  make(map[string][]*design.Instance),
		twoBitAbsorbed: make(map[string]bool),
		twoBitCell:     make(map[string]string),
	}
}

// Run executes all three passes and emits the collected BANK records.
func (b *Banker) Run(rec *trail.Recorder) BankResult {
	var res BankResult

	res.Rebanked = b.passARebankClusters()

	buckets, keys := group.GroupInstances(b.DB, group.BankingKey)
	for _, key := range keys {
		members := buckets[key]
		created2, created4 := b.passBFsdnTwoPhase(members)
		res.Fsdn2Bit += created2
		res.Fsdn4Bit += created4
	}
	b.finalizeTwoBit()

	buckets, keys = group.GroupInstances(b.DB, group.BankingKey)
	for _, key := range keys {
		res.Lsrdpq4Bit += b.passCLsrdpq(buckets[key])
	}

	for _, op := range b.pending {
		for _, src := range op.sources {
			rec.RemoveKeep(src.Name)
		}
		rec.RecordBank(op.sources, op.resultName, op.resultCell, op.pinMapping)
		res.BankRecords++
	}
	b.pending = nil

	b.Logger.Info("banking complete",
		"rebanked", res.Rebanked, "fsdn2", res.Fsdn2Bit, "fsdn4", res.Fsdn4Bit,
		"lsrdpq4", res.Lsrdpq4Bit, "records", res.BankRecords)
	return res
}

// =============================================================================
// Pass A — debank-cluster rebanking
// =============================================================================

// passARebankClusters regroups debank fragments by their cluster id and
// reconstitutes the original MBFF when enough siblings survived
// substitution: 4 FSDN fragments form an FSDN4, 2–3 an FSDN2, and 4
// RisingLsrdpq fragments an LSRDPQ4. The new instance takes the name
// <cluster>_REBANKED at the fragment centroid.
func (b *Banker) passARebankClusters() int {
	clusters := make(map[string][]*design.Instance)
	for _, inst := range b.DB.FlipFlops() {
		if inst.ClusterID == "" || inst.BankingType == design.BankNone {
			continue
		}
		clusters[inst.ClusterID] = append(clusters[inst.ClusterID], inst)
	}
	ids := make([]string, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rebanked := 0
	for _, id := range ids {
		members := clusters[id]
		if len(members) < 2 {
			continue
		}
		sortByName(members)

		var targetKey string
		var bits int
		switch members[0].BankingType {
		case design.BankFsdn:
			if len(members) >= 4 {
				targetKey, bits = group.KeyFsdn4Bit, 4
			} else {
				targetKey, bits = group.KeyFsdn2Bit, 2
			}
		case design.BankRisingLsrdpq:
			if len(members) < 4 {
				continue
			}
			targetKey, bits = group.KeyLsrdpq4Bit, 4
		default:
			continue
		}

		optimal := b.Groups.OptimalFor(targetKey)
		if optimal == "" {
			b.Logger.Warn("no optimal cell for rebank target", "cluster", id, "group", targetKey)
			continue
		}
		sources := members[:bits]
		inst := b.synthesize(id+"_REBANKED", optimal, sources, pinOffsetFor(optimal))
		if inst == nil {
			continue
		}
		inst.ClusterID = id
		rebanked++
	}
	return rebanked
}

// =============================================================================
// Pass B — FSDN two-phase banking
// =============================================================================

// passBFsdnTwoPhase pairs 1-bit FSDN instances into 2-bit FFs, then pairs
// 2-bit FFs (including pre-existing ones) into 4-bit FFs, all within one
// (module, clockNet) group.
func (b *Banker) passBFsdnTwoPhase(members []*design.Instance) (created2, created4 int) {
	singles := filterLive(b.DB, members, func(inst *design.Instance) bool {
		return inst.BankingType == design.BankFsdn && inst.BitWidth() == 1 &&
			strings.Contains(inst.Cell.Name, "FSDN")
	})

	// Phase 1: 1-bit → 2-bit.
	var twoBits []*design.Instance
	for _, pair := range greedyClusters(singles, 2, b.Thresholds.Fsdn2) {
		key := b.Groups.KeyOf(pair[0].Cell.Name)
		targetKey := group.ReplaceBits(key, 2)
		optimal := b.Groups.OptimalFor(targetKey)
		if key == "" || targetKey == "" || optimal == "" {
			continue
		}
		name := b.mintName(pair[0].Name, "ff_fsdn2_", &b.fsdn2Counter)
		inst := b.synthesizeSilent(name, optimal, pair, 0)
		if inst == nil {
			continue
		}
		b.twoBitSources[name] = pair
		b.twoBitCell[name] = optimal
		twoBits = append(twoBits, inst)
		created2++
	}

	// Pre-existing 2-bit FSDN FFs in the group join phase 2.
	twoBits = append(twoBits, filterLive(b.DB, members, func(inst *design.Instance) bool {
		return inst.BitWidth() == 2 && strings.Contains(inst.Cell.Name, "FSDN")
	})...)
	sortByX(twoBits)

	// Phase 2: 2-bit → 4-bit. The recorded sources are the original 1-bit
	// FFs pulled from the side map, so the trail never names intermediates.
	for _, pair := range greedyClusters(twoBits, 2, b.Thresholds.Fsdn4) {
		key := b.Groups.KeyOf(pair[0].Cell.Name)
		targetKey := group.ReplaceBits(key, 4)
		optimal := b.Groups.OptimalFor(targetKey)
		if key == "" || targetKey == "" || optimal == "" {
			continue
		}
		name := b.mintName(pair[0].Name, "ff_fsdn4_", &b.fsdn4Counter)
		inst := b.synthesizeFourFromTwo(name, optimal, pair)
		if inst == nil {
			continue
		}

		var originals []*design.Instance
		for _, half := range pair {
			if srcs, ok := b.twoBitSources[half.Name]; ok {
				originals = append(originals, srcs...)
				b.twoBitAbsorbed[half.Name] = true
			} else {
				// A pre-existing 2-bit FF is its own source.
				originals = append(originals, half)
			}
		}
		b.pending = append(b.pending, pendingBank{
			sources:    originals,
			resultName: name,
			resultCell: optimal,
			pinMapping: trail.BankPinMapping(originals, name, 0),
		})
		created4++
	}
	return created2, created4
}

// finalizeTwoBit records the 2-bit syntheses phase 2 never absorbed, with
// the pin mapping running back to the original single-bit sources.
func (b *Banker) finalizeTwoBit() {
	names := make([]string, 0, len(b.twoBitSources))
	for name := range b.twoBitSources {
		if !b.twoBitAbsorbed[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sources := b.twoBitSources[name]
		b.pending = append(b.pending, pendingBank{
			sources:    sources,
			resultName: name,
			resultCell: b.twoBitCell[name],
			pinMapping: trail.BankPinMapping(sources, name, 0),
		})
	}
}

// =============================================================================
// Pass C — LSRDPQ single-phase banking
// =============================================================================

// passCLsrdpq forms quadruples of rising-edge LSRDPQ/FDP single-bit FFs and
// synthesizes one 4-bit LSRDPQ each. LSRDPQ pins are 1-based (D1..D4).
func (b *Banker) passCLsrdpq(members []*design.Instance) int {
	singles := filterLive(b.DB, members, func(inst *design.Instance) bool {
		if inst.BankingType != design.BankRisingLsrdpq || inst.BitWidth() != 1 {
			return false
		}
		name := inst.Cell.Name
		return strings.Contains(name, "LSRDPQ") || strings.Contains(name, "FDP")
	})

	optimal := b.Groups.OptimalFor(group.KeyLsrdpq4Bit)
	if optimal == "" {
		return 0
	}

	created := 0
	for _, quad := range greedyClusters(singles, 4, b.Thresholds.Lsrdpq4) {
		name := b.mintName(quad[0].Name, "ff_lsrdpq4_", &b.lsrdpqCounter)
		if b.synthesize(name, optimal, quad, 1) != nil {
			created++
		}
	}
	return created
}

// =============================================================================
// Synthesis helpers
// =============================================================================

// synthesize creates a multi-bit instance from single-bit sources, swaps it
// into the instance table, and queues its BANK record.
func (b *Banker) synthesize(name, cellName string, sources []*design.Instance, pinOffset int) *design.Instance {
	inst := b.synthesizeSilent(name, cellName, sources, pinOffset)
	if inst == nil {
		return nil
	}
	b.pending = append(b.pending, pendingBank{
		sources:    sources,
		resultName: name,
		resultCell: cellName,
		pinMapping: trail.BankPinMapping(sources, name, pinOffset),
	})
	return inst
}

// synthesizeSilent creates the multi-bit instance without queueing a record
// (phase 1 intermediates are recorded later, end-to-end).
func (b *Banker) synthesizeSilent(name, cellName string, sources []*design.Instance, pinOffset int) *design.Instance {
	cell := b.DB.Cell(cellName)
	if cell == nil {
		b.Logger.Warn("banking target cell missing from library", "cell", cellName)
		return nil
	}

	inst := design.NewInstance(name, cellName)
	inst.Cell = cell
	inst.Position = centroid(sources)
	inst.Orientation = sources[0].Orientation
	inst.Module = sources[0].Module
	inst.BankingType = sources[0].BankingType
	wireMultiBit(sources, inst, pinOffset)

	b.DB.AddInstance(inst)
	for _, src := range sources {
		b.DB.RemoveInstance(src.Name)
	}
	return inst
}

// synthesizeFourFromTwo concatenates two 2-bit FFs into a 4-bit FF:
// source i's D0,D1 become D(2i),D(2i+1); shared pins come from source 0.
func (b *Banker) synthesizeFourFromTwo(name, cellName string, pair []*design.Instance) *design.Instance {
	cell := b.DB.Cell(cellName)
	if cell == nil {
		b.Logger.Warn("banking target cell missing from library", "cell", cellName)
		return nil
	}

	inst := design.NewInstance(name, cellName)
	inst.Cell = cell
	inst.Position = centroid(pair)
	inst.Orientation = pair[0].Orientation
	inst.Module = pair[0].Module
	inst.BankingType = pair[0].BankingType

	for i, half := range pair {
		for _, conn := range half.Connections {
			if base, bit, ok := splitIndexedPin(conn.Pin); ok {
				inst.Connect(fmt.Sprintf("%s%d", base, i*2+bit), conn.Net)
			} else if i == 0 {
				inst.Connect(conn.Pin, conn.Net)
			}
		}
	}

	b.DB.AddInstance(inst)
	for _, src := range pair {
		b.DB.RemoveInstance(src.Name)
	}
	return inst
}

// wireMultiBit maps single-bit connections onto the multi-bit pins: the
// i-th source's D/Q/QN become D<i+off>/Q<i+off>/QN<i+off>, shared control
// pins come from source 0.
func wireMultiBit(sources []*design.Instance, inst *design.Instance, pinOffset int) {
	for i, src := range sources {
		for _, conn := range src.Connections {
			switch conn.Pin {
			case "D", "Q", "QN":
				inst.Connect(fmt.Sprintf("%s%d", conn.Pin, i+pinOffset), conn.Net)
			default:
				if i == 0 {
					inst.Connect(conn.Pin, conn.Net)
				}
			}
		}
	}
}

// splitIndexedPin splits "D1" into ("D", 1, true); non-data or unindexed
// pins return ok=false.
func splitIndexedPin(pin string) (base string, bit int, ok bool) {
	for _, prefix := range []string{"QN", "D", "Q"} {
		if !strings.HasPrefix(pin, prefix) || len(pin) != len(prefix)+1 {
			continue
		}
		c := pin[len(prefix)]
		if c < '0' || c > '9' {
			continue
		}
		return prefix, int(c - '0'), true
	}
	return "", 0, false
}

// mintName generates the next banked-instance name, preserving the
// hierarchy prefix of the primary source.
func (b *Banker) mintName(primarySource, stem string, counter *int) string {
	name := fmt.Sprintf("%s%d", stem, *counter)
	*counter++
	if prefix := group.HierarchyPrefix(primarySource); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

// pinOffsetFor returns 1 for LSRDPQ cells (pins D1..D4), 0 otherwise.
func pinOffsetFor(cellName string) int {
	if strings.Contains(cellName, "LSRDPQ") {
		return 1
	}
	return 0
}

// =============================================================================
// Spatial clustering
// =============================================================================

// greedyClusters is a left-to-right greedy sweep: iterate instances sorted
// by x, grow the current cluster until it reaches the target size or the
// next instance is farther than the threshold (Manhattan) from the first.
// Only exact-size clusters are returned. No optimization, by construction
// deterministic.
func greedyClusters(instances []*design.Instance, target int, threshold float64) [][]*design.Instance {
	sorted := make([]*design.Instance, len(instances))
	copy(sorted, instances)
	sortByX(sorted)

	var clusters [][]*design.Instance
	used := make([]bool, len(sorted))
	for i := range sorted {
		if used[i] {
			continue
		}
		cluster := []*design.Instance{sorted[i]}
		used[i] = true
		for j := i + 1; j < len(sorted) && len(cluster) < target; j++ {
			if used[j] {
				continue
			}
			if sorted[i].Position.ManhattanTo(sorted[j].Position) > threshold {
				break
			}
			cluster = append(cluster, sorted[j])
			used[j] = true
		}
		if len(cluster) == target {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// filterLive keeps members that still exist in the instance table and pass
// the predicate, re-reading each from the table so stale pointers from an
// earlier grouping never leak through.
func filterLive(db *design.Database, members []*design.Instance, keep func(*design.Instance) bool) []*design.Instance {
	var out []*design.Instance
	for _, m := range members {
		inst := db.Instances[m.Name]
		if inst == nil || inst.Cell == nil || !inst.IsFlipFlop() {
			continue
		}
		if keep(inst) {
			out = append(out, inst)
		}
	}
	sortByX(out)
	return out
}

func centroid(sources []*design.Instance) design.Point {
	var p design.Point
	for _, src := range sources {
		p.X += src.Position.X
		p.Y += src.Position.Y
	}
	n := float64(len(sources))
	return design.Point{X: p.X / n, Y: p.Y / n}
}

func sortByX(instances []*design.Instance) {
	sort.SliceStable(instances, func(i, j int) bool {
		if instances[i].Position.X != instances[j].Position.X {
			return instances[i].Position.X < instances[j].Position.X
		}
		return instances[i].Name < instances[j].Name
	})
}

func sortByName(instances []*design.Instance) {
	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })
}
