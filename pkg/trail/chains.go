package trail

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/ffbank/pkg/design"
)

// Chain traces one original instance to its final destination.
type Chain struct {
	Original  string   `json:"original"`
	Final     string   `json:"final"`
	Path      []string `json:"path,omitempty"`
	Banked    bool     `json:"banked,omitempty"`
	ClusterID string   `json:"cluster_id,omitempty"`
}

// BuildChains reconstructs original→final chains from the record stream.
// Debanked originals do not get chains of their own — their fragments do,
// and the debank side map collapses the fragment names during the pin
// export.
func BuildChains(rec *Recorder) map[string]Chain {
	debanked := make(map[string]bool)
	for i := range rec.Records {
		if rec.Records[i].Operation == OpDebank {
			debanked[rec.Records[i].Original] = true
		}
	}

	chains := make(map[string]Chain)
	ensure := func(name string) {
		if name == "" || debanked[name] {
			return
		}
		if _, ok := chains[name]; !ok {
			chains[name] = Chain{Original: name, Final: name}
		}
	}
	for i := range rec.Records {
		r := &rec.Records[i]
		if r.Operation == OpDebank {
			// The fragment starts a chain; the original does not.
			ensure(r.Result)
			continue
		}
		ensure(r.Original)
		if r.Operation == OpBank {
			for _, related := range r.Related {
				ensure(related)
			}
		}
	}

	update := func(name string, r *Record, step string, banked bool) {
		c, ok := chains[name]
		if !ok {
			return
		}
		c.Final = r.Result
		if step != "" {
			c.Path = append(c.Path, step)
		}
		if banked {
			c.Banked = true
		}
		if r.ClusterID != "" {
			c.ClusterID = r.ClusterID
		}
		chains[name] = c
	}

	for i := range rec.Records {
		r := &rec.Records[i]
		switch r.Operation {
		case OpKeep:
			update(r.Original, r, "", false)
		case OpSubstitute, OpPostSubstitute:
			update(r.Original, r, string(r.Operation), false)
		case OpBank:
			update(r.Original, r, string(OpBank), true)
			for _, related := range r.Related {
				update(related, r, string(OpBank), true)
			}
		}
	}
	return chains
}

// PinMapEntry is one line of the final pin-mapping export.
type PinMapEntry struct {
	OriginalInstance string `json:"original_instance"`
	OriginalPin      string `json:"original_pin"`
	FinalInstance    string `json:"final_instance"`
	FinalPin         string `json:"final_pin"`
}

// FinalPinMapping resolves every active original pin to its final
// destination. Resolution first collapses debanked pins through the side
// map, then applies the end-to-end BANK mappings; substitution never
// renames pins, so anything left resolves within the chain's final
// instance. Entries whose final instance or pin no longer exists in the
// current design are dropped — the caller treats that as a data-integrity
// warning, not a fatal error.
func FinalPinMapping(db *design.Database, rec *Recorder) []PinMapEntry {
	chains := BuildChains(rec)

	// Merge all BANK pin paths into one lookup.
	bankPaths := make(map[string]string)
	for i := range rec.Records {
		if rec.Records[i].Operation != OpBank {
			continue
		}
		maps.Copy(bankPaths, rec.Records[i].PinMapping)
	}

	// Original pins per chain come from the earliest record touching it.
	// For a plain original that is its KEEP record; for a debank fragment
	// the DEBANK record supplies the multi-bit source pins, and the export
	// reports them under the multi-bit instance name. The design no longer
	// holds consumed instances, so the records are the only source of
	// original pins.
	originalPins := make(map[string][]string)
	fragSource := make(map[string]string)
	seen := make(map[string]bool)
	for i := range rec.Records {
		r := &rec.Records[i]
		owner := r.Original
		if r.Operation == OpDebank {
			owner = r.Result
			fragSource[owner] = r.Original
		}
		if seen[owner] {
			continue
		}
		seen[owner] = true
		originalPins[owner] = slices.Sorted(maps.Keys(r.PinMapping))
	}

	var entries []PinMapEntry
	emitted := make(map[string]bool)
	for _, name := range slices.Sorted(maps.Keys(chains)) {
		chain := chains[name]
		reportAs := name
		pathBase := name
		if src, ok := fragSource[name]; ok {
			reportAs = src
			pathBase = src
		}
		for _, pin := range originalPins[name] {
			path := pathBase + "/" + pin
			if frag := rec.DebankPinPath(path); frag != "" {
				path = frag
			}
			if banked := bankPaths[path]; banked != "" {
				path = banked
			} else {
				// No bank hop: the pin lives on the chain's final instance
				// under its current name.
				path = chain.Final + "/" + pathPin(path)
			}
			finalInst, finalPin := splitPath(path)
			inst := db.Instances[finalInst]
			if inst == nil || inst.Cell == nil || inst.Cell.FindPin(finalPin) == nil {
				continue
			}
			// Shared control pins of a debanked FF surface once per
			// fragment; every original pin gets exactly one destination.
			if key := reportAs + "/" + pin; emitted[key] {
				continue
			} else {
				emitted[key] = true
			}
			entries = append(entries, PinMapEntry{
				OriginalInstance: reportAs,
				OriginalPin:      pin,
				FinalInstance:    finalInst,
				FinalPin:         finalPin,
			})
		}
	}
	return entries
}

func splitPath(path string) (inst, pin string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

func pathPin(path string) string {
	_, pin := splitPath(path)
	return pin
}
