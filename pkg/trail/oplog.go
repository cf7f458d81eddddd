package trail

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// OperationLog renders the record stream as an operation script:
// split_multibit for debanking, size_cell for substitutions, and
// create_multibit for banking. Debank fragments are published under minted
// dummy names so downstream tools never see the internal _BIT suffixes.
type OperationLog struct {
	dummyCounter int
	dummyToReal  map[string]string
	realToDummy  map[string]string
}

// NewOperationLog returns a log generator with its dummy counter at 1.
func NewOperationLog() *OperationLog {
	return &OperationLog{
		dummyCounter: 1,
		dummyToReal:  make(map[string]string),
		realToDummy:  make(map[string]string),
	}
}

// DummyFor returns the dummy name minted for a real instance, or "".
func (l *OperationLog) DummyFor(real string) string { return l.realToDummy[real] }

// RealFor returns the real instance behind a dummy name, or "".
func (l *OperationLog) RealFor(dummy string) string { return l.dummyToReal[dummy] }

func (l *OperationLog) mintDummy(real string) string {
	dummy := fmt.Sprintf("dummy_%d", l.dummyCounter)
	l.dummyCounter++
	l.dummyToReal[dummy] = real
	l.realToDummy[real] = dummy
	return dummy
}

func (l *OperationLog) nameFor(real string) string {
	if dummy, ok := l.realToDummy[real]; ok {
		return dummy
	}
	return real
}

// Lines generates the full operation list in logical order:
// DEBANK → SUBSTITUTE → BANK → POST_SUBSTITUTE.
func (l *OperationLog) Lines(rec *Recorder) []string {
	var lines []string
	lines = append(lines, l.splitMultibitLines(rec)...)
	lines = append(lines, l.sizeCellLines(rec)...)
	lines = append(lines, l.createMultibitLines(rec)...)
	lines = append(lines, l.postSubstituteLines(rec)...)
	return lines
}

// splitMultibitLines groups DEBANK records by their multi-bit original and
// emits one split_multibit line each, minting dummies for the fragments.
func (l *OperationLog) splitMultibitLines(rec *Recorder) []string {
	groups := make(map[string][]*Record)
	for i := range rec.Records {
		r := &rec.Records[i]
		if r.Operation == OpDebank {
			groups[r.Original] = append(groups[r.Original], r)
		}
	}

	var lines []string
	for _, original := range slices.Sorted(maps.Keys(groups)) {
		records := groups[original]
		var b strings.Builder
		fmt.Fprintf(&b, "split_multibit { {%s %s %d} ", original, records[0].OriginalCell, len(records))
		for _, r := range records {
			fmt.Fprintf(&b, "{%s %s 1} ", l.mintDummy(r.Result), r.ResultCell)
		}
		b.WriteString("}")
		lines = append(lines, b.String())
	}
	return lines
}

// sizeCellLines emits one size_cell line per SUBSTITUTE record, using
// dummy names where one was minted.
func (l *OperationLog) sizeCellLines(rec *Recorder) []string {
	var lines []string
	for i := range rec.Records {
		r := &rec.Records[i]
		if r.Operation != OpSubstitute {
			continue
		}
		lines = append(lines, fmt.Sprintf("size_cell {%s %s %s}",
			l.nameFor(r.Original), r.OriginalCell, r.ResultCell))
	}
	return lines
}

// postSubstituteLines emits one size_cell line per POST_SUBSTITUTE record.
// The instance name is always emitted verbatim — never a minted dummy, even
// for a debank fragment that has one.
func (l *OperationLog) postSubstituteLines(rec *Recorder) []string {
	var lines []string
	for i := range rec.Records {
		r := &rec.Records[i]
		if r.Operation != OpPostSubstitute {
			continue
		}
		lines = append(lines, fmt.Sprintf("size_cell {%s %s %s}",
			r.Original, r.OriginalCell, r.ResultCell))
	}
	return lines
}

// createMultibitLines emits one create_multibit line per BANK record with
// all sources (dummy-substituted) and the multi-bit result.
func (l *OperationLog) createMultibitLines(rec *Recorder) []string {
	var lines []string
	for i := range rec.Records {
		r := &rec.Records[i]
		if r.Operation != OpBank {
			continue
		}
		var b strings.Builder
		b.WriteString("create_multibit { ")
		fmt.Fprintf(&b, "{%s %s 1} ", l.nameFor(r.Original), r.OriginalCell)
		for _, related := range r.Related {
			fmt.Fprintf(&b, "{%s %s 1} ", l.nameFor(related), r.OriginalCell)
		}
		fmt.Fprintf(&b, "{%s %s %d} }", r.Result, r.ResultCell, r.Arity())
		lines = append(lines, b.String())
	}
	return lines
}
