package trailviz

import (
	"strings"
	"testing"

	"github.com/matzehuels/ffbank/pkg/trail"
)

func TestToDOT(t *testing.T) {
	records := []trail.Record{
		{Operation: trail.OpKeep, Original: "u", Result: "u", OriginalCell: "FF1", ResultCell: "FF1"},
		{Operation: trail.OpDebank, Original: "m", Result: "m_BIT0", OriginalCell: "FF4", ResultCell: "FF1"},
		{
			Operation: trail.OpBank, Original: "a", Result: "bank1",
			OriginalCell: "FF1", ResultCell: "FF4", Related: []string{"b", "c", "d"},
		},
		{Operation: trail.OpSubstitute, Original: "s", Result: "s", OriginalCell: "FF1", ResultCell: "FF2"},
	}

	dot := ToDOT(records, Options{})

	if !strings.HasPrefix(dot, "digraph trail {") {
		t.Fatalf("not a digraph: %q", dot[:20])
	}
	for _, want := range []string{
		`"u"`,                          // keep node present
		`"m" -> "m_BIT0"`,              // debank edge
		`"a" -> "bank1"`,               // bank primary
		`"d" -> "bank1"`,               // bank related
		`label="debank"`, `label="bank"`,
		`"s" [xlabel="substitute"]`,    // in-place annotation
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	records := []trail.Record{
		{Operation: trail.OpKeep, Original: "u", Result: "u", OriginalCell: "FF1", ResultCell: "FF1"},
	}
	dot := ToDOT(records, Options{Detailed: true})
	if !strings.Contains(dot, `label="u\nFF1"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}
