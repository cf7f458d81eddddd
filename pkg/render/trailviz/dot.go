// Package trailviz renders the transformation trail as a node-link diagram.
//
// Every original flip-flop and every synthesized result becomes a node;
// each record contributes edges from its sources to its result, labelled
// with the operation. The DOT output renders to SVG or PNG via Graphviz.
package trailviz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ffbank/pkg/trail"
)

// Options configures trail rendering.
type Options struct {
	// Detailed includes cell types in node labels.
	// When false, only the instance name is shown.
	Detailed bool
}

// edge styling per operation.
var edgeAttrs = map[trail.Operation]string{
	trail.OpDebank:         "color=\"#b58900\", label=\"debank\"",
	trail.OpSubstitute:     "color=\"#268bd2\", label=\"subst\"",
	trail.OpBank:           "color=\"#859900\", label=\"bank\"",
	trail.OpPostSubstitute: "color=\"#6c71c4\", label=\"post\"",
}

// ToDOT converts a record stream to Graphviz DOT. KEEP records contribute
// lone nodes so untouched flip-flops still appear in the diagram.
func ToDOT(records []trail.Record, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph trail {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("\n")

	seen := make(map[string]bool)
	node := func(name, cell string) {
		if seen[name] {
			return
		}
		seen[name] = true
		label := name
		if opts.Detailed && cell != "" {
			label = name + "\n" + cell
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", name, label)
	}

	for i := range records {
		r := &records[i]
		node(r.Original, r.OriginalCell)
		if r.Operation == trail.OpKeep {
			continue
		}
		node(r.Result, r.ResultCell)

		attrs := edgeAttrs[r.Operation]
		if r.Operation == trail.OpBank {
			// All sources feed the banked result.
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Original, r.Result, attrs)
			for _, related := range r.Related {
				node(related, r.OriginalCell)
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", related, r.Result, attrs)
			}
			continue
		}
		if r.Original == r.Result {
			// In-place substitution: annotate the node instead of a
			// self-edge.
			fmt.Fprintf(&buf, "  %q [xlabel=%q];\n", r.Original, strings.ToLower(string(r.Operation)))
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Original, r.Result, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
