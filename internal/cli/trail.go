package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ffbank/pkg/designio"
	"github.com/matzehuels/ffbank/pkg/render/trailviz"
)

// newTrailCmd creates the trail command: render a result's transformation
// trail as DOT, SVG, or PNG.
func newTrailCmd() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "trail <result.json>",
		Short: "Render the transformation trail of a pipeline result",
		Long: `Trail renders the record stream of a pipeline run as a node-link
diagram: debank, substitute, bank, and post-substitute edges from every
original flip-flop to its final destination.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := designio.UnmarshalResult(data)
			if err != nil {
				return err
			}

			dot := trailviz.ToDOT(result.History, trailviz.Options{Detailed: detailed})

			var rendered []byte
			switch strings.ToLower(format) {
			case "dot":
				rendered = []byte(dot)
			case "svg":
				rendered, err = trailviz.RenderSVG(dot)
			case "png":
				rendered, err = trailviz.RenderPNG(dot)
			default:
				return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png)", format)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = os.Stdout.Write(rendered)
				return err
			}
			if err := os.WriteFile(output, rendered, 0644); err != nil {
				return err
			}
			printSuccess("Rendered %d records", len(result.History))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "trail.svg", "output path ('-' for stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include cell types in node labels")

	return cmd
}
