package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ffbank/pkg/designio"
	"github.com/matzehuels/ffbank/pkg/legalize"
)

// newLegalizeCmd creates the legalize command: Abacus legalization only,
// no netlist transformation.
func newLegalizeCmd() *cobra.Command {
	var (
		output  string
		maxDisp float64
	)

	cmd := &cobra.Command{
		Use:   "legalize <design.json>",
		Short: "Legalize flip-flop placement without transforming the netlist",
		Long: `Legalize runs only the Abacus row legalizer: sub-rows are carved
around blockages and non-FF instances, and every flip-flop is assigned a
site-aligned, overlap-free position with minimum displacement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			db, missing, err := designio.LoadDesign(args[0])
			if err != nil {
				return err
			}
			for _, name := range missing {
				logger.Warn("instance references unknown cell; carried unchanged", "instance", name)
			}

			prog := newProgress(logger)
			spin := newSpinnerWithContext(cmd.Context(), "legalizing placement")
			spin.Start()
			res := legalize.New(db, legalize.Options{MaxDisplacement: maxDisp}, logger).Run()
			spin.Stop()
			prog.done(fmt.Sprintf("Legalized %d flip-flops", res.Placed))

			printNewline()
			printSuccess("Legalization complete")
			printKeyValue("Placed", fmt.Sprintf("%d", res.Placed))
			printKeyValue("Failed", fmt.Sprintf("%d", len(res.Failed)))
			printKeyValue("Displacement", fmt.Sprintf("total %.0f, max %.0f", res.TotalDisplacement, res.MaxDisplacement))
			for _, name := range res.Failed {
				printDetail("%s left at original position", name)
			}

			if err := designio.WriteResult(output, &designio.Result{Design: db}); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "legalized.json", "result output path")
	cmd.Flags().Float64Var(&maxDisp, "max-displacement", 0, "displacement bound (0 = unbounded)")

	return cmd
}
