package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ffbank/pkg/cache"
	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/designio"
	"github.com/matzehuels/ffbank/pkg/pipeline"
)

// runFlags holds the options of the run command.
type runFlags struct {
	config      string
	output      string
	alpha       float64
	beta        float64
	gamma       float64
	maxDisp     float64
	skipLegal   bool
	noCache     bool
	refresh     bool
	interactive bool
}

// newRunCmd creates the run command: the full pipeline over one design.
func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <design.json>",
		Short: "Run the full banking and legalization pipeline",
		Long: `Run executes the complete pipeline over a design snapshot:
debank multi-bit FFs, substitute cheaper equivalents, bank neighbours into
2- and 4-bit MBFFs, revert where beneficial, and legalize the result.

The design snapshot is the JSON export of the external parsers. Objective
weights come from the design, overridable via ffbank.toml or flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "ffbank.toml", "engine configuration file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "result.json", "result output path")
	cmd.Flags().Float64Var(&flags.alpha, "alpha", 0, "override TNS weight")
	cmd.Flags().Float64Var(&flags.beta, "beta", 0, "override power weight")
	cmd.Flags().Float64Var(&flags.gamma, "gamma", 0, "override area weight")
	cmd.Flags().Float64Var(&flags.maxDisp, "max-displacement", 0, "legalization displacement bound (0 = unbounded)")
	cmd.Flags().BoolVar(&flags.skipLegal, "skip-legalize", false, "stop after post-banking substitution")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass the result cache")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "show live stage progress")

	return cmd
}

func runPipeline(cmd *cobra.Command, designPath string, flags runFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := pipeline.LoadConfig(flags.config)
	if err != nil {
		// Configuration problems fall back to defaults, per policy.
		logger.Warn("config problem; using defaults", "err", err)
	}
	opts := cfg.Options()
	if flags.alpha != 0 {
		opts.Weights.Alpha = flags.alpha
	}
	if flags.beta != 0 {
		opts.Weights.Beta = flags.beta
	}
	if flags.gamma != 0 {
		opts.Weights.Gamma = flags.gamma
	}
	if flags.maxDisp != 0 {
		opts.MaxDisplacement = flags.maxDisp
	}
	opts.SkipLegalize = flags.skipLegal
	opts.Refresh = flags.refresh
	opts.Logger = logger

	db, missingCells, err := designio.LoadDesign(designPath)
	if err != nil {
		return err
	}
	for _, name := range missingCells {
		logger.Warn("instance references unknown cell; carried unchanged", "instance", name)
	}
	logger.Info("loaded design",
		"instances", len(db.Instances), "ffs", len(db.FlipFlops()), "rows", len(db.Rows))

	store := newCacheStore(flags.noCache, logger)
	runner := pipeline.NewRunner(store, nil, logger)
	defer runner.Close()

	var result *pipeline.Result
	if flags.interactive {
		result, err = runInteractive(cmd, runner, db, opts)
	} else {
		prog := newProgress(logger)
		result, err = runner.Execute(ctx, db, opts)
		if err == nil {
			prog.done(fmt.Sprintf("Pipeline finished (%d records)", result.Summary.Records))
		}
	}
	if err != nil {
		return err
	}

	if err := designio.WriteResult(flags.output, result.Export); err != nil {
		return err
	}

	printRunSummary(result)
	printFile(flags.output)
	return nil
}

// runInteractive drives the pipeline under the stage-progress TUI.
func runInteractive(cmd *cobra.Command, runner *pipeline.Runner, db *design.Database, opts pipeline.Options) (*pipeline.Result, error) {
	events, restore := installTUIHooks()
	defer restore()

	type outcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := runner.Execute(cmd.Context(), db, opts)
		done <- outcome{res, err}
	}()

	program := tea.NewProgram(NewStageProgressModel(events))
	if _, err := program.Run(); err != nil {
		return nil, err
	}
	out := <-done
	return out.result, out.err
}

// newCacheStore opens the file cache unless disabled, falling back to the
// null cache on failure.
func newCacheStore(disabled bool, logger *log.Logger) cache.Cache {
	if disabled {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err == nil {
		var store cache.Cache
		if store, err = cache.NewFileCache(dir); err == nil {
			return store
		}
	}
	logger.Warn("result cache unavailable; continuing without", "err", err)
	return cache.NewNullCache()
}

// printRunSummary renders the run summary with the UI styles.
func printRunSummary(result *pipeline.Result) {
	printNewline()
	printSuccess("Pipeline complete (run %s)", result.RunID)
	printStats(result.Summary.InitialFFs, result.Summary.FinalFFs, result.Summary.Records, result.CacheHit)
	printNewline()

	s := result.Summary
	printKeyValue("Debanked", fmt.Sprintf("%d multi-bit → %d fragments", s.Debanked, s.Fragments))
	printKeyValue("Substituted", fmt.Sprintf("%d", s.Substituted))
	printKeyValue("Rebanked", fmt.Sprintf("%d clusters", s.Rebanked))
	printKeyValue("FSDN banking", fmt.Sprintf("%d×2-bit, %d×4-bit", s.Fsdn2Banked, s.Fsdn4Banked))
	printKeyValue("LSRDPQ banking", fmt.Sprintf("%d×4-bit", s.Lsrdpq4Banked))
	printKeyValue("Post-substituted", fmt.Sprintf("%d", s.PostSubstituted))
	printKeyValue("Placed", fmt.Sprintf("%d", s.Placed))
	printKeyValue("Displacement", fmt.Sprintf("total %.0f, max %.0f", s.TotalDisplacement, s.MaxDisplacement))

	if len(s.FailedPlacements) > 0 {
		printNewline()
		printWarning("%d flip-flops could not be legalized", len(s.FailedPlacements))
		for _, name := range s.FailedPlacements {
			printDetail("%s", name)
		}
	}
}
