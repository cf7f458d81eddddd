package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ffbank/pkg/cache"
	"github.com/matzehuels/ffbank/pkg/design"
	"github.com/matzehuels/ffbank/pkg/designio"
	"github.com/matzehuels/ffbank/pkg/group"
	"github.com/matzehuels/ffbank/pkg/legalize"
	"github.com/matzehuels/ffbank/pkg/observability"
	"github.com/matzehuels/ffbank/pkg/trail"
	"github.com/matzehuels/ffbank/pkg/transform"
)

// Runner executes the pipeline with result caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Each Execute call owns its design model
// exclusively for the duration of the run.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Stats contains pipeline execution statistics.
type Stats struct {
	DebankTime     time.Duration
	SubstituteTime time.Duration
	BankTime       time.Duration
	PostSubTime    time.Duration
	LegalizeTime   time.Duration
	TotalTime      time.Duration
}

// Summary reports what the pipeline did, stage by stage.
type Summary struct {
	InitialFFs int `json:"initial_ffs"`
	FinalFFs   int `json:"final_ffs"`

	Debanked        int `json:"debanked"`
	Fragments       int `json:"fragments"`
	DebankSkipped   int `json:"debank_skipped"`
	Substituted     int `json:"substituted"`
	Rebanked        int `json:"rebanked"`
	Fsdn2Banked     int `json:"fsdn2_banked"`
	Fsdn4Banked     int `json:"fsdn4_banked"`
	Lsrdpq4Banked   int `json:"lsrdpq4_banked"`
	PostSubstituted int `json:"post_substituted"`

	Placed            int      `json:"placed"`
	FailedPlacements  []string `json:"failed_placements,omitempty"`
	TotalDisplacement float64  `json:"total_displacement"`
	MaxDisplacement   float64  `json:"max_displacement"`

	MissingCells []string `json:"missing_cells,omitempty"`
	Records      int      `json:"records"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies the run in logs and exports.
	RunID string

	// Design is the mutated model (also reachable via Export.Design).
	Design *design.Database

	// Recorder holds the transformation history.
	Recorder *trail.Recorder

	// Pipeline holds the six stage snapshots.
	Pipeline *trail.Pipeline

	// Export is the serializable result bundle.
	Export *designio.Result

	Summary Summary
	Stats   Stats

	// CacheHit reports whether the whole result came from cache.
	CacheHit bool
}

// Execute runs the complete pipeline over the design with caching.
// The design is mutated in place on a cache miss; on a hit the cached
// export is returned and db is left untouched.
func (r *Runner) Execute(ctx context.Context, db *design.Database, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	runID := uuid.NewString()
	start := time.Now()
	observability.Pipeline().OnRunStart(ctx, runID, db.Name, len(db.FlipFlops()))

	// Result cache: key on the design snapshot plus the shaping options.
	designData, err := designio.MarshalDesign(db)
	if err != nil {
		return nil, fmt.Errorf("hash design: %w", err)
	}
	cacheKey := r.Keyer.ResultKey(cache.Hash(designData), opts.ResultKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if export, err := designio.UnmarshalResult(data); err == nil {
				observability.CacheEvents().OnCacheHit(ctx, cacheKey)
				logger.Info("pipeline result served from cache", "run", export.RunID)
				result := &Result{
					RunID:    export.RunID,
					Design:   export.Design,
					Pipeline: export.Pipeline,
					Export:   export,
					CacheHit: true,
				}
				result.Summary.Records = len(export.History)
				if export.Design != nil {
					result.Summary.FinalFFs = len(export.Design.FlipFlops())
				}
				return result, nil
			}
		}
		observability.CacheEvents().OnCacheMiss(ctx, cacheKey)
	}

	result := r.run(ctx, db, opts, logger, runID)
	result.Stats.TotalTime = time.Since(start)
	observability.Pipeline().OnRunComplete(ctx, runID, result.Stats.TotalTime, nil)

	if data, err := designio.MarshalResult(result.Export); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLResult)
	}
	return result, nil
}

// run executes the stages against the design. Never returns an error: the
// pipeline is fail-open end to end.
func (r *Runner) run(ctx context.Context, db *design.Database, opts Options, logger *log.Logger, runID string) *Result {
	rec := trail.NewRecorder()
	pipe := trail.NewPipeline()
	summary := Summary{InitialFFs: len(db.FlipFlops())}
	var stats Stats

	weights := opts.Weights
	if weights == (design.ObjectiveWeights{}) {
		weights = db.Weights
	}
	scorer := group.Scorer{Weights: weights, Timing: opts.Timing}

	rec.Init(db)
	pipe.Capture(trail.StageOriginal, db, rec, nil)

	// Stage: debank
	stage := r.stage(ctx, trail.StageDebank, db, logger)
	debankRes := transform.Debank(db, rec, logger)
	summary.Debanked = debankRes.Debanked
	summary.Fragments = debankRes.Fragments
	summary.DebankSkipped = debankRes.Skipped
	pipe.Capture(trail.StageDebank, db, rec, rec.IndicesOf(trail.OpDebank))
	stats.DebankTime = stage()

	// Stage: three-stage substitution
	stage = r.stage(ctx, trail.StageSubstitution, db, logger)
	cellGroups := group.BuildCellGroups(db, scorer, logger)
	substituter := &transform.Substituter{DB: db, Groups: cellGroups, Scorer: scorer, Logger: logger}
	subRes := substituter.Run(rec)
	summary.Substituted = subRes.Recorded
	pipe.Capture(trail.StageSubstitution, db, rec, rec.IndicesOf(trail.OpSubstitute))
	stats.SubstituteTime = stage()

	// Stage: banking
	stage = r.stage(ctx, trail.StageBank, db, logger)
	group.AssignBankingTypes(db, logger)
	banker := transform.NewBanker(db, cellGroups, scorer, opts.Thresholds, logger)
	bankRes := banker.Run(rec)
	summary.Rebanked = bankRes.Rebanked
	summary.Fsdn2Banked = bankRes.Fsdn2Bit
	summary.Fsdn4Banked = bankRes.Fsdn4Bit
	summary.Lsrdpq4Banked = bankRes.Lsrdpq4Bit
	pipe.Capture(trail.StageBank, db, rec, rec.IndicesOf(trail.OpBank))
	stats.BankTime = stage()

	// Stage: post-banking substitution
	stage = r.stage(ctx, trail.StagePostBanking, db, logger)
	summary.PostSubstituted = transform.PostSubstitute(db, scorer, rec, logger)
	pipe.Capture(trail.StagePostBanking, db, rec, rec.IndicesOf(trail.OpPostSubstitute))
	stats.PostSubTime = stage()

	// Stage: legalization
	if !opts.SkipLegalize {
		stage = r.stage(ctx, trail.StageLegalize, db, logger)
		legRes := legalize.New(db, opts.LegalizeOptions(), logger).Run()
		summary.Placed = legRes.Placed
		summary.FailedPlacements = legRes.Failed
		summary.TotalDisplacement = legRes.TotalDisplacement
		summary.MaxDisplacement = legRes.MaxDisplacement
		pipe.Capture(trail.StageLegalize, db, rec, nil)
		stats.LegalizeTime = stage()
	}

	summary.FinalFFs = len(db.FlipFlops())
	summary.Records = len(rec.Records)

	export := &designio.Result{
		RunID:      runID,
		Design:     db,
		History:    rec.Records,
		Pipeline:   pipe,
		PinMap:     trail.FinalPinMapping(db, rec),
		Operations: trail.NewOperationLog().Lines(rec),
	}

	logger.Info("pipeline complete", "run", runID,
		"ffs", fmt.Sprintf("%d→%d", summary.InitialFFs, summary.FinalFFs),
		"records", summary.Records)

	return &Result{
		RunID:    runID,
		Design:   db,
		Recorder: rec,
		Pipeline: pipe,
		Export:   export,
		Summary:  summary,
		Stats:    stats,
	}
}

// stage emits the start hook and returns a closer that emits the complete
// hook and reports the elapsed time.
func (r *Runner) stage(ctx context.Context, name string, db *design.Database, logger *log.Logger) func() time.Duration {
	start := time.Now()
	ffs := len(db.FlipFlops())
	observability.Pipeline().OnStageStart(ctx, name, ffs)
	logger.Debug("stage start", "stage", name, "ffs", ffs)
	return func() time.Duration {
		d := time.Since(start)
		observability.Pipeline().OnStageComplete(ctx, name, d, nil)
		return d
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
