// Package pipeline wires the stage transforms to the lake. Each Run*
// method is one complete batch stage: resolve input, transform, write both
// formats, publish the layer manifest.
package pipeline

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/angelcm/medallion-etl-go/internal/clean"
	"github.com/angelcm/medallion-etl-go/internal/config"
	"github.com/angelcm/medallion-etl-go/internal/errs"
	"github.com/angelcm/medallion-etl-go/internal/generator"
	"github.com/angelcm/medallion-etl-go/internal/kpis"
	"github.com/angelcm/medallion-etl-go/internal/lake"
	"github.com/angelcm/medallion-etl-go/internal/metrics"
	"github.com/angelcm/medallion-etl-go/internal/table"
)

// Layer prefixes for persisted files.
const (
	PrefixMarketing = "marketing"
	PrefixMetrics   = "marketing_metrics"
)

// Stage names used in logs and errors.
const (
	StageBronze = "bronze"
	StageSilver = "silver"
	StageGold   = "gold"
)

// Runner executes pipeline stages.
type Runner struct {
	cfg   config.Config
	log   *slog.Logger
	clock func() time.Time
}

// NewRunner builds a runner over the given configuration and logger.
func NewRunner(cfg config.Config, log *slog.Logger) *Runner {
	return &Runner{cfg: cfg, log: log, clock: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (r *Runner) WithClock(clock func() time.Time) *Runner {
	r.clock = clock
	return r
}

// RunBronze generates the synthetic dataset and writes the raw layer.
func (r *Runner) RunBronze() error {
	met := metrics.NewRegistry(StageBronze)
	start := r.clock()
	log := r.stageLogger(StageBronze)

	seed := r.cfg.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	gen, err := generator.New(rng, r.cfg.Generator)
	if err != nil {
		return r.fail(log, StageBronze, err)
	}

	// Parquet stores extraction_date at millisecond precision; truncate so
	// the CSV twin encodes the same instants.
	runTS := start.UTC().Truncate(time.Millisecond)
	log.Info("generating records",
		slog.Int("count", r.cfg.Records),
		slog.Int64("seed", seed),
		slog.String("policy", r.cfg.Generator.Policy))
	t, err := generator.BuildDataset(r.cfg.Records, gen, runTS)
	if err != nil {
		return r.fail(log, StageBronze, err)
	}
	met.RecordsGenerated.Add(float64(t.Len()))

	if err := r.publish(log, met, StageBronze, r.cfg.Lake.BronzeDir, PrefixMarketing, t, runTS); err != nil {
		return err
	}
	r.finish(log, met, start)
	return nil
}

// RunSilver cleans the latest bronze table and writes the silver layer.
func (r *Runner) RunSilver() error {
	met := metrics.NewRegistry(StageSilver)
	start := r.clock()
	log := r.stageLogger(StageSilver)

	path, err := lake.LatestFile(r.cfg.Lake.BronzeDir, PrefixMarketing, ".parquet")
	if err != nil {
		return r.fail(log, StageSilver, err)
	}
	log.Info("loading bronze table", slog.String("path", path))
	in, err := lake.ReadParquet(path)
	if err != nil {
		return r.fail(log, StageSilver, err)
	}

	runTS := start.UTC().Truncate(time.Millisecond)
	out, stats, err := clean.Clean(in, clean.Options{ValidateFunnel: r.cfg.Cleaner.ValidateFunnel}, runTS)
	if err != nil {
		return r.fail(log, StageSilver, err)
	}
	met.DuplicatesDropped.Add(float64(stats.DuplicatesDropped))
	met.ValuesImputed.Add(float64(stats.ValuesImputed))
	log.Info("cleaned table",
		slog.Int("rows_in", in.Len()),
		slog.Int("rows_out", out.Len()),
		slog.Int("duplicates_dropped", stats.DuplicatesDropped),
		slog.Int("values_imputed", stats.ValuesImputed))

	if err := r.publish(log, met, StageSilver, r.cfg.Lake.SilverDir, PrefixMarketing, out, runTS); err != nil {
		return err
	}
	r.finish(log, met, start)
	return nil
}

// RunGold derives KPI columns from the latest silver table and writes the
// gold layer.
func (r *Runner) RunGold() error {
	met := metrics.NewRegistry(StageGold)
	start := r.clock()
	log := r.stageLogger(StageGold)

	path, err := lake.LatestFile(r.cfg.Lake.SilverDir, PrefixMarketing, ".parquet")
	if err != nil {
		return r.fail(log, StageGold, err)
	}
	log.Info("loading silver table", slog.String("path", path))
	in, err := lake.ReadParquet(path)
	if err != nil {
		return r.fail(log, StageGold, err)
	}

	runTS := start.UTC().Truncate(time.Millisecond)
	out, err := kpis.Compute(in, runTS)
	if err != nil {
		return r.fail(log, StageGold, err)
	}
	log.Info("computed kpis", slog.Int("rows", out.Len()))

	if err := r.publish(log, met, StageGold, r.cfg.Lake.GoldDir, PrefixMetrics, out, runTS); err != nil {
		return err
	}
	r.finish(log, met, start)
	return nil
}

// publish writes both formats and then the layer manifest.
func (r *Runner) publish(log *slog.Logger, met *metrics.Registry, stage, dir, prefix string, t *table.Table, runTS time.Time) error {
	files, err := lake.WriteTable(dir, prefix, t, runTS)
	if err != nil {
		return r.fail(log, stage, err)
	}
	met.RowsWritten.Add(float64(t.Len()))
	m := lake.Manifest{
		RunID:                uuid.NewString(),
		Stage:                stage,
		Rows:                 t.Len(),
		Files:                files,
		CreatedAtEpochSecond: runTS.Unix(),
	}
	if err := lake.PublishManifest(dir, m); err != nil {
		return r.fail(log, stage, err)
	}
	log.Info("layer published",
		slog.String("dir", dir),
		slog.Int("rows", t.Len()),
		slog.String("run_id", m.RunID),
		slog.Any("files", files))
	return nil
}

func (r *Runner) stageLogger(stage string) *slog.Logger {
	return r.log.With(slog.String("stage", stage))
}

// fail logs one fatal record naming the stage and condition and returns
// the stage-annotated error.
func (r *Runner) fail(log *slog.Logger, stage string, err error) error {
	err = errs.WithStage(err, stage)
	log.Error("stage failed", slog.String("err", err.Error()))
	return err
}

func (r *Runner) finish(log *slog.Logger, met *metrics.Registry, start time.Time) {
	met.RunSeconds.Set(r.clock().Sub(start).Seconds())
	met.Log(log)
	log.Info("stage complete", slog.Duration("elapsed", r.clock().Sub(start)))
}
