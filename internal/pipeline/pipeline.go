// Package pipeline orchestrates one batch run:
// locate -> load/normalize -> aggregate -> write.
//
// Families load in parallel; files within a family load in sorted order,
// so output never depends on completion order. A malformed file is logged
// and skipped. Only a missing source tree, a held run lock, or a run that
// writes nothing at all is fatal.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tskov/fitloom/internal/aggregate"
	"github.com/tskov/fitloom/internal/config"
	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/ingest"
	"github.com/tskov/fitloom/internal/locate"
	"github.com/tskov/fitloom/internal/logging"
	"github.com/tskov/fitloom/internal/snapshot"
	"github.com/tskov/fitloom/internal/tables"
)

// FamilyStats counts per-family file outcomes.
type FamilyStats struct {
	FilesProcessed int
	FilesSkipped   int
}

// Summary is the user-visible outcome of one run.
type Summary struct {
	RunID    string
	Families map[string]FamilyStats
	Rows     map[string]int64 // rows written per table
	Written  []string         // tables whose snapshot was replaced
	Failed   []string         // tables whose snapshot write failed
	Elapsed  time.Duration
}

// Pipeline executes batch runs for one configuration.
type Pipeline struct {
	cfg *config.Config
}

// New creates a pipeline.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// familyLoaders holds the concrete loaders so typed rows can be collected
// after the generic load loop.
type familyLoaders struct {
	steps     *ingest.StepsLoader
	heartRate *ingest.HeartRateLoader
	restingHR *ingest.RestingHeartRateLoader
	sleep     *ingest.SleepLoader
	zones     *ingest.ZoneMinutesLoader
	acts      *ingest.ActivitiesLoader
}

// active returns the loaders enabled by the family filter.
func (f *familyLoaders) active(cfg *config.Config) []ingest.Loader {
	all := []ingest.Loader{f.steps, f.heartRate, f.restingHR, f.sleep, f.zones, f.acts}
	var out []ingest.Loader
	for _, l := range all {
		if cfg.FamilyEnabled(l.Describe().Family) {
			out = append(out, l)
		}
	}
	return out
}

// Run executes one batch run. The returned Summary is valid even when err
// is non-nil, so callers can report partial progress.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	sum := &Summary{
		RunID:    uuid.NewString(),
		Families: make(map[string]FamilyStats),
		Rows:     make(map[string]int64),
	}
	log := logging.ForRun(sum.RunID).With("component", "pipeline")

	if _, err := os.Stat(p.cfg.SourceDir); err != nil {
		if os.IsNotExist(err) {
			return sum, errors.Wrapf(errors.ErrSourceNotFound, "%s", p.cfg.SourceDir)
		}
		return sum, err
	}

	lock, err := snapshot.AcquireRunLock(p.cfg.OutputDir)
	if err != nil {
		return sum, err
	}
	defer lock.Release()

	loc, err := p.cfg.Location()
	if err != nil {
		return sum, err
	}

	fams := &familyLoaders{
		steps:     ingest.NewSteps(loc),
		heartRate: ingest.NewHeartRate(loc),
		restingHR: ingest.NewRestingHeartRate(loc),
		sleep:     ingest.NewSleep(loc),
		zones:     ingest.NewZoneMinutes(loc),
		acts:      ingest.NewActivities(loc),
	}
	active := fams.active(p.cfg)

	// Families are independent until aggregation, so they load in
	// parallel. Each loader owns its output collection; stats land in a
	// per-family slot, so there is no shared mutable state.
	stats := make([]FamilyStats, len(active))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range active {
		i, l := i, l
		g.Go(func() error {
			s, err := p.loadFamily(gctx, log, l)
			stats[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	for i, l := range active {
		sum.Families[l.Describe().Family] = stats[i]
	}

	result := aggregate.Input{
		Steps:       fams.steps.Rows(),
		RestingHR:   fams.restingHR.Rows(),
		Sleep:       fams.sleep.Rows(),
		ZoneMinutes: fams.zones.Rows(),
		Activities:  fams.acts.Rows(),
	}
	summaryRows := aggregate.Daily(result)

	opts := snapshot.Options{
		Compression:      snapshot.ParseCompressionType(p.cfg.Compression.Algorithm),
		CompressionLevel: p.cfg.Compression.Level,
	}

	writeTable(p, log, sum, tables.Steps, result.Steps, opts)
	writeTable(p, log, sum, tables.HeartRate, fams.heartRate.Rows(), opts)
	writeTable(p, log, sum, tables.RestingHR, result.RestingHR, opts)
	writeTable(p, log, sum, tables.Sleep, result.Sleep, opts)
	writeTable(p, log, sum, tables.ZoneMinutes, result.ZoneMinutes, opts)
	writeTable(p, log, sum, tables.Activities, result.Activities, opts)
	writeTable(p, log, sum, tables.DailySummary, summaryRows, opts)

	sum.Elapsed = time.Since(start)

	log.Info("run complete",
		"tables_written", len(sum.Written),
		"tables_failed", len(sum.Failed),
		"elapsed", sum.Elapsed)

	if len(sum.Written) == 0 {
		return sum, errors.ErrNoOutput
	}
	return sum, nil
}

// loadFamily locates and loads every file of one family, skipping files
// that fail to parse.
func (p *Pipeline) loadFamily(ctx context.Context, log *slog.Logger, l ingest.Loader) (FamilyStats, error) {
	var stats FamilyStats

	desc := l.Describe()
	flog := log.With("family", desc.Family)

	paths, err := locate.Files(p.cfg.SourceDir, desc.Patterns)
	if err != nil {
		return stats, err
	}
	if len(paths) == 0 {
		flog.Debug("no source files")
		return stats, nil
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := l.Load(path); err != nil {
			if !errors.IsRecoverable(err) {
				return stats, err
			}
			stats.FilesSkipped++
			flog.Warn("file skipped", "path", path, "error", err)
			continue
		}
		stats.FilesProcessed++
	}

	flog.Info("family loaded",
		"files", stats.FilesProcessed,
		"skipped", stats.FilesSkipped)
	return stats, nil
}

// writeTable replaces one table's snapshot. An empty table is left alone:
// replacing a previous snapshot with an empty file would erase history on
// a run that merely saw no files for the family.
func writeTable[T any](p *Pipeline, log *slog.Logger, sum *Summary, name string, rows []T, opts snapshot.Options) {
	if len(rows) == 0 {
		log.Debug("no rows, snapshot unchanged", "table", name)
		return
	}

	if err := snapshot.Write(p.cfg.OutputDir, name, rows, opts); err != nil {
		sum.Failed = append(sum.Failed, name)
		log.Error("snapshot write failed", "table", name, "error", err)
		return
	}

	sum.Written = append(sum.Written, name)
	sum.Rows[name] = int64(len(rows))
	log.Info("snapshot written", "table", name, "rows", len(rows))
}
