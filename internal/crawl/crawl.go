package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/discovery"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/pipeline"
	"github.com/nao1215/httpsdash/internal/profile"
	"github.com/nao1215/httpsdash/internal/report"
	"github.com/nao1215/httpsdash/internal/summary"
	"github.com/nao1215/httpsdash/internal/thumbnail"
)

// Output names inside a crawl output directory.
const (
	ScreenshotDirName = "site_screenshots"
	MarkdownFileName  = "summary.md"
	XLSXFileName      = "summary.xlsx"
)

// History records runs. *database.HistoryDB implements it.
type History interface {
	pipeline.DigestHistory
	StartRun(ctx context.Context, inDir, outDir string, startedAt time.Time) (string, error)
	RecordSite(ctx context.Context, runID string, result *model.SiteRun) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, numSites, numFailed int) error
}

// Deps are the collaborators of a run. The zero value is usable.
type Deps struct {
	// Logger receives progress and per-site failures. Defaults to slog.Default().
	Logger *slog.Logger

	// History records the run. Nil disables history.
	History History

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a run.
type Result struct {
	// Report carries the summary and the failed sites.
	Report *report.CrawlReport

	// RunID is the history run identifier, or "" without history.
	RunID string

	// SummaryPath is the written summary.json.
	SummaryPath string

	// ExtraReports are the written summary.md and summary.xlsx, if any.
	ExtraReports []string

	// NumProcessed is the number of sites in the summary.
	NumProcessed int

	// NumChanged is the number of processed sites whose profile differs
	// from the previous run into the same output directory.
	NumChanged int

	// Screenshots are the copied screenshot paths.
	Screenshots []string

	// Thumbnails lists what the thumbnail pass did, or nil when disabled.
	Thumbnails *thumbnail.Result

	// Runs are the discovered sites in processing order, failed ones
	// included.
	Runs []*model.SiteRun
}

// NumFailed returns the number of sites and files excluded from the summary.
func (r *Result) NumFailed() int {
	return len(r.Report.Failed)
}

// Run profiles cfg.InDir into cfg.OutDir. The returned error is non-nil
// only when the run could not complete: a missing input directory, a
// failure to write output, or cancellation.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	profileDir := filepath.Join(cfg.OutDir, profile.DirName)
	screenshotDir := filepath.Join(cfg.OutDir, ScreenshotDirName)
	for _, dir := range []string{cfg.OutDir, profileDir, screenshotDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, &model.PersistenceError{Path: dir, Err: err}
		}
	}

	discovered, err := discovery.New(
		discovery.WithExtension(cfg.CaptureExtension),
		discovery.WithLogger(logger),
	).Discover(cfg.InDir)
	if err != nil {
		return nil, err
	}
	sites := discovered.Sites()
	logger.Info("discovered sites",
		"indir", cfg.InDir,
		"http_only", len(discovered.HTTPOnly),
		"https_only", len(discovered.HTTPSOnly),
		"both", len(discovered.Both),
		"skipped", len(discovered.Skipped),
	)

	result := &Result{
		Report: &report.CrawlReport{InDir: cfg.InDir, OutDir: cfg.OutDir},
	}

	var history pipeline.DigestHistory
	if deps.History != nil {
		id, err := deps.History.StartRun(ctx, cfg.InDir, cfg.OutDir, now())
		if err != nil {
			logger.Warn("history disabled for this run", "error", err)
		} else {
			result.RunID = id
			history = deps.History
		}
	}

	var storeOpts []profile.StoreOption
	var jsonOpts []report.JSONWriterOption
	if cfg.PrettyPrint {
		storeOpts = append(storeOpts, profile.WithPrettyPrint())
		jsonOpts = append(jsonOpts, report.WithPrettyPrint())
	}
	store := profile.NewStore(profileDir, storeOpts...)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			p := pipeline.New(pipeline.WithLogger(logger))
			p.AddSteps(pipeline.DefaultSteps(store, logger, history, cfg.OutDir)...)
			return p
		},
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.BatchSize),
	)
	runs, err := bp.ProcessBatch(ctx, sites)
	if err != nil {
		return nil, err
	}
	result.Runs = runs

	agg := summary.NewAggregator()
	for _, run := range runs {
		if run.Err != nil {
			result.Report.Failed = append(result.Report.Failed, report.FailedSite{
				Site:  run.Paths.Name,
				Kind:  model.FailureKind(run.Err),
				Error: run.Err.Error(),
			})
			continue
		}
		agg.Add(run.Site)
		if run.Changed() {
			result.NumChanged++
		}
	}
	for _, rejected := range discovered.Rejected() {
		result.Report.Failed = append(result.Report.Failed, report.FailedSite{
			Site:  filepath.Base(rejected.Path),
			Kind:  model.FailureKind(rejected.Err),
			Error: rejected.Err.Error(),
		})
	}
	result.NumProcessed = agg.Len()
	result.Report.Summary = agg.Summary()

	result.SummaryPath, err = summary.Save(cfg.OutDir, result.Report.Summary, jsonOpts...)
	if err != nil {
		return nil, err
	}
	result.Report.GeneratedAt = now()
	if err := writeExtraReports(cfg, result); err != nil {
		return nil, err
	}

	if cfg.CopyScreenshots {
		result.Screenshots, err = CopyScreenshots(cfg.InDir, screenshotDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("copied screenshots", "count", len(result.Screenshots))
	}
	if cfg.Thumbnails {
		result.Thumbnails, err = thumbnail.New(
			thumbnail.WithSize(cfg.ThumbnailWidth, cfg.ThumbnailHeight),
			thumbnail.WithLogger(logger),
		).ProcessDir(screenshotDir)
		if err != nil {
			return nil, fmt.Errorf("thumbnails: %w", err)
		}
	}

	if result.RunID != "" {
		recordHistory(ctx, deps.History, result, runs, now(), logger)
	}

	logger.Info("crawl profiled",
		"outdir", cfg.OutDir,
		"processed", result.NumProcessed,
		"failed", result.NumFailed(),
		"changed", result.NumChanged,
	)
	return result, nil
}

func recordHistory(ctx context.Context, h History, result *Result, runs []*model.SiteRun, finishedAt time.Time, logger *slog.Logger) {
	for _, run := range runs {
		if run.Err != nil {
			continue
		}
		if err := h.RecordSite(ctx, result.RunID, run); err != nil {
			logger.Warn("failed to record site", "site", run.Paths.Name, "error", err)
		}
	}
	if err := h.FinishRun(ctx, result.RunID, finishedAt, result.NumProcessed, result.NumFailed()); err != nil {
		logger.Warn("failed to finish history run", "run", result.RunID, "error", err)
	}
}

func writeExtraReports(cfg *config.Config, result *Result) error {
	type extra struct {
		enabled bool
		name    string
		writer  func(io.Writer) report.Writer
	}
	extras := []extra{
		{cfg.MarkdownReport, MarkdownFileName, func(w io.Writer) report.Writer { return report.NewMarkdownWriter(w) }},
		{cfg.XLSXReport, XLSXFileName, func(w io.Writer) report.Writer { return report.NewXLSXWriter(w) }},
	}
	for _, e := range extras {
		if !e.enabled {
			continue
		}
		path := filepath.Join(cfg.OutDir, e.name)
		if err := writeReportFile(path, e.writer, result.Report); err != nil {
			return err
		}
		result.ExtraReports = append(result.ExtraReports, path)
	}
	return nil
}

func writeReportFile(path string, newWriter func(io.Writer) report.Writer, r *report.CrawlReport) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is inside the output directory
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: cerr}
		}
	}()
	if _, err := newWriter(f).Write(r); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}

// CopyScreenshots copies every *.png of srcDir into dstDir in name order and
// returns the copies. Existing copies are overwritten.
func CopyScreenshots(srcDir, dstDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(srcDir, "*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	copied := make([]string, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(dstDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return copied, err
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // screenshot inside the crawl directory
	if err != nil {
		return fmt.Errorf("open screenshot: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) //nolint:gosec // served to the dashboard
	if err != nil {
		return &model.PersistenceError{Path: dst, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &model.PersistenceError{Path: dst, Err: cerr}
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return &model.PersistenceError{Path: dst, Err: err}
	}
	return nil
}
