package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/httpsdash/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency processes sites one at a time.
const DefaultConcurrency = 1

// BatchProcessor runs a fresh pipeline for every site of a crawl.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for one site.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of sites processed at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger for batch-level messages.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites processed at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. pipelineFactory is called once
// per site so no state leaks between sites.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch processes sites and returns one run per site, in the order
// of sites, regardless of completion order.
//
// A site whose pipeline fails keeps its error in run.Err and the batch
// continues. A fatal error (see model.IsFatal) cancels the remaining sites
// and is returned; runs that never started are left with a nil Site.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sites []model.SitePaths) ([]*model.SiteRun, error) {
	bp.logger.Info("processing sites",
		"total", len(sites),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	runs := make([]*model.SiteRun, len(sites))
	for i, paths := range sites {
		runs[i] = &model.SiteRun{Index: i, Paths: paths}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i := range runs {
		run := runs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				run.Err = err
				return nil
			}

			bp.logger.Debug("processing site",
				"site", run.Paths.Name,
				"index", run.Index+1,
				"total", len(runs),
			)

			err := bp.pipelineFactory().Execute(gctx, run)
			if err == nil {
				return nil
			}
			if model.IsFatal(err) {
				return err
			}
			bp.logger.Warn("site skipped",
				"site", run.Paths.Name,
				"kind", model.FailureKind(err),
				"error", err,
			)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Info("site processing complete",
		"total", len(sites),
		"elapsed", time.Since(start),
	)
	return runs, err
}
