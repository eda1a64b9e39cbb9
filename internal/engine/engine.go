// Package engine implements the core business logic loops: listing scoring,
// the per-search market refresh, lifecycle archiving, and top-deal
// notification.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmarchal/autocote/internal/config"
	"github.com/tmarchal/autocote/internal/metrics"
	"github.com/tmarchal/autocote/internal/notify"
	"github.com/tmarchal/autocote/internal/store"
	"github.com/tmarchal/autocote/pkg/market"
)

// Engine orchestrates scoring, market refresh, archiving, and notification.
type Engine struct {
	store    store.Store
	notifier notify.Notifier
	cfg      *config.Config
	log      *slog.Logger

	// newModel builds a fresh valuation model per refresh. Tests swap it to
	// inject a deterministic regressor.
	newModel func() *market.Model
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	s store.Store,
	n notify.Notifier,
	cfg *config.Config,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		store:    s,
		notifier: n,
		cfg:      cfg,
		log:      slog.Default(),
	}
	eng.newModel = func() *market.Model {
		return market.NewModel(cfg.Market.Model)
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithModelFactory overrides how valuation models are constructed.
func WithModelFactory(f func() *market.Model) EngineOption {
	return func(e *Engine) {
		e.newModel = f
	}
}

// RunArchive retires active listings whose ads have not been observed for the
// configured number of days. Archived listings stay queryable and keep their
// scores; they simply no longer count as live inventory.
func (eng *Engine) RunArchive(ctx context.Context) error {
	jobID, err := eng.store.InsertJobRun(ctx, "archive")
	if err != nil {
		return fmt.Errorf("recording archive job: %w", err)
	}

	maxAge := time.Duration(eng.cfg.Schedule.ArchiveAfterDays) * 24 * time.Hour
	archived, err := eng.store.ArchiveStaleListings(ctx, maxAge)
	if err != nil {
		eng.completeJob(ctx, jobID, "failed", err.Error(), 0)
		return fmt.Errorf("archiving stale listings: %w", err)
	}

	metrics.ListingsArchivedTotal.Add(float64(archived))
	eng.log.Info("archive pass complete", "archived", archived, "max_age", maxAge)
	eng.completeJob(ctx, jobID, "succeeded", "", archived)
	return nil
}

// completeJob records a job outcome, logging rather than failing the job on a
// bookkeeping error.
func (eng *Engine) completeJob(
	ctx context.Context,
	jobID, status, errText string,
	rows int,
) {
	if err := eng.store.CompleteJobRun(ctx, jobID, status, errText, rows); err != nil {
		eng.log.Error("completing job run failed", "job_id", jobID, "error", err)
	}
}
