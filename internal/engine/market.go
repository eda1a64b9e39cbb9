package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tmarchal/autocote/internal/metrics"
	"github.com/tmarchal/autocote/internal/notify"
	"github.com/tmarchal/autocote/internal/store"
	"github.com/tmarchal/autocote/pkg/market"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// RunMarketRefresh retrains the valuation model for every active search and
// re-derives the deal pillar of its scored listings. Searches refresh in
// parallel, bounded by the configured concurrency; one failing scope does not
// stop the others.
func (eng *Engine) RunMarketRefresh(ctx context.Context) error {
	jobID, err := eng.store.InsertJobRun(ctx, "market_refresh")
	if err != nil {
		return fmt.Errorf("recording market refresh job: %w", err)
	}

	searches, err := eng.store.ListSearches(ctx, true)
	if err != nil {
		eng.completeJob(ctx, jobID, "failed", err.Error(), 0)
		return fmt.Errorf("listing searches: %w", err)
	}

	var updated atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eng.cfg.Market.RefreshConcurrency)

	for i := range searches {
		sc := &searches[i]
		g.Go(func() error {
			n, refreshErr := eng.refreshSearch(gctx, sc)
			updated.Add(int64(n))
			if refreshErr != nil {
				eng.log.Error("market refresh failed",
					"search", sc.Name, "id", sc.ID, "error", refreshErr)
			}
			// Isolate scope failures from one another.
			return nil
		})
	}

	_ = g.Wait()

	eng.completeJob(ctx, jobID, "succeeded", "", int(updated.Load()))
	return nil
}

// RefreshSearchMarket refreshes the valuation model for a single search
// scope. The API's per-search refresh endpoint calls it directly.
func (eng *Engine) RefreshSearchMarket(ctx context.Context, searchID string) (int, error) {
	sc, err := eng.store.GetSearch(ctx, searchID)
	if err != nil {
		return 0, fmt.Errorf("loading search %s: %w", searchID, err)
	}
	return eng.refreshSearch(ctx, sc)
}

// refreshSearch trains one scope's model and refreshes its deal scores.
// Returns the number of listings whose scores were rewritten.
func (eng *Engine) refreshSearch(ctx context.Context, sc *domain.Search) (int, error) {
	start := time.Now()
	defer func() {
		metrics.MarketRefreshDuration.Observe(time.Since(start).Seconds())
	}()

	rows, err := eng.store.FetchTrainingRows(ctx, sc.ID)
	if err != nil {
		return 0, fmt.Errorf("fetching training rows: %w", err)
	}

	cohort := market.CleanCohort(rows, eng.cfg.Market.Veto, eng.cfg.Market.Outliers)
	metrics.MarketCohortSize.Set(float64(len(cohort)))

	model := eng.newModel()
	if err := model.Train(cohort); err != nil {
		return 0, fmt.Errorf("training model: %w", err)
	}

	now := time.Now()
	meta := &domain.ModelMeta{SampleN: len(cohort)}
	if model.IsTrained() {
		meta.R2 = model.R2()
		meta.Features = model.Features()
		meta.TrainedAt = &now
	}
	if err := eng.store.UpdateSearchModelMeta(ctx, sc.ID, meta); err != nil {
		return 0, fmt.Errorf("updating model meta: %w", err)
	}

	if !model.IsTrained() {
		// Existing deal scores stay in place until enough data accumulates.
		metrics.MarketModelsSkippedTotal.Inc()
		eng.log.Info("cohort too small, model left untrained",
			"search", sc.Name, "cohort", len(cohort),
			"min_samples", eng.cfg.Market.Model.MinSamples)
		return 0, nil
	}
	metrics.MarketModelsTrainedTotal.Inc()

	listings, err := eng.store.ListScoredActiveListings(ctx, sc.ID)
	if err != nil {
		return 0, fmt.Errorf("listing scored listings: %w", err)
	}

	updates, deals := eng.refreshDeals(model, listings)

	if err := eng.store.BulkUpdateScores(ctx, updates); err != nil {
		return 0, fmt.Errorf("writing refreshed scores: %w", err)
	}
	if err := eng.store.TouchSearchLastRun(ctx, sc.ID, now); err != nil {
		return 0, fmt.Errorf("touching search: %w", err)
	}

	eng.log.Info("market refresh complete",
		"search", sc.Name, "cohort", len(cohort),
		"refreshed", len(updates), "top_deals", len(deals))

	eng.notifyTopDeals(ctx, sc.Name, deals)
	return len(updates), nil
}

// refreshDeals predicts a fair price per listing and recombines its score
// record around the new deal pillar. Listings without the model's features or
// with a degenerate prediction keep their current scores.
func (eng *Engine) refreshDeals(
	model *market.Model,
	listings []domain.Listing,
) ([]store.ScoreUpdate, []notify.DealPayload) {
	var updates []store.ScoreUpdate
	var deals []notify.DealPayload

	for i := range listings {
		l := &listings[i]
		if l.Scores == nil || l.Year == nil || l.Mileage == nil {
			continue
		}

		var hp *float64
		if l.Horsepower != nil {
			v := float64(*l.Horsepower)
			hp = &v
		}

		fair := model.PredictPrice(float64(*l.Year), float64(*l.Mileage), hp)
		if fair == nil || *fair <= 0 {
			continue
		}

		// The posted price may have moved since scoring; the virtual price
		// is re-derived from the current price so a drop shows up in the
		// deal pillar immediately.
		virtual := l.Price + l.Scores.Financial.RepairCost
		deal := market.DealScoreFromRatio(float64(virtual) / *fair, eng.cfg.Market.Ratios)

		rec := *l.Scores
		rec.Base.Deal = deal
		rec.Financial.PostedPrice = l.Price
		rec.Financial.VirtualPrice = virtual
		est := int(math.Round(*fair))
		rec.Financial.MarketEstimation = &est
		rec.Total = scoring.CombineTotal(rec.Base, rec.SanityChecks, eng.cfg.Scoring.Weights)

		updates = append(updates, store.ScoreUpdate{ID: l.ID, Scores: &rec})

		if rec.Total >= eng.cfg.Notifications.MinTotalScore {
			deals = append(deals, notify.DealPayload{
				Title:        l.Title,
				URL:          l.URL,
				Price:        fmt.Sprintf("%d EUR", l.Price),
				VirtualPrice: fmt.Sprintf("%d EUR", rec.Financial.VirtualPrice),
				MarketPrice:  fmt.Sprintf("%d EUR", est),
				Total:        rec.Total,
				Deal:         rec.Base.Deal,
				Confidence:   rec.Base.Conf,
				KScam:        rec.SanityChecks.KScam,
			})
		}
	}

	return updates, deals
}

func (eng *Engine) notifyTopDeals(ctx context.Context, searchName string, deals []notify.DealPayload) {
	if len(deals) == 0 {
		return
	}

	for i := range deals {
		deals[i].SearchName = searchName
	}

	if err := eng.notifier.SendBatchDeals(ctx, deals, searchName); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		eng.log.Error("top-deal notification failed", "search", searchName, "error", err)
		return
	}
	metrics.NotificationsSentTotal.Add(float64(len(deals)))
}
