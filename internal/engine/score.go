package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmarchal/autocote/internal/analysis"
	"github.com/tmarchal/autocote/internal/metrics"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// ScoreListing computes and persists the score record for one listing from a
// textual-analysis payload. The deal pillar starts at the neutral base; the
// next market refresh replaces it once a fair price exists. When the listing
// already carries a deal score it is preserved, so re-scoring after a config
// change does not reset the deal pillar.
func (eng *Engine) ScoreListing(
	ctx context.Context,
	listing *domain.Listing,
	payload []byte,
) (*scoring.ScoreRecord, error) {
	parsed, err := analysis.Parse(payload)
	if err != nil {
		metrics.ScoringErrorsTotal.Inc()
		return nil, fmt.Errorf("parsing analysis for %s: %w", listing.ID, err)
	}

	rec := eng.computeRecord(listing, parsed)

	if err := eng.store.UpdateScores(ctx, listing.ID, &rec, payload); err != nil {
		metrics.ScoringErrorsTotal.Inc()
		return nil, fmt.Errorf("persisting scores for %s: %w", listing.ID, err)
	}

	metrics.ScoringListingsTotal.Inc()
	metrics.ScoringDistribution.Observe(rec.Total)

	listing.Scores = &rec
	listing.Analysis = payload
	return &rec, nil
}

// RescoreAll recomputes every listing that has a stored analysis payload.
// Used after a scoring configuration change. Failures are collected per
// listing; one bad payload does not stop the pass.
func (eng *Engine) RescoreAll(ctx context.Context) (int, error) {
	listings, err := eng.store.ListRescorableListings(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing rescorable: %w", err)
	}

	var errs []error
	rescored := 0

	for i := range listings {
		l := &listings[i]
		if _, err := eng.ScoreListing(ctx, l, l.Analysis); err != nil {
			errs = append(errs, err)
			continue
		}
		rescored++
	}

	eng.log.Info("rescore pass complete", "rescored", rescored, "failed", len(errs))
	return rescored, errors.Join(errs...)
}

// computeRecord assembles the composite input from the listing and its
// parsed analysis, then runs the scorer.
func (eng *Engine) computeRecord(
	listing *domain.Listing,
	parsed analysis.Payload,
) scoring.ScoreRecord {
	in := scoring.CompositeInput{
		PostedPrice: listing.Price,
		RepairCost:  parsed.RepairCost(),
		Confidence: scoring.ConfidenceInput{
			TagsPositive:         parsed.TagsPositive,
			TagsNegative:         parsed.TagsNegative,
			SellerRating:         listing.SellerRating,
			SellerRatingCount:    listing.SellerRatingCount,
			DescriptionWordCount: listing.DescriptionWordCount(),
		},
		ProductRating0to10: parsed.ProductRating,
		Findings:           parsed.Findings,
	}

	// Carry the existing deal pillar through a rescore.
	if listing.Scores != nil {
		deal := listing.Scores.Base.Deal
		in.DealScore = &deal
		if est := listing.Scores.Financial.MarketEstimation; est != nil {
			f := float64(*est)
			in.MarketEstimation = &f
		}
	}

	return scoring.Score(in, eng.cfg.Scoring.Composite())
}
