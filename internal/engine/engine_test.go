package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarchal/autocote/internal/config"
	"github.com/tmarchal/autocote/internal/notify"
	"github.com/tmarchal/autocote/pkg/logger"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

func intp(v int) *int { return &v }

// twelve words, so the description-length rule stays neutral
const neutralDescription = "Vends voiture en tres bon etat general entretien suivi rien a prevoir"

func newTestEngine(t *testing.T, fake *fakeStore, opts ...EngineOption) *Engine {
	t.Helper()
	cfg := config.Default()
	opts = append([]EngineOption{WithLogger(logger.Nop())}, opts...)
	return NewEngine(fake, &notify.NoOpNotifier{}, cfg, opts...)
}

func TestScoreListing(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	listing := &domain.Listing{
		ID:          "l1",
		URL:         "https://ads.example/l1",
		Title:       "Peugeot 308 1.6 THP",
		Description: neutralDescription,
		Price:       10000,
		Status:      domain.StatusActive,
	}
	fake.listings[listing.ID] = listing

	eng := newTestEngine(t, fake)

	payload := []byte(`{
		"summary": "clean listing",
		"findings": {"mechanical": [], "modification": [], "scam": []},
		"productQualityRating0to10": 8
	}`)

	rec, err := eng.ScoreListing(context.Background(), listing, payload)
	require.NoError(t, err)

	// No findings, no tags, no seller rating: neutral deal 50, base
	// confidence 50, product 80, all K factors 1.0.
	assert.InDelta(t, 50.0, rec.Base.Deal, 0.001)
	assert.InDelta(t, 50.0, rec.Base.Conf, 0.001)
	assert.InDelta(t, 80.0, rec.Base.Prod, 0.001)
	assert.InDelta(t, 1.0, rec.SanityChecks.KMeca, 0.001)
	assert.InDelta(t, 1.0, rec.SanityChecks.KModif, 0.001)
	assert.InDelta(t, 1.0, rec.SanityChecks.KScam, 0.001)
	assert.InDelta(t, 56.0, rec.Total, 0.001)

	assert.Equal(t, 10000, rec.Financial.PostedPrice)
	assert.Equal(t, 0, rec.Financial.RepairCost)
	assert.Equal(t, 10000, rec.Financial.VirtualPrice)
	assert.Nil(t, rec.Financial.MarketEstimation)

	stored := fake.listings["l1"]
	require.NotNil(t, stored.Scores)
	assert.Equal(t, rec, stored.Scores)
	assert.Equal(t, json.RawMessage(payload), stored.Analysis)
}

func TestScoreListingWithFindingsAndRepairs(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	listing := &domain.Listing{
		ID:          "l1",
		URL:         "https://ads.example/l1",
		Title:       "Renault Clio IV",
		Description: neutralDescription,
		Price:       10000,
		Status:      domain.StatusActive,
	}
	fake.listings[listing.ID] = listing

	eng := newTestEngine(t, fake)

	payload := []byte(`{
		"findings": {
			"mechanical": [{"name": "embrayage fatigue", "severity": 0.5}],
			"modification": [],
			"scam": []
		},
		"itemizedRepairCosts": [
			{"item": "embrayage", "cost": 1000},
			{"item": "distribution", "cost": 500}
		],
		"productQualityRating0to10": 8
	}`)

	rec, err := eng.ScoreListing(context.Background(), listing, payload)
	require.NoError(t, err)

	// penalty = 0.40*0.5 + 0.60*min(0.5, 1.0) = 0.5
	assert.InDelta(t, 0.5, rec.SanityChecks.KMeca, 0.001)
	assert.InDelta(t, 28.0, rec.Total, 0.001)

	assert.Equal(t, 1500, rec.Financial.RepairCost)
	assert.Equal(t, 11500, rec.Financial.VirtualPrice)
}

func TestScoreListingBadPayload(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	listing := &domain.Listing{
		ID:     "l1",
		URL:    "https://ads.example/l1",
		Price:  10000,
		Status: domain.StatusActive,
	}
	fake.listings[listing.ID] = listing

	eng := newTestEngine(t, fake)

	rec, err := eng.ScoreListing(context.Background(), listing, []byte("not json"))
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Nil(t, fake.listings["l1"].Scores)
}

func TestRescoreAllPreservesDealPillar(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	listing := &domain.Listing{
		ID:          "l1",
		URL:         "https://ads.example/l1",
		Description: neutralDescription,
		Price:       9000,
		Status:      domain.StatusActive,
		Scores: &scoring.ScoreRecord{
			Total:        70,
			Base:         scoring.BaseScores{Deal: 82.5, Conf: 50, Prod: 70},
			SanityChecks: scoring.SanityChecks{KMeca: 1, KModif: 1, KScam: 1},
			Financial: scoring.Financial{
				PostedPrice:      9000,
				VirtualPrice:     9000,
				MarketEstimation: intp(11000),
			},
		},
		Analysis: json.RawMessage(`{
			"findings": {"mechanical": [], "modification": [], "scam": []},
			"productQualityRating0to10": 6
		}`),
	}
	fake.listings[listing.ID] = listing

	eng := newTestEngine(t, fake)

	rescored, err := eng.RescoreAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rescored)

	rec := fake.listings["l1"].Scores
	require.NotNil(t, rec)
	assert.InDelta(t, 82.5, rec.Base.Deal, 0.001)
	assert.InDelta(t, 60.0, rec.Base.Prod, 0.001)
	require.NotNil(t, rec.Financial.MarketEstimation)
	assert.Equal(t, 11000, *rec.Financial.MarketEstimation)

	// 82.5*0.5 + 50*0.3 + 60*0.2 = 68.25, rounded to one decimal
	assert.InDelta(t, 68.3, rec.Total, 0.001)
}

func TestRescoreAllCollectsFailures(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	good := &domain.Listing{
		ID:          "good",
		URL:         "https://ads.example/good",
		Description: neutralDescription,
		Price:       8000,
		Status:      domain.StatusActive,
		Analysis: json.RawMessage(`{
			"findings": {"mechanical": [], "modification": [], "scam": []},
			"productQualityRating0to10": 7
		}`),
	}
	bad := &domain.Listing{
		ID:       "bad",
		URL:      "https://ads.example/bad",
		Price:    8000,
		Status:   domain.StatusActive,
		Analysis: json.RawMessage(`{{broken`),
	}
	fake.listings[good.ID] = good
	fake.listings[bad.ID] = bad

	eng := newTestEngine(t, fake)

	rescored, err := eng.RescoreAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, rescored)
	assert.NotNil(t, fake.listings["good"].Scores)
	assert.Nil(t, fake.listings["bad"].Scores)
}

func TestRunArchive(t *testing.T) {
	t.Parallel()

	fake := newFakeStore()
	fake.archived = 7

	eng := newTestEngine(t, fake)
	require.NoError(t, eng.RunArchive(context.Background()))

	runs, err := fake.ListJobRuns(context.Background(), "archive", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "succeeded", runs[0].Status)
	require.NotNil(t, runs[0].RowsAffected)
	assert.Equal(t, 7, *runs[0].RowsAffected)
	assert.NotNil(t, runs[0].CompletedAt)
}
