//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tmarchal/autocote/internal/store"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("autocote_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func testListing(url string) *domain.Listing {
	rating := 0.95
	return &domain.Listing{
		URL:               url,
		Title:             "Peugeot 308 1.6 BlueHDi 120 Allure",
		Description:       "Entretien complet carnet a jour factures disponibles deuxieme main non fumeur",
		Price:             9800,
		Mileage:           intp(112000),
		Year:              intp(2017),
		Fuel:              "diesel",
		Gearbox:           "manual",
		Horsepower:        intp(120),
		Location:          "Nantes",
		Zipcode:           "44000",
		SellerRating:      &rating,
		SellerRatingCount: 12,
	}
}

func testScores(total float64, kScam float64) *scoring.ScoreRecord {
	return &scoring.ScoreRecord{
		Total: total,
		Base: scoring.BaseScores{
			Deal: 50,
			Conf: 65,
			Prod: 70,
		},
		SanityChecks: scoring.SanityChecks{
			KMeca:  1.0,
			KModif: 1.0,
			KScam:  kScam,
		},
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_UpsertListing(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("insert new listing", func(t *testing.T) {
		l := testListing("https://example.org/ad/1001")
		require.NoError(t, s.UpsertListing(ctx, l))
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, domain.StatusActive, l.Status)
		assert.Equal(t, domain.UserStatusNormal, l.UserStatus)
		assert.False(t, l.FirstSeenAt.IsZero())

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		require.Len(t, got.PriceHistory, 1)
		assert.Equal(t, 9800, got.PriceHistory[0].Price)
	})

	t.Run("price change appends to history", func(t *testing.T) {
		l := testListing("https://example.org/ad/1002")
		require.NoError(t, s.UpsertListing(ctx, l))
		firstID := l.ID
		firstSeen := l.FirstSeenAt

		l2 := testListing("https://example.org/ad/1002")
		l2.Price = 9200
		require.NoError(t, s.UpsertListing(ctx, l2))

		assert.Equal(t, firstID, l2.ID)
		assert.Equal(t, firstSeen, l2.FirstSeenAt)

		got, err := s.GetListing(ctx, l2.ID)
		require.NoError(t, err)
		assert.Equal(t, 9200, got.Price)
		require.Len(t, got.PriceHistory, 2)
		assert.Equal(t, 9200, got.PriceHistory[1].Price)
	})

	t.Run("unchanged price leaves history alone", func(t *testing.T) {
		l := testListing("https://example.org/ad/1003")
		require.NoError(t, s.UpsertListing(ctx, l))
		require.NoError(t, s.UpsertListing(ctx, testListing("https://example.org/ad/1003")))

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Len(t, got.PriceHistory, 1)
	})

	t.Run("re-seen archived listing becomes active", func(t *testing.T) {
		l := testListing("https://example.org/ad/1004")
		require.NoError(t, s.UpsertListing(ctx, l))

		// Force it stale, then archive.
		_, err := s.ArchiveStaleListings(ctx, -time.Hour)
		require.NoError(t, err)

		l2 := testListing("https://example.org/ad/1004")
		require.NoError(t, s.UpsertListing(ctx, l2))
		assert.Equal(t, domain.StatusActive, l2.Status)
	})

	t.Run("search membership recorded", func(t *testing.T) {
		sc := &domain.Search{Name: "308 diesel", Query: "peugeot 308 hdi", Active: true}
		require.NoError(t, s.CreateSearch(ctx, sc))

		l := testListing("https://example.org/ad/1005")
		l.SearchIDs = []string{sc.ID}
		require.NoError(t, s.UpsertListing(ctx, l))

		got, err := s.GetListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{sc.ID}, got.SearchIDs)
	})
}

func TestPostgresStore_GetListingByURL(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	l := testListing("https://example.org/ad/2001")
	require.NoError(t, s.UpsertListing(ctx, l))

	got, err := s.GetListingByURL(ctx, "https://example.org/ad/2001")
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)

	_, err = s.GetListingByURL(ctx, "https://example.org/ad/nope")
	assert.True(t, store.IsNotFound(err))
}

func TestPostgresStore_UpdateScores(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	l := testListing("https://example.org/ad/3001")
	require.NoError(t, s.UpsertListing(ctx, l))

	analysis := json.RawMessage(`{"summary":"clean listing"}`)
	require.NoError(t, s.UpdateScores(ctx, l.ID, testScores(72.5, 1.0), analysis))

	got, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Scores)
	assert.InDelta(t, 72.5, got.Scores.Total, 0.001)
	assert.JSONEq(t, `{"summary":"clean listing"}`, string(got.Analysis))
}

func TestPostgresStore_BulkUpdateScores(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	var updates []store.ScoreUpdate
	for i := range 3 {
		l := testListing(fmt.Sprintf("https://example.org/ad/40%02d", i))
		require.NoError(t, s.UpsertListing(ctx, l))
		updates = append(updates, store.ScoreUpdate{
			ID:     l.ID,
			Scores: testScores(float64(60+i), 1.0),
		})
	}

	require.NoError(t, s.BulkUpdateScores(ctx, updates))

	for i, u := range updates {
		got, err := s.GetListing(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Scores)
		assert.InDelta(t, float64(60+i), got.Scores.Total, 0.001)
	}
}

func TestPostgresStore_UnscoredAndRescorable(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	l := testListing("https://example.org/ad/5001")
	require.NoError(t, s.UpsertListing(ctx, l))

	// No analysis yet: the listing is in neither list.
	unscored, err := s.ListUnscoredListings(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, unscored)

	require.NoError(t, s.UpdateScores(ctx, l.ID, testScores(55, 1.0), json.RawMessage(`{}`)))

	rescorable, err := s.ListRescorableListings(ctx)
	require.NoError(t, err)
	require.Len(t, rescorable, 1)
	assert.Equal(t, l.ID, rescorable[0].ID)
}

func TestPostgresStore_StatusTransitions(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	l := testListing("https://example.org/ad/6001")
	require.NoError(t, s.UpsertListing(ctx, l))

	require.NoError(t, s.SetUserStatus(ctx, l.ID, domain.UserStatusTrash))
	require.NoError(t, s.SetFavorite(ctx, l.ID, true))
	require.NoError(t, s.MarkSold(ctx, l.ID))

	got, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusTrash, got.UserStatus)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, domain.StatusSold, got.Status)
}

func TestPostgresStore_ArchiveStaleListings(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	l := testListing("https://example.org/ad/7001")
	require.NoError(t, s.UpsertListing(ctx, l))

	// Nothing is older than an hour yet.
	n, err := s.ArchiveStaleListings(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A negative cutoff makes everything stale.
	n, err = s.ArchiveStaleListings(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, got.Status)
}

func TestPostgresStore_FetchTrainingRows(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	sc := &domain.Search{Name: "cohort", Query: "clio", Active: true}
	require.NoError(t, s.CreateSearch(ctx, sc))

	scored := testListing("https://example.org/ad/8001")
	scored.SearchIDs = []string{sc.ID}
	require.NoError(t, s.UpsertListing(ctx, scored))
	require.NoError(t, s.UpdateScores(ctx, scored.ID, testScores(70, 0.85), json.RawMessage(`{}`)))

	bare := testListing("https://example.org/ad/8002")
	bare.SearchIDs = []string{sc.ID}
	bare.Mileage = nil
	require.NoError(t, s.UpsertListing(ctx, bare))

	outside := testListing("https://example.org/ad/8003")
	require.NoError(t, s.UpsertListing(ctx, outside))

	rows, err := s.FetchTrainingRows(ctx, sc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2, "only listings in the search scope")

	var withScores, withoutMileage int
	for _, r := range rows {
		if r.HasScores {
			withScores++
			require.NotNil(t, r.ScamK)
			assert.InDelta(t, 0.85, *r.ScamK, 0.001)
		}
		if r.Mileage == nil {
			withoutMileage++
		}
	}
	assert.Equal(t, 1, withScores)
	assert.Equal(t, 1, withoutMileage)
}

func TestPostgresStore_SearchCRUD(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	sc := &domain.Search{
		Name:     "Clio IV essence",
		Query:    "renault clio iv",
		MinYear:  intp(2014),
		MaxPrice: intp(12000),
		Active:   true,
	}
	require.NoError(t, s.CreateSearch(ctx, sc))
	assert.NotEmpty(t, sc.ID)

	got, err := s.GetSearch(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clio IV essence", got.Name)
	require.NotNil(t, got.MinYear)
	assert.Equal(t, 2014, *got.MinYear)
	assert.Nil(t, got.ModelMeta)

	got.Name = "Clio IV (updated)"
	got.MaxPrice = intp(11000)
	require.NoError(t, s.UpdateSearch(ctx, got))

	updated, err := s.GetSearch(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clio IV (updated)", updated.Name)

	// Model meta round-trip.
	now := time.Now().Truncate(time.Microsecond)
	meta := &domain.ModelMeta{
		R2:        floatp(0.83),
		Features:  []string{"year", "mileage"},
		TrainedAt: &now,
		SampleN:   42,
	}
	require.NoError(t, s.UpdateSearchModelMeta(ctx, sc.ID, meta))

	withMeta, err := s.GetSearch(ctx, sc.ID)
	require.NoError(t, err)
	require.NotNil(t, withMeta.ModelMeta)
	assert.InDelta(t, 0.83, *withMeta.ModelMeta.R2, 0.001)
	assert.Equal(t, 42, withMeta.ModelMeta.SampleN)

	// Deactivate, then list active only.
	require.NoError(t, s.SetSearchActive(ctx, sc.ID, false))
	active, err := s.ListSearches(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListSearches(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteSearch(ctx, sc.ID))
	_, err = s.GetSearch(ctx, sc.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestPostgresStore_JobRuns(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	id, err := s.InsertJobRun(ctx, "market_refresh")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, s.CompleteJobRun(ctx, id, "succeeded", "", 17))

	runs, err := s.ListJobRuns(ctx, "market_refresh", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "succeeded", runs[0].Status)
	require.NotNil(t, runs[0].RowsAffected)
	assert.Equal(t, 17, *runs[0].RowsAffected)

	latest, err := s.ListLatestJobRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}
