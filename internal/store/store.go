// Package store defines the datastore abstraction for autocote.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables fake-based testing without a running database.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tmarchal/autocote/pkg/market"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// ListingQuery defines optional filters for listing queries.
type ListingQuery struct {
	SearchID      *string
	Status        *string
	UserStatus    *string
	MinTotal      *float64
	MaxPrice      *int
	FavoritesOnly bool
	WithAnalysis  bool
	Limit         int // default 50
	Offset        int
	OrderBy       string // "total", "price", "first_seen_at"
}

// ScoreUpdate carries one listing's recomputed score record for a bulk write.
type ScoreUpdate struct {
	ID     string
	Scores *scoring.ScoreRecord
}

// Store defines all data access operations for autocote.
type Store interface {
	// Listings
	UpsertListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	GetListingByURL(ctx context.Context, url string) (*domain.Listing, error)
	ListListings(ctx context.Context, opts *ListingQuery) ([]domain.Listing, int, error)
	UpdateScores(ctx context.Context, id string, scores *scoring.ScoreRecord, analysis json.RawMessage) error
	BulkUpdateScores(ctx context.Context, updates []ScoreUpdate) error
	ListUnscoredListings(ctx context.Context, limit int) ([]domain.Listing, error)
	ListRescorableListings(ctx context.Context) ([]domain.Listing, error)
	ListScoredActiveListings(ctx context.Context, searchID string) ([]domain.Listing, error)
	SetUserStatus(ctx context.Context, id string, status domain.UserStatus) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	MarkSold(ctx context.Context, id string) error
	ArchiveStaleListings(ctx context.Context, olderThan time.Duration) (int, error)

	// Training data
	FetchTrainingRows(ctx context.Context, searchID string) ([]market.TrainingRow, error)

	// Searches
	CreateSearch(ctx context.Context, s *domain.Search) error
	GetSearch(ctx context.Context, id string) (*domain.Search, error)
	ListSearches(ctx context.Context, activeOnly bool) ([]domain.Search, error)
	UpdateSearch(ctx context.Context, s *domain.Search) error
	DeleteSearch(ctx context.Context, id string) error
	SetSearchActive(ctx context.Context, id string, active bool) error
	UpdateSearchModelMeta(ctx context.Context, id string, meta *domain.ModelMeta) error
	TouchSearchLastRun(ctx context.Context, id string, t time.Time) error

	// Scheduler
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
