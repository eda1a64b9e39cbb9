package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tmarchal/autocote/pkg/market"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// UpsertListing inserts or updates a listing by URL. A price change appends
// to the price history; a re-seen archived listing becomes active again.
// Search membership rows are added for every ID in l.SearchIDs.
func (s *PostgresStore) UpsertListing(ctx context.Context, l *domain.Listing) error {
	args := pgx.NamedArgs{
		"url":                 l.URL,
		"title":               l.Title,
		"description":         l.Description,
		"price":               l.Price,
		"mileage":             l.Mileage,
		"year":                l.Year,
		"fuel":                l.Fuel,
		"gearbox":             l.Gearbox,
		"horsepower":          l.Horsepower,
		"trim_level":          l.Trim,
		"location":            l.Location,
		"zipcode":             l.Zipcode,
		"seller_rating":       l.SellerRating,
		"seller_rating_count": l.SellerRatingCount,
		"published_at":        l.PublishedAt,
	}

	err := s.pool.QueryRow(ctx, queryUpsertListing, args).Scan(
		&l.ID, &l.Status, &l.UserStatus, &l.IsFavorite,
		&l.FirstSeenAt, &l.LastSeenAt, &l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting listing: %w", err)
	}

	for _, searchID := range l.SearchIDs {
		if _, err := s.pool.Exec(ctx, queryLinkListingSearch, searchID, l.ID); err != nil {
			return fmt.Errorf("linking listing to search %s: %w", searchID, err)
		}
	}

	return nil
}

// GetListing retrieves a listing by its internal UUID.
func (s *PostgresStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l := &domain.Listing{}
	if err := scanListing(s.pool.QueryRow(ctx, queryGetListingByID, id), l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetListingByURL retrieves a listing by its source URL.
func (s *PostgresStore) GetListingByURL(ctx context.Context, url string) (*domain.Listing, error) {
	l := &domain.Listing{}
	if err := scanListing(s.pool.QueryRow(ctx, queryGetListingByURL, url), l); err != nil {
		return nil, err
	}
	return l, nil
}

// ListListings queries listings with optional filters, returning results and total count.
func (s *PostgresStore) ListListings(
	ctx context.Context,
	opts *ListingQuery,
) ([]domain.Listing, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	// Get total count.
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	listings, err := s.queryListings(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// UpdateScores stores a freshly computed score record and the analysis
// payload it was derived from.
func (s *PostgresStore) UpdateScores(
	ctx context.Context,
	id string,
	scores *scoring.ScoreRecord,
	analysis json.RawMessage,
) error {
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshaling scores: %w", err)
	}

	if _, err := s.pool.Exec(ctx, queryUpdateScores, id, scoresJSON, analysis); err != nil {
		return fmt.Errorf("updating scores: %w", err)
	}
	return nil
}

// BulkUpdateScores writes many recomputed score records in a single batch
// round-trip. Used by the market refresh, which touches every active listing
// in a search scope.
func (s *PostgresStore) BulkUpdateScores(ctx context.Context, updates []ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		scoresJSON, err := json.Marshal(u.Scores)
		if err != nil {
			return fmt.Errorf("marshaling scores for %s: %w", u.ID, err)
		}
		batch.Queue(queryUpdateScoresOnly, u.ID, scoresJSON)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("executing score batch: %w", err)
		}
	}

	return results.Close()
}

// ListUnscoredListings returns listings that have an analysis payload but no
// score record yet.
func (s *PostgresStore) ListUnscoredListings(
	ctx context.Context,
	limit int,
) ([]domain.Listing, error) {
	return s.queryListings(ctx, queryListUnscoredListings, limit)
}

// ListRescorableListings returns every listing whose stored analysis payload
// allows its scores to be recomputed.
func (s *PostgresStore) ListRescorableListings(ctx context.Context) ([]domain.Listing, error) {
	return s.queryListings(ctx, queryListRescorableListings)
}

// ListScoredActiveListings returns the active, scored listings in a search
// scope. The market refresh re-derives deal scores for exactly this set.
func (s *PostgresStore) ListScoredActiveListings(
	ctx context.Context,
	searchID string,
) ([]domain.Listing, error) {
	return s.queryListings(ctx, queryListScoredActiveListings, searchID)
}

// SetUserStatus sets the operator flag on a listing.
func (s *PostgresStore) SetUserStatus(
	ctx context.Context,
	id string,
	status domain.UserStatus,
) error {
	_, err := s.pool.Exec(ctx, querySetUserStatus, id, string(status))
	if err != nil {
		return fmt.Errorf("setting user status: %w", err)
	}
	return nil
}

// SetFavorite flags or unflags a listing as a favorite.
func (s *PostgresStore) SetFavorite(ctx context.Context, id string, favorite bool) error {
	_, err := s.pool.Exec(ctx, querySetFavorite, id, favorite)
	if err != nil {
		return fmt.Errorf("setting favorite: %w", err)
	}
	return nil
}

// MarkSold flags a listing as sold.
func (s *PostgresStore) MarkSold(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, queryMarkSold, id)
	if err != nil {
		return fmt.Errorf("marking listing sold: %w", err)
	}
	return nil
}

// ArchiveStaleListings archives active listings not seen since the cutoff.
// Returns the number of listings archived.
func (s *PostgresStore) ArchiveStaleListings(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryArchiveStaleListings, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archiving stale listings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// FetchTrainingRows loads the raw training cohort for a search scope.
// No filtering happens here; cohort cleaning is the market package's job.
func (s *PostgresStore) FetchTrainingRows(
	ctx context.Context,
	searchID string,
) ([]market.TrainingRow, error) {
	rows, err := s.pool.Query(ctx, queryFetchTrainingRows, searchID)
	if err != nil {
		return nil, fmt.Errorf("querying training rows: %w", err)
	}
	defer rows.Close()

	var out []market.TrainingRow
	for rows.Next() {
		var r market.TrainingRow
		if err := rows.Scan(
			&r.Price, &r.Year, &r.Mileage, &r.Horsepower,
			&r.ScamK, &r.Status, &r.UserStatus, &r.HasScores,
		); err != nil {
			return nil, fmt.Errorf("scanning training row: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// CreateSearch inserts a new search scope.
func (s *PostgresStore) CreateSearch(ctx context.Context, sc *domain.Search) error {
	args := pgx.NamedArgs{
		"name":      sc.Name,
		"query":     sc.Query,
		"min_year":  sc.MinYear,
		"max_year":  sc.MaxYear,
		"min_price": sc.MinPrice,
		"max_price": sc.MaxPrice,
		"active":    sc.Active,
	}

	return s.pool.QueryRow(ctx, queryCreateSearch, args).Scan(
		&sc.ID, &sc.CreatedAt, &sc.UpdatedAt,
	)
}

// GetSearch retrieves a search by its ID.
func (s *PostgresStore) GetSearch(ctx context.Context, id string) (*domain.Search, error) {
	sc := &domain.Search{}
	if err := scanSearch(s.pool.QueryRow(ctx, queryGetSearch, id), sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// ListSearches returns all searches, optionally filtered to active only.
func (s *PostgresStore) ListSearches(
	ctx context.Context,
	activeOnly bool,
) ([]domain.Search, error) {
	query := queryListSearchesAll
	if activeOnly {
		query = queryListSearchesActive
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var searches []domain.Search
	for rows.Next() {
		var sc domain.Search
		if err := scanSearch(rows, &sc); err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		searches = append(searches, sc)
	}

	return searches, rows.Err()
}

// UpdateSearch updates an existing search.
func (s *PostgresStore) UpdateSearch(ctx context.Context, sc *domain.Search) error {
	args := pgx.NamedArgs{
		"id":        sc.ID,
		"name":      sc.Name,
		"query":     sc.Query,
		"min_year":  sc.MinYear,
		"max_year":  sc.MaxYear,
		"min_price": sc.MinPrice,
		"max_price": sc.MaxPrice,
		"active":    sc.Active,
	}

	if _, err := s.pool.Exec(ctx, queryUpdateSearch, args); err != nil {
		return fmt.Errorf("updating search: %w", err)
	}
	return nil
}

// DeleteSearch removes a search by its ID. Membership rows cascade.
func (s *PostgresStore) DeleteSearch(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, queryDeleteSearch, id); err != nil {
		return fmt.Errorf("deleting search: %w", err)
	}
	return nil
}

// SetSearchActive enables or disables a search.
func (s *PostgresStore) SetSearchActive(ctx context.Context, id string, active bool) error {
	if _, err := s.pool.Exec(ctx, querySetSearchActive, id, active); err != nil {
		return fmt.Errorf("setting search active: %w", err)
	}
	return nil
}

// UpdateSearchModelMeta stores the valuation model diagnostics for a search.
// A nil meta clears them.
func (s *PostgresStore) UpdateSearchModelMeta(
	ctx context.Context,
	id string,
	meta *domain.ModelMeta,
) error {
	var metaJSON []byte
	if meta != nil {
		var err error
		metaJSON, err = json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshaling model meta: %w", err)
		}
	}

	if _, err := s.pool.Exec(ctx, queryUpdateSearchModelMeta, id, metaJSON); err != nil {
		return fmt.Errorf("updating search model meta: %w", err)
	}
	return nil
}

// TouchSearchLastRun sets the last_run_at timestamp for a search.
func (s *PostgresStore) TouchSearchLastRun(ctx context.Context, id string, t time.Time) error {
	if _, err := s.pool.Exec(ctx, queryTouchSearchLastRun, id, t); err != nil {
		return fmt.Errorf("updating search last_run_at: %w", err)
	}
	return nil
}

// InsertJobRun records the start of a scheduled job and returns its UUID.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *PostgresStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText, rowsAffected)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
func (s *PostgresStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// scanJobRuns scans rows from a job_runs query into a slice.
func scanJobRuns(rows pgx.Rows) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// queryListings is a helper for queries returning full listing rows.
func (s *PostgresStore) queryListings(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

// scanListing hydrates one listing from the canonical column list.
func scanListing(row scannable, l *domain.Listing) error {
	var historyJSON, scoresJSON []byte

	err := row.Scan(
		&l.ID, &l.URL, &l.Title, &l.Description,
		&l.Price, &l.Mileage, &l.Year, &l.Fuel, &l.Gearbox, &l.Horsepower, &l.Trim,
		&l.Location, &l.Zipcode,
		&l.SellerRating, &l.SellerRatingCount,
		&l.Status, &l.UserStatus, &l.IsFavorite, &historyJSON,
		&scoresJSON, &l.Analysis,
		&l.PublishedAt, &l.FirstSeenAt, &l.LastSeenAt, &l.UpdatedAt,
		&l.SearchIDs,
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(historyJSON, &l.PriceHistory); err != nil {
		return fmt.Errorf("unmarshaling price history: %w", err)
	}

	if len(scoresJSON) > 0 {
		l.Scores = &scoring.ScoreRecord{}
		if err := json.Unmarshal(scoresJSON, l.Scores); err != nil {
			return fmt.Errorf("unmarshaling scores: %w", err)
		}
	}

	return nil
}

// scanSearch hydrates one search row, decoding the model meta JSON if present.
func scanSearch(row scannable, sc *domain.Search) error {
	var metaJSON []byte

	err := row.Scan(
		&sc.ID, &sc.Name, &sc.Query,
		&sc.MinYear, &sc.MaxYear, &sc.MinPrice, &sc.MaxPrice,
		&sc.Active, &metaJSON, &sc.LastRunAt, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if len(metaJSON) > 0 {
		sc.ModelMeta = &domain.ModelMeta{}
		if err := json.Unmarshal(metaJSON, sc.ModelMeta); err != nil {
			return fmt.Errorf("unmarshaling model meta: %w", err)
		}
	}

	return nil
}

var _ Store = (*PostgresStore)(nil)

// errNotFound is a sentinel alias so callers can test for missing rows
// without importing pgx.
var errNotFound = pgx.ErrNoRows

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
