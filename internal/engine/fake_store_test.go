package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tmarchal/autocote/internal/store"
	"github.com/tmarchal/autocote/pkg/market"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// fakeStore is an in-memory store.Store for engine tests.
type fakeStore struct {
	mu sync.Mutex

	listings     map[string]*domain.Listing
	searches     map[string]*domain.Search
	trainingRows map[string][]market.TrainingRow
	modelMeta    map[string]*domain.ModelMeta
	jobRuns      map[string]*domain.JobRun
	bulkUpdates  [][]store.ScoreUpdate
	lastRuns     map[string]time.Time
	archived     int
	nextJobID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings:     make(map[string]*domain.Listing),
		searches:     make(map[string]*domain.Search),
		trainingRows: make(map[string][]market.TrainingRow),
		modelMeta:    make(map[string]*domain.ModelMeta),
		jobRuns:      make(map[string]*domain.JobRun),
		lastRuns:     make(map[string]time.Time),
	}
}

func (f *fakeStore) UpsertListing(_ context.Context, l *domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[l.ID] = l
	return nil
}

func (f *fakeStore) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	return l, nil
}

func (f *fakeStore) GetListingByURL(_ context.Context, url string) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listings {
		if l.URL == url {
			return l, nil
		}
	}
	return nil, fmt.Errorf("listing %s not found", url)
}

func (f *fakeStore) ListListings(
	_ context.Context,
	_ *store.ListingQuery,
) ([]domain.Listing, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateScores(
	_ context.Context,
	id string,
	scores *scoring.ScoreRecord,
	analysis json.RawMessage,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return fmt.Errorf("listing %s not found", id)
	}
	l.Scores = scores
	l.Analysis = analysis
	return nil
}

func (f *fakeStore) BulkUpdateScores(_ context.Context, updates []store.ScoreUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUpdates = append(f.bulkUpdates, updates)
	for _, u := range updates {
		if l, ok := f.listings[u.ID]; ok {
			l.Scores = u.Scores
		}
	}
	return nil
}

func (f *fakeStore) ListUnscoredListings(_ context.Context, _ int) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if len(l.Analysis) > 0 && l.Scores == nil {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRescorableListings(_ context.Context) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if len(l.Analysis) > 0 {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListScoredActiveListings(
	_ context.Context,
	searchID string,
) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if l.Status != domain.StatusActive || l.Scores == nil {
			continue
		}
		for _, id := range l.SearchIDs {
			if id == searchID {
				out = append(out, *l)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) SetUserStatus(_ context.Context, id string, status domain.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		l.UserStatus = status
	}
	return nil
}

func (f *fakeStore) SetFavorite(_ context.Context, id string, favorite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		l.IsFavorite = favorite
	}
	return nil
}

func (f *fakeStore) MarkSold(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.listings[id]; ok {
		l.Status = domain.StatusSold
	}
	return nil
}

func (f *fakeStore) ArchiveStaleListings(_ context.Context, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.archived, nil
}

func (f *fakeStore) FetchTrainingRows(
	_ context.Context,
	searchID string,
) ([]market.TrainingRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trainingRows[searchID], nil
}

func (f *fakeStore) CreateSearch(_ context.Context, s *domain.Search) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches[s.ID] = s
	return nil
}

func (f *fakeStore) GetSearch(_ context.Context, id string) (*domain.Search, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.searches[id]
	if !ok {
		return nil, fmt.Errorf("search %s not found", id)
	}
	return s, nil
}

func (f *fakeStore) ListSearches(_ context.Context, activeOnly bool) ([]domain.Search, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Search
	for _, s := range f.searches {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) UpdateSearch(_ context.Context, s *domain.Search) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches[s.ID] = s
	return nil
}

func (f *fakeStore) DeleteSearch(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.searches, id)
	return nil
}

func (f *fakeStore) SetSearchActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.searches[id]; ok {
		s.Active = active
	}
	return nil
}

func (f *fakeStore) UpdateSearchModelMeta(
	_ context.Context,
	id string,
	meta *domain.ModelMeta,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modelMeta[id] = meta
	return nil
}

func (f *fakeStore) TouchSearchLastRun(_ context.Context, id string, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRuns[id] = t
	return nil
}

func (f *fakeStore) InsertJobRun(_ context.Context, jobName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextJobID++
	id := fmt.Sprintf("job-%d", f.nextJobID)
	f.jobRuns[id] = &domain.JobRun{
		ID:        id,
		JobName:   jobName,
		StartedAt: time.Now(),
		Status:    "running",
	}
	return id, nil
}

func (f *fakeStore) CompleteJobRun(
	_ context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.jobRuns[id]
	if !ok {
		return fmt.Errorf("job run %s not found", id)
	}
	now := time.Now()
	run.CompletedAt = &now
	run.Status = status
	run.ErrorText = errText
	run.RowsAffected = &rowsAffected
	return nil
}

func (f *fakeStore) ListJobRuns(
	_ context.Context,
	jobName string,
	_ int,
) ([]domain.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.JobRun
	for _, r := range f.jobRuns {
		if r.JobName == jobName {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLatestJobRuns(_ context.Context) ([]domain.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.JobRun
	for _, r := range f.jobRuns {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) Migrate(_ context.Context) error { return nil }
func (f *fakeStore) Ping(_ context.Context) error    { return nil }

var _ store.Store = (*fakeStore)(nil)
