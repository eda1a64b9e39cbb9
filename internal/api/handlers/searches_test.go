package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarchal/autocote/internal/api/handlers"
	domain "github.com/tmarchal/autocote/pkg/types"
)

type fakeSearchStore struct {
	searches   map[string]*domain.Search
	failWith   error
	activeOnly bool
}

func newFakeSearchStore() *fakeSearchStore {
	return &fakeSearchStore{searches: map[string]*domain.Search{}}
}

func (f *fakeSearchStore) CreateSearch(_ context.Context, s *domain.Search) error {
	if f.failWith != nil {
		return f.failWith
	}
	if s.ID == "" {
		s.ID = "generated-id"
	}
	f.searches[s.ID] = s
	return nil
}

func (f *fakeSearchStore) GetSearch(_ context.Context, id string) (*domain.Search, error) {
	s, ok := f.searches[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (f *fakeSearchStore) ListSearches(_ context.Context, activeOnly bool) ([]domain.Search, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.activeOnly = activeOnly
	var out []domain.Search
	for _, s := range f.searches {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSearchStore) UpdateSearch(_ context.Context, s *domain.Search) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.searches[s.ID] = s
	return nil
}

func (f *fakeSearchStore) DeleteSearch(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.searches, id)
	return nil
}

func (f *fakeSearchStore) SetSearchActive(_ context.Context, id string, active bool) error {
	if f.failWith != nil {
		return f.failWith
	}
	if s, ok := f.searches[id]; ok {
		s.Active = active
	}
	return nil
}

type refresherFunc func(ctx context.Context, searchID string) (int, error)

func (f refresherFunc) RefreshSearchMarket(ctx context.Context, searchID string) (int, error) {
	return f(ctx, searchID)
}

func noRefresh() refresherFunc {
	return func(context.Context, string) (int, error) { return 0, nil }
}

func newSearchContext(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSearchHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		failWith   error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid search created",
			body:       `{"name":"308 essence","query":"peugeot 308","min_year":2015}`,
			wantStatus: http.StatusCreated,
			wantBody:   `"308 essence"`,
		},
		{
			name:       "missing name rejected",
			body:       `{"query":"peugeot 308"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "name and query are required",
		},
		{
			name:       "missing query rejected",
			body:       `{"name":"308"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "name and query are required",
		},
		{
			name:       "invalid JSON rejected",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
		{
			name:       "store error returns 500",
			body:       `{"name":"308","query":"peugeot 308"}`,
			failWith:   errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "creating search",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := newFakeSearchStore()
			st.failWith = tt.failWith
			h := handlers.NewSearchHandler(st, noRefresh())

			c, rec := newSearchContext(http.MethodPost, "/api/v1/searches", tt.body)
			require.NoError(t, h.Create(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestSearchHandler_GetAndList(t *testing.T) {
	t.Parallel()

	st := newFakeSearchStore()
	st.searches["s1"] = &domain.Search{ID: "s1", Name: "308", Query: "peugeot 308", Active: true}
	h := handlers.NewSearchHandler(st, noRefresh())

	c, rec := newSearchContext(http.MethodGet, "/api/v1/searches/s1", "")
	c.SetParamNames("id")
	c.SetParamValues("s1")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"308"`)

	c, rec = newSearchContext(http.MethodGet, "/api/v1/searches/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newSearchContext(http.MethodGet, "/api/v1/searches?active=true", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, st.activeOnly)
}

func TestSearchHandler_ListEmpty(t *testing.T) {
	t.Parallel()

	h := handlers.NewSearchHandler(newFakeSearchStore(), noRefresh())

	c, rec := newSearchContext(http.MethodGet, "/api/v1/searches", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearchHandler_SetActive(t *testing.T) {
	t.Parallel()

	st := newFakeSearchStore()
	st.searches["s1"] = &domain.Search{ID: "s1", Name: "308", Query: "peugeot 308", Active: true}
	h := handlers.NewSearchHandler(st, noRefresh())

	c, rec := newSearchContext(http.MethodPut, "/api/v1/searches/s1/active", `{"active":false}`)
	c.SetParamNames("id")
	c.SetParamValues("s1")
	require.NoError(t, h.SetActive(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, st.searches["s1"].Active)
}

func TestSearchHandler_Delete(t *testing.T) {
	t.Parallel()

	st := newFakeSearchStore()
	st.searches["s1"] = &domain.Search{ID: "s1", Name: "308", Query: "peugeot 308"}
	h := handlers.NewSearchHandler(st, noRefresh())

	c, rec := newSearchContext(http.MethodDelete, "/api/v1/searches/s1", "")
	c.SetParamNames("id")
	c.SetParamValues("s1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, st.searches)
}

func TestSearchHandler_RefreshMarket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		refresher  refresherFunc
		wantStatus int
		wantBody   string
	}{
		{
			name: "refresh succeeds",
			refresher: func(_ context.Context, id string) (int, error) {
				if id != "s1" {
					return 0, errors.New("wrong search")
				}
				return 12, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   `"refreshed":12`,
		},
		{
			name: "refresh failure returns 500",
			refresher: func(context.Context, string) (int, error) {
				return 0, errors.New("training failed")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "market refresh failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handlers.NewSearchHandler(newFakeSearchStore(), tt.refresher)

			c, rec := newSearchContext(
				http.MethodPost, "/api/v1/searches/s1/refresh-market", "")
			c.SetParamNames("id")
			c.SetParamValues("s1")
			require.NoError(t, h.RefreshMarket(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
