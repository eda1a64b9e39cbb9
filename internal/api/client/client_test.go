package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/tmarchal/autocote/pkg/types"
)

func TestClient_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1") // nothing listening
	_, err := c.ListSearches(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server not running")
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListSearches(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (HTTP 500)")
}

func TestClient_ListSearches(t *testing.T) {
	t.Parallel()

	searches := []domain.Search{
		{ID: "s1", Name: "Clio IV", Query: "renault clio iv"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/searches", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searches)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.ListSearches(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "s1", result[0].ID)
}

func TestClient_CreateSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var s domain.Search
		err := json.NewDecoder(r.Body).Decode(&s)
		assert.NoError(t, err)
		s.ID = "s-created"

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(s)
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.CreateSearch(context.Background(), &domain.Search{
		Name:  "308 estate",
		Query: "peugeot 308 sw",
	})
	require.NoError(t, err)
	assert.Equal(t, "s-created", result.ID)
	assert.Equal(t, "308 estate", result.Name)
}

func TestClient_ListListings(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/listings", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "ACTIVE", q.Get("status"))
		assert.Equal(t, "80", q.Get("min_total"))
		assert.Equal(t, "true", q.Get("favorites"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ListingsResponse{
			Listings: []domain.Listing{{ID: "l1", Title: "Clio IV 1.5 dCi"}},
			Total:    1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.ListListings(context.Background(), &ListListingsParams{
		Status:    "ACTIVE",
		MinTotal:  80,
		Favorites: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Listings, 1)
	assert.Equal(t, "l1", resp.Listings[0].ID)
}

func TestClient_SubmitAnalysis(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"findings":{},"productQualityRating0to10":7.5}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/listings/l1/analysis", r.URL.Path)

		var got map[string]any
		err := json.NewDecoder(r.Body).Decode(&got)
		assert.NoError(t, err)
		assert.Equal(t, 7.5, got["productQualityRating0to10"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":56,"base":{"deal":50,"conf":50,"prod":75}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	rec, err := c.SubmitAnalysis(context.Background(), "l1", payload)
	require.NoError(t, err)
	assert.InDelta(t, 56.0, rec.Total, 0.001)
}

func TestClient_Rescore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rescore", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rescored":42}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	n, err := c.Rescore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestClient_RefreshSearchMarket(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/searches/s1/refresh-market", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"refreshed":17}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	n, err := c.RefreshSearchMarket(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 17, n)
}

func TestClient_DeleteSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/searches/s1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.DeleteSearch(context.Background(), "s1"))
}

func TestClient_ListJobs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"job_name":"market_refresh","status":"succeeded"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	runs, err := c.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "market_refresh", runs[0].JobName)
}
