package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// ListingsResponse wraps a paginated listings response.
type ListingsResponse struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ListListingsParams defines query parameters for listing queries.
type ListListingsParams struct {
	SearchID     string
	Status       string
	UserStatus   string
	MinTotal     float64
	MaxPrice     int
	Favorites    bool
	WithAnalysis bool
	Limit        int
	Offset       int
	OrderBy      string
}

// ListListings returns listings matching the given parameters.
func (c *Client) ListListings(
	ctx context.Context,
	params *ListListingsParams,
) (*ListingsResponse, error) {
	q := url.Values{}
	if params.SearchID != "" {
		q.Set("search_id", params.SearchID)
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.UserStatus != "" {
		q.Set("user_status", params.UserStatus)
	}
	if params.MinTotal > 0 {
		q.Set("min_total", strconv.FormatFloat(params.MinTotal, 'f', -1, 64))
	}
	if params.MaxPrice > 0 {
		q.Set("max_price", strconv.Itoa(params.MaxPrice))
	}
	if params.Favorites {
		q.Set("favorites", "true")
	}
	if params.WithAnalysis {
		q.Set("with_analysis", "true")
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := "/api/v1/listings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListingsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetListing returns a single listing by ID.
func (c *Client) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.get(ctx, "/api/v1/listings/"+id, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// IngestListing upserts an observed listing, keyed by URL.
func (c *Client) IngestListing(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	var stored domain.Listing
	if err := c.post(ctx, "/api/v1/listings", l, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// SubmitAnalysis stores a textual-analysis payload for a listing and returns
// the computed score record.
func (c *Client) SubmitAnalysis(
	ctx context.Context,
	id string,
	payload []byte,
) (*scoring.ScoreRecord, error) {
	var rec scoring.ScoreRecord
	if err := c.post(ctx, "/api/v1/listings/"+id+"/analysis", json.RawMessage(payload), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetUserStatus sets the manual flag on a listing.
func (c *Client) SetUserStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"user_status": status}
	return c.put(ctx, "/api/v1/listings/"+id+"/user-status", body, nil)
}

// SetFavorite favorites or unfavorites a listing.
func (c *Client) SetFavorite(ctx context.Context, id string, favorite bool) error {
	body := map[string]bool{"favorite": favorite}
	return c.put(ctx, "/api/v1/listings/"+id+"/favorite", body, nil)
}

// MarkSold marks a listing as sold.
func (c *Client) MarkSold(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/listings/"+id+"/sold", nil, nil)
}

// Rescore recomputes the composite score for every listing with a stored
// analysis payload and returns the number rescored.
func (c *Client) Rescore(ctx context.Context) (int, error) {
	var resp struct {
		Rescored int `json:"rescored"`
	}
	if err := c.post(ctx, "/api/v1/rescore", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Rescored, nil
}

// TriggerMarketRefresh runs the market refresh across all active searches.
func (c *Client) TriggerMarketRefresh(ctx context.Context) error {
	return c.post(ctx, "/api/v1/market/refresh", nil, nil)
}

// TriggerArchive archives listings not observed recently.
func (c *Client) TriggerArchive(ctx context.Context) error {
	return c.post(ctx, "/api/v1/archive", nil, nil)
}
