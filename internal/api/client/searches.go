package client

import (
	"context"

	domain "github.com/tmarchal/autocote/pkg/types"
)

// searchRequest contains only the fields the API accepts for create/update.
type searchRequest struct {
	Name     string `json:"name,omitempty"`
	Query    string `json:"query,omitempty"`
	MinYear  *int   `json:"min_year,omitempty"`
	MaxYear  *int   `json:"max_year,omitempty"`
	MinPrice *int   `json:"min_price,omitempty"`
	MaxPrice *int   `json:"max_price,omitempty"`
	Active   bool   `json:"active,omitempty"`
}

// ListSearches returns all saved searches, optionally only active ones.
func (c *Client) ListSearches(ctx context.Context, activeOnly bool) ([]domain.Search, error) {
	path := "/api/v1/searches"
	if activeOnly {
		path += "?active=true"
	}
	var searches []domain.Search
	if err := c.get(ctx, path, &searches); err != nil {
		return nil, err
	}
	return searches, nil
}

// GetSearch returns a single search by ID.
func (c *Client) GetSearch(ctx context.Context, id string) (*domain.Search, error) {
	var s domain.Search
	if err := c.get(ctx, "/api/v1/searches/"+id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSearch creates a new saved search.
func (c *Client) CreateSearch(ctx context.Context, s *domain.Search) (*domain.Search, error) {
	var created domain.Search
	req := searchRequest{
		Name:     s.Name,
		Query:    s.Query,
		MinYear:  s.MinYear,
		MaxYear:  s.MaxYear,
		MinPrice: s.MinPrice,
		MaxPrice: s.MaxPrice,
		Active:   s.Active,
	}
	if err := c.post(ctx, "/api/v1/searches", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSearch updates an existing saved search.
func (c *Client) UpdateSearch(ctx context.Context, s *domain.Search) (*domain.Search, error) {
	var updated domain.Search
	req := searchRequest{
		Name:     s.Name,
		Query:    s.Query,
		MinYear:  s.MinYear,
		MaxYear:  s.MaxYear,
		MinPrice: s.MinPrice,
		MaxPrice: s.MaxPrice,
		Active:   s.Active,
	}
	if err := c.put(ctx, "/api/v1/searches/"+s.ID, req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetSearchActive activates or deactivates a search.
func (c *Client) SetSearchActive(ctx context.Context, id string, active bool) error {
	body := map[string]bool{"active": active}
	return c.put(ctx, "/api/v1/searches/"+id+"/active", body, nil)
}

// DeleteSearch deletes a search by ID.
func (c *Client) DeleteSearch(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/searches/"+id, nil)
}

// RefreshSearchMarket retrains the valuation model for one search scope and
// returns the number of listings whose deal score was refreshed.
func (c *Client) RefreshSearchMarket(ctx context.Context, id string) (int, error) {
	var resp struct {
		Refreshed int `json:"refreshed"`
	}
	if err := c.post(ctx, "/api/v1/searches/"+id+"/refresh-market", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Refreshed, nil
}
