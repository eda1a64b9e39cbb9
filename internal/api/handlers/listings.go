package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tmarchal/autocote/internal/store"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// ListingsProvider is the datastore capability the listing query endpoints
// need.
type ListingsProvider interface {
	ListListings(ctx context.Context, opts *store.ListingQuery) ([]domain.Listing, int, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// ListingsHandler handles listing query endpoints.
type ListingsHandler struct {
	store ListingsProvider
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s ListingsProvider) *ListingsHandler {
	return &ListingsHandler{store: s}
}

// --- Input/Output types ---

// ListListingsInput is the input for listing listings with optional filters.
type ListListingsInput struct {
	SearchID   string  `query:"search_id"     doc:"Filter by saved-search UUID"`
	Status     string  `query:"status"        doc:"Filter by lifecycle status"          enum:"ACTIVE,SOLD,ARCHIVED,SCAM,"`
	UserStatus string  `query:"user_status"   doc:"Filter by manual flag"               enum:"NORMAL,TRASH,SCAM_MANUAL,"`
	MinTotal   float64 `query:"min_total"     doc:"Minimum composite score"                                                minimum:"0" maximum:"100"`
	MaxPrice   int     `query:"max_price"     doc:"Maximum posted price in EUR"                                            minimum:"0"`
	Favorites  bool    `query:"favorites"     doc:"Only favorited listings"`
	Analysis   bool    `query:"with_analysis" doc:"Include the stored analysis payload"`
	Limit      int     `query:"limit"         doc:"Number of results (default 50)"                                         minimum:"1" maximum:"500"`
	Offset     int     `query:"offset"        doc:"Pagination offset"                                                      minimum:"0"`
	OrderBy    string  `query:"order_by"      doc:"Sort field"                          enum:"total,price,first_seen_at,"`
}

// ListListingsOutput is the response for listing listings.
type ListListingsOutput struct {
	Body struct {
		Listings []domain.Listing `json:"listings"`
		Total    int              `json:"total"`
		Limit    int              `json:"limit"`
		Offset   int              `json:"offset"`
	}
}

// GetListingInput is the input for getting a single listing.
type GetListingInput struct {
	ID string `path:"id" doc:"Listing UUID"`
}

// GetListingOutput is the response for getting a single listing.
type GetListingOutput struct {
	Body domain.Listing
}

// --- Handlers ---

// ListListings returns listings with optional filters for search scope,
// lifecycle status, score range, and pagination.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	q := &store.ListingQuery{
		FavoritesOnly: input.Favorites,
		WithAnalysis:  input.Analysis,
		Offset:        input.Offset,
		OrderBy:       input.OrderBy,
	}

	if input.SearchID != "" {
		q.SearchID = &input.SearchID
	}

	if input.Status != "" {
		q.Status = &input.Status
	}

	if input.UserStatus != "" {
		q.UserStatus = &input.UserStatus
	}

	if input.MinTotal != 0 {
		q.MinTotal = &input.MinTotal
	}

	if input.MaxPrice != 0 {
		q.MaxPrice = &input.MaxPrice
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	listings, total, err := h.store.ListListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing query failed: " + err.Error())
	}

	if listings == nil {
		listings = []domain.Listing{}
	}

	resp := &ListListingsOutput{}
	resp.Body.Listings = listings
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// GetListing returns a single listing by ID.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	listing, err := h.store.GetListing(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("listing not found")
	}

	return &GetListingOutput{Body: *listing}, nil
}

// RegisterListingRoutes registers listing query endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Description: "Returns listings with optional filters for search scope, lifecycle status, score range, and pagination.",
		Tags:        []string{"listings"},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Description: "Returns a single listing by its UUID.",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetListing)
}
