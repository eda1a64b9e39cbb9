package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// MarketRefresher retrains the valuation models for all active searches.
type MarketRefresher interface {
	RunMarketRefresh(ctx context.Context) error
}

// Archiver retires listings that have not been observed recently.
type Archiver interface {
	RunArchive(ctx context.Context) error
}

// MarketRefreshHandler handles manual market refresh requests.
type MarketRefreshHandler struct {
	refresher MarketRefresher
}

// NewMarketRefreshHandler creates a new MarketRefreshHandler.
func NewMarketRefreshHandler(r MarketRefresher) *MarketRefreshHandler {
	return &MarketRefreshHandler{refresher: r}
}

// RefreshOutput is the response body for the market refresh endpoint.
type RefreshOutput struct {
	Body struct {
		Status string `json:"status" example:"market refresh completed" doc:"Refresh status"`
	}
}

// Refresh triggers a full market refresh across all active searches.
func (h *MarketRefreshHandler) Refresh(ctx context.Context, _ *struct{}) (*RefreshOutput, error) {
	if err := h.refresher.RunMarketRefresh(ctx); err != nil {
		return nil, huma.Error500InternalServerError("market refresh failed: " + err.Error())
	}

	resp := &RefreshOutput{}
	resp.Body.Status = "market refresh completed"
	return resp, nil
}

// ArchiveHandler handles manual archive requests.
type ArchiveHandler struct {
	archiver Archiver
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(a Archiver) *ArchiveHandler {
	return &ArchiveHandler{archiver: a}
}

// ArchiveOutput is the response body for the archive endpoint.
type ArchiveOutput struct {
	Body struct {
		Status string `json:"status" example:"archive completed" doc:"Archive status"`
	}
}

// Archive triggers an archive pass over stale listings.
func (h *ArchiveHandler) Archive(ctx context.Context, _ *struct{}) (*ArchiveOutput, error) {
	if err := h.archiver.RunArchive(ctx); err != nil {
		return nil, huma.Error500InternalServerError("archive failed: " + err.Error())
	}

	resp := &ArchiveOutput{}
	resp.Body.Status = "archive completed"
	return resp, nil
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, refreshH *MarketRefreshHandler, archiveH *ArchiveHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "refresh-market",
		Method:      http.MethodPost,
		Path:        "/api/v1/market/refresh",
		Summary:     "Trigger a market refresh",
		Description: "Retrains the fair-price model for every active search and " +
			"re-derives deal scores.",
		Tags:   []string{"market"},
		Errors: []int{http.StatusInternalServerError},
	}, refreshH.Refresh)

	huma.Register(api, huma.Operation{
		OperationID: "run-archive",
		Method:      http.MethodPost,
		Path:        "/api/v1/archive",
		Summary:     "Trigger an archive pass",
		Description: "Archives active listings whose ads have not been observed recently.",
		Tags:        []string{"lifecycle"},
		Errors:      []int{http.StatusInternalServerError},
	}, archiveH.Archive)
}
