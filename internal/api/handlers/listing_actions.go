package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tmarchal/autocote/internal/metrics"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// ListingWriter is the datastore capability the listing mutation endpoints
// need.
type ListingWriter interface {
	UpsertListing(ctx context.Context, l *domain.Listing) error
	SetUserStatus(ctx context.Context, id string, status domain.UserStatus) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	MarkSold(ctx context.Context, id string) error
}

// ListingActionsHandler handles listing ingestion and manual flag updates.
type ListingActionsHandler struct {
	store ListingWriter
}

// NewListingActionsHandler creates a new ListingActionsHandler.
func NewListingActionsHandler(s ListingWriter) *ListingActionsHandler {
	return &ListingActionsHandler{store: s}
}

// Ingest handles POST /api/v1/listings.
//
// The scraper robot pushes every observed ad here. Listings are keyed by
// URL: a re-observed ad updates price, timestamps, and price history instead
// of creating a duplicate.
//
// @Summary Ingest an observed listing
// @Description Upserts a listing observed by the scraper; re-observations append to the price history.
// @Tags listings
// @Accept json
// @Produce json
// @Param listing body domain.Listing true "Observed listing"
// @Success 200 {object} domain.Listing
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/listings [post]
func (h *ListingActionsHandler) Ingest(c echo.Context) error {
	var l domain.Listing
	if err := c.Bind(&l); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if l.URL == "" || l.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "url and title are required",
		})
	}
	if l.Price <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "price must be positive",
		})
	}

	if err := h.store.UpsertListing(c.Request().Context(), &l); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "upserting listing: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, l)
}

type setUserStatusRequest struct {
	UserStatus string `json:"user_status" example:"TRASH"`
}

var validUserStatuses = map[string]domain.UserStatus{
	string(domain.UserStatusNormal):     domain.UserStatusNormal,
	string(domain.UserStatusTrash):      domain.UserStatusTrash,
	string(domain.UserStatusScamManual): domain.UserStatusScamManual,
}

// SetUserStatus handles PUT /api/v1/listings/:id/user-status.
//
// @Summary Set the manual flag on a listing
// @Description Sets the operator flag (NORMAL, TRASH, SCAM_MANUAL). Flagged listings are excluded from training cohorts.
// @Tags listings
// @Accept json
// @Produce json
// @Param id path string true "Listing UUID"
// @Param body body setUserStatusRequest true "Manual flag"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/listings/{id}/user-status [put]
func (h *ListingActionsHandler) SetUserStatus(c echo.Context) error {
	id := c.Param("id")

	var req setUserStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	status, ok := validUserStatuses[req.UserStatus]
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "user_status must be one of NORMAL, TRASH, SCAM_MANUAL",
		})
	}

	if err := h.store.SetUserStatus(c.Request().Context(), id, status); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "setting user status: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "updated",
	})
}

type setFavoriteRequest struct {
	Favorite bool `json:"favorite" example:"true"`
}

// SetFavorite handles PUT /api/v1/listings/:id/favorite.
//
// @Summary Favorite or unfavorite a listing
// @Tags listings
// @Accept json
// @Produce json
// @Param id path string true "Listing UUID"
// @Param body body setFavoriteRequest true "Favorite status"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/listings/{id}/favorite [put]
func (h *ListingActionsHandler) SetFavorite(c echo.Context) error {
	id := c.Param("id")

	var req setFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if err := h.store.SetFavorite(c.Request().Context(), id, req.Favorite); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "setting favorite: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "updated",
	})
}

// MarkSold handles POST /api/v1/listings/:id/sold.
//
// @Summary Mark a listing as sold
// @Description Moves the listing to SOLD. Sold listings remain in training cohorts.
// @Tags listings
// @Produce json
// @Param id path string true "Listing UUID"
// @Success 200 {object} StatusResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/listings/{id}/sold [post]
func (h *ListingActionsHandler) MarkSold(c echo.Context) error {
	id := c.Param("id")

	if err := h.store.MarkSold(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "marking sold: " + err.Error(),
		})
	}

	metrics.ListingsSoldTotal.Inc()

	return c.JSON(http.StatusOK, map[string]string{
		"status": "sold",
	})
}
