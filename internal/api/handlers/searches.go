package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	domain "github.com/tmarchal/autocote/pkg/types"
)

// SearchStore is the datastore capability the search CRUD endpoints need.
type SearchStore interface {
	CreateSearch(ctx context.Context, s *domain.Search) error
	GetSearch(ctx context.Context, id string) (*domain.Search, error)
	ListSearches(ctx context.Context, activeOnly bool) ([]domain.Search, error)
	UpdateSearch(ctx context.Context, s *domain.Search) error
	DeleteSearch(ctx context.Context, id string) error
	SetSearchActive(ctx context.Context, id string, active bool) error
}

// SearchRefresher retrains the valuation model for one search scope.
type SearchRefresher interface {
	RefreshSearchMarket(ctx context.Context, searchID string) (int, error)
}

// SearchHandler handles saved-search CRUD operations.
type SearchHandler struct {
	store     SearchStore
	refresher SearchRefresher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(s SearchStore, r SearchRefresher) *SearchHandler {
	return &SearchHandler{store: s, refresher: r}
}

// List handles GET /api/v1/searches.
//
// @Summary List saved searches
// @Description Returns all saved searches, optionally filtered by active status.
// @Tags searches
// @Produce json
// @Param active query string false "Filter by active status" Enums(true, false)
// @Success 200 {array} domain.Search
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/searches [get]
func (h *SearchHandler) List(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"

	searches, err := h.store.ListSearches(c.Request().Context(), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "listing searches: " + err.Error(),
		})
	}

	if searches == nil {
		searches = []domain.Search{}
	}

	return c.JSON(http.StatusOK, searches)
}

// Get handles GET /api/v1/searches/:id.
//
// @Summary Get a search by ID
// @Description Returns a single saved search by its UUID.
// @Tags searches
// @Produce json
// @Param id path string true "Search UUID"
// @Success 200 {object} domain.Search
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/searches/{id} [get]
func (h *SearchHandler) Get(c echo.Context) error {
	id := c.Param("id")

	s, err := h.store.GetSearch(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "search not found",
		})
	}

	return c.JSON(http.StatusOK, s)
}

// Create handles POST /api/v1/searches.
//
// @Summary Create a search
// @Description Creates a new saved search with the given scope.
// @Tags searches
// @Accept json
// @Produce json
// @Param search body domain.Search true "Search to create"
// @Success 201 {object} domain.Search
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/searches [post]
func (h *SearchHandler) Create(c echo.Context) error {
	var s domain.Search
	if err := c.Bind(&s); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if s.Name == "" || s.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "name and query are required",
		})
	}

	if err := h.store.CreateSearch(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "creating search: " + err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, s)
}

// Update handles PUT /api/v1/searches/:id.
//
// @Summary Update a search
// @Description Updates an existing saved search by its UUID.
// @Tags searches
// @Accept json
// @Produce json
// @Param id path string true "Search UUID"
// @Param search body domain.Search true "Updated search"
// @Success 200 {object} domain.Search
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/searches/{id} [put]
func (h *SearchHandler) Update(c echo.Context) error {
	id := c.Param("id")

	var s domain.Search
	if err := c.Bind(&s); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	s.ID = id
	if err := h.store.UpdateSearch(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "updating search: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, s)
}

type setActiveRequest struct {
	Active bool `json:"active" example:"true"`
}

// SetActive handles PUT /api/v1/searches/:id/active.
//
// @Summary Activate or deactivate a search
// @Description Sets the active status of a saved search. Inactive searches are skipped by the market refresh.
// @Tags searches
// @Accept json
// @Produce json
// @Param id path string true "Search UUID"
// @Param body body setActiveRequest true "Active status"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/searches/{id}/active [put]
func (h *SearchHandler) SetActive(c echo.Context) error {
	id := c.Param("id")

	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if err := h.store.SetSearchActive(c.Request().Context(), id, req.Active); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "setting search active: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "updated",
	})
}

// Delete handles DELETE /api/v1/searches/:id.
//
// @Summary Delete a search
// @Description Deletes a saved search by its UUID.
// @Tags searches
// @Param id path string true "Search UUID"
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/searches/{id} [delete]
func (h *SearchHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	if err := h.store.DeleteSearch(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "deleting search: " + err.Error(),
		})
	}

	return c.NoContent(http.StatusNoContent)
}

// RefreshMarket handles POST /api/v1/searches/:id/refresh-market.
//
// @Summary Refresh the valuation model for one search
// @Description Retrains the search's fair-price model and re-derives deal scores for its listings.
// @Tags searches
// @Produce json
// @Param id path string true "Search UUID"
// @Success 200 {object} map[string]any "refreshed count"
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/searches/{id}/refresh-market [post]
func (h *SearchHandler) RefreshMarket(c echo.Context) error {
	id := c.Param("id")

	refreshed, err := h.refresher.RefreshSearchMarket(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "market refresh failed: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"refreshed": refreshed,
	})
}
