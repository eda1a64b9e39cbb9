package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tmarchal/autocote/internal/analysis"
	"github.com/tmarchal/autocote/pkg/scoring"
	domain "github.com/tmarchal/autocote/pkg/types"
)

// ListingGetter loads a single listing.
type ListingGetter interface {
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// ListingScorer computes and persists the score record for one listing from
// an analysis payload.
type ListingScorer interface {
	ScoreListing(ctx context.Context, listing *domain.Listing, payload []byte) (*scoring.ScoreRecord, error)
}

// ScoreHandler handles analysis submission and scoring.
type ScoreHandler struct {
	store  ListingGetter
	scorer ListingScorer
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(s ListingGetter, scorer ListingScorer) *ScoreHandler {
	return &ScoreHandler{store: s, scorer: scorer}
}

// SubmitAnalysisInput is the input for submitting an analysis payload. The
// body is the raw LLM output, optionally wrapped in markdown fences.
type SubmitAnalysisInput struct {
	ID      string `path:"id" doc:"Listing UUID"`
	RawBody []byte `contentType:"application/json"`
}

// SubmitAnalysisOutput is the response for submitting an analysis payload.
type SubmitAnalysisOutput struct {
	Body scoring.ScoreRecord
}

// SubmitAnalysis stores an analysis payload for a listing and computes its
// score record.
func (h *ScoreHandler) SubmitAnalysis(
	ctx context.Context,
	input *SubmitAnalysisInput,
) (*SubmitAnalysisOutput, error) {
	listing, err := h.store.GetListing(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("listing not found")
	}

	// Validate before handing off, so a malformed payload maps to 422
	// rather than a generic scoring failure.
	if _, err := analysis.Parse(input.RawBody); err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid analysis payload: " + err.Error())
	}

	rec, err := h.scorer.ScoreListing(ctx, listing, input.RawBody)
	if err != nil {
		return nil, huma.Error500InternalServerError("scoring failed: " + err.Error())
	}

	return &SubmitAnalysisOutput{Body: *rec}, nil
}

// RegisterScoreRoutes registers scoring endpoints with the Huma API.
func RegisterScoreRoutes(api huma.API, h *ScoreHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-analysis",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/analysis",
		Summary:     "Submit an analysis payload",
		Description: "Stores the textual-analysis payload for a listing and computes its composite score.",
		Tags:        []string{"scoring"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
		// The raw body is validated by analysis.Parse in the handler; without
		// this, huma validates the JSON body against the RawBody string/binary
		// schema and rejects every payload with 422 (review finding F5).
		SkipValidateBody: true,
	}, h.SubmitAnalysis)
}
