// Package handler implements the HTTP endpoints. Handlers depend on small
// interfaces so they can be tested without a database.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/internal/ai"
	mw "github.com/kiranshivaraju/dsxmeta/internal/api/middleware"
	"github.com/kiranshivaraju/dsxmeta/internal/api/response"
	"github.com/kiranshivaraju/dsxmeta/internal/store"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// BatchRunner starts batch jobs and reads their outcome.
type BatchRunner interface {
	TriggerBatch(ctx context.Context, params ai.BatchParams) (*models.Job, error)
	GetBatch(ctx context.Context, tenantID, jobID uuid.UUID) (*models.Job, []*models.ParseResult, error)
	ExportDocuments(ctx context.Context, tenantID, jobID uuid.UUID) ([]*models.ParsedDocument, error)
}

// DocGenerator produces documentation for one stored parse result.
type DocGenerator interface {
	GenerateDocs(ctx context.Context, tenantID, resultID uuid.UUID) (*ai.DocsOutput, error)
}

// CacheClearer evicts cached parse results.
type CacheClearer interface {
	Clear(ctx context.Context) (int, error)
}

func tenantOrUnauthorized(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, ok := mw.GetTenantID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
	}
	return tenantID, ok
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service and provider errors to the error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, ai.ErrInvalidMode), errors.Is(err, ai.ErrNoDocuments):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, ai.ErrBatchNotComplete):
		response.Error(w, http.StatusConflict, "BATCH_NOT_COMPLETE",
			"The batch has not completed yet", nil)
	case errors.Is(err, ai.ErrResultNotParsed):
		response.Error(w, http.StatusUnprocessableEntity, "RESULT_NOT_PARSED",
			"The document failed to parse and has no model", nil)
	case errors.Is(err, ai.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider is not available", nil)
	case errors.Is(err, ai.ErrProviderRejected), errors.Is(err, ai.ErrInvalidResponse):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_ERROR",
			"The AI provider could not produce documentation", nil)
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"Documentation generation took too long and was cancelled", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
