package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/internal/api/response"
)

type docsResponse struct {
	ResultID     uuid.UUID `json:"result_id"`
	DocumentName string    `json:"document_name"`
	Markdown     string    `json:"markdown"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
}

// NewGenerateDocsHandler returns an http.HandlerFunc for
// POST /api/v1/results/{resultID}/docs.
func NewGenerateDocsHandler(svc DocGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := tenantOrUnauthorized(w, r)
		if !ok {
			return
		}
		resultID, ok := uuidParam(w, r, "resultID")
		if !ok {
			return
		}

		out, err := svc.GenerateDocs(r.Context(), tenantID, resultID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.JSON(w, docsResponse{
			ResultID:     out.ResultID,
			DocumentName: out.DocumentName,
			Markdown:     out.Markdown,
			Provider:     out.Provider,
			Model:        out.Model,
		})
	}
}
