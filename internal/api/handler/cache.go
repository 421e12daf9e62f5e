package handler

import (
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/dsxmeta/internal/api/response"
)

// NewClearCacheHandler returns an http.HandlerFunc for DELETE /api/v1/admin/cache.
func NewClearCacheHandler(c CacheClearer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := c.Clear(r.Context())
		if err != nil {
			slog.Error("clearing parse cache failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to clear the parse cache", nil)
			return
		}
		slog.Info("parse cache cleared", "removed", removed)
		response.JSON(w, map[string]int{"removed": removed})
	}
}
