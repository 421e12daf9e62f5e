package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/ai"
	"github.com/kiranshivaraju/dsxmeta/internal/api/response"
	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

const (
	maxConcurrency = 32
	// multipartMemory is held in memory before spilling parts to disk.
	multipartMemory = 32 << 20
)

// UploadLimits bounds a batch upload.
type UploadLimits struct {
	MaxBytes           int64
	DefaultConcurrency int
}

// NewCreateBatchHandler returns an http.HandlerFunc for POST /api/v1/batches.
//
// The multipart form carries one or more "files" parts, an optional "mode"
// (sequential or parallel), an optional "concurrency" and optional
// "last_modified" values, one per file in Unix milliseconds, used for cache
// identity.
func NewCreateBatchHandler(svc BatchRunner, limits UploadLimits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := tenantOrUnauthorized(w, r)
		if !ok {
			return
		}

		if limits.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBytes)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
					fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit), nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "at least one file is required", nil)
			return
		}

		concurrency := limits.DefaultConcurrency
		if raw := r.FormValue("concurrency"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxConcurrency {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					fmt.Sprintf("concurrency must be between 1 and %d", maxConcurrency), nil)
				return
			}
			concurrency = n
		}

		modTimes := r.MultipartForm.Value["last_modified"]
		uploadedAt := time.Now().UTC()
		docs := make([]batch.Document, 0, len(files))
		for i, fh := range files {
			data, err := readPart(fh)
			if err != nil {
				slog.Warn("reading upload failed", "document", fh.Filename, "error", err)
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "could not read "+fh.Filename, nil)
				return
			}
			modTime := uploadedAt
			if i < len(modTimes) {
				ms, err := strconv.ParseInt(modTimes[i], 10, 64)
				if err != nil {
					response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
						"last_modified must be Unix milliseconds", nil)
					return
				}
				modTime = time.UnixMilli(ms).UTC()
			}
			docs = append(docs, batch.BytesDocument(fh.Filename, modTime, data))
		}

		job, err := svc.TriggerBatch(r.Context(), ai.BatchParams{
			TenantID:    tenantID,
			Mode:        r.FormValue("mode"),
			Concurrency: concurrency,
			Documents:   docs,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.Accepted(w, job)
	}
}

// readPart copies an uploaded part into memory. Parsing happens after the
// request returns, when multipart temp files are gone.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type batchResponse struct {
	Job     *models.Job           `json:"job"`
	Results []*models.ParseResult `json:"results"`
}

// NewGetBatchHandler returns an http.HandlerFunc for GET /api/v1/batches/{jobID}.
func NewGetBatchHandler(svc BatchRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := tenantOrUnauthorized(w, r)
		if !ok {
			return
		}
		jobID, ok := uuidParam(w, r, "jobID")
		if !ok {
			return
		}

		job, results, err := svc.GetBatch(r.Context(), tenantID, jobID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.JSON(w, batchResponse{Job: job, Results: results})
	}
}

// NewExportBatchHandler returns an http.HandlerFunc for
// GET /api/v1/batches/{jobID}/export. The body is a zip of per-document JSON.
func NewExportBatchHandler(svc BatchRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := tenantOrUnauthorized(w, r)
		if !ok {
			return
		}
		jobID, ok := uuidParam(w, r, "jobID")
		if !ok {
			return
		}

		docs, err := svc.ExportDocuments(r.Context(), tenantID, jobID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.Attachment(w, "application/zip", fmt.Sprintf("dsx-batch-%s.zip", jobID))
		if err := batch.Export(w, docs); err != nil {
			slog.Error("writing export bundle failed", "job_id", jobID, "error", err)
		}
	}
}
