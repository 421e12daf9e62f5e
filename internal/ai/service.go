package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/internal/store"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// jobStatusTTL bounds how long job status stays in the cache.
const jobStatusTTL = 30 * time.Minute

// maxErrorMessage caps per-document error text stored with results.
const maxErrorMessage = 2000

// DocsOutput is the result of a documentation request.
type DocsOutput struct {
	ResultID     uuid.UUID
	DocumentName string
	Markdown     string
	Provider     string
	Model        string
}

// DocService sends stored job models to the configured AI provider.
type DocService struct {
	provider models.AIProvider
	store    store.Store
	timeout  time.Duration
}

// NewDocService creates a new DocService.
func NewDocService(provider models.AIProvider, st store.Store, timeout time.Duration) *DocService {
	return &DocService{provider: provider, store: st, timeout: timeout}
}

// GenerateDocs loads a stored parse result and asks the provider for Markdown
// documentation of its model.
func (s *DocService) GenerateDocs(ctx context.Context, tenantID, resultID uuid.UUID) (*DocsOutput, error) {
	result, err := s.store.GetParseResult(ctx, resultID, tenantID)
	if err != nil {
		return nil, err
	}
	if result.Model == nil {
		return nil, ErrResultNotParsed
	}

	metadata, err := json.Marshal(result.Model)
	if err != nil {
		return nil, fmt.Errorf("encoding model: %w", err)
	}

	docsCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.provider.GenerateDocs(docsCtx, models.DocsRequest{
		JobName:  result.Model.Name,
		Metadata: metadata,
	})
	if err != nil {
		if errors.Is(docsCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrInferenceTimeout
		}
		return nil, err
	}

	return &DocsOutput{
		ResultID:     result.ID,
		DocumentName: result.DocumentName,
		Markdown:     out.Markdown,
		Provider:     s.provider.Name(),
		Model:        out.Model,
	}, nil
}

// BatchParams describes one batch upload.
type BatchParams struct {
	TenantID    uuid.UUID
	Mode        string
	Concurrency int
	Documents   []batch.Document
}

// BatchService runs batch parses as async jobs and persists their results.
type BatchService struct {
	orchestrator *batch.Orchestrator
	store        store.Store
	cache        cache.Cache
}

// NewBatchService creates a new BatchService.
func NewBatchService(o *batch.Orchestrator, st store.Store, ca cache.Cache) *BatchService {
	return &BatchService{orchestrator: o, store: st, cache: ca}
}

// TriggerBatch creates a pending job and runs the batch in a background goroutine.
// Returns the job immediately without waiting for parsing to complete.
func (s *BatchService) TriggerBatch(ctx context.Context, params BatchParams) (*models.Job, error) {
	if params.Mode == "" {
		params.Mode = models.BatchModeSequential
	}
	if params.Mode != models.BatchModeSequential && params.Mode != models.BatchModeParallel {
		return nil, ErrInvalidMode
	}
	if len(params.Documents) == 0 {
		return nil, ErrNoDocuments
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		Mode:          params.Mode,
		Status:        models.JobStatusPending,
		DocumentCount: len(params.Documents),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, jobStatusTTL)

	go s.runBatch(job.ID, params)

	return job, nil
}

// runBatch parses the documents in a goroutine.
// It recovers from panics and always marks the job as completed or failed.
func (s *BatchService) runBatch(jobID uuid.UUID, params BatchParams) {
	ctx := context.Background()
	logger := slog.With("job_id", jobID, "mode", params.Mode)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in runBatch", "error", r)
			s.fail(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning)
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusRunning, jobStatusTTL)

	var (
		res *batch.BatchResult
		err error
	)
	if params.Mode == models.BatchModeParallel {
		res, err = s.orchestrator.RunParallel(ctx, params.Documents, params.Concurrency)
	} else {
		res, err = s.orchestrator.RunSequential(ctx, params.Documents, func(p batch.Progress) {
			logger.Debug("batch progress", "processed", p.Processed, "total", p.Total, "document", p.CurrentDocument)
		})
	}
	if err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("running batch: %v", err))
		return
	}

	rows := toParseResults(jobID, params.TenantID, res)
	if err := s.store.CreateParseResults(ctx, rows); err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("storing results: %v", err))
		return
	}

	_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithCounts(len(res.Results), res.Succeeded, res.Failed))
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusCompleted, jobStatusTTL)
	logger.Info("batch completed", "documents", len(res.Results), "succeeded", res.Succeeded, "failed", res.Failed)
}

func (s *BatchService) fail(ctx context.Context, jobID uuid.UUID, msg string) {
	_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed, store.WithErrorMessage(msg))
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, jobStatusTTL)
}

// GetBatch returns the job and, once it has completed, its per-document results.
func (s *BatchService) GetBatch(ctx context.Context, tenantID, jobID uuid.UUID) (*models.Job, []*models.ParseResult, error) {
	job, err := s.store.GetJob(ctx, jobID, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return job, []*models.ParseResult{}, nil
	}
	results, err := s.store.ListParseResults(ctx, jobID, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing results: %w", err)
	}
	return job, results, nil
}

// ExportDocuments returns the successful documents of a completed batch in
// stored order, ready for batch.Export.
func (s *BatchService) ExportDocuments(ctx context.Context, tenantID, jobID uuid.UUID) ([]*models.ParsedDocument, error) {
	job, results, err := s.GetBatch(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return nil, ErrBatchNotComplete
	}

	docs := make([]*models.ParsedDocument, 0, len(results))
	for _, r := range results {
		if r.Model == nil {
			continue
		}
		doc := &models.ParsedDocument{DocumentName: r.DocumentName, Model: r.Model}
		if r.Validation != nil {
			doc.Validation = *r.Validation
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func toParseResults(jobID, tenantID uuid.UUID, res *batch.BatchResult) []*models.ParseResult {
	now := time.Now().UTC()
	rows := make([]*models.ParseResult, 0, len(res.Results))
	for i, r := range res.Results {
		row := &models.ParseResult{
			ID:           uuid.New(),
			JobID:        jobID,
			TenantID:     tenantID,
			Position:     i,
			DocumentName: r.DocumentName,
			Status:       r.State,
			CreatedAt:    now,
		}
		if r.Err != nil {
			msg := truncateString(r.Err.Error(), maxErrorMessage)
			row.ErrorMessage = &msg
		} else if r.Parsed != nil {
			row.Model = r.Parsed.Model
			v := r.Parsed.Validation
			row.Validation = &v
		}
		rows = append(rows, row)
	}
	return rows
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
