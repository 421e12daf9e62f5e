package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/internal/batch"
	"github.com/kiranshivaraju/dsxmeta/internal/cache"
	"github.com/kiranshivaraju/dsxmeta/internal/dsx"
	"github.com/kiranshivaraju/dsxmeta/internal/store"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// --- mocks ---

type mockStore struct {
	mu                 sync.Mutex
	jobs               map[uuid.UUID]*models.Job
	results            []*models.ParseResult
	statusUpdates      []statusUpdate
	createJobErr       error
	createResultsErr   error
	getParseResultErr  error
	storedParseResults map[uuid.UUID]*models.ParseResult
}

type statusUpdate struct {
	ID     uuid.UUID
	Status string
}

func newMockStore() *mockStore {
	return &mockStore{
		jobs:               make(map[uuid.UUID]*models.Job),
		storedParseResults: make(map[uuid.UUID]*models.ParseResult),
	}
}

func (s *mockStore) Ping(_ context.Context) error                                { return nil }
func (s *mockStore) GetDefaultTenant(_ context.Context) (*models.Tenant, error) { return nil, nil }
func (s *mockStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *mockStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error    { return nil }
func (s *mockStore) ListAPIKeys(_ context.Context, _ uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *mockStore) RevokeAPIKey(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }

func (s *mockStore) CreateJob(_ context.Context, job *models.Job) error {
	if s.createJobErr != nil {
		return s.createJobErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *mockStore) GetJob(_ context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *mockStore) UpdateJobStatus(_ context.Context, id uuid.UUID, status string, _ ...store.JobUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
	}
	s.statusUpdates = append(s.statusUpdates, statusUpdate{ID: id, Status: status})
	return nil
}

func (s *mockStore) CreateParseResults(_ context.Context, results []*models.ParseResult) error {
	if s.createResultsErr != nil {
		return s.createResultsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
	return nil
}

func (s *mockStore) ListParseResults(_ context.Context, jobID uuid.UUID, tenantID uuid.UUID) ([]*models.ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.ParseResult{}
	for _, r := range s.results {
		if r.JobID == jobID && r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *mockStore) GetParseResult(_ context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.ParseResult, error) {
	if s.getParseResultErr != nil {
		return nil, s.getParseResultErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.storedParseResults[id]
	if !ok || r.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

type mockProvider struct {
	name    string
	docsFn  func(ctx context.Context, req models.DocsRequest) (models.DocsResult, error)
	lastReq models.DocsRequest
}

func (p *mockProvider) Name() string { return p.name }
func (p *mockProvider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	p.lastReq = req
	if p.docsFn != nil {
		return p.docsFn(ctx, req)
	}
	return models.DocsResult{}, nil
}

// --- helpers ---

func jobDSX(name string) []byte {
	return []byte(fmt.Sprintf("BEGIN DSJOB\n   Identifier \"%s\"\n   BEGIN DSRECORD\n      Identifier \"ROOT\"\n      JobType \"2\"\n   END DSRECORD\nEND DSJOB\n", name))
}

func newBatchService(st store.Store, ca cache.Cache) *BatchService {
	o := batch.NewOrchestrator(dsx.NewParser(dsx.DefaultOptions()), nil, batch.DefaultArchiveEstimate, nil)
	return NewBatchService(o, st, ca)
}

func waitForStatus(t *testing.T, s *mockStore, jobID uuid.UUID, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		s.mu.Lock()
		status := s.jobs[jobID].Status
		s.mu.Unlock()
		if status == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %q, got %q", want, status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// --- TriggerBatch tests ---

func TestTriggerBatch_ReturnsJobImmediately(t *testing.T) {
	st := newMockStore()
	ca := cache.NewMemoryCache()
	svc := newBatchService(st, ca)

	tenantID := uuid.New()
	slow := batch.Document{
		Name: "slow.dsx",
		Open: func() (io.ReadCloser, error) {
			time.Sleep(100 * time.Millisecond)
			return io.NopCloser(bytes.NewReader(jobDSX("SLOW"))), nil
		},
	}

	start := time.Now()
	job, err := svc.TriggerBatch(context.Background(), BatchParams{TenantID: tenantID, Documents: []batch.Document{slow}})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != models.JobStatusPending {
		t.Errorf("expected status pending, got %s", job.Status)
	}
	if job.Mode != models.BatchModeSequential {
		t.Errorf("expected default mode sequential, got %s", job.Mode)
	}
	if job.DocumentCount != 1 {
		t.Errorf("expected document count 1, got %d", job.DocumentCount)
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf("TriggerBatch should return immediately, took %v", elapsed)
	}

	waitForStatus(t, st, job.ID, models.JobStatusCompleted)
}

func TestTriggerBatch_Validation(t *testing.T) {
	svc := newBatchService(newMockStore(), cache.NewMemoryCache())
	docs := []batch.Document{batch.BytesDocument("a.dsx", time.Now(), jobDSX("A"))}

	_, err := svc.TriggerBatch(context.Background(), BatchParams{Mode: "bogus", Documents: docs})
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}

	_, err = svc.TriggerBatch(context.Background(), BatchParams{Mode: models.BatchModeParallel})
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestTriggerBatch_CreateJobError(t *testing.T) {
	st := newMockStore()
	st.createJobErr = errors.New("db down")
	svc := newBatchService(st, cache.NewMemoryCache())

	docs := []batch.Document{batch.BytesDocument("a.dsx", time.Now(), jobDSX("A"))}
	_, err := svc.TriggerBatch(context.Background(), BatchParams{Documents: docs})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunBatch_StoresResultsInOrder(t *testing.T) {
	st := newMockStore()
	ca := cache.NewMemoryCache()
	svc := newBatchService(st, ca)
	tenantID := uuid.New()

	docs := []batch.Document{
		batch.BytesDocument("b.dsx", time.Now(), jobDSX("B")),
		batch.BytesDocument("broken.dsx", time.Now(), []byte("nothing")),
		batch.BytesDocument("a.dsx", time.Now(), jobDSX("A")),
	}
	job, err := svc.TriggerBatch(context.Background(), BatchParams{TenantID: tenantID, Documents: docs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForStatus(t, st, job.ID, models.JobStatusCompleted)

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(st.results))
	}
	wantNames := []string{"b.dsx", "broken.dsx", "a.dsx"}
	for i, r := range st.results {
		if r.DocumentName != wantNames[i] || r.Position != i {
			t.Errorf("result %d: got %s at position %d", i, r.DocumentName, r.Position)
		}
		if r.JobID != job.ID || r.TenantID != tenantID {
			t.Errorf("result %d not linked to job/tenant", i)
		}
	}
	if st.results[0].Model == nil || st.results[0].Model.Type != models.JobTypeSequence {
		t.Errorf("expected parsed sequence job model, got %+v", st.results[0].Model)
	}
	if st.results[0].Validation == nil {
		t.Error("expected validation on successful result")
	}
	if st.results[1].ErrorMessage == nil || st.results[1].Status != models.DocumentFailed {
		t.Errorf("expected failed result with message, got %+v", st.results[1])
	}

	if st.statusUpdates[0].Status != models.JobStatusRunning {
		t.Errorf("expected first update to 'running', got %s", st.statusUpdates[0].Status)
	}

	status, _, _ := ca.GetJobStatus(context.Background(), job.ID)
	if status != models.JobStatusCompleted {
		t.Errorf("expected cached status 'completed', got %s", status)
	}
}

func TestRunBatch_Parallel(t *testing.T) {
	st := newMockStore()
	svc := newBatchService(st, cache.NewMemoryCache())

	var docs []batch.Document
	for i := 0; i < 6; i++ {
		docs = append(docs, batch.BytesDocument(fmt.Sprintf("j%d.dsx", i), time.Now(), jobDSX(fmt.Sprintf("J%d", i))))
	}
	job, err := svc.TriggerBatch(context.Background(), BatchParams{
		TenantID: uuid.New(), Mode: models.BatchModeParallel, Concurrency: 3, Documents: docs,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForStatus(t, st, job.ID, models.JobStatusCompleted)

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.results) != 6 {
		t.Errorf("expected 6 results, got %d", len(st.results))
	}
}

func TestRunBatch_MarksJobFailedWhenStoringFails(t *testing.T) {
	st := newMockStore()
	st.createResultsErr = errors.New("insert failed")
	ca := cache.NewMemoryCache()
	svc := newBatchService(st, ca)

	docs := []batch.Document{batch.BytesDocument("a.dsx", time.Now(), jobDSX("A"))}
	job, err := svc.TriggerBatch(context.Background(), BatchParams{TenantID: uuid.New(), Documents: docs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForStatus(t, st, job.ID, models.JobStatusFailed)

	status, _, _ := ca.GetJobStatus(context.Background(), job.ID)
	if status != models.JobStatusFailed {
		t.Errorf("expected cached status 'failed', got %s", status)
	}
}

func TestRunBatch_RecoversFromPanic(t *testing.T) {
	st := newMockStore()
	svc := newBatchService(st, cache.NewMemoryCache())

	docs := []batch.Document{{
		Name: "panics.zip",
		Open: func() (io.ReadCloser, error) { panic("archive reader exploded") },
	}}
	job, err := svc.TriggerBatch(context.Background(), BatchParams{TenantID: uuid.New(), Documents: docs})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitForStatus(t, st, job.ID, models.JobStatusFailed)
}

// --- GetBatch / ExportDocuments tests ---

func TestGetBatch_PendingHasNoResults(t *testing.T) {
	st := newMockStore()
	tenantID := uuid.New()
	job := &models.Job{ID: uuid.New(), TenantID: tenantID, Status: models.JobStatusRunning}
	_ = st.CreateJob(context.Background(), job)

	svc := newBatchService(st, cache.NewMemoryCache())
	got, results, err := svc.GetBatch(context.Background(), tenantID, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.JobStatusRunning || results == nil || len(results) != 0 {
		t.Errorf("expected running job with empty results, got %s / %v", got.Status, results)
	}

	if _, err := svc.ExportDocuments(context.Background(), tenantID, job.ID); !errors.Is(err, ErrBatchNotComplete) {
		t.Errorf("expected ErrBatchNotComplete, got %v", err)
	}
}

func TestGetBatch_OtherTenant(t *testing.T) {
	st := newMockStore()
	job := &models.Job{ID: uuid.New(), TenantID: uuid.New(), Status: models.JobStatusCompleted}
	_ = st.CreateJob(context.Background(), job)

	svc := newBatchService(st, cache.NewMemoryCache())
	_, _, err := svc.GetBatch(context.Background(), uuid.New(), job.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExportDocuments_SkipsFailures(t *testing.T) {
	st := newMockStore()
	tenantID := uuid.New()
	job := &models.Job{ID: uuid.New(), TenantID: tenantID, Status: models.JobStatusCompleted}
	_ = st.CreateJob(context.Background(), job)
	msg := "bad"
	_ = st.CreateParseResults(context.Background(), []*models.ParseResult{
		{JobID: job.ID, TenantID: tenantID, DocumentName: "a.dsx", Model: &models.JobMetadata{Name: "A"},
			Validation: &models.Validation{Valid: false, Issues: []string{"Missing job type"}}},
		{JobID: job.ID, TenantID: tenantID, DocumentName: "b.dsx", ErrorMessage: &msg},
	})

	svc := newBatchService(st, cache.NewMemoryCache())
	docs, err := svc.ExportDocuments(context.Background(), tenantID, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].DocumentName != "a.dsx" || docs[0].Model.Name != "A" {
		t.Fatalf("unexpected export documents: %+v", docs)
	}
	if docs[0].Validation.Valid || len(docs[0].Validation.Issues) != 1 {
		t.Errorf("expected validation carried over, got %+v", docs[0].Validation)
	}
}

// --- DocService tests ---

func storedResult(st *mockStore, tenantID uuid.UUID, model *models.JobMetadata) *models.ParseResult {
	r := &models.ParseResult{ID: uuid.New(), TenantID: tenantID, DocumentName: "a.dsx", Model: model}
	st.storedParseResults[r.ID] = r
	return r
}

func TestGenerateDocs_Success(t *testing.T) {
	st := newMockStore()
	tenantID := uuid.New()
	r := storedResult(st, tenantID, &models.JobMetadata{Name: "JOB_A", Type: models.JobTypeParallel})

	provider := &mockProvider{
		name: "mock",
		docsFn: func(_ context.Context, req models.DocsRequest) (models.DocsResult, error) {
			return models.DocsResult{Markdown: "# " + req.JobName, Model: "mock-v1"}, nil
		},
	}
	svc := NewDocService(provider, st, 5*time.Second)

	out, err := svc.GenerateDocs(context.Background(), tenantID, r.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Markdown != "# JOB_A" || out.Provider != "mock" || out.Model != "mock-v1" {
		t.Errorf("unexpected output: %+v", out)
	}
	if out.ResultID != r.ID || out.DocumentName != "a.dsx" {
		t.Errorf("output not linked to result: %+v", out)
	}
	if !bytes.Contains(provider.lastReq.Metadata, []byte(`"name":"JOB_A"`)) {
		t.Errorf("expected serialized model in request, got %s", provider.lastReq.Metadata)
	}
}

func TestGenerateDocs_NotFound(t *testing.T) {
	svc := NewDocService(&mockProvider{name: "mock"}, newMockStore(), time.Second)
	_, err := svc.GenerateDocs(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateDocs_FailedResult(t *testing.T) {
	st := newMockStore()
	tenantID := uuid.New()
	r := storedResult(st, tenantID, nil)

	svc := NewDocService(&mockProvider{name: "mock"}, st, time.Second)
	_, err := svc.GenerateDocs(context.Background(), tenantID, r.ID)
	if !errors.Is(err, ErrResultNotParsed) {
		t.Errorf("expected ErrResultNotParsed, got %v", err)
	}
}

func TestGenerateDocs_Timeout(t *testing.T) {
	st := newMockStore()
	tenantID := uuid.New()
	r := storedResult(st, tenantID, &models.JobMetadata{Name: "JOB_A"})

	provider := &mockProvider{
		name: "slow",
		docsFn: func(ctx context.Context, _ models.DocsRequest) (models.DocsResult, error) {
			<-ctx.Done()
			return models.DocsResult{}, ctx.Err()
		},
	}
	svc := NewDocService(provider, st, 20*time.Millisecond)

	_, err := svc.GenerateDocs(context.Background(), tenantID, r.ID)
	if !errors.Is(err, ErrInferenceTimeout) {
		t.Errorf("expected ErrInferenceTimeout, got %v", err)
	}
}

func TestGenerateDocs_ProviderError(t *testing.T) {
	st := newMockStore()
	tenantID := uuid.New()
	r := storedResult(st, tenantID, &models.JobMetadata{Name: "JOB_A"})

	provider := &mockProvider{
		name: "down",
		docsFn: func(_ context.Context, _ models.DocsRequest) (models.DocsResult, error) {
			return models.DocsResult{}, fmt.Errorf("%w: connection refused", ErrProviderUnavailable)
		},
	}
	svc := NewDocService(provider, st, time.Second)

	_, err := svc.GenerateDocs(context.Background(), tenantID, r.ID)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("héllo", 2); got != "h" {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}
