package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid job status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error

	CreateParseResults(ctx context.Context, results []*models.ParseResult) error
	ListParseResults(ctx context.Context, jobID uuid.UUID, tenantID uuid.UUID) ([]*models.ParseResult, error)
	GetParseResult(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.ParseResult, error)
}

type jobUpdateParams struct {
	ErrorMessage  *string
	DocumentCount *int
	Succeeded     *int
	Failed        *int
}

type JobUpdateOption func(*jobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

// WithCounts records the batch totals, typically on completion.
func WithCounts(documents, succeeded, failed int) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.DocumentCount = &documents
		p.Succeeded = &succeeded
		p.Failed = &failed
	}
}
