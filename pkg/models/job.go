package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const (
	BatchModeSequential = "sequential"
	BatchModeParallel   = "parallel"
)

// Job tracks an async batch parse. The API returns a job on POST /api/v1/batches;
// the client polls GET /api/v1/batches/{job_id} until status is completed or failed.
type Job struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	TenantID      uuid.UUID  `db:"tenant_id"      json:"tenant_id"`
	Mode          string     `db:"mode"           json:"mode"`
	Status        string     `db:"status"         json:"status"`
	DocumentCount int        `db:"document_count" json:"document_count"`
	Succeeded     int        `db:"succeeded"      json:"succeeded"`
	Failed        int        `db:"failed"         json:"failed"`
	ErrorMessage  *string    `db:"error_message"  json:"error_message,omitempty"`
	StartedAt     *time.Time `db:"started_at"     json:"started_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at"   json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}
