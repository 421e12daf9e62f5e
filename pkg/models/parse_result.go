package models

import (
	"time"

	"github.com/google/uuid"
)

// Document states within a batch.
const (
	DocumentQueued     = "queued"
	DocumentExtracting = "extracting"
	DocumentParsing    = "parsing"
	DocumentCached     = "cached"
	DocumentFailed     = "failed"
)

// ParseResult is the persisted outcome of one document within a batch job.
// Exactly one of Model or ErrorMessage is set.
type ParseResult struct {
	ID           uuid.UUID    `db:"id"            json:"id"`
	JobID        uuid.UUID    `db:"job_id"        json:"job_id"`
	TenantID     uuid.UUID    `db:"tenant_id"     json:"tenant_id"`
	Position     int          `db:"position"      json:"position"`
	DocumentName string       `db:"document_name" json:"document_name"`
	Status       string       `db:"status"        json:"status"`
	Model        *JobMetadata `db:"model"         json:"model,omitempty"`
	Validation   *Validation  `db:"validation"    json:"validation,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time    `db:"created_at"    json:"created_at"`
}
