package ai

import (
	"errors"

	"github.com/kiranshivaraju/dsxmeta/internal/ai/llmhttp"
)

var (
	ErrProviderUnavailable = llmhttp.ErrUnavailable
	ErrInferenceTimeout    = llmhttp.ErrTimeout
	ErrInvalidResponse     = llmhttp.ErrInvalidResponse
	ErrProviderRejected    = llmhttp.ErrRejected

	ErrResultNotParsed  = errors.New("parse result has no model")
	ErrInvalidMode      = errors.New("mode must be sequential or parallel")
	ErrNoDocuments      = errors.New("at least one document is required")
	ErrBatchNotComplete = errors.New("batch has not completed")
)
