// Package models contains shared data models used across the dsxmeta codebase.
package models

import "context"

// AIProvider is the core interface that all AI integrations must implement.
// Never call specific AI providers directly; always inject this interface.
type AIProvider interface {
	// GenerateDocs turns one serialized JobMetadata into Markdown documentation.
	GenerateDocs(ctx context.Context, req DocsRequest) (DocsResult, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// DocsRequest is the input to a documentation generation call. Metadata is
// passed through as opaque JSON.
type DocsRequest struct {
	JobName  string
	Metadata []byte
}

// DocsResult is the provider output.
type DocsResult struct {
	Markdown string `json:"markdown"`
	Model    string `json:"model"`
}
