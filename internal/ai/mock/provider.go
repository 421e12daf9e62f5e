package mock

import (
	"context"

	"github.com/kiranshivaraju/dsxmeta/internal/ai"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_            string
	GenerateDocsFunc func(ctx context.Context, req models.DocsRequest) (models.DocsResult, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) GenerateDocs(ctx context.Context, req models.DocsRequest) (models.DocsResult, error) {
	if m.GenerateDocsFunc != nil {
		return m.GenerateDocsFunc(ctx, req)
	}
	return models.DocsResult{}, nil
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateDocsFunc: func(_ context.Context, req models.DocsRequest) (models.DocsResult, error) {
			return models.DocsResult{
				Markdown: "# " + req.JobName + "\n\n## 1. Overview\n\nMock documentation for testing.\n",
				Model:    "mock-v1",
			}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateDocsFunc: func(_ context.Context, _ models.DocsRequest) (models.DocsResult, error) {
			return models.DocsResult{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		GenerateDocsFunc: func(ctx context.Context, _ models.DocsRequest) (models.DocsResult, error) {
			<-ctx.Done()
			return models.DocsResult{}, ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
