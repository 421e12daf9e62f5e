package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranshivaraju/dsxmeta/internal/ai"
	"github.com/kiranshivaraju/dsxmeta/internal/ai/mock"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.DocsRequest {
	return models.DocsRequest{JobName: "JOB_A", Metadata: []byte(`{"name":"JOB_A"}`)}
}

func TestNewMockProvider_Name(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewMockProvider_GenerateDocs(t *testing.T) {
	p := mock.NewMockProvider()
	res, err := p.GenerateDocs(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "mock-v1", res.Model)
	assert.Contains(t, res.Markdown, "# JOB_A")
}

func TestMockProvider_ZeroValue(t *testing.T) {
	p := &mock.MockProvider{Name_: "bare"}
	res, err := p.GenerateDocs(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Empty(t, res.Markdown)
}

func TestNewFailingProvider(t *testing.T) {
	boom := errors.New("boom")
	p := mock.NewFailingProvider(boom)
	assert.Equal(t, "mock-failing", p.Name())

	_, err := p.GenerateDocs(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, boom)
}

func TestNewTimeoutProvider(t *testing.T) {
	p := mock.NewTimeoutProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.GenerateDocs(ctx, sampleRequest())
	assert.ErrorIs(t, err, ai.ErrInferenceTimeout)
	assert.Less(t, time.Since(start), time.Second)
}
