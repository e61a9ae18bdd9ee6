package azurecompat

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/types"
)

func TestBuildRequestUsesAPIKeyHeaderAndVersion(t *testing.T) {
	c := New(WithAPIKey("az-key"))

	req, err := c.BuildRequest(context.Background(), &types.ChatRequest{
		Model:    "Phi-3.5-mini-instruct",
		Messages: []types.ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "az-key", req.Header.Get("api-key"))
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Equal(t, DefaultAPIVersion, req.URL.Query().Get("api-version"))
	assert.Equal(t, "models.inference.ai.azure.com", req.URL.Host)
}

func TestWithAPIVersionOverride(t *testing.T) {
	c := New(WithAPIKey("az-key"), WithAPIVersion("2024-06-01"))

	req, err := c.BuildRequest(context.Background(), &types.ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", req.URL.Query().Get("api-version"))
}

func TestMapErrorBodyCodes(t *testing.T) {
	c := New()

	tests := []struct {
		code     string
		status   int
		wantType string
	}{
		{"tokens_limit_reached", http.StatusRequestEntityTooLarge, llmerrors.TypeContextLength},
		{"RateLimitReached", http.StatusTooManyRequests, llmerrors.TypeRateLimit},
		{"content_filter", http.StatusBadRequest, llmerrors.TypeContentPolicy},
		{"unauthorized", http.StatusUnauthorized, llmerrors.TypeAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			body := []byte(`{"error": {"code": "` + tt.code + `", "message": "x"}}`)
			err := c.MapError(tt.status, nil, body, "phi")

			llmErr, ok := llmerrors.AsLLMError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, llmErr.Type)
			assert.Equal(t, BackendName, llmErr.Backend)
		})
	}
}

func TestMapErrorStatusFallback(t *testing.T) {
	c := New()
	err := c.MapError(http.StatusBadGateway, nil, []byte("html error page"), "phi")

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeServiceUnavailable, llmErr.Type)
}
