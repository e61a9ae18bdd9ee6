package openaicompat

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/types"
)

func TestBuildRequest(t *testing.T) {
	c := New(WithAPIKey("sk-test"), WithHeader("X-Custom", "v"))

	req, err := c.BuildRequest(context.Background(), &types.ChatRequest{
		Model:    "gpt-4o",
		Messages: []types.ChatMessage{{Role: "user", Content: "hi"}},
		Stream:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", req.URL.String())
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "v", req.Header.Get("X-Custom"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var sent types.ChatRequest
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "gpt-4o", sent.Model)
	assert.True(t, sent.Stream)
}

func TestBuildRequestFreeTierBaseURL(t *testing.T) {
	c := New(WithAPIKey("ghp-test"), WithBaseURL(FreeTierBaseURL))

	req, err := c.BuildRequest(context.Background(), &types.ChatRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "https://models.inference.ai.azure.com/chat/completions", req.URL.String())
}

func TestWithBaseURLEmptyKeepsDefault(t *testing.T) {
	c := New(WithBaseURL(""))
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestMapErrorBodyCodeTakesPrecedence(t *testing.T) {
	c := New()

	// A free-tier quota error arrives as 413 with a body code; the body
	// code decides the class.
	body := []byte(`{"error": {"code": "tokens_limit_reached", "message": "Request body too large"}}`)
	err := c.MapError(http.StatusRequestEntityTooLarge, nil, body, "gpt-4o")

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeContextLength, llmErr.Type)
	assert.Equal(t, "gpt-4o", llmErr.Model)
}

func TestMapErrorRateLimitWithRetryAfter(t *testing.T) {
	c := New()

	header := http.Header{}
	header.Set("Retry-After", "120")
	body := []byte(`{"error": {"code": "RateLimitReached", "message": "quota exhausted"}}`)
	err := c.MapError(http.StatusTooManyRequests, header, body, "gpt-4o-mini")

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeRateLimit, llmErr.Type)
	assert.Equal(t, 2*time.Minute, llmErr.RetryAfter)
}

func TestMapErrorContentFilter(t *testing.T) {
	c := New()

	body := []byte(`{"error": {"code": "content_filter", "message": "filtered"}}`)
	err := c.MapError(http.StatusBadRequest, nil, body, "gpt-4o")

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeContentPolicy, llmErr.Type)
}

func TestMapErrorUnauthorizedBodyCode(t *testing.T) {
	c := New()

	body := []byte(`{"error": {"code": "unauthorized", "message": "bad key"}}`)
	err := c.MapError(http.StatusOK, nil, body, "gpt-4o")

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeAuthentication, llmErr.Type)
}

func TestMapErrorFallsBackToStatusCode(t *testing.T) {
	c := New()

	err := c.MapError(http.StatusServiceUnavailable, nil, []byte("upstream down"), "gpt-4o")
	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeServiceUnavailable, llmErr.Type)
	assert.Equal(t, "unknown error", llmErr.Message)
}

func TestParseStreamChunk(t *testing.T) {
	c := New()

	chunk, err := c.ParseStreamChunk([]byte(`data: {"choices":[{"delta":{"content":"hel"}}]}`))
	require.NoError(t, err)
	require.NotNil(t, chunk)
	require.Len(t, chunk.Choices, 1)
	assert.Equal(t, "hel", chunk.Choices[0].Delta.Content)

	done, err := c.ParseStreamChunk([]byte("data: [DONE]"))
	require.NoError(t, err)
	assert.Nil(t, done)

	empty, err := c.ParseStreamChunk([]byte("   "))
	require.NoError(t, err)
	assert.Nil(t, empty)
}
