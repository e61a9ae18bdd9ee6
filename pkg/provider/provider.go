// Package provider defines the public interface for LLM backend adapters.
// Each backend family (OpenAI-compatible, Azure-compatible) implements this
// interface to handle request/response transformation and API communication.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/personagen/llmroute/pkg/types"
)

// ChatClient defines the interface that backend adapters must implement.
// It handles the complete lifecycle of an LLM request: building, sending,
// and parsing.
type ChatClient interface {
	// Name returns the backend identifier (e.g. "openai-compatible").
	Name() string

	// BuildRequest transforms a unified ChatRequest into a
	// backend-specific HTTP request.
	BuildRequest(ctx context.Context, req *types.ChatRequest) (*http.Request, error)

	// ParseResponse transforms a backend response into the unified
	// ChatResponse.
	ParseResponse(resp *http.Response) (*types.ChatResponse, error)

	// ParseStreamChunk parses a single SSE chunk from a streaming
	// response. Returns nil, nil for keep-alive or empty chunks.
	ParseStreamChunk(data []byte) (*types.StreamChunk, error)

	// MapError converts a backend error response into a standardized
	// LLMError.
	MapError(statusCode int, header http.Header, body []byte, model string) error
}

// Config contains backend-specific configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// Factory creates backend clients from configuration.
type Factory func(cfg Config) (ChatClient, error)
