// Package openaicompat provides the OpenAI-compatible backend adapter.
// It covers both the billed OpenAI endpoint and free OpenAI-compatible
// gateways (e.g. the GitHub Models inference endpoint), which share the
// same wire format and differ only in base URL and credential.
package openaicompat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/pkg/types"
)

const (
	// BackendName is the identifier for this backend family.
	BackendName = "openai-compatible"

	// DefaultBaseURL is the billed OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// FreeTierBaseURL is the free OpenAI-compatible inference endpoint
	// reached with GitHub credentials.
	FreeTierBaseURL = "https://models.inference.ai.azure.com"
)

// Client implements the OpenAI-compatible adapter. It serves as the
// reference implementation for the Azure adapter.
type Client struct {
	apiKey  string
	baseURL string
	headers map[string]string
}

// New creates a new OpenAI-compatible client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from a Config struct.
func NewFromConfig(cfg provider.Config) (provider.ChatClient, error) {
	c := New(WithAPIKey(cfg.APIKey), WithBaseURL(cfg.BaseURL))
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}
	return c, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string {
	return BackendName
}

// BuildRequest creates an HTTP request for the chat completions endpoint.
func (c *Client) BuildRequest(ctx context.Context, req *types.ChatRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// ParseResponse transforms a backend response into the unified format.
func (c *Client) ParseResponse(resp *http.Response) (*types.ChatResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp types.ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &chatResp, nil
}

// ParseStreamChunk parses a single SSE chunk.
func (c *Client) ParseStreamChunk(data []byte) (*types.StreamChunk, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[DONE]")) {
		return nil, nil
	}
	if bytes.HasPrefix(trimmed, []byte("data: ")) {
		trimmed = bytes.TrimPrefix(trimmed, []byte("data: "))
	}
	if bytes.Equal(trimmed, []byte("[DONE]")) {
		return nil, nil
	}

	var chunk types.StreamChunk
	if err := json.Unmarshal(trimmed, &chunk); err != nil {
		return nil, fmt.Errorf("unmarshal chunk: %w", err)
	}
	return &chunk, nil
}

// MapError converts an error response to a standardized error. The free
// tier reports its conditions through error codes in the body
// (tokens_limit_reached, RateLimitReached, content_filter, unauthorized)
// rather than status codes alone, so codes take precedence.
func (c *Client) MapError(statusCode int, header http.Header, body []byte, model string) error {
	code, message := parseErrorBody(body)

	if err := mapErrorCode(code, message, header, model); err != nil {
		return err
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewAuthenticationError(BackendName, model, message)
	case http.StatusTooManyRequests:
		llmErr := errors.NewRateLimitError(BackendName, model, message)
		llmErr.RetryAfter = retryAfter(header)
		return llmErr
	case http.StatusRequestEntityTooLarge:
		return errors.NewContextLengthError(BackendName, model, message)
	case http.StatusBadRequest:
		return errors.NewInvalidRequestError(BackendName, model, message)
	case http.StatusNotFound:
		return errors.NewNotFoundError(BackendName, model, message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return errors.NewTimeoutError(BackendName, model, message)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return errors.NewServiceUnavailableError(BackendName, model, message)
	default:
		return errors.NewInternalError(BackendName, model, message)
	}
}

func parseErrorBody(body []byte) (code, message string) {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message = "unknown error"
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		code = errResp.Error.Code
	}
	return code, message
}

// mapErrorCode handles the body-level error codes shared by both backend
// families. Returns nil when the code is unrecognized.
func mapErrorCode(code, message string, header http.Header, model string) error {
	switch code {
	case "tokens_limit_reached", "context_length_exceeded":
		return errors.NewContextLengthError(BackendName, model, message)
	case "RateLimitReached", "rate_limit_exceeded":
		llmErr := errors.NewRateLimitError(BackendName, model, message)
		llmErr.RetryAfter = retryAfter(header)
		return llmErr
	case "content_filter":
		return errors.NewContentPolicyError(BackendName, model, message)
	case "unauthorized":
		return errors.NewAuthenticationError(BackendName, model, message)
	}
	return nil
}

// retryAfter reads the cooldown the backend asked for, if any.
func retryAfter(header http.Header) time.Duration {
	if header == nil {
		return 0
	}
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
