// Package azurecompat provides the Azure AI inference backend adapter.
// The wire format matches the OpenAI chat completions API but requests
// carry an api-version query parameter and api-key authentication.
package azurecompat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
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
	BackendName = "azure-compatible"

	// DefaultBaseURL is the Azure-hosted free inference endpoint.
	DefaultBaseURL = "https://models.inference.ai.azure.com"

	// DefaultAPIVersion is the inference API version sent with every
	// request.
	DefaultAPIVersion = "2024-02-15-preview"
)

// Client implements the Azure-compatible adapter.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	headers    map[string]string
}

// New creates a new Azure-compatible client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from a Config struct.
func NewFromConfig(cfg provider.Config) (provider.ChatClient, error) {
	c := New(WithAPIKey(cfg.APIKey), WithBaseURL(cfg.BaseURL))
	if v, ok := cfg.Headers["api-version"]; ok {
		c.apiVersion = v
	}
	for k, v := range cfg.Headers {
		if k == "api-version" {
			continue
		}
		c.headers[k] = v
	}
	return c, nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return BackendName }

// BuildRequest creates an HTTP request for the inference endpoint.
func (c *Client) BuildRequest(ctx context.Context, req *types.ChatRequest) (*http.Request, error) {
	base, err := url.Parse(strings.TrimSuffix(c.baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base_url: %w", err)
	}
	base.Path = base.Path + "/chat/completions"
	q := base.Query()
	q.Set("api-version", c.apiVersion)
	base.RawQuery = q.Encode()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)
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

// MapError converts an error response to a standardized error. Azure
// reports the interesting conditions through error codes in the body, so
// codes take precedence over the status code.
func (c *Client) MapError(statusCode int, header http.Header, body []byte, model string) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := "unknown error"
	code := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		code = errResp.Error.Code
	}

	switch code {
	case "tokens_limit_reached":
		return errors.NewContextLengthError(BackendName, model, message)
	case "RateLimitReached":
		llmErr := errors.NewRateLimitError(BackendName, model, message)
		llmErr.RetryAfter = retryAfter(header)
		return llmErr
	case "content_filter":
		return errors.NewContentPolicyError(BackendName, model, message)
	case "unauthorized":
		return errors.NewAuthenticationError(BackendName, model, message)
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
