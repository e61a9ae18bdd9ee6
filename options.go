package llmroute

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/personagen/llmroute/internal/resolver"
	"github.com/personagen/llmroute/pkg/catalog"
)

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets the HTTP client used for all backend calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithCatalog replaces the default model catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Client) {
		if cat != nil {
			c.catalog = cat
		}
	}
}

// WithPreferredModels sets the free-tier candidate ordering.
func WithPreferredModels(models []string) Option {
	return func(c *Client) {
		if len(models) > 0 {
			c.preferred = models
		}
	}
}

// WithPaidModels sets the paid-tier candidate ordering.
func WithPaidModels(models []string) Option {
	return func(c *Client) {
		if len(models) > 0 {
			c.paidModels = models
		}
	}
}

// WithExhaustion replaces the in-process exhaustion set, e.g. with the
// Redis-backed one so several workers share quota state.
func WithExhaustion(e catalog.Exhaustion) Option {
	return func(c *Client) {
		if e != nil {
			c.exhausted = e
		}
	}
}

// WithExhaustionTTL sets the cooldown applied when a rate-limited backend
// does not name one. Zero keeps the model out for the process lifetime.
func WithExhaustionTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.exhaustionTTL = ttl
	}
}

// WithMaxContinuations caps follow-up requests for length-truncated
// replies. Defaults to 3.
func WithMaxContinuations(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxContinuations = n
		}
	}
}

// WithMetrics toggles Prometheus instrumentation. On by default.
func WithMetrics(enabled bool) Option {
	return func(c *Client) {
		c.metricsEnabled = enabled
	}
}

// WithResolverOptions forwards options to the backend resolver, e.g. base
// URL overrides for tests.
func WithResolverOptions(opts ...resolver.Option) Option {
	return func(c *Client) {
		c.resolverOpts = append(c.resolverOpts, opts...)
	}
}

// WithRateLimit throttles outgoing requests. Free-tier endpoints enforce
// strict per-minute quotas; pacing below them avoids burning models on
// avoidable 429s.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}
