package llmroute

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/personagen/llmroute/internal/metrics"
	"github.com/personagen/llmroute/internal/resolver"
	"github.com/personagen/llmroute/pkg/catalog"
	"github.com/personagen/llmroute/pkg/decode"
	llmerrors "github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/pkg/types"
)

// continuePrompt is the user turn appended after a length-truncated reply.
// The wording matters: models reliably resume mid-sentence with it.
const continuePrompt = "Continue EXACTLY where we left off"

const maxErrorBody = 1 << 20

// Client routes chat requests across the configured model list.
// Safe for concurrent use.
type Client struct {
	// mu guards the routing set, which config hot reload swaps at runtime.
	mu         sync.RWMutex
	catalog    *catalog.Catalog
	preferred  []string
	paidModels []string

	exhausted    catalog.Exhaustion
	creds        *provider.Credentials
	resolver     *resolver.Resolver
	resolverOpts []resolver.Option

	httpClient       *http.Client
	limiter          *rate.Limiter
	logger           *slog.Logger
	timeout          time.Duration
	exhaustionTTL    time.Duration
	maxContinuations int
	metricsEnabled   bool
}

// New creates a routing client over the given credentials.
func New(creds *provider.Credentials, opts ...Option) (*Client, error) {
	if creds == nil || (creds.Free == nil || creds.Free.Len() == 0) && !creds.HasPaid() {
		return nil, fmt.Errorf("no credentials configured")
	}

	c := &Client{
		catalog:          catalog.Default(),
		preferred:        catalog.DefaultPreferredModels,
		paidModels:       catalog.DefaultPaidModels,
		exhausted:        catalog.NewMemoryExhaustion(),
		creds:            creds,
		httpClient:       &http.Client{},
		logger:           slog.Default(),
		timeout:          5 * time.Minute,
		exhaustionTTL:    24 * time.Hour,
		maxContinuations: 3,
		metricsEnabled:   true,
	}
	for _, opt := range opts {
		opt(c)
	}

	resolverOpts := append([]resolver.Option{resolver.WithLogger(c.logger)}, c.resolverOpts...)
	c.resolver = resolver.New(creds, nil, resolverOpts...)
	return c, nil
}

// GetModelResponse runs the conversation against the best available model
// and returns the complete reply text. Failures walk down the candidate
// list according to their error class; a context overrun or a fully
// exhausted free tier escalates to the paid tier when a paid key is
// configured.
func (c *Client) GetModelResponse(ctx context.Context, conv types.Conversation, opts types.RequestOptions) (string, error) {
	reply, _, err := c.route(ctx, conv, opts, nil)
	return reply, err
}

// route is GetModelResponse with an exclusion set, so callers that judge
// replies (refusal detection) can push the request to the next candidate.
// Returns the reply and the model that produced it.
func (c *Client) route(ctx context.Context, conv types.Conversation, opts types.RequestOptions, exclude map[string]bool) (string, string, error) {
	if err := conv.Validate(); err != nil {
		return "", "", err
	}

	logger := c.logger.With("request_id", uuid.NewString())

	usePaid := false
	dropped := make(map[string]bool, len(exclude))
	for m := range exclude {
		dropped[m] = true
	}
	_, preferred, paidModels := c.routingSnapshot()
	maxAttempts := len(preferred) + len(paidModels) + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidates, err := c.candidates(opts, usePaid, dropped)
		if err != nil {
			if !usePaid && c.creds.HasPaid() {
				logger.Warn("free tier has no candidates, escalating to paid tier")
				usePaid = true
				if c.metricsEnabled {
					metrics.PaidEscalationsTotal.Inc()
				}
				continue
			}
			return "", "", err
		}
		model := candidates[0]

		reply, err := c.completeModel(ctx, model, conv, opts, usePaid)
		if err == nil {
			return reply, model, nil
		}

		action := llmerrors.Classify(err)
		logger.Warn("model attempt failed",
			"model", model,
			"paid", usePaid,
			"action", action.String(),
			"error", err,
		)
		if c.metricsEnabled {
			if llmErr, ok := llmerrors.AsLLMError(err); ok {
				metrics.RecordError(model, llmErr.Type)
			} else {
				metrics.RecordError(model, "transport")
			}
		}

		switch action {
		case llmerrors.ActionRetryWithPaidTier:
			if usePaid || !c.creds.HasPaid() {
				return "", "", err
			}
			usePaid = true
			if c.metricsEnabled {
				metrics.PaidEscalationsTotal.Inc()
			}

		case llmerrors.ActionMarkExhausted:
			cooldown := c.exhaustionTTL
			if llmErr, ok := llmerrors.AsLLMError(err); ok && llmErr.RetryAfter > 0 {
				cooldown = llmErr.RetryAfter
			}
			c.exhausted.Mark(model, cooldown)
			if c.metricsEnabled {
				metrics.ModelExhaustedTotal.WithLabelValues(model).Inc()
			}

		case llmerrors.ActionDropCurrentModel:
			dropped[model] = true

		default:
			return "", "", err
		}
	}

	return "", "", llmerrors.NewNoModelAvailableError("all candidate models failed")
}

// GetJSONResponse runs the conversation in JSON mode and decodes the reply
// into a generic object, repairing the usual markdown and comma defects.
func (c *Client) GetJSONResponse(ctx context.Context, conv types.Conversation, opts types.RequestOptions) (map[string]any, error) {
	opts.AsJSON = true
	reply, err := c.GetModelResponse(ctx, conv, opts)
	if err != nil {
		return nil, err
	}
	return decode.Object("", reply)
}

// ProbeJSONMode issues a live probe request to check whether a model
// honors JSON mode, recording the result in the catalog.
func (c *Client) ProbeJSONMode(ctx context.Context, model string) (bool, error) {
	cat, _, _ := c.routingSnapshot()
	d, err := cat.Lookup(model)
	if err != nil {
		return false, err
	}
	client, err := c.resolver.Resolve(d.Backend, false)
	if err != nil {
		return false, err
	}
	return cat.ProbeJSONMode(ctx, client, c.httpClient, model)
}

// routingSnapshot returns the catalog and candidate lists as of one
// moment, so a concurrent config reload cannot tear a request's view.
func (c *Client) routingSnapshot() (*catalog.Catalog, []string, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog, c.preferred, c.paidModels
}

// candidates builds the ordered model list for one attempt.
func (c *Client) candidates(opts types.RequestOptions, usePaid bool, dropped map[string]bool) ([]string, error) {
	cat, preferred, paidModels := c.routingSnapshot()
	base := preferred
	if usePaid {
		base = paidModels
	}
	if len(dropped) > 0 {
		filtered := make([]string, 0, len(base))
		for _, m := range base {
			if !dropped[m] {
				filtered = append(filtered, m)
			}
		}
		base = filtered
	}
	return catalog.Select(cat, base, c.exhausted, opts, usePaid, c.logger)
}

// completeModel runs the conversation against one model, issuing follow-up
// requests while the reply is length-truncated and stitching the pieces
// together.
func (c *Client) completeModel(ctx context.Context, model string, conv types.Conversation, opts types.RequestOptions, usePaid bool) (string, error) {
	cat, _, _ := c.routingSnapshot()
	d, err := cat.Lookup(model)
	if err != nil {
		return "", err
	}
	client, err := c.resolver.Resolve(d.Backend, usePaid)
	if err != nil {
		return "", err
	}

	working := conv.Clone()
	var full strings.Builder

	for turn := 0; ; turn++ {
		res, err := c.attempt(ctx, client, d, working, opts)
		if err != nil {
			return "", err
		}

		piece := res.content
		if d.IncludesReasoningTrace {
			piece = stripReasoningTrace(piece)
		}

		reason := types.FinishReason(res.finishReason)
		if reason == types.FinishUnknown && !d.Flagship {
			// Smaller models routinely omit the finish reason on an
			// ordinary completion.
			reason = types.FinishStop
		}

		if opts.ValidateFinishReason && reason == types.FinishStop {
			if verdict, trimmed, ok := c.validateFinishReason(ctx, piece, usePaid); ok {
				reason, piece = verdict, trimmed
			}
		}
		if reason == types.FinishContentFilter {
			return "", llmerrors.NewContentPolicyError(client.Name(), model, "reply stopped by content filter")
		}

		full.WriteString(piece)

		if reason != types.FinishLength || turn >= c.maxContinuations {
			break
		}
		if c.metricsEnabled {
			metrics.ContinuationsTotal.WithLabelValues(model).Inc()
		}
		c.logger.Debug("reply truncated, continuing", "model", model, "turn", turn+1)
		working = working.Append(types.RoleAssistant, piece).Append(types.RoleUser, continuePrompt)
	}

	return full.String(), nil
}

// attempt issues exactly one request and aggregates its reply.
func (c *Client) attempt(ctx context.Context, client provider.ChatClient, d catalog.ModelDescriptor, conv types.Conversation, opts types.RequestOptions) (*completion, error) {
	wire, err := conv.ToWire(!d.SupportsSystemRole)
	if err != nil {
		return nil, err
	}

	stream := d.SupportsStreaming && !opts.DisableStreaming
	req := &types.ChatRequest{
		Model:    d.Identifier,
		Messages: wire,
		Stream:   stream,
	}
	if opts.AsJSON {
		req.ResponseFormat = types.JSONObjectFormat()
	}
	if opts.LargeOutput && d.MaxOutputTokens > 0 {
		req.MaxTokens = d.MaxOutputTokens
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(attemptCtx); err != nil {
			return nil, err
		}
	}

	httpReq, err := client.BuildRequest(attemptCtx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, llmerrors.NewTimeoutError(client.Name(), d.Identifier, err.Error())
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if c.metricsEnabled {
			metrics.RecordRequest(d.Identifier, client.Name(), "error", time.Since(start))
		}
		return nil, client.MapError(resp.StatusCode, resp.Header, body, d.Identifier)
	}

	var res *completion
	if stream {
		onFirstToken := func() {}
		if c.metricsEnabled {
			onFirstToken = func() {
				metrics.RecordTTFT(d.Identifier, client.Name(), time.Since(start))
			}
		}
		res, err = aggregateStream(resp.Body, client, d.Identifier, onFirstToken)
	} else {
		var parsed *types.ChatResponse
		parsed, err = client.ParseResponse(resp)
		if err == nil {
			res, err = fromResponse(parsed, d.Identifier)
		}
	}
	if err != nil {
		if c.metricsEnabled {
			metrics.RecordRequest(d.Identifier, client.Name(), "error", time.Since(start))
		}
		return nil, err
	}

	if c.metricsEnabled {
		metrics.RecordRequest(d.Identifier, client.Name(), "success", time.Since(start))
		if res.usage != nil {
			metrics.RecordTokens(d.Identifier, res.usage.PromptTokens, res.usage.CompletionTokens)
		}
	}
	return res, nil
}
