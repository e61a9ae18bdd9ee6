package llmroute

import (
	"context"
	"strings"

	"github.com/personagen/llmroute/pkg/catalog"
	"github.com/personagen/llmroute/pkg/decode"
	"github.com/personagen/llmroute/pkg/types"
)

// validationSystemPrompt drives the second-opinion call that classifies an
// ambiguous "stop" finish reason. The classifier must answer in JSON so
// the verdict survives decoding.
const validationSystemPrompt = `You judge whether an assistant reply ended naturally or was cut off mid-thought.
Answer ONLY with a JSON object of the form {"finish_reason": "...", "markers": [...]}.
Set "finish_reason" to "length" if the reply ends mid-sentence, mid-list, mid-code block or otherwise incomplete, to "content_filter" if the reply is a refusal to answer rather than an answer, and to "stop" if it ends naturally.
Set "markers" to the fragments of the reply that belong to the unfinished or refusing part, copied verbatim. Use an empty list when the reply is complete.`

// finishVerdict is the classifier's wire format.
type finishVerdict struct {
	FinishReason string   `json:"finish_reason"`
	Markers      []string `json:"markers"`
}

// validateFinishReason asks a second model whether the reply really ended.
// Candidates are tried cheapest-first (the preference order reversed) so
// validation never burns flagship quota. The verdict is one of stop,
// length or content_filter; anything else is a classifier malfunction.
// Returns ok=false when no candidate produced a usable verdict; the
// caller keeps the original finish reason.
func (c *Client) validateFinishReason(ctx context.Context, reply string, usePaid bool) (types.FinishReason, string, bool) {
	if strings.TrimSpace(reply) == "" {
		// Nothing to classify; an empty reply is terminal.
		return types.FinishStop, reply, true
	}

	conv := types.Conversation{
		{Role: types.RoleSystem, Content: validationSystemPrompt},
		{Role: types.RoleUser, Content: reply},
	}
	opts := types.RequestOptions{AsJSON: true, DisableStreaming: true}

	cat, preferred, _ := c.routingSnapshot()
	base := make([]string, 0, len(preferred))
	for i := len(preferred) - 1; i >= 0; i-- {
		base = append(base, preferred[i])
	}

	models, err := catalog.Select(cat, base, c.exhausted, opts, usePaid, c.logger)
	if err != nil {
		c.logger.Warn("finish-reason validation skipped, no candidates", "error", err)
		return types.FinishStop, reply, false
	}

	for _, model := range models {
		d, err := cat.Lookup(model)
		if err != nil {
			continue
		}
		client, err := c.resolver.Resolve(d.Backend, usePaid)
		if err != nil {
			continue
		}

		res, err := c.attempt(ctx, client, d, conv, opts)
		if err != nil {
			c.logger.Debug("finish-reason validator failed", "model", model, "error", err)
			continue
		}

		var verdict finishVerdict
		if err := decode.JSON(model, res.content, &verdict); err != nil {
			c.logger.Debug("finish-reason verdict not decodable", "model", model, "error", err)
			continue
		}

		switch reason := types.FinishReason(verdict.FinishReason); reason {
		case types.FinishStop:
			if len(verdict.Markers) > 0 {
				// A clean stop cannot carry unfinished fragments. The
				// verdict contradicts itself, try the next candidate.
				c.logger.Debug("finish-reason verdict contradictory", "model", model)
				continue
			}
			return reason, reply, true
		case types.FinishContentFilter:
			return reason, reply, true
		case types.FinishLength:
			trimmed := trimMarkers(reply, verdict.Markers)
			if strings.TrimSpace(trimmed) == "" {
				// The markers covered the whole reply. There is nothing
				// left to continue from, so the reply is terminal.
				return types.FinishStop, trimmed, true
			}
			return reason, trimmed, true
		default:
			continue
		}
	}

	return types.FinishStop, reply, false
}

// trimMarkers removes the first occurrence of each classifier marker from
// the reply. Markers sometimes come back with a trailing dot the reply
// lacks, so dots are peeled off until the marker matches.
func trimMarkers(reply string, markers []string) string {
	out := strings.TrimRight(reply, " \t\n")
	for _, marker := range markers {
		marker = strings.TrimSpace(marker)
		for marker != "" {
			if strings.Contains(out, marker) {
				out = strings.TrimSpace(strings.Replace(out, marker, "", 1))
				break
			}
			if strings.HasSuffix(marker, ".") {
				marker = strings.TrimSuffix(marker, ".")
				continue
			}
			break
		}
	}
	return out
}
