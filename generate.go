package llmroute

import (
	"context"
	"fmt"
	"strings"

	"github.com/personagen/llmroute/pkg/prompt"
	"github.com/personagen/llmroute/pkg/types"
)

// cannotAssistPhrases are the refusal replies models produce for prompts
// their safety layer misreads. A refusal is retried, not stored.
var cannotAssistPhrases = []string{
	"I'm sorry, I can't assist with that",
	"Lo siento, no puedo procesar esa solicitud",
}

const refusalRetries = 2

// GenerateFromSpecs runs the prompt specs in order against a shared value
// cache. Each reply is stored under the spec's cache key and becomes
// available as a {key} placeholder to every later prompt. The returned map
// holds the seed values plus one entry per spec.
func (c *Client) GenerateFromSpecs(ctx context.Context, systemPrompt string, specs []prompt.Spec, seed map[string]string) (map[string]string, error) {
	cache := make(map[string]string, len(seed)+len(specs))
	for k, v := range seed {
		cache[k] = v
	}

	for _, spec := range specs {
		sys := spec.SystemPrompt
		if sys == "" {
			sys = systemPrompt
		}
		sysFilled, err := prompt.Fill(sys, cache, false)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: system: %w", spec.CacheKey, err)
		}
		userFilled, err := prompt.Fill(spec.Prompt, cache, false)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", spec.CacheKey, err)
		}

		conv := types.Conversation{
			{Role: types.RoleSystem, Content: sysFilled},
			{Role: types.RoleUser, Content: userFilled},
		}
		opts := spec.Options()

		var reply string
		refused := make(map[string]bool)
		for attempt := 0; ; attempt++ {
			var model string
			reply, model, err = c.route(ctx, conv, opts, refused)
			if err != nil {
				return nil, fmt.Errorf("prompt %q: %w", spec.CacheKey, err)
			}
			if !isRefusal(reply) {
				break
			}
			if attempt >= refusalRetries {
				return nil, fmt.Errorf("prompt %q: models refused after %d attempts", spec.CacheKey, attempt+1)
			}
			refused[model] = true
			c.logger.Warn("model refused prompt, dropping it for this prompt",
				"cache_key", spec.CacheKey,
				"model", model,
				"attempt", attempt+1,
			)
		}

		cache[spec.CacheKey] = reply
	}
	return cache, nil
}

// GenerateFromLibrary runs a loaded prompt library for one calendar day.
// The day value fills the {day} placeholder every library system prompt
// carries.
func (c *Client) GenerateFromLibrary(ctx context.Context, lib *prompt.Library, day string, seed map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(seed)+1)
	for k, v := range seed {
		merged[k] = v
	}
	merged["day"] = day
	return c.GenerateFromSpecs(ctx, lib.SystemPrompt, lib.Prompts, merged)
}

func isRefusal(reply string) bool {
	r := strings.TrimSpace(reply)
	for _, phrase := range cannotAssistPhrases {
		if strings.EqualFold(r, phrase) || strings.EqualFold(strings.TrimSuffix(r, "."), phrase) {
			return true
		}
	}
	return false
}
