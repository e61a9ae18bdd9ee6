package prompt

import "github.com/personagen/llmroute/pkg/types"

// Spec describes one prompt in a generation pipeline. Replies are stored
// in the shared value cache under CacheKey and become available as
// placeholders to every later prompt in the run.
type Spec struct {
	// SystemPrompt is optional; when empty the pipeline's shared system
	// prompt applies.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Prompt is the user-turn template. May reference earlier cache keys
	// as {key} placeholders.
	Prompt string `json:"prompt"`

	// CacheKey names the slot the reply is stored under. Required and
	// unique within a library.
	CacheKey string `json:"cache_key"`

	AsJSON               bool `json:"as_json,omitempty"`
	ForceReasoning       bool `json:"force_reasoning,omitempty"`
	LargeOutput          bool `json:"large_output,omitempty"`
	ValidateFinishReason bool `json:"validate_finish_reason,omitempty"`
}

// Options maps the spec's routing hints onto request options.
func (s *Spec) Options() types.RequestOptions {
	return types.RequestOptions{
		AsJSON:               s.AsJSON,
		ForceReasoning:       s.ForceReasoning,
		LargeOutput:          s.LargeOutput,
		ValidateFinishReason: s.ValidateFinishReason,
	}
}
