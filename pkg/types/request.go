package types

// ChatRequest represents an OpenAI-compatible chat completion request.
// It serves as the unified wire format for both backend families.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Stream         bool            `json:"stream,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage is a single wire-format message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the output format for the model.
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONObjectFormat is the response_format payload for JSON-mode requests.
func JSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: "json_object"}
}
