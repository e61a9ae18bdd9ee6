// Package types defines core data structures for LLM routing requests and
// responses. Wire types are compatible with OpenAI's Chat Completion API
// format.
package types

import "fmt"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the routing core understands.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single backend-agnostic conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered sequence of messages. Order is semantically
// meaningful; mutation happens by appending.
type Conversation []Message

// Clone returns a copy the caller may append to without aliasing.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Append returns a new conversation with msg added.
func (c Conversation) Append(role Role, content string) Conversation {
	out := c.Clone()
	return append(out, Message{Role: role, Content: content})
}

// Validate checks every role against the closed role set.
func (c Conversation) Validate() error {
	for i, m := range c {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: %q at index %d", ErrInvalidRole, m.Role, i)
		}
	}
	return nil
}

// FinishReason is the terminal status of a chat completion.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"

	// FinishUnknown marks a stream that ended without ever reporting a
	// finish reason.
	FinishUnknown FinishReason = ""
)

// RequestOptions is the closed per-request configuration. The zero value
// is a plain streaming text request.
type RequestOptions struct {
	// AsJSON restricts candidates to JSON-mode models and requests
	// response_format json_object.
	AsJSON bool

	// ForceReasoning reorders candidates to put reasoning models first.
	ForceReasoning bool

	// LargeOutput hints that the reply may approach the output window,
	// making continuation likely.
	LargeOutput bool

	// ValidateFinishReason re-classifies an ambiguous "stop" with a
	// second model call.
	ValidateFinishReason bool

	// DisableStreaming forces a non-streaming request even for models
	// that support streaming.
	DisableStreaming bool
}
