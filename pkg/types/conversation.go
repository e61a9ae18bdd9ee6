package types

import (
	"errors"
	"fmt"
)

// Formatter errors.
var (
	// ErrInvalidRole is returned for any role outside system/user/assistant.
	ErrInvalidRole = errors.New("invalid role")

	// ErrDanglingSystemMessage is returned when a system message has no
	// following user message to merge into.
	ErrDanglingSystemMessage = errors.New("system message is the last message in the conversation")

	// ErrConsecutiveSystemMessages is returned when two system messages
	// appear without a user message between them.
	ErrConsecutiveSystemMessages = errors.New("two consecutive system messages")
)

// ToWire converts a conversation into the OpenAI-compatible message list.
// When mergeSystemRole is set (for models that reject a system role), each
// system message is folded into the next user turn as
// "system\n\nuser".
func (c Conversation) ToWire(mergeSystemRole bool) ([]ChatMessage, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	src := c
	if mergeSystemRole {
		merged, err := c.MergeSystemIntoUser()
		if err != nil {
			return nil, err
		}
		src = merged
	}

	wire := make([]ChatMessage, 0, len(src))
	for _, m := range src {
		wire = append(wire, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return wire, nil
}

// MergeSystemIntoUser rewrites the conversation so that no system role
// remains. Invariants: at most one unconsumed system message may exist at
// any point, the system message must precede a user message, and merging
// consumes it exactly once.
func (c Conversation) MergeSystemIntoUser() (Conversation, error) {
	merged := make(Conversation, 0, len(c))
	var pendingSystem *string

	for i, m := range c {
		switch m.Role {
		case RoleSystem:
			if i == len(c)-1 {
				return nil, ErrDanglingSystemMessage
			}
			if pendingSystem != nil {
				return nil, ErrConsecutiveSystemMessages
			}
			content := m.Content
			pendingSystem = &content

		case RoleUser:
			if pendingSystem != nil {
				merged = append(merged, Message{
					Role:    RoleUser,
					Content: *pendingSystem + "\n\n" + m.Content,
				})
				pendingSystem = nil
			} else {
				merged = append(merged, m)
			}

		case RoleAssistant:
			merged = append(merged, m)

		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
		}
	}

	if pendingSystem != nil {
		return nil, ErrDanglingSystemMessage
	}
	return merged, nil
}
