package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RetryAction
	}{
		{"context length escalates", NewContextLengthError("openai", "gpt-4o", "too long"), ActionRetryWithPaidTier},
		{"rate limit exhausts", NewRateLimitError("openai", "gpt-4o", "quota"), ActionMarkExhausted},
		{"content policy drops", NewContentPolicyError("openai", "gpt-4o", "filtered"), ActionDropCurrentModel},
		{"service unavailable drops", NewServiceUnavailableError("azure", "phi", "down"), ActionDropCurrentModel},
		{"timeout drops", NewTimeoutError("azure", "phi", "slow"), ActionDropCurrentModel},
		{"authentication aborts", NewAuthenticationError("openai", "gpt-4o", "bad key"), ActionAbort},
		{"invalid request aborts", NewInvalidRequestError("openai", "gpt-4o", "bad body"), ActionAbort},
		{"plain error aborts", fmt.Errorf("connection refused"), ActionAbort},
		{"nil aborts", nil, ActionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("attempt 1: %w", NewRateLimitError("openai", "gpt-4o", "quota"))
	assert.Equal(t, ActionMarkExhausted, Classify(wrapped))

	llmErr, ok := AsLLMError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, TypeRateLimit, llmErr.Type)
}
