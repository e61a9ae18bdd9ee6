package errors

import (
	stderrors "errors"
)

// RetryAction tells the request loop what to do after a failed attempt.
type RetryAction int

const (
	// ActionAbort stops the retry loop and surfaces the error.
	ActionAbort RetryAction = iota

	// ActionDropCurrentModel removes the current candidate and retries
	// with the next one.
	ActionDropCurrentModel

	// ActionRetryWithPaidTier switches to the paid-tier candidate list,
	// keeping the conversation intact.
	ActionRetryWithPaidTier

	// ActionMarkExhausted records the model as rate-limited, then drops
	// it. Escalation to the paid tier happens when it was the last free
	// candidate.
	ActionMarkExhausted
)

// String returns a readable name for logging.
func (a RetryAction) String() string {
	switch a {
	case ActionDropCurrentModel:
		return "drop_current_model"
	case ActionRetryWithPaidTier:
		return "retry_with_paid_tier"
	case ActionMarkExhausted:
		return "mark_exhausted"
	default:
		return "abort"
	}
}

// Classify maps a backend error into a retry action.
//
// Context overruns escalate to the paid tier. Rate limits exhaust the
// model. Content-filter rejections drop the model. Everything else,
// including bad credentials and unclassified transport errors, aborts.
func Classify(err error) RetryAction {
	var llmErr *LLMError
	if !stderrors.As(err, &llmErr) {
		return ActionAbort
	}

	switch llmErr.Type {
	case TypeContextLength:
		return ActionRetryWithPaidTier
	case TypeRateLimit:
		return ActionMarkExhausted
	case TypeContentPolicy:
		return ActionDropCurrentModel
	case TypeServiceUnavailable, TypeTimeout:
		// Transient backend trouble costs the model its slot for this
		// request but does not exhaust it.
		return ActionDropCurrentModel
	default:
		return ActionAbort
	}
}

// AsLLMError unwraps err into an *LLMError if possible.
func AsLLMError(err error) (*LLMError, bool) {
	var llmErr *LLMError
	ok := stderrors.As(err, &llmErr)
	return llmErr, ok
}
