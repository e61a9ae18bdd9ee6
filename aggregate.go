package llmroute

import (
	"regexp"
	"strings"
)

// thinkBlock matches the reasoning trace some models emit before the
// actual answer.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripReasoningTrace removes <think>...</think> blocks from a reply.
// An unterminated block means the whole reply is trace; nothing usable
// remains.
func stripReasoningTrace(s string) string {
	out := thinkBlock.ReplaceAllString(s, "")
	if idx := strings.Index(out, "<think>"); idx != -1 {
		out = out[:idx]
	}
	return strings.TrimSpace(out)
}
