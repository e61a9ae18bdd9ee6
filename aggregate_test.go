package llmroute

import "testing"

func TestStripReasoningTrace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trace", "plain answer", "plain answer"},
		{"leading trace", "<think>let me see</think>the answer", "the answer"},
		{"multiline trace", "<think>step 1\nstep 2</think>\n\nfinal", "final"},
		{"two traces", "<think>a</think>x<think>b</think>y", "xy"},
		{"unterminated trace", "<think>never closed", ""},
		{"trace after content", "answer<think>afterthought", "answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripReasoningTrace(tt.in); got != tt.want {
				t.Errorf("stripReasoningTrace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
