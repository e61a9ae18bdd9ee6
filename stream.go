package llmroute

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	llmerrors "github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/pkg/types"
)

// completion is the aggregated result of one request attempt, streaming or
// not.
type completion struct {
	content      string
	finishReason string
	usage        *types.Usage
}

// fromResponse converts a non-streaming chat response into a completion.
func fromResponse(resp *types.ChatResponse, model string) (*completion, error) {
	if len(resp.Choices) == 0 {
		return nil, llmerrors.NewMalformedResponseError(model, "response has no choices")
	}
	choice := resp.Choices[0]
	return &completion{
		content:      choice.Message.Content,
		finishReason: choice.FinishReason,
		usage:        resp.Usage,
	}, nil
}

// aggregateStream folds an SSE stream into a single completion. Deltas are
// concatenated in arrival order; the last non-empty finish reason wins.
// onFirstToken fires once, on the first content-bearing delta.
func aggregateStream(body io.Reader, client provider.ChatClient, model string, onFirstToken func()) (*completion, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	var finishReason string
	var usage *types.Usage
	sawFirst := false

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || bytes.HasPrefix(line, []byte(":")) {
			continue
		}
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}

		chunk, err := client.ParseStreamChunk(line)
		if err != nil {
			return nil, llmerrors.NewMalformedResponseError(model, "bad stream chunk: "+err.Error())
		}
		if chunk == nil {
			// keep-alive or [DONE]
			continue
		}

		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				if !sawFirst {
					sawFirst = true
					onFirstToken()
				}
				sb.WriteString(choice.Delta.Content)
			}
			if choice.FinishReason != "" {
				finishReason = choice.FinishReason
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	return &completion{
		content:      sb.String(),
		finishReason: finishReason,
		usage:        usage,
	}, nil
}
