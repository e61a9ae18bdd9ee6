package catalog

import (
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/pkg/types"
)

// probeRequest is the minimal JSON-mode request sent to a model whose
// SupportsJSONMode flag is unknown. A strict equality check on the reply
// keeps the probe honest: models that echo prose around the object fail.
func probeRequest(model string) *types.ChatRequest {
	return &types.ChatRequest{
		Model: model,
		Messages: []types.ChatMessage{
			{Role: "system", Content: "Follow all safety policies. If unsafe, refuse briefly."},
			{Role: "user", Content: `Reply with a valid JSON object matching the schema {"ok": true}.`},
		},
		ResponseFormat: types.JSONObjectFormat(),
	}
}

// ProbeJSONMode issues a one-shot JSON-mode request against the model and
// records the result in the catalog. A transport or rate-limit error is
// returned unrecorded so the caller can decide about exhaustion.
func (c *Catalog) ProbeJSONMode(
	ctx context.Context,
	client provider.ChatClient,
	httpClient *http.Client,
	model string,
) (bool, error) {
	httpReq, err := client.BuildRequest(ctx, probeRequest(model))
	if err != nil {
		return false, err
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return false, client.MapError(resp.StatusCode, resp.Header, body, model)
	}

	chatResp, err := client.ParseResponse(resp)
	if err != nil {
		// The endpoint accepted response_format but replied with
		// something unparseable; treat as unsupported.
		c.SetJSONMode(model, false)
		return false, nil
	}

	supported := false
	if len(chatResp.Choices) > 0 {
		var decoded map[string]any
		if json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &decoded) == nil {
			ok, isBool := decoded["ok"].(bool)
			supported = len(decoded) == 1 && isBool && ok
		}
	}

	c.SetJSONMode(model, supported)
	return supported, nil
}
