package llmroute

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/goccy/go-json"

	"github.com/personagen/llmroute/internal/resolver"
	"github.com/personagen/llmroute/pkg/catalog"
	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freeCreds() *provider.Credentials {
	return &provider.Credentials{Free: provider.NewKeyPool("free-key")}
}

func paidCreds() *provider.Credentials {
	return &provider.Credentials{
		Free: provider.NewKeyPool("free-key"),
		Paid: "paid-key",
	}
}

// newTestCatalog returns two OpenAI-backend models: alpha is a flagship,
// beta is not.
func newTestCatalog(streaming bool) *catalog.Catalog {
	return catalog.New(
		catalog.ModelDescriptor{
			Identifier: "alpha", Backend: catalog.BackendOpenAI,
			SupportsSystemRole: true, SupportsStreaming: streaming,
			SupportsJSONMode: true, Flagship: true, MaxOutputTokens: 4096,
		},
		catalog.ModelDescriptor{
			Identifier: "beta", Backend: catalog.BackendOpenAI,
			SupportsSystemRole: true, SupportsStreaming: streaming,
			SupportsJSONMode: true, MaxOutputTokens: 4096,
		},
	)
}

// catalogDescriptorNoSystem is a model that rejects the system role.
func catalogDescriptorNoSystem() catalog.ModelDescriptor {
	return catalog.ModelDescriptor{
		Identifier: "gamma", Backend: catalog.BackendOpenAI,
		MaxOutputTokens: 4096,
	}
}

func newTestClient(t *testing.T, serverURL string, creds *provider.Credentials, extra ...Option) *Client {
	t.Helper()
	opts := []Option{
		WithCatalog(newTestCatalog(false)),
		WithPreferredModels([]string{"alpha", "beta"}),
		WithPaidModels([]string{"alpha"}),
		WithMetrics(false),
		WithLogger(discardLogger()),
		WithResolverOptions(resolver.WithOpenAIBaseURL(serverURL)),
	}
	opts = append(opts, extra...)

	client, err := New(creds, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

// decodeChatRequest reads the wire request a test server received.
func decodeChatRequest(t *testing.T, r *http.Request) types.ChatRequest {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read request body: %v", err)
	}
	var req types.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	return req
}

// writeChat writes a non-streaming chat completion.
func writeChat(t *testing.T, w http.ResponseWriter, content, finishReason string) {
	t.Helper()
	resp := types.ChatResponse{
		Choices: []types.Choice{{
			Message:      types.ChatMessage{Role: "assistant", Content: content},
			FinishReason: finishReason,
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

// writeAPIError writes a backend error body with the given status and code.
func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"error": map[string]any{"code": code, "message": message}}
	json.NewEncoder(w).Encode(body)
}

func lastMessage(req types.ChatRequest) types.ChatMessage {
	if len(req.Messages) == 0 {
		return types.ChatMessage{}
	}
	return req.Messages[len(req.Messages)-1]
}
