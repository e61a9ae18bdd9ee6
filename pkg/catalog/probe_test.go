package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/personagen/llmroute/pkg/errors"
	"github.com/personagen/llmroute/pkg/types"
	"github.com/personagen/llmroute/providers/openaicompat"
)

func probeServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		resp := types.ChatResponse{Choices: []types.Choice{{
			Message: types.ChatMessage{Role: "assistant", Content: content},
		}}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func probeCatalog() *Catalog {
	return New(ModelDescriptor{Identifier: "candidate", Backend: BackendOpenAI})
}

func TestProbeJSONModeAcceptsExactObject(t *testing.T) {
	srv := probeServer(t, `{"ok": true}`)
	defer srv.Close()

	cat := probeCatalog()
	client := openaicompat.New(openaicompat.WithAPIKey("k"), openaicompat.WithBaseURL(srv.URL))

	supported, err := cat.ProbeJSONMode(context.Background(), client, srv.Client(), "candidate")
	require.NoError(t, err)
	assert.True(t, supported)
	assert.True(t, cat.JSONModeProbed("candidate"))

	d, err := cat.Lookup("candidate")
	require.NoError(t, err)
	assert.True(t, d.SupportsJSONMode)
}

func TestProbeJSONModeRejectsExtraKeys(t *testing.T) {
	srv := probeServer(t, `{"ok": true, "note": "sure"}`)
	defer srv.Close()

	cat := probeCatalog()
	client := openaicompat.New(openaicompat.WithAPIKey("k"), openaicompat.WithBaseURL(srv.URL))

	supported, err := cat.ProbeJSONMode(context.Background(), client, srv.Client(), "candidate")
	require.NoError(t, err)
	assert.False(t, supported)
}

func TestProbeJSONModeRejectsProse(t *testing.T) {
	srv := probeServer(t, `Sure! Here you go: {"ok": true}`)
	defer srv.Close()

	cat := probeCatalog()
	client := openaicompat.New(openaicompat.WithAPIKey("k"), openaicompat.WithBaseURL(srv.URL))

	supported, err := cat.ProbeJSONMode(context.Background(), client, srv.Client(), "candidate")
	require.NoError(t, err)
	assert.False(t, supported)
	assert.True(t, cat.JSONModeProbed("candidate"))
}

func TestProbeJSONModeReturnsBackendErrorUnrecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": "RateLimitReached", "message": "quota"}}`))
	}))
	defer srv.Close()

	cat := probeCatalog()
	client := openaicompat.New(openaicompat.WithAPIKey("k"), openaicompat.WithBaseURL(srv.URL))

	_, err := cat.ProbeJSONMode(context.Background(), client, srv.Client(), "candidate")
	require.Error(t, err)

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeRateLimit, llmErr.Type)
	assert.False(t, cat.JSONModeProbed("candidate"))
}
