package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmerrors "github.com/personagen/llmroute/pkg/errors"
)

func TestCleanStripsJSONFence(t *testing.T) {
	raw := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, Clean(raw))
}

func TestCleanStripsBareFence(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, Clean(raw))
}

func TestCleanStripsWholeDocumentQuotes(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, Clean(`"{"a": 1}"`))
}

func TestCleanExtractsObjectFromProse(t *testing.T) {
	assert.Equal(t, `{"ok": true}`, Clean(`Here is the JSON: {"ok": true}`))
	assert.Equal(t, `{"a": {"b": 1}}`, Clean(`Sure! {"a": {"b": 1}} Hope that helps.`))
}

func TestJSONRepairsTrailingCommas(t *testing.T) {
	obj, err := Object("gpt-4o", "{\"a\": [1, 2,],\n}")
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, obj["a"])
}

func TestJSONPrefersStrictParse(t *testing.T) {
	// The comma repair must not touch values that already parse.
	obj, err := Object("gpt-4o", `{"a": "x, }"}`)
	require.NoError(t, err)
	assert.Equal(t, "x, }", obj["a"])
}

func TestObjectDecodesJSONSurroundedByProse(t *testing.T) {
	obj, err := Object("gpt-4o", `Here is the JSON: {"ok": true}`)
	require.NoError(t, err)
	assert.Equal(t, true, obj["ok"])
}

func TestJSONDecodesFencedObject(t *testing.T) {
	var out struct {
		Title string `json:"title"`
	}
	err := JSON("gpt-4o", "```json\n{\"title\": \"hello\",}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Title)
}

func TestJSONReportsMalformedResponse(t *testing.T) {
	var out map[string]any
	err := JSON("gpt-4o", "I cannot produce JSON for that.", &out)
	require.Error(t, err)

	llmErr, ok := llmerrors.AsLLMError(err)
	require.True(t, ok)
	assert.Equal(t, llmerrors.TypeMalformedResponse, llmErr.Type)
	assert.Equal(t, "gpt-4o", llmErr.Model)
}

func TestJSONRejectsEmptyReply(t *testing.T) {
	var out map[string]any
	err := JSON("gpt-4o", "   ", &out)
	require.Error(t, err)
}

func TestObject(t *testing.T) {
	obj, err := Object("gpt-4o", `{"ok": true, "n": 2}`)
	require.NoError(t, err)
	assert.Equal(t, true, obj["ok"])
	assert.Equal(t, float64(2), obj["n"])
}
