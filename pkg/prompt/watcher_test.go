package prompt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryV1 = `{
	"lang": "en",
	"system_prompt": "Day {day}.",
	"prompts": [{"prompt": "one", "cache_key": "a"}]
}`

const libraryV2 = `{
	"lang": "en",
	"system_prompt": "Day {day}.",
	"prompts": [
		{"prompt": "one", "cache_key": "a"},
		{"prompt": "two", "cache_key": "b"}
	]
}`

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(libraryV1), 0o644))

	w, err := Watch(path, nil)
	require.NoError(t, err)
	defer w.Close()

	require.Len(t, w.Get().Prompts, 1)

	require.NoError(t, os.WriteFile(path, []byte(libraryV2), 0o644))
	require.Eventually(t, func() bool {
		return len(w.Get().Prompts) == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherKeepsLastGoodLibraryOnBadRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(libraryV2), 0o644))

	w, err := Watch(path, nil)
	require.NoError(t, err)
	defer w.Close()

	// Duplicate cache key makes the rewrite invalid.
	bad := `{
		"lang": "en",
		"system_prompt": "Day {day}.",
		"prompts": [
			{"prompt": "x", "cache_key": "a"},
			{"prompt": "y", "cache_key": "a"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))

	time.Sleep(time.Second)
	assert.Len(t, w.Get().Prompts, 2)
}
