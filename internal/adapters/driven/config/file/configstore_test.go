package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestSet_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", "mistral"))
	require.NoError(t, store.Set("embedding.dimensions", 768))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "mistral", reopened.GetString("llm.model", ""))
	assert.Equal(t, 768, reopened.GetInt("embedding.dimensions", 0))
}

func TestGetString_Fallback(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "default", store.GetString("missing", "default"))

	require.NoError(t, store.Set("key", 42))
	assert.Equal(t, "default", store.GetString("key", "default"), "wrong type falls back")
}

func TestGetInt_Fallback(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7, store.GetInt("missing", 7))

	require.NoError(t, store.Set("key", "text"))
	assert.Equal(t, 7, store.GetInt("key", 7))
}

func TestGetBool_Fallback(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.True(t, store.GetBool("missing", true))

	require.NoError(t, store.Set("analyzer.enabled", true))
	assert.True(t, store.GetBool("analyzer.enabled", false))
}

func TestGet_Missing(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}
