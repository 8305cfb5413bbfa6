package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultVectorWeight, cfg.Retrieval.VectorWeight)
	assert.Equal(t, DefaultLexicalWeight, cfg.Retrieval.LexicalWeight)
	assert.Equal(t, DefaultK, cfg.Retrieval.DefaultK)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL.Value())
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, []string{"**/*.md"}, cfg.Notes.Include)
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[notes]
root = "/home/me/notes"
exclude = ["archive/**"]

[retrieval]
vector_weight = 0.6
lexical_weight = 0.4
default_k = 10

[cache]
ttl = "1h"

[embedding]
provider = "openai"
model = "text-embedding-3-small"
api_key = "sk-test"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/home/me/notes", cfg.Notes.Root)
	assert.Equal(t, []string{"archive/**"}, cfg.Notes.Exclude)
	assert.Equal(t, 0.6, cfg.Retrieval.VectorWeight)
	assert.Equal(t, 0.4, cfg.Retrieval.LexicalWeight)
	assert.Equal(t, 10, cfg.Retrieval.DefaultK)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Value())
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "ollama", cfg.Generation.Provider)
}

func TestLoad_RejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[broken"), 0600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSave_RoundTrips(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Notes.Root = "/somewhere/notes"
	cfg.Index.EmbedRate = 2.5
	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/notes", loaded.Notes.Root)
	assert.Equal(t, 2.5, loaded.Index.EmbedRate)
	assert.Equal(t, DefaultCacheTTL, loaded.Cache.TTL.Value())
}
