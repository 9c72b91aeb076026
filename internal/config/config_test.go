package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "memory", cfg.Vector.Provider)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Query.TopK)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[embedding]
provider = "openai"
api_key = "sk-test"

[vector]
provider = "milvus"
address = "localhost:19530"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "milvus", cfg.Vector.Provider)
	assert.Equal(t, "localhost:19530", cfg.Vector.Address)

	// Untouched sections keep their defaults.
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 1000, cfg.Chunking.Size)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.LLM.Model = "llama3.2"
	cfg.Rerank.Enabled = true
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", loaded.LLM.Model)
	assert.True(t, loaded.Rerank.Enabled)
}
