package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Type)
	assert.Equal(t, 3, cfg.Memory.TopK)
	assert.Equal(t, 0.3, cfg.Memory.ScoreThreshold)
	assert.Equal(t, 1500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 20, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 20, cfg.Chat.MaxTurns)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsage.yaml")
	content := `
provider:
  type: gemini
  chat_model: gemini-2.0-flash
memory:
  backend: redis
  redis:
    addr: redis.internal:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider.Type)
	assert.Equal(t, "gemini-2.0-flash", cfg.Provider.ChatModel)
	assert.Equal(t, "redis", cfg.Memory.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Memory.Redis.Addr)

	// Unset options keep their defaults.
	assert.Equal(t, 3, cfg.Memory.TopK)
	assert.Equal(t, 0.3, cfg.Memory.ScoreThreshold)
	assert.Equal(t, "documents", cfg.Memory.Collection)
	assert.Equal(t, 1500, cfg.Chunking.ChunkSize)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docsage.yaml")

	cfg := Default()
	cfg.Memory.Collection = "papers"
	cfg.Chat.MaxTurns = 5
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "papers", loaded.Memory.Collection)
	assert.Equal(t, 5, loaded.Chat.MaxTurns)
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "sk-provider")
	t.Setenv("API_KEY", "sk-fallback")

	p := ProviderConfig{APIKeyEnv: "TEST_PROVIDER_KEY"}
	assert.Equal(t, "sk-provider", p.APIKey())

	// Embedding falls back to the provider key variable when its own
	// variable is unset.
	e := EmbeddingConfig{APIKeyEnv: "UNSET_EMBEDDING_KEY"}
	assert.Equal(t, "sk-fallback", e.APIKey())
}
