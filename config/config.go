package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig selects and configures the model provider backend.
type ProviderConfig struct {
	// Type is "openai" (any OpenAI-compatible endpoint) or "gemini".
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	// Keys never live in the config file.
	APIKeyEnv string `yaml:"api_key_env"`
	// ChatModel answers text-only prompts; MultimodalModel is used when
	// image evidence is attached.
	ChatModel       string `yaml:"chat_model"`
	MultimodalModel string `yaml:"multimodal_model"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// EmbeddingConfig configures the embedding endpoint. One embedding model
// serves a memory for its whole lifetime; changing it requires a clear
// and full re-index.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dim       int    `yaml:"dim"`
}

// RedisConfig contains connection details for the Redis memory backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// MemoryConfig configures the vector memory and its query-time defaults.
type MemoryConfig struct {
	// Backend is "local" (JSON-persisted, brute-force cosine) or "redis".
	Backend string `yaml:"backend"`
	// Path is where the local backend persists; defaults under the
	// user's home directory.
	Path           string      `yaml:"path"`
	Collection     string      `yaml:"collection"`
	TopK           int         `yaml:"top_k"`
	ScoreThreshold float64     `yaml:"score_threshold"`
	Redis          RedisConfig `yaml:"redis"`
}

// ChunkConfig configures how extracted text is split.
type ChunkConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MinChunkSize int `yaml:"min_chunk_size"`
}

// ChatConfig configures the conversation loop.
type ChatConfig struct {
	MaxTurns int `yaml:"max_turns"`
	// MaxContextChars caps the assembled prompt context; lowest-ranked
	// chunks are dropped first when it is exceeded.
	MaxContextChars int `yaml:"max_context_chars"`
	// ImageDir is searched for page images extracted next to PDFs.
	ImageDir string `yaml:"image_dir"`
}

// Config is the root configuration. Every recognized option appears here
// with an explicit default; there are no ambient knobs.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Memory    MemoryConfig    `yaml:"memory"`
	Chunking  ChunkConfig     `yaml:"chunking"`
	Chat      ChatConfig      `yaml:"chat"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./docsage.yaml first, then the per-user config path.
// If neither exists, defaults are written to the user path and returned.
func LoadDefault() (*Config, string, error) {
	cwdPath := "docsage.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// APIKey resolves the provider API key from the environment.
func (p ProviderConfig) APIKey() string {
	return os.Getenv(p.APIKeyEnv)
}

// APIKey resolves the embedding API key from the environment, falling
// back to the provider key variable when unset.
func (e EmbeddingConfig) APIKey() string {
	if v := os.Getenv(e.APIKeyEnv); v != "" {
		return v
	}
	return os.Getenv("API_KEY")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsage", "config.yaml"), nil
}

// Default returns the configuration used when no file exists. Retrieval
// and chunking defaults match the document sets this tool was built for:
// top-k 3 with a 0.3 similarity floor, 1500-char chunks with 20 chars of
// overlap, conversations capped at 20 turns.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Provider: ProviderConfig{
			Type:            "openai",
			BaseURL:         "https://api.openai.com/v1",
			APIKeyEnv:       "API_KEY",
			ChatModel:       "gpt-4o-mini",
			MultimodalModel: "gpt-4o",
			TimeoutSecs:     120,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "EMBEDDING_API_KEY",
			Dim:       1536,
		},
		Memory: MemoryConfig{
			Backend:        "local",
			Path:           filepath.Join(home, ".docsage"),
			Collection:     "documents",
			TopK:           3,
			ScoreThreshold: 0.3,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		Chunking: ChunkConfig{
			ChunkSize:    1500,
			ChunkOverlap: 20,
			MinChunkSize: 1,
		},
		Chat: ChatConfig{
			MaxTurns:        20,
			MaxContextChars: 24000,
			ImageDir:        "",
		},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = def.Provider.Type
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = def.Provider.APIKeyEnv
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = def.Embedding.APIKeyEnv
	}
	if cfg.Embedding.Dim <= 0 {
		cfg.Embedding.Dim = def.Embedding.Dim
	}
	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = def.Memory.Backend
	}
	if cfg.Memory.Path == "" {
		cfg.Memory.Path = def.Memory.Path
	}
	if cfg.Memory.Collection == "" {
		cfg.Memory.Collection = def.Memory.Collection
	}
	if cfg.Memory.TopK <= 0 {
		cfg.Memory.TopK = def.Memory.TopK
	}
	if cfg.Memory.ScoreThreshold == 0 {
		cfg.Memory.ScoreThreshold = def.Memory.ScoreThreshold
	}
	if cfg.Chunking.ChunkSize <= 0 {
		cfg.Chunking.ChunkSize = def.Chunking.ChunkSize
	}
	if cfg.Chunking.ChunkOverlap < 0 {
		cfg.Chunking.ChunkOverlap = 0
	}
	if cfg.Chunking.MinChunkSize <= 0 {
		cfg.Chunking.MinChunkSize = def.Chunking.MinChunkSize
	}
	if cfg.Chat.MaxTurns <= 0 {
		cfg.Chat.MaxTurns = def.Chat.MaxTurns
	}
	if cfg.Chat.MaxContextChars <= 0 {
		cfg.Chat.MaxContextChars = def.Chat.MaxContextChars
	}
}
