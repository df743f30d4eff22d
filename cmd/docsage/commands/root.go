package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsage/config"
	"docsage/llm/providers"
	"docsage/llm/vector"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "docsage",
	Short: "Question answering over your own documents",
	Long: `docsage indexes PDFs, markdown, HTML and plain text into a vector
memory and answers questions grounded in the indexed content.

Index some documents first, then ask away:

  docsage index docs/**/*.pdf
  docsage ask "How do I rotate the API key?"
  docsage chat`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./docsage.yaml, then ~/.config/docsage/config.yaml)")
}

// loadConfig resolves the configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// openMemory builds the configured vector memory backend.
func openMemory(ctx context.Context, cfg *config.Config) (vector.VectorMemory, error) {
	embedder, err := providers.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	svc := vector.NewEmbeddingService(embedder, cfg.Embedding.Dim)

	switch cfg.Memory.Backend {
	case "local", "":
		return vector.NewLocalStore(cfg.Memory.Path, cfg.Memory.Collection, svc)
	case "redis":
		return vector.NewRedisStore(ctx, svc, vector.RedisOptions{
			Addr:       cfg.Memory.Redis.Addr,
			Password:   cfg.Memory.Redis.Password,
			DB:         cfg.Memory.Redis.DB,
			PoolSize:   cfg.Memory.Redis.PoolSize,
			Collection: cfg.Memory.Collection,
			VectorDim:  cfg.Embedding.Dim,
		})
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Memory.Backend)
	}
}
