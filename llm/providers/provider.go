package providers

import (
	"context"
	"fmt"
	"time"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	geminiModel "github.com/cloudwego/eino-ext/components/model/gemini"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"docsage/config"
)

// NewChatModel creates the text-answering model from configuration.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	return newModel(ctx, cfg, cfg.Provider.ChatModel)
}

// NewMultimodalModel creates the model used when image evidence is
// attached. It may name the same underlying model as the chat model.
func NewMultimodalModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	name := cfg.Provider.MultimodalModel
	if name == "" {
		name = cfg.Provider.ChatModel
	}
	return newModel(ctx, cfg, name)
}

func newModel(ctx context.Context, cfg *config.Config, modelName string) (model.BaseChatModel, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	apiKey := cfg.Provider.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.Provider.APIKeyEnv)
	}

	switch cfg.Provider.Type {
	case "openai", "":
		return openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:  apiKey,
			BaseURL: cfg.Provider.BaseURL,
			Model:   modelName,
			Timeout: time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
		})
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return geminiModel.NewChatModel(ctx, &geminiModel.Config{
			Client: client,
			Model:  modelName,
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Provider.Type)
	}
}

// NewEmbedder creates the embedding model. Embeddings always go through
// an OpenAI-compatible endpoint, whichever provider answers chat.
func NewEmbedder(ctx context.Context, cfg *config.Config) (einoEmbedding.Embedder, error) {
	apiKey := cfg.Embedding.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.Embedding.APIKeyEnv)
	}
	if cfg.Embedding.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	dim := cfg.Embedding.Dim
	return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:     apiKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: &dim,
	})
}
