package rag

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// SynthesisError wraps a model failure together with the model that
// produced it, so callers can tell the text and multimodal paths apart.
type SynthesisError struct {
	Model string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed on %s: %v", e.Model, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer turns an assembled prompt into an answer. Prompts without
// images go to the chat model; prompts carrying image evidence go to the
// multimodal model with the images inlined.
type Synthesizer struct {
	chat       model.BaseChatModel
	multimodal model.BaseChatModel
}

// NewSynthesizer builds a synthesizer. multimodal may equal chat when a
// single model handles both paths; it must not be nil if prompts can
// carry images.
func NewSynthesizer(chat, multimodal model.BaseChatModel) *Synthesizer {
	if multimodal == nil {
		multimodal = chat
	}
	return &Synthesizer{chat: chat, multimodal: multimodal}
}

// Generate produces the answer text for an assembled prompt.
func (s *Synthesizer) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if len(prompt.ImagePaths) > 0 {
		return s.generateMultimodal(ctx, prompt)
	}

	out, err := s.chat.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt.Text),
	})
	if err != nil {
		return "", &SynthesisError{Model: "chat", Err: err}
	}
	return out.Content, nil
}

func (s *Synthesizer) generateMultimodal(ctx context.Context, prompt Prompt) (string, error) {
	parts := []schema.ChatMessagePart{
		{Type: schema.ChatMessagePartTypeText, Text: prompt.Text},
	}
	for _, path := range prompt.ImagePaths {
		url, err := encodeImage(path)
		if err != nil {
			// A missing asset degrades to text-only evidence for that
			// image rather than failing the whole answer.
			continue
		}
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:    url,
				Detail: schema.ImageURLDetailAuto,
			},
		})
	}

	out, err := s.multimodal.Generate(ctx, []*schema.Message{
		{Role: schema.User, MultiContent: parts},
	})
	if err != nil {
		return "", &SynthesisError{Model: "multimodal", Err: err}
	}
	return out.Content, nil
}

// encodeImage reads an image file and renders it as a base64 data URL.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".gif":
		mime = "image/gif"
	case ".webp":
		mime = "image/webp"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
