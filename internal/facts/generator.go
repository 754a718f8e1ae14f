// Package facts produces short generated texts about currency symbols and tracks
// each request as a cancellable task whose text grows as fragments stream in.
package facts

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// Generator streams a generated text about symbol, calling onFragment for every
// piece as it arrives. It returns when the text is complete, the context ends or
// the upstream call fails.
type Generator interface {
	Stream(ctx context.Context, symbol string, onFragment func(string)) error
}

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

// NewOpenAIGenerator creates a generator for the endpoint at baseURL. An empty
// baseURL keeps the library default.
func NewOpenAIGenerator(baseURL, apiKey, model, systemPrompt string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		systemPrompt: systemPrompt,
	}
}

// Stream implements Generator.
func (g *OpenAIGenerator) Stream(ctx context.Context, symbol string, onFragment func(string)) error {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: symbol},
		},
		Stream: true,
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("open completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive completion fragment: %w", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content != "" {
				onFragment(choice.Delta.Content)
			}
		}
	}
}

var _ Generator = (*OpenAIGenerator)(nil)
