package completion

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/ashureev/c2h-ai/internal/domain"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIBackend reaches Gemini through its OpenAI-compatible endpoint.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates a backend for the given endpoint.
func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Generate implements Backend.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: toOpenAIMessages(systemInstruction, nil, prompt),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream implements Backend.
func (b *OpenAIBackend) Stream(ctx context.Context, history []domain.ChatMessage, systemInstruction, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := b.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    b.model,
			Messages: toOpenAIMessages(systemInstruction, history, message),
			Stream:   true,
		})
		if err != nil {
			yield("", err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func toOpenAIMessages(systemInstruction string, history []domain.ChatMessage, message string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text()})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
}
