package completion

import (
	"context"
	"errors"
	"iter"

	"github.com/ashureev/c2h-ai/internal/domain"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

var errStreamStopped = errors.New("stream stopped by consumer")

// LangChainBackend reaches the model through a langchaingo llms.Model.
type LangChainBackend struct {
	llm llms.Model
}

// NewLangChainBackend creates a langchaingo model bound to the given endpoint.
func NewLangChainBackend(apiKey, model, baseURL string) (*LangChainBackend, error) {
	llm, err := lcopenai.New(
		lcopenai.WithModel(model),
		lcopenai.WithToken(apiKey),
		lcopenai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, err
	}
	return &LangChainBackend{llm: llm}, nil
}

// NewLangChainBackendFromModel wraps an existing model.
func NewLangChainBackendFromModel(llm llms.Model) *LangChainBackend {
	return &LangChainBackend{llm: llm}
}

// Generate implements Backend.
func (b *LangChainBackend) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	resp, err := b.llm.GenerateContent(ctx, toLangChainMessages(systemInstruction, nil, prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// Stream implements Backend. The streaming callback runs on the caller's
// goroutine, so fragments are yielded as they arrive.
func (b *LangChainBackend) Stream(ctx context.Context, history []domain.ChatMessage, systemInstruction, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		_, err := b.llm.GenerateContent(ctx, toLangChainMessages(systemInstruction, history, message),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				if !yield(string(chunk), nil) {
					stopped = true
					return errStreamStopped
				}
				return nil
			}),
		)
		if err != nil && !stopped {
			yield("", err)
		}
	}
}

func toLangChainMessages(systemInstruction string, history []domain.ChatMessage, message string) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(history)+2)
	if systemInstruction != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, systemInstruction))
	}
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == domain.RoleModel {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, m.Text()))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, message))
}
