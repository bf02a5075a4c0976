// Package completion talks to the hosted generative-language model.
package completion

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/ashureev/c2h-ai/internal/domain"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
)

const (
	// DefaultModel is the model used for generation, chat and titles.
	DefaultModel = "gemini-2.5-flash"
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Backend is one way of reaching the model.
type Backend interface {
	// Generate returns the full text answer to a single prompt.
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)

	// Stream sends message on top of history and yields reply fragments in order.
	Stream(ctx context.Context, history []domain.ChatMessage, systemInstruction, message string) iter.Seq2[string, error]
}

// Config selects and configures a backend.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return c
}

// NewBackend builds the backend named by cfg.Provider.
func NewBackend(cfg Config) (Backend, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case ProviderLangChain:
		b, err := NewLangChainBackend(cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create langchain backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
