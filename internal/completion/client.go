package completion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/c2h-ai/internal/metrics"
	"github.com/ashureev/c2h-ai/internal/prompt"
)

// FallbackTitle is used whenever a title summary cannot be produced.
const FallbackTitle = "Chat Summary"

const maxTitleWords = 5

// Client is the application's handle on the model. It is built once at
// startup and shared. A Client whose backend could not be configured is
// still usable: every call reports the configuration error.
type Client struct {
	backend Backend
	err     error
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout bounds single-shot requests. Chat streams are not bounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds the backend described by cfg. It never fails; a bad
// configuration is reported by Err.
func New(cfg Config, opts ...Option) *Client {
	backend, err := NewBackend(cfg)
	c := newClient(backend, opts)
	if err != nil {
		c.backend = nil
		c.err = &ConfigurationError{Err: err}
		c.logger.Warn("AI service disabled", "error", err)
	}
	if cfg.Timeout > 0 && c.timeout == 0 {
		c.timeout = cfg.Timeout
	}
	return c
}

// NewWithBackend wraps an already constructed backend.
func NewWithBackend(backend Backend, opts ...Option) *Client {
	c := newClient(backend, opts)
	if backend == nil {
		c.err = &ConfigurationError{Err: errMissingBackend}
	}
	return c
}

func newClient(backend Backend, opts []Option) *Client {
	c := &Client{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Err returns the *ConfigurationError that disables the client, or nil.
func (c *Client) Err() error { return c.err }

// Enabled reports whether the model can be reached.
func (c *Client) Enabled() bool { return c.err == nil }

// Generate sends a single prompt and returns the full answer.
// Failures and empty answers are reported as *GenerationError.
func (c *Client) Generate(ctx context.Context, promptText, systemInstruction string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	text, err := c.backend.Generate(ctx, promptText, systemInstruction)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyResponse
	}
	if err != nil {
		c.metrics.ObserveCompletion("generate", metrics.OutcomeError, time.Since(start))
		c.logger.Error("Error generating content", "error", err)
		return "", &GenerationError{Err: err}
	}
	c.metrics.ObserveCompletion("generate", metrics.OutcomeSuccess, time.Since(start))
	return text, nil
}

// SummarizeForTitle asks for a short session title. It never fails:
// any error or empty answer yields FallbackTitle.
func (c *Client) SummarizeForTitle(ctx context.Context, text string) string {
	if c.err != nil {
		c.metrics.ObserveTitleSummary(metrics.OutcomeFallback)
		return FallbackTitle
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	answer, err := c.backend.Generate(ctx, prompt.TitlePrompt(text), "")
	if err != nil {
		c.metrics.ObserveCompletion("title", metrics.OutcomeError, time.Since(start))
		c.metrics.ObserveTitleSummary(metrics.OutcomeFallback)
		c.logger.Warn("Error summarizing title", "error", err)
		return FallbackTitle
	}
	c.metrics.ObserveCompletion("title", metrics.OutcomeSuccess, time.Since(start))

	title := cleanTitle(answer)
	if title == "" {
		c.metrics.ObserveTitleSummary(metrics.OutcomeFallback)
		return FallbackTitle
	}
	c.metrics.ObserveTitleSummary(metrics.OutcomeSuccess)
	return title
}

func cleanTitle(s string) string {
	s = strings.NewReplacer(`"`, "", "'", "").Replace(strings.TrimSpace(s))
	words := strings.Fields(s)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	return strings.Join(words, " ")
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// IsConfigurationError reports whether err disables the AI entry points.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
