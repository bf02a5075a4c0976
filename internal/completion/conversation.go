package completion

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/metrics"
	"github.com/ashureev/c2h-ai/internal/prompt"
)

var errStreamConsumed = errors.New("reply stream already consumed")

// Conversation is a multi-turn chat context. It holds the turns the model
// has seen and grows only when a reply stream completes.
type Conversation struct {
	client *Client

	mu      sync.Mutex
	history []domain.ChatMessage
}

// NewConversation rebuilds a chat context from a saved transcript.
// No request is made. Entries with no text are skipped.
func (c *Client) NewConversation(prior []domain.ChatMessage) *Conversation {
	history := make([]domain.ChatMessage, 0, len(prior))
	for _, m := range prior {
		text := m.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		history = append(history, domain.NewTextMessage("", m.Role, text))
	}
	return &Conversation{client: c, history: history}
}

// History returns a copy of the turns the model has seen.
func (cv *Conversation) History() []domain.ChatMessage {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make([]domain.ChatMessage, len(cv.history))
	for i, m := range cv.history {
		out[i] = m.Clone()
	}
	return out
}

// Send streams the reply to text. The returned sequence yields fragments
// in order and can be iterated once. A transport failure is yielded as
// *ChatSendError and ends the sequence.
func (cv *Conversation) Send(ctx context.Context, text string) iter.Seq2[string, error] {
	var once sync.Once
	return func(yield func(string, error) bool) {
		first := false
		once.Do(func() { first = true })
		if !first {
			yield("", &ChatSendError{Err: errStreamConsumed})
			return
		}

		c := cv.client
		if c.err != nil {
			yield("", &ChatSendError{Err: c.err})
			return
		}

		history := cv.History()
		start := time.Now()
		var reply strings.Builder

		for chunk, err := range c.backend.Stream(ctx, history, prompt.SystemInstruction, text) {
			if err != nil {
				c.metrics.ObserveCompletion("chat", metrics.OutcomeError, time.Since(start))
				c.logger.Error("Error sending message to chat", "error", err)
				yield("", &ChatSendError{Err: err})
				return
			}
			c.metrics.AddStreamChunk()
			reply.WriteString(chunk)
			if !yield(chunk, nil) {
				return
			}
		}
		c.metrics.ObserveCompletion("chat", metrics.OutcomeSuccess, time.Since(start))

		cv.mu.Lock()
		cv.history = append(cv.history,
			domain.NewTextMessage("", domain.RoleUser, text),
			domain.NewTextMessage("", domain.RoleModel, reply.String()),
		)
		cv.mu.Unlock()
	}
}
