// Package testutil provides a scripted completion backend for tests.
package testutil

import (
	"context"
	"iter"
	"sync"

	"github.com/ashureev/c2h-ai/internal/domain"
)

// MockBackend is a thread-safe scripted completion.Backend.
//
// Usage:
//
//	mock := &MockBackend{
//	    Responses: []string{"Fractions Lesson"},
//	    Chunks:    []string{"Hel", "lo"},
//	}
type MockBackend struct {
	mu sync.Mutex

	Responses   []string // Generate answers, returned in sequence
	GenerateErr error    // takes precedence over Responses
	// GenerateGate, when set, blocks Generate until it is closed or receives.
	GenerateGate chan struct{}

	Chunks    []string // fragments yielded by every Stream call
	StreamErr error    // yielded after Chunks when set
	// StreamGate, when set, blocks Stream before its first fragment.
	StreamGate chan struct{}

	generateCalls int
	streamCalls   int
	prompts       []string
	messages      []string
	histories     [][]domain.ChatMessage
	responseIndex int
}

// Generate implements completion.Backend.
func (m *MockBackend) Generate(ctx context.Context, prompt, _ string) (string, error) {
	m.mu.Lock()
	m.generateCalls++
	m.prompts = append(m.prompts, prompt)
	gate := m.GenerateGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}
	return "", nil
}

// Stream implements completion.Backend.
func (m *MockBackend) Stream(ctx context.Context, history []domain.ChatMessage, _, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mu.Lock()
		m.streamCalls++
		m.messages = append(m.messages, message)
		m.histories = append(m.histories, history)
		chunks := append([]string(nil), m.Chunks...)
		streamErr := m.StreamErr
		gate := m.StreamGate
		m.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				yield("", ctx.Err())
				return
			}
		}

		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if streamErr != nil {
			yield("", streamErr)
		}
	}
}

// GenerateCalls returns the number of Generate calls.
func (m *MockBackend) GenerateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}

// StreamCalls returns the number of Stream calls.
func (m *MockBackend) StreamCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls
}

// Prompts returns every prompt passed to Generate.
func (m *MockBackend) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Messages returns every message passed to Stream.
func (m *MockBackend) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

// LastHistory returns the history passed to the most recent Stream call.
func (m *MockBackend) LastHistory() []domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.histories) == 0 {
		return nil
	}
	return m.histories[len(m.histories)-1]
}
