// Package session keeps a device's chat sessions, their conversation
// contexts and their persisted form.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/domain"
	"github.com/ashureev/c2h-ai/internal/metrics"
	"github.com/ashureev/c2h-ai/internal/store"
)

// KeyPrefix prefixes the blob key holding an owner's session collection.
const KeyPrefix = "c2h-ai-chat-history:"

// ErrSessionNotFound is returned for operations on an unknown session id.
var ErrSessionNotFound = errors.New("chat session not found")

// Assistant is the part of the completion client the store needs.
type Assistant interface {
	NewConversation(prior []domain.ChatMessage) *completion.Conversation
	SummarizeForTitle(ctx context.Context, text string) string
}

// PersistenceReadError describes a stored collection that could not be decoded.
// It is logged and never returned to callers.
type PersistenceReadError struct {
	Key string
	Err error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("failed to load chat history %s: %v", e.Key, e.Err)
}

func (e *PersistenceReadError) Unwrap() error { return e.Err }

type entry struct {
	session *domain.ChatSession
	conv    *completion.Conversation
}

// Store holds one owner's session collection, newest first.
type Store struct {
	owner   string
	ai      Assistant
	logger  *slog.Logger
	metrics *metrics.Metrics
	persist *persister

	titleCtx context.Context
	titles   *sync.WaitGroup

	mu       sync.Mutex
	entries  []*entry
	activeID string
}

// Options configures a Store.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// TitleContext bounds detached title requests. Defaults to context.Background.
	TitleContext context.Context
	// Titles tracks detached title requests. A private group is used when nil.
	Titles *sync.WaitGroup
}

// Open loads the owner's collection from blobs and returns its Store.
// An absent, empty or undecodable blob yields an empty collection. A failed
// read returns an error and no Store, so the stored history is never
// overwritten by an empty collection.
func Open(ctx context.Context, owner string, blobs store.BlobStore, ai Assistant, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TitleContext == nil {
		opts.TitleContext = context.Background()
	}
	if opts.Titles == nil {
		opts.Titles = &sync.WaitGroup{}
	}
	key := KeyPrefix + owner
	logger := opts.Logger.With("owner", owner)

	raw, err := blobs.Get(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load chat history %s: %w", key, err)
	}
	sessions, err := decodeCollection(key, raw)
	if err != nil {
		logger.Error("failed to load chat history", "error", err)
	}

	s := &Store{
		owner:    owner,
		ai:       ai,
		logger:   logger,
		metrics:  opts.Metrics,
		persist:  newPersister(blobs, key, logger, opts.Metrics),
		titleCtx: opts.TitleContext,
		titles:   opts.Titles,
	}
	for _, sess := range sessions {
		s.entries = append(s.entries, &entry{
			session: sess,
			conv:    ai.NewConversation(sess.Messages),
		})
	}
	if len(s.entries) > 0 {
		s.activeID = s.entries[0].session.ID
		s.metrics.AddSessions(len(s.entries))
	}
	return s, nil
}

// decodeCollection parses a stored collection. Sessions without an id are
// dropped.
func decodeCollection(key, raw string) ([]*domain.ChatSession, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var sessions []*domain.ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		return nil, &PersistenceReadError{Key: key, Err: err}
	}
	out := sessions[:0]
	for _, sess := range sessions {
		if sess == nil || sess.ID == "" {
			continue
		}
		if sess.Messages == nil {
			sess.Messages = []domain.ChatMessage{}
		}
		out = append(out, sess)
	}
	return out, nil
}

// Owner returns the id of the device owning the collection.
func (s *Store) Owner() string { return s.owner }

// Create adds an empty session at the front and makes it active.
func (s *Store) Create() *domain.ChatSession {
	sess := domain.NewChatSession("session-" + uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]*entry{{session: sess, conv: s.ai.NewConversation(nil)}}, s.entries...)
	s.activeID = sess.ID
	s.metrics.AddSessions(1)
	s.persistLocked()

	s.logger.Info("chat session created", "session_id", sess.ID)
	return sess.Clone()
}

// SwitchActive makes id the active session. Unknown ids are ignored.
func (s *Store) SwitchActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) < 0 {
		return false
	}
	s.activeID = id
	return true
}

// Delete removes a session and its conversation context. When the active
// session is removed the newest remaining one becomes active.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
		if len(s.entries) > 0 {
			s.activeID = s.entries[0].session.ID
		}
	}
	s.metrics.AddSessions(-1)
	s.persistLocked()

	s.logger.Info("chat session deleted", "session_id", id)
	return true
}

// AppendOrReplace records msg in the session transcript. The first user
// message of an empty transcript starts one detached title request.
func (s *Store) AppendOrReplace(sessionID string, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(sessionID)
	if i < 0 {
		return ErrSessionNotFound
	}
	sess := s.entries[i].session
	wasEmpty := len(sess.Messages) == 0
	appended := sess.Upsert(msg.Clone())
	s.persistLocked()

	if appended && wasEmpty && msg.Role == domain.RoleUser {
		s.summarizeTitle(sessionID, msg.Text())
	}
	return nil
}

func (s *Store) summarizeTitle(sessionID, text string) {
	s.titles.Add(1)
	go func() {
		defer s.titles.Done()
		title := s.ai.SummarizeForTitle(s.titleCtx, text)
		s.setTitle(sessionID, title)
	}()
}

func (s *Store) setTitle(sessionID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(sessionID)
	if i < 0 {
		return
	}
	s.entries[i].session.Title = title
	s.persistLocked()
	s.logger.Debug("chat session titled", "session_id", sessionID, "title", title)
}

// Sessions returns a deep copy of the collection, newest first.
func (s *Store) Sessions() []*domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.ChatSession, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.session.Clone()
	}
	return out
}

// Session returns a copy of one session.
func (s *Store) Session(id string) (*domain.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(id)
	if i < 0 {
		return nil, false
	}
	return s.entries[i].session.Clone(), true
}

// ActiveID returns the active session id, or "" when there is none.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Conversation returns the conversation context bound to a session.
func (s *Store) Conversation(id string) (*completion.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(id)
	if i < 0 {
		return nil, false
	}
	return s.entries[i].conv, true
}

// Close flushes pending writes. Title requests already in flight may still
// update the in-memory copy but are no longer persisted.
func (s *Store) Close() {
	s.persist.close()
}

func (s *Store) findLocked(id string) int {
	for i, e := range s.entries {
		if e.session.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked enqueues the current collection. s.mu must be held so
// snapshots reach the writer in change order.
func (s *Store) persistLocked() {
	if len(s.entries) == 0 {
		s.persist.enqueue(nil)
		return
	}
	sessions := make([]*domain.ChatSession, len(s.entries))
	for i, e := range s.entries {
		sessions[i] = e.session
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		s.logger.Error("failed to encode chat history", "error", err)
		return
	}
	s.persist.enqueue(data)
}
