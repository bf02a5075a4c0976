package domain

// DefaultSessionTitle is the placeholder title of a new session.
const DefaultSessionTitle = "New Chat"

// ChatSession is one persisted conversation.
type ChatSession struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
}

// NewChatSession creates an empty session with the placeholder title.
func NewChatSession(id string) *ChatSession {
	return &ChatSession{
		ID:       id,
		Title:    DefaultSessionTitle,
		Messages: []ChatMessage{},
	}
}

// Upsert replaces the message with the same non-empty ID in place,
// or appends it when no such message exists.
// It returns true if the message was appended.
func (s *ChatSession) Upsert(msg ChatMessage) bool {
	if msg.ID != "" {
		for i := range s.Messages {
			if s.Messages[i].ID == msg.ID {
				// A message keeps the role it was created with.
				msg.Role = s.Messages[i].Role
				s.Messages[i] = msg
				return false
			}
		}
	}
	s.Messages = append(s.Messages, msg)
	return true
}

// Clone returns a deep copy of the session.
func (s *ChatSession) Clone() *ChatSession {
	c := &ChatSession{
		ID:       s.ID,
		Title:    s.Title,
		Messages: make([]ChatMessage, len(s.Messages)),
	}
	for i, m := range s.Messages {
		c.Messages[i] = m.Clone()
	}
	return c
}
