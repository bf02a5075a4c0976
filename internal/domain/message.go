package domain

import "strings"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks a message typed by the teacher.
	RoleUser Role = "user"
	// RoleModel marks a message produced by the assistant.
	RoleModel Role = "model"
)

// Part is one text fragment of a message.
type Part struct {
	Text string `json:"text"`
}

// ChatMessage is one turn of a conversation.
// ID is required for messages that are replaced in place while streaming.
type ChatMessage struct {
	ID    string `json:"id,omitempty"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewTextMessage builds a single-part message.
func NewTextMessage(id string, role Role, text string) ChatMessage {
	return ChatMessage{ID: id, Role: role, Parts: []Part{{Text: text}}}
}

// Text returns the concatenated text of all parts.
func (m ChatMessage) Text() string {
	switch len(m.Parts) {
	case 0:
		return ""
	case 1:
		return m.Parts[0].Text
	}
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	parts := make([]Part, len(m.Parts))
	copy(parts, m.Parts)
	m.Parts = parts
	return m
}
