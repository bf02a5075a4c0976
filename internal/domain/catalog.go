// Package domain contains core domain types for the C2H AI application.
package domain

import "strings"

// ChatToolID identifies the conversational tool in the catalog.
const ChatToolID = "chat"

// Tool is a catalog entry selecting the kind of material to produce.
type Tool struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// IsChat returns true if the tool opens the chat view instead of the generation form.
func (t Tool) IsChat() bool {
	return t.ID == ChatToolID
}

// Approach is a catalog entry selecting a pedagogical style.
type Approach struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// PromptDetails holds the generation form input for one submission.
type PromptDetails struct {
	Topic                string `json:"topic"`
	GradeLevel           string `json:"grade_level"`
	Subject              string `json:"subject"`
	SpecificInstructions string `json:"specific_instructions,omitempty"`
}

// ErrMissingDetails is the message shown when a required form field is blank.
const ErrMissingDetails = "Please fill in Topic, Grade Level, and Subject."

// Validate reports whether the three required fields are filled in.
func (d PromptDetails) Validate() bool {
	return strings.TrimSpace(d.Topic) != "" &&
		strings.TrimSpace(d.GradeLevel) != "" &&
		strings.TrimSpace(d.Subject) != ""
}
