package domain

import "testing"

func TestChatSessionUpsertAppendsWithoutID(t *testing.T) {
	s := NewChatSession("s1")

	if !s.Upsert(NewTextMessage("", RoleUser, "a")) {
		t.Fatal("expected first message to be appended")
	}
	if !s.Upsert(NewTextMessage("", RoleUser, "b")) {
		t.Fatal("expected message without id to be appended")
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
}

func TestChatSessionUpsertReplacesByID(t *testing.T) {
	s := NewChatSession("s1")
	s.Upsert(NewTextMessage("user-1", RoleUser, "hi"))
	s.Upsert(NewTextMessage("model-1", RoleModel, ""))

	if s.Upsert(NewTextMessage("model-1", RoleModel, "Hel")) {
		t.Fatal("expected replacement, got append")
	}
	s.Upsert(NewTextMessage("model-1", RoleModel, "Hello"))

	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
	if got := s.Messages[1].Text(); got != "Hello" {
		t.Fatalf("expected Hello, got %q", got)
	}
}

func TestChatSessionUpsertKeepsRole(t *testing.T) {
	s := NewChatSession("s1")
	s.Upsert(NewTextMessage("m", RoleModel, "x"))
	s.Upsert(NewTextMessage("m", RoleUser, "y"))

	if s.Messages[0].Role != RoleModel {
		t.Fatalf("expected role to stay model, got %s", s.Messages[0].Role)
	}
}

func TestChatSessionCloneIsDeep(t *testing.T) {
	s := NewChatSession("s1")
	s.Upsert(NewTextMessage("m", RoleUser, "x"))

	c := s.Clone()
	c.Messages[0].Parts[0].Text = "changed"
	c.Title = "other"

	if s.Messages[0].Text() != "x" || s.Title != DefaultSessionTitle {
		t.Fatal("clone shares state with original")
	}
}

func TestPromptDetailsValidate(t *testing.T) {
	ok := PromptDetails{Topic: "Fractions", GradeLevel: "Grade 4", Subject: "Maths"}
	if !ok.Validate() {
		t.Fatal("expected details to be valid")
	}
	missing := PromptDetails{Topic: "Fractions", GradeLevel: "  ", Subject: "Maths"}
	if missing.Validate() {
		t.Fatal("expected blank grade level to be rejected")
	}
}

func TestMessageTextJoinsParts(t *testing.T) {
	m := ChatMessage{Role: RoleModel, Parts: []Part{{Text: "a"}, {Text: "b"}}}
	if m.Text() != "ab" {
		t.Fatalf("expected ab, got %q", m.Text())
	}
	if (ChatMessage{}).Text() != "" {
		t.Fatal("expected empty text for message without parts")
	}
}
