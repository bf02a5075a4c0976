package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if len(c.Tools) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(c.Tools))
	}
	if len(c.Approaches) != 8 {
		t.Fatalf("expected 8 approaches, got %d", len(c.Approaches))
	}
	if c.DefaultTool().ID != "lesson_plan" {
		t.Errorf("expected lesson_plan first, got %s", c.DefaultTool().ID)
	}
	if c.DefaultApproach().Name != "World's Best (Blended)" {
		t.Errorf("unexpected default approach %q", c.DefaultApproach().Name)
	}

	chat, ok := c.Tool("chat")
	if !ok || !chat.IsChat() {
		t.Fatal("expected chat tool in catalog")
	}
	if _, ok := c.Approach("montessori"); !ok {
		t.Fatal("expected montessori approach in catalog")
	}
	if _, ok := c.Tool("unknown"); ok {
		t.Fatal("expected unknown tool lookup to fail")
	}
}

func TestParseRejectsDuplicateTool(t *testing.T) {
	data := []byte(`
tools:
  - {id: chat, name: Chat}
  - {id: chat, name: Chat again}
approaches:
  - {id: a, name: A}
`)
	_, err := Parse(data)
	if err == nil || !strings.Contains(err.Error(), "duplicate tool id") {
		t.Fatalf("expected duplicate tool error, got %v", err)
	}
}

func TestParseRequiresChatTool(t *testing.T) {
	data := []byte(`
tools:
  - {id: worksheet, name: Worksheet}
approaches:
  - {id: a, name: A}
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected missing chat tool to be rejected")
	}
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
tools:
  - {id: quiz, name: Quiz, description: Short quiz.}
  - {id: chat, name: Chat with AI}
approaches:
  - {id: inquiry, name: Inquiry-Based}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.DefaultTool().ID != "quiz" || c.DefaultApproach().ID != "inquiry" {
		t.Fatalf("unexpected catalog %+v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
