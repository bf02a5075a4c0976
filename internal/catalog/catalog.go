// Package catalog provides the static tool and approach lists offered to teachers.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/ashureev/c2h-ai/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	errNoTools      = errors.New("catalog has no tools")
	errNoApproaches = errors.New("catalog has no approaches")
)

// Catalog holds the immutable tool and approach lists.
type Catalog struct {
	Tools      []domain.Tool     `json:"tools" yaml:"tools"`
	Approaches []domain.Approach `json:"approaches" yaml:"approaches"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("catalog: invalid embedded catalog: " + err.Error())
	}
	return c
}

// Load reads a catalog from path, or returns the built-in catalog if path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate checks ids are present and unique and that exactly one chat tool exists.
func (c *Catalog) Validate() error {
	if len(c.Tools) == 0 {
		return errNoTools
	}
	if len(c.Approaches) == 0 {
		return errNoApproaches
	}

	seen := make(map[string]bool, len(c.Tools))
	chats := 0
	for _, t := range c.Tools {
		if t.ID == "" || t.Name == "" {
			return fmt.Errorf("tool %q: id and name are required", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tool id %q", t.ID)
		}
		seen[t.ID] = true
		if t.IsChat() {
			chats++
		}
	}
	if chats != 1 {
		return fmt.Errorf("expected exactly one %q tool, found %d", domain.ChatToolID, chats)
	}

	seen = make(map[string]bool, len(c.Approaches))
	for _, a := range c.Approaches {
		if a.ID == "" || a.Name == "" {
			return fmt.Errorf("approach %q: id and name are required", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate approach id %q", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// Tool looks up a tool by id.
func (c *Catalog) Tool(id string) (domain.Tool, bool) {
	for _, t := range c.Tools {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Tool{}, false
}

// Approach looks up an approach by id.
func (c *Catalog) Approach(id string) (domain.Approach, bool) {
	for _, a := range c.Approaches {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Approach{}, false
}

// DefaultTool returns the tool preselected in the view.
func (c *Catalog) DefaultTool() domain.Tool {
	return c.Tools[0]
}

// DefaultApproach returns the approach preselected in the view.
func (c *Catalog) DefaultApproach() domain.Approach {
	return c.Approaches[0]
}
