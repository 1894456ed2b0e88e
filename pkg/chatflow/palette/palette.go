// Package palette holds the catalog of node templates a user can drag
// onto the canvas.
package palette

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// DragDataKey is the drag-data channel key the payload travels under.
const DragDataKey = "application/reactflow"

// Template describes a creatable node type. Its JSON form is the drag payload.
type Template struct {
	Type  string         `json:"type"`
	Label string         `json:"label"`
	Icon  string         `json:"icon,omitempty"`
	Data  map[string]any `json:"data"`
}

// Sentinel errors for catalog operations.
var (
	// ErrEmptyType indicates a template was registered without a type tag.
	ErrEmptyType = errors.New("template type cannot be empty")

	// ErrUnknownType indicates no template is registered for a type tag.
	ErrUnknownType = errors.New("unknown template type")
)

// Message is the built-in message template.
func Message() Template {
	return Template{
		Type:  "textNode",
		Label: "Message",
		Icon:  "💬",
		Data: map[string]any{
			"text":  "",
			"label": "Send Message",
		},
	}
}

// Catalog is a registry of templates keyed by type tag.
// Listing order is registration order.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]Template
	order     []string
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{templates: make(map[string]Template)}
}

// Default creates a catalog holding the built-in templates.
func Default() *Catalog {
	c := New()
	c.MustRegister(Message())
	return c
}

// Register adds a template, replacing any template with the same type
// while keeping its listing position.
func (c *Catalog) Register(t Template) error {
	if t.Type == "" {
		return ErrEmptyType
	}
	t.Data = maps.Clone(t.Data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.templates[t.Type]; !exists {
		c.order = append(c.order, t.Type)
	}
	c.templates[t.Type] = t
	return nil
}

// MustRegister is Register that panics on error.
func (c *Catalog) MustRegister(t Template) {
	if err := c.Register(t); err != nil {
		panic("palette: " + err.Error())
	}
}

// Get returns a copy of the template for a type tag.
func (c *Catalog) Get(typ string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.templates[typ]
	if !ok {
		return Template{}, false
	}
	t.Data = maps.Clone(t.Data)
	return t, true
}

// Has reports whether a template is registered for typ.
func (c *Catalog) Has(typ string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.templates[typ]
	return ok
}

// List returns copies of all templates in registration order.
func (c *Catalog) List() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Template, 0, len(c.order))
	for _, typ := range c.order {
		t := c.templates[typ]
		t.Data = maps.Clone(t.Data)
		out = append(out, t)
	}
	return out
}

// Types returns the registered type tags in registration order.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// DragPayload serializes the template for typ as it is placed on the
// drag-data channel when the user starts dragging it.
func (c *Catalog) DragPayload(typ string) ([]byte, error) {
	t, ok := c.Get(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return json.Marshal(t)
}

// ParsePayload decodes a drag payload. An empty payload, invalid JSON,
// or a payload without a type tag is rejected.
func ParsePayload(data []byte) (Template, error) {
	if len(data) == 0 {
		return Template{}, errors.New("empty payload")
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("decode payload: %w", err)
	}
	if t.Type == "" {
		return Template{}, ErrEmptyType
	}
	return t, nil
}
