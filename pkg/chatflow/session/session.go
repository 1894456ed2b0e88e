// Package session keeps one live Editor per flow for a server process.
//
// Editors are created fresh or reopened from the latest saved revision.
// The Manager is safe for concurrent use; each Editor serializes its own
// operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/chatflow/pkg/chatflow"
	"github.com/randalmurphal/chatflow/pkg/chatflow/store"
)

// Sentinel errors for session lookups.
var (
	// ErrUnknownFlow indicates the flow is neither open nor saved.
	ErrUnknownFlow = errors.New("unknown flow")

	// ErrFlowExists indicates Create was asked for an id that is already
	// open or has saved revisions.
	ErrFlowExists = errors.New("flow already exists")
)

// Loader reads the latest saved revision of a flow. Missing flows must
// be reported with an error wrapping store.ErrNotFound.
type Loader interface {
	LoadFlow(ctx context.Context, flowID string) (chatflow.Flow, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLoader lets Open reopen flows that are not in memory.
func WithLoader(l Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithEditorOptions sets options applied to every Editor the Manager builds.
func WithEditorOptions(opts ...chatflow.Option) Option {
	return func(m *Manager) { m.editorOpts = append(m.editorOpts, opts...) }
}

// WithLogger sets the logger for session events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager maps flow ids to open editors.
type Manager struct {
	mu      sync.RWMutex
	editors map[string]*chatflow.Editor

	loader     Loader
	editorOpts []chatflow.Option
	logger     *slog.Logger
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		editors: make(map[string]*chatflow.Editor),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a new, empty flow. An empty id gets a generated one.
// An id that is open, or that the loader finds saved, is refused with
// ErrFlowExists so a fresh editor never shadows saved revisions.
func (m *Manager) Create(ctx context.Context, flowID string) (*chatflow.Editor, error) {
	if flowID == "" {
		flowID = uuid.NewString()
	} else if m.loader != nil {
		_, err := m.loader.LoadFlow(ctx, flowID)
		if err == nil {
			return nil, fmt.Errorf("%w: %s", ErrFlowExists, flowID)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check flow %s: %w", flowID, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.editors[flowID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrFlowExists, flowID)
	}
	e := chatflow.NewEditor(flowID, m.editorOpts...)
	m.editors[flowID] = e
	m.logger.Info("flow opened", "flow_id", flowID, "source", "new")
	return e, nil
}

// Get returns the open editor for a flow.
func (m *Manager) Get(flowID string) (*chatflow.Editor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.editors[flowID]
	return e, ok
}

// Open returns the open editor for a flow, reopening it from its latest
// saved revision if needed. The loader runs outside the lock; when two
// callers race, the first editor registered wins.
func (m *Manager) Open(ctx context.Context, flowID string) (*chatflow.Editor, error) {
	if e, ok := m.Get(flowID); ok {
		return e, nil
	}
	if m.loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}

	flow, err := m.loader.LoadFlow(ctx, flowID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, flowID)
	}
	if err != nil {
		return nil, fmt.Errorf("reopen flow %s: %w", flowID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.editors[flowID]; ok {
		return e, nil
	}
	opts := append(slices.Clone(m.editorOpts), chatflow.WithFlow(flow))
	e := chatflow.NewEditor(flowID, opts...)
	m.editors[flowID] = e
	m.logger.Info("flow opened", "flow_id", flowID, "source", "store", "nodes", len(flow.Nodes))
	return e, nil
}

// Close forgets an open flow. Saved revisions are untouched.
func (m *Manager) Close(flowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.editors[flowID]; !ok {
		return false
	}
	delete(m.editors, flowID)
	m.logger.Info("flow closed", "flow_id", flowID)
	return true
}

// IDs returns the open flow ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Len returns the number of open flows.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.editors)
}
