// Package store persists saved flows.
//
// Every save appends a revision, numbered from 1 per flow. Stores hold
// encoded bytes; FlowStore pairs a Store with a codec and plugs into an
// editor as its saver.
package store

import (
	"context"
	"errors"
	"time"
)

// Store persists flow revisions.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save appends a revision for a flow and returns its number.
	Save(ctx context.Context, flowID string, data []byte) (int, error)

	// Load returns the latest revision of a flow.
	// Returns ErrNotFound if the flow has never been saved.
	Load(ctx context.Context, flowID string) ([]byte, error)

	// LoadRevision returns a specific revision.
	// Returns ErrNotFound if it does not exist.
	LoadRevision(ctx context.Context, flowID string, revision int) ([]byte, error)

	// List returns revision metadata for a flow, oldest first.
	// Returns an empty slice (not an error) for unknown flows.
	List(ctx context.Context, flowID string) ([]Info, error)

	// Delete removes every revision of a flow.
	// Returns nil if the flow has no revisions.
	Delete(ctx context.Context, flowID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes one revision without loading it.
type Info struct {
	FlowID    string    `json:"flowId"`
	Revision  int       `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a flow or revision doesn't exist.
	ErrNotFound = errors.New("flow not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("flow store closed")
)
