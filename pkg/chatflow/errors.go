package chatflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph editing.
var (
	// ErrNodeNotFound indicates an operation referenced a node that does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEmptyNodeID indicates a node was added without an ID.
	ErrEmptyNodeID = errors.New("node ID cannot be empty")

	// ErrDuplicateNode indicates a node with the same ID already exists.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrNoSelection indicates an inspector edit was attempted with no node selected.
	ErrNoSelection = errors.New("no node selected")
)

// Sentinel errors for drop handling. Drop itself swallows these; they
// are exposed for callers that parse payloads or project points directly.
var (
	// ErrCanvasNotReady indicates a drop arrived before the viewport was set.
	ErrCanvasNotReady = errors.New("canvas not initialized")

	// ErrMalformedPayload indicates the drag payload was missing or unparseable.
	ErrMalformedPayload = errors.New("malformed drag payload")
)

// ErrMultipleRoots indicates more than one node has no incoming edge.
var ErrMultipleRoots = errors.New("more than one node has empty target handles")

// MultipleRootsError reports which nodes lack an incoming edge.
type MultipleRootsError struct {
	// Roots are the IDs of the nodes with no incoming edge, in node order.
	Roots []string
}

// Error implements the error interface.
func (e *MultipleRootsError) Error() string {
	return fmt.Sprintf("%s: %d roots (%s)", ErrMultipleRoots, len(e.Roots), strings.Join(e.Roots, ", "))
}

// Unwrap returns ErrMultipleRoots for errors.Is support.
func (e *MultipleRootsError) Unwrap() error {
	return ErrMultipleRoots
}

// SaveError wraps a failure of the save collaborator.
type SaveError struct {
	// FlowID is the flow that could not be persisted.
	FlowID string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("save flow %s: %v", e.FlowID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SaveError) Unwrap() error {
	return e.Err
}
