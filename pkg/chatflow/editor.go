package chatflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/chatflow/pkg/chatflow/notify"
	"github.com/randalmurphal/chatflow/pkg/chatflow/observability"
	"github.com/randalmurphal/chatflow/pkg/chatflow/palette"
	"go.opentelemetry.io/otel/attribute"
)

// Notification messages shown by Save.
const (
	MsgSaveSuccess   = "Flow saved successfully!"
	MsgMultipleRoots = "Error: Cannot save flow. More than one node has empty target handles."
	MsgSaveFailed    = "Error: Could not persist flow."
)

// Saver receives flows that passed validation.
type Saver interface {
	SaveFlow(ctx context.Context, flowID string, flow Flow) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, flowID string, flow Flow) error

// SaveFlow implements Saver.
func (f SaverFunc) SaveFlow(ctx context.Context, flowID string, flow Flow) error {
	return f(ctx, flowID, flow)
}

// State is a read-only copy of everything a view renders.
type State struct {
	FlowID       string              `json:"flowId"`
	Flow         Flow                `json:"flow"`
	Inspector    InspectorView       `json:"inspector"`
	Panel        Panel               `json:"panel"`
	Notification notify.Notification `json:"notification"`
	CanvasReady  bool                `json:"canvasReady"`
}

// Editor is the top-level controller of one flow. It owns the graph,
// the selection and inspector buffer, the viewport and the notification,
// and every change goes through its methods.
//
// Calls are serialised: each runs to completion before the next starts,
// in the order they acquire the editor.
type Editor struct {
	mu       sync.Mutex
	id       string
	graph    *Graph
	insp     inspector
	viewport *Viewport

	palette *palette.Catalog
	notes   *notify.Center
	saver   Saver
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// NewEditor creates an editor for the flow with the given ID.
func NewEditor(flowID string, opts ...Option) *Editor {
	e := &Editor{
		id:      flowID,
		graph:   NewGraph(),
		palette: palette.Default(),
		notes:   notify.NewCenter(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = observability.EnrichLogger(e.logger, flowID)
	return e
}

// ID returns the flow ID.
func (e *Editor) ID() string {
	return e.id
}

// Snapshot returns a deep copy of the current flow.
func (e *Editor) Snapshot() Flow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Snapshot()
}

// Node returns a copy of a node.
func (e *Editor) Node(id string) (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Node(id)
}

// State returns everything a view needs to render the editor.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		FlowID:       e.id,
		Flow:         e.graph.Snapshot(),
		Inspector:    e.insp.view(),
		Panel:        e.insp.panel(),
		Notification: e.notes.Current(),
		CanvasReady:  e.viewport != nil,
	}
}

// Load replaces the flow with a saved snapshot and clears the selection.
func (e *Editor) Load(flow Flow) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph.Replace(flow)
	e.insp.close()
}

// SetViewport records the canvas transform. Drops are ignored until the
// first call.
func (e *Editor) SetViewport(v Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport = &v
}

// CanvasReady reports whether a viewport has been set.
func (e *Editor) CanvasReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport != nil
}

// Drop creates a node from a drag payload released at a client point.
//
// The node gets a fresh ID, the projected flow position, the payload's
// type and a shallow copy of its data. When the type is in the palette,
// template defaults fill in keys the payload omits.
//
// Drop reports false and changes nothing when the canvas is not ready or
// the payload is missing or unparseable.
func (e *Editor) Drop(ctx context.Context, payload []byte, at Point) (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.viewport == nil {
		observability.LogDropIgnored(e.logger, ErrCanvasNotReady)
		return Node{}, false
	}

	tmpl, err := palette.ParsePayload(payload)
	if err != nil {
		observability.LogDropIgnored(e.logger, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
		return Node{}, false
	}

	data := NodeData(tmpl.Data).Clone()
	if def, ok := e.palette.Get(tmpl.Type); ok {
		data = NodeData(def.Data).Merge(data)
	}

	n := Node{
		ID:       e.graph.newID(),
		Type:     tmpl.Type,
		Position: e.viewport.Project(at),
		Data:     data,
	}
	if err := e.graph.AddNode(n); err != nil {
		observability.LogDropIgnored(e.logger, err)
		return Node{}, false
	}

	observability.LogNodeCreated(e.logger, n.ID, n.Type, n.Position.X, n.Position.Y)
	e.metrics.RecordNodeCreated(ctx, n.Type)
	return n.clone(), true
}

// MoveNode sets a node's position after it was dragged on the canvas.
func (e *Editor) MoveNode(id string, pos Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.MoveNode(id, pos)
}

// Connect adds an edge, replacing any edge already leaving the same
// source handle.
func (e *Editor) Connect(ctx context.Context, c Connection) ConnectResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.graph.Connect(c)
	observability.LogConnect(e.logger, res.Edge.ID, c.Source, c.SourceHandle, c.Target)
	if res.Replaced != nil {
		observability.LogEdgeReplaced(e.logger, res.Replaced.ID, res.Edge.ID)
	}
	e.metrics.RecordEdgeConnected(ctx, res.Replaced != nil)
	return res
}

// RemoveEdge deletes an edge by ID and reports whether it existed.
func (e *Editor) RemoveEdge(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.RemoveEdge(id) {
		return false
	}
	observability.LogEdgeRemoved(e.logger, id)
	e.metrics.RecordEdgeRemoved(ctx)
	return true
}

// Select opens the inspector on a node and resets the text buffer from
// the node's stored text.
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.graph.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	e.insp.open(n)
	return nil
}

// ClearSelection closes the inspector. It covers both the panel's close
// button and a click on the empty canvas.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.insp.close()
}

// Selected returns the selected node ID, if any.
func (e *Editor) Selected() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.insp.nodeID, e.insp.editing()
}

// Inspector returns the inspector state.
func (e *Editor) Inspector() InspectorView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.insp.view()
}

// Panel returns the sidebar panel to show.
func (e *Editor) Panel() Panel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.insp.panel()
}

// EditText applies one keystroke's worth of inspector input: the buffer
// takes the new text and the selected node's data gets text merged over
// its other fields.
func (e *Editor) EditText(text string) (Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.insp.editing() {
		return Node{}, ErrNoSelection
	}
	e.insp.text = text
	return e.graph.UpdateNodeData(e.insp.nodeID, NodeData{DataText: text})
}

// Notification returns the active notification.
func (e *Editor) Notification() notify.Notification {
	return e.notes.Current()
}

// DismissNotification hides the active notification.
func (e *Editor) DismissNotification() {
	e.notes.Dismiss()
}

// Save validates the current flow and, if it passes, hands it to the
// saver.
//
// A flow with more than one root is refused: an error notification is
// shown, the graph is left untouched and a *MultipleRootsError returned.
// A saver failure shows an error notification and returns a *SaveError.
// Otherwise a success notification is shown.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	flow := e.graph.Snapshot()

	ctx, span := e.spans.StartSaveSpan(ctx, e.id, len(flow.Nodes), len(flow.Edges))
	err := e.save(ctx, flow)
	e.spans.EndSpanWithError(span, err)
	e.metrics.RecordSave(ctx, err == nil, len(flow.Nodes), time.Since(start))

	var rootsErr *MultipleRootsError
	switch {
	case errors.As(err, &rootsErr):
		observability.LogSaveRejected(e.logger, err)
		e.notes.Error(MsgMultipleRoots)
	case err != nil:
		observability.LogSaveError(e.logger, err)
		e.notes.Error(MsgSaveFailed)
	default:
		observability.LogSave(e.logger, len(flow.Nodes), len(flow.Edges), time.Since(start))
		e.notes.Success(MsgSaveSuccess)
	}
	return err
}

func (e *Editor) save(ctx context.Context, flow Flow) error {
	if err := Validate(flow); err != nil {
		return err
	}
	e.spans.AddSpanEvent(ctx, "validated", attribute.Int("roots", len(Roots(flow))))

	if e.saver == nil {
		return nil
	}
	if err := e.saver.SaveFlow(ctx, e.id, flow); err != nil {
		return &SaveError{FlowID: e.id, Err: err}
	}
	return nil
}
