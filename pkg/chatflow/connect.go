package chatflow

import "slices"

// Edge decoration applied to every new connection.
const (
	MarkerArrowClosed = "arrowclosed"
	EdgeColor         = "#3b82f6"
	EdgeStrokeWidth   = 2
	MarkerSize        = 20
)

// DefaultMarkerEnd is the arrowhead every connection gets.
var DefaultMarkerEnd = MarkerEnd{
	Type:   MarkerArrowClosed,
	Width:  MarkerSize,
	Height: MarkerSize,
	Color:  EdgeColor,
}

// DefaultEdgeStyle is the stroke every connection gets.
var DefaultEdgeStyle = EdgeStyle{
	Stroke:      EdgeColor,
	StrokeWidth: EdgeStrokeWidth,
}

// ConnectResult describes what Connect did.
type ConnectResult struct {
	// Edge is the newly created edge.
	Edge Edge `json:"edge"`
	// Replaced is the edge that previously left the same source handle,
	// or nil when the handle was free.
	Replaced *Edge `json:"replaced,omitempty"`
}

// Connect adds an edge for the proposed connection.
//
// A source handle holds at most one outgoing edge: if an edge already
// leaves (c.Source, c.SourceHandle) it is removed first and reported in
// the result. Self-loops and repeated targets are allowed.
func (g *Graph) Connect(c Connection) ConnectResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	var result ConnectResult
	i := slices.IndexFunc(g.edges, func(e Edge) bool {
		return e.Source == c.Source && e.SourceHandle == c.SourceHandle
	})
	if i >= 0 {
		old := g.edges[i]
		result.Replaced = &old
		g.edges = slices.Delete(g.edges, i, i+1)
	}

	result.Edge = Edge{
		ID:           g.newID(),
		Source:       c.Source,
		SourceHandle: c.SourceHandle,
		Target:       c.Target,
		TargetHandle: c.TargetHandle,
		MarkerEnd:    DefaultMarkerEnd,
		Style:        DefaultEdgeStyle,
	}
	g.edges = append(g.edges, result.Edge)
	return result
}

// RemoveEdge deletes the edge with the given ID and reports whether it existed.
// No other edge is touched.
func (g *Graph) RemoveEdge(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.edges)
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.ID == id })
	return len(g.edges) != n
}
