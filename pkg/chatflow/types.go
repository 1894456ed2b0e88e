package chatflow

import "maps"

// TypeMessage is the type tag of the message node.
const TypeMessage = "textNode"

// Node data keys used by message nodes.
const (
	DataText  = "text"
	DataLabel = "label"
)

// Position is a point in flow coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the payload carried by a node.
// Message nodes carry "text" and "label"; other node types may carry anything.
type NodeData map[string]any

// Text returns the "text" entry, or "" when it is missing or not a string.
func (d NodeData) Text() string {
	s, _ := d[DataText].(string)
	return s
}

// Label returns the "label" entry, or "" when it is missing or not a string.
func (d NodeData) Label() string {
	s, _ := d[DataLabel].(string)
	return s
}

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (d NodeData) Clone() NodeData {
	out := make(NodeData, len(d))
	maps.Copy(out, d)
	return out
}

// Merge returns a copy of d with every entry of patch laid over it.
func (d NodeData) Merge(patch NodeData) NodeData {
	out := d.Clone()
	maps.Copy(out, patch)
	return out
}

// Node is one step of a chatbot flow.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

func (n Node) clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// MarkerEnd describes the arrowhead drawn at an edge's target.
type MarkerEnd struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color"`
}

// EdgeStyle describes how an edge's line is stroked.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

// Edge is a directed connection between two node handles.
// An empty handle id means the node's default handle.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Target       string    `json:"target"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	MarkerEnd    MarkerEnd `json:"markerEnd"`
	Style        EdgeStyle `json:"style"`
}

// Connection is a proposed edge, as reported by the canvas when the user
// drags from one handle to another.
type Connection struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Flow is a snapshot of the whole graph. It is what gets validated and saved.
type Flow struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of the flow.
func (f Flow) Clone() Flow {
	out := Flow{
		Nodes: make([]Node, len(f.Nodes)),
		Edges: make([]Edge, len(f.Edges)),
	}
	for i, n := range f.Nodes {
		out.Nodes[i] = n.clone()
	}
	copy(out.Edges, f.Edges)
	return out
}
