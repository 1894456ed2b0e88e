package chatflow

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// IDFunc generates unique identifiers for new nodes and edges.
type IDFunc func() string

// Graph is the ordered node and edge store behind an editor.
// It is the single source of truth the canvas renders.
//
// Graph is safe for concurrent use, but the editing rules assume
// one writer at a time; Editor serialises its own calls.
type Graph struct {
	mu    sync.RWMutex
	nodes []Node
	edges []Edge
	newID IDFunc
}

// NewGraph creates an empty graph that assigns UUIDs to new edges.
func NewGraph() *Graph {
	return &Graph{newID: uuid.NewString}
}

// NewGraphFrom creates a graph holding a copy of flow.
func NewGraphFrom(flow Flow) *Graph {
	g := NewGraph()
	g.Replace(flow)
	return g
}

// AddNode appends a node. Its data is copied so the caller's map
// cannot alias the stored one.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyNodeID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexOf(n.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.nodes = append(g.nodes, n.clone())
	return nil
}

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i := g.indexOf(id)
	if i < 0 {
		return Node{}, false
	}
	return g.nodes[i].clone(), true
}

// UpdateNodeData shallow-merges patch over the node's existing data.
// Keys absent from patch are preserved. Returns the updated node.
func (g *Graph) UpdateNodeData(id string, patch NodeData) (Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	g.nodes[i].Data = g.nodes[i].Data.Merge(patch)
	return g.nodes[i].clone(), nil
}

// MoveNode sets a node's position.
func (g *Graph) MoveNode(id string, pos Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	g.nodes[i].Position = pos
	return nil
}

// Nodes returns a copy of the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.clone()
	}
	return out
}

// Edges returns a copy of the edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edges)
}

// Snapshot returns a deep copy of the whole graph.
func (g *Graph) Snapshot() Flow {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Flow{Nodes: g.nodes, Edges: g.edges}.Clone()
}

// Replace discards the current contents and loads a copy of flow.
func (g *Graph) Replace(flow Flow) {
	c := flow.Clone()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = c.Nodes
	g.edges = c.Edges
}

// Len returns the node and edge counts.
func (g *Graph) Len() (nodes, edges int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes), len(g.edges)
}

// indexOf returns the index of the node with the given ID, or -1.
// Callers must hold g.mu.
func (g *Graph) indexOf(id string) int {
	return slices.IndexFunc(g.nodes, func(n Node) bool { return n.ID == id })
}
