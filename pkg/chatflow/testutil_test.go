package chatflow

import (
	"fmt"

	"github.com/randalmurphal/chatflow/pkg/chatflow/palette"
)

// seqIDs returns an IDFunc yielding prefix-1, prefix-2, ...
func seqIDs(prefix string) IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// message returns a message node with the given ID and text.
func message(id, text string) Node {
	return Node{
		ID:   id,
		Type: TypeMessage,
		Data: NodeData{DataText: text, DataLabel: "Send Message"},
	}
}

// flowOf builds a flow from node IDs and source->target pairs.
func flowOf(nodeIDs []string, edges ...[2]string) Flow {
	var f Flow
	for _, id := range nodeIDs {
		f.Nodes = append(f.Nodes, message(id, ""))
	}
	for i, e := range edges {
		f.Edges = append(f.Edges, Edge{ID: fmt.Sprintf("e%d", i), Source: e[0], Target: e[1]})
	}
	return f
}

// messagePayload returns the drag payload of the built-in message template.
func messagePayload() []byte {
	data, err := palette.Default().DragPayload(TypeMessage)
	if err != nil {
		panic(err)
	}
	return data
}
