package chatflow

// Roots returns the IDs of nodes with no incoming edge, in node order.
// Edges whose target is not a node in the flow are ignored.
func Roots(flow Flow) []string {
	hasIncoming := make(map[string]bool, len(flow.Edges))
	for _, e := range flow.Edges {
		hasIncoming[e.Target] = true
	}

	var roots []string
	for _, n := range flow.Nodes {
		if !hasIncoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Validate checks that a flow can be saved.
//
// A flow with zero or one node is always valid. Otherwise it must have
// at most one root; a flow with several entry points returns a
// *MultipleRootsError.
//
// Cycles, unreachable nodes and dangling edges are not checked.
func Validate(flow Flow) error {
	if len(flow.Nodes) <= 1 {
		return nil
	}
	if roots := Roots(flow); len(roots) > 1 {
		return &MultipleRootsError{Roots: roots}
	}
	return nil
}
