package chatflow

// InspectorState is the inspector panel's state.
type InspectorState string

// Inspector states.
const (
	InspectorHidden  InspectorState = "hidden"
	InspectorEditing InspectorState = "editing"
)

// Panel names the sidebar panel currently shown.
type Panel string

// Sidebar panels. The palette is shown exactly when the inspector is hidden.
const (
	PanelNodes    Panel = "nodes"
	PanelSettings Panel = "settings"
)

// InspectorView is a read-only copy of the inspector state.
type InspectorView struct {
	State  InspectorState `json:"state"`
	NodeID string         `json:"nodeId,omitempty"`
	Text   string         `json:"text"`
}

// inspector binds the selected node's text to an editable buffer.
// It holds no reference to the graph; Editor applies its edits.
type inspector struct {
	nodeID string
	text   string
}

func (in *inspector) editing() bool {
	return in.nodeID != ""
}

// open selects n and resets the buffer from its stored text.
func (in *inspector) open(n Node) {
	in.nodeID = n.ID
	in.text = n.Data.Text()
}

func (in *inspector) close() {
	in.nodeID = ""
	in.text = ""
}

func (in *inspector) view() InspectorView {
	if !in.editing() {
		return InspectorView{State: InspectorHidden}
	}
	return InspectorView{State: InspectorEditing, NodeID: in.nodeID, Text: in.text}
}

func (in *inspector) panel() Panel {
	if in.editing() {
		return PanelSettings
	}
	return PanelNodes
}
