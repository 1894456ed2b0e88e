package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/chatflow/pkg/chatflow"
	"github.com/randalmurphal/chatflow/pkg/chatflow/notify"
	"github.com/randalmurphal/chatflow/pkg/chatflow/observability"
	"github.com/randalmurphal/chatflow/pkg/chatflow/palette"
	"github.com/randalmurphal/chatflow/pkg/chatflow/session"
	"github.com/randalmurphal/chatflow/pkg/chatflow/store"
)

type testServer struct {
	t     *testing.T
	flows *store.FlowStore
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flows := store.NewFlowStore(store.NewMemoryStore(), nil)
	sessions := session.NewManager(
		session.WithLoader(flows),
		session.WithLogger(logger),
		session.WithEditorOptions(chatflow.WithSaver(flows), chatflow.WithLogger(logger)),
	)
	api := New(sessions, WithLogger(logger), WithRevisions(flows))

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &testServer{t: t, flows: flows, srv: srv}
}

func (ts *testServer) do(method, path string, body any) (int, []byte) {
	ts.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, data
}

func decodeAs[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

// openFlow creates a flow with a ready canvas at the origin and zoom 1.
func (ts *testServer) openFlow(id string) string {
	status, body := ts.do(http.MethodPost, "/api/v1/flows", map[string]string{"id": id})
	require.Equal(ts.t, http.StatusCreated, status, string(body))

	status, body = ts.do(http.MethodPut, "/api/v1/flows/"+id+"/viewport", map[string]any{"zoom": 1})
	require.Equal(ts.t, http.StatusNoContent, status, string(body))
	return "/api/v1/flows/" + id
}

func (ts *testServer) dropMessage(base string, x, y float64) chatflow.Node {
	payload, err := palette.Default().DragPayload(chatflow.TypeMessage)
	require.NoError(ts.t, err)

	status, body := ts.do(http.MethodPost, base+"/drop", map[string]any{
		"payload": string(payload),
		"clientX": x,
		"clientY": y,
	})
	require.Equal(ts.t, http.StatusCreated, status, string(body))

	resp := decodeAs[dropResponse](ts.t, body)
	require.True(ts.t, resp.Created)
	require.NotNil(ts.t, resp.Node)
	return *resp.Node
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy","flows":0}`, string(body))
}

func TestListTemplates(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, status)

	templates := decodeAs[[]palette.Template](t, body)
	require.Len(t, templates, 1)
	assert.Equal(t, chatflow.TypeMessage, templates[0].Type)
	assert.Equal(t, "Message", templates[0].Label)
}

func TestCreateFlow(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(http.MethodPost, "/api/v1/flows", nil)
	require.Equal(t, http.StatusCreated, status)
	state := decodeAs[chatflow.State](t, body)
	assert.NotEmpty(t, state.FlowID)
	assert.Empty(t, state.Flow.Nodes)
	assert.Equal(t, chatflow.InspectorHidden, state.Inspector.State)
	assert.Equal(t, chatflow.PanelNodes, state.Panel)
	assert.False(t, state.CanvasReady)

	status, _ = ts.do(http.MethodPost, "/api/v1/flows", map[string]string{"id": "fixed"})
	assert.Equal(t, http.StatusCreated, status)
	status, _ = ts.do(http.MethodPost, "/api/v1/flows", map[string]string{"id": "fixed"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestUnknownFlow(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(http.MethodGet, "/api/v1/flows/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "Flow not found")
}

func TestDrop(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")

	status, _ := ts.do(http.MethodPut, base+"/viewport", map[string]any{
		"bounds": map[string]float64{"left": 100, "top": 50},
		"panX":   20,
		"panY":   10,
		"zoom":   2,
	})
	require.Equal(t, http.StatusNoContent, status)

	n := ts.dropMessage(base, 300, 250)
	assert.Equal(t, chatflow.Position{X: 90, Y: 95}, n.Position)
	assert.Equal(t, chatflow.TypeMessage, n.Type)
	assert.Equal(t, "", n.Data.Text())
	assert.Equal(t, "Send Message", n.Data.Label())
}

func TestDrop_Ignored(t *testing.T) {
	ts := newTestServer(t)

	// Canvas not ready yet
	status, _ := ts.do(http.MethodPost, "/api/v1/flows", map[string]string{"id": "f1"})
	require.Equal(t, http.StatusCreated, status)
	status, body := ts.do(http.MethodPost, "/api/v1/flows/f1/drop", map[string]any{
		"payload": `{"type":"textNode"}`,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, decodeAs[dropResponse](t, body).Created)

	// Malformed payload
	base := ts.openFlow("f2")
	status, body = ts.do(http.MethodPost, base+"/drop", map[string]any{"payload": "not json"})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, decodeAs[dropResponse](t, body).Created)

	_, body = ts.do(http.MethodGet, base, nil)
	assert.Empty(t, decodeAs[chatflow.State](t, body).Flow.Nodes)
}

func TestMoveNode(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")
	n := ts.dropMessage(base, 0, 0)

	status, _ := ts.do(http.MethodPatch, base+"/nodes/"+n.ID+"/position", map[string]float64{"x": 5, "y": 7})
	require.Equal(t, http.StatusNoContent, status)

	_, body := ts.do(http.MethodGet, base, nil)
	state := decodeAs[chatflow.State](t, body)
	assert.Equal(t, chatflow.Position{X: 5, Y: 7}, state.Flow.Nodes[0].Position)

	status, _ = ts.do(http.MethodPatch, base+"/nodes/missing/position", map[string]float64{"x": 1, "y": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(http.MethodPatch, base+"/nodes/"+n.ID+"/position", map[string]float64{"x": 1})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConnectAndRemove(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")
	a := ts.dropMessage(base, 0, 0)
	b := ts.dropMessage(base, 100, 0)
	c := ts.dropMessage(base, 200, 0)

	status, body := ts.do(http.MethodPost, base+"/edges", map[string]string{"source": a.ID, "target": b.ID})
	require.Equal(t, http.StatusCreated, status, string(body))
	first := decodeAs[chatflow.ConnectResult](t, body)
	assert.Nil(t, first.Replaced)
	assert.Equal(t, chatflow.DefaultMarkerEnd, first.Edge.MarkerEnd)
	assert.Equal(t, chatflow.DefaultEdgeStyle, first.Edge.Style)

	// Same source handle: the old edge is replaced
	status, body = ts.do(http.MethodPost, base+"/edges", map[string]string{"source": a.ID, "target": c.ID})
	require.Equal(t, http.StatusCreated, status)
	second := decodeAs[chatflow.ConnectResult](t, body)
	require.NotNil(t, second.Replaced)
	assert.Equal(t, first.Edge.ID, second.Replaced.ID)

	_, body = ts.do(http.MethodGet, base, nil)
	edges := decodeAs[chatflow.State](t, body).Flow.Edges
	require.Len(t, edges, 1)
	assert.Equal(t, c.ID, edges[0].Target)

	status, _ = ts.do(http.MethodDelete, base+"/edges/"+second.Edge.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(http.MethodDelete, base+"/edges/"+second.Edge.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConnect_Invalid(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")
	a := ts.dropMessage(base, 0, 0)

	status, body := ts.do(http.MethodPost, base+"/edges", map[string]string{"source": a.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "target is required")

	status, _ = ts.do(http.MethodPost, base+"/edges", map[string]string{"source": a.ID, "target": "ghost"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInspector(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")
	n := ts.dropMessage(base, 0, 0)

	// Editing with nothing selected
	status, _ := ts.do(http.MethodPut, base+"/inspector/text", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusConflict, status)

	status, body := ts.do(http.MethodPut, base+"/selection", map[string]string{"nodeId": n.ID})
	require.Equal(t, http.StatusOK, status)
	view := decodeAs[chatflow.InspectorView](t, body)
	assert.Equal(t, chatflow.InspectorEditing, view.State)
	assert.Equal(t, n.ID, view.NodeID)

	status, body = ts.do(http.MethodPut, base+"/inspector/text", map[string]string{"text": "Hello there"})
	require.Equal(t, http.StatusOK, status)
	edited := decodeAs[chatflow.Node](t, body)
	assert.Equal(t, "Hello there", edited.Data.Text())
	assert.Equal(t, "Send Message", edited.Data.Label())

	_, body = ts.do(http.MethodGet, base, nil)
	state := decodeAs[chatflow.State](t, body)
	assert.Equal(t, chatflow.PanelSettings, state.Panel)
	assert.Equal(t, "Hello there", state.Inspector.Text)

	status, _ = ts.do(http.MethodDelete, base+"/selection", nil)
	require.Equal(t, http.StatusNoContent, status)
	_, body = ts.do(http.MethodGet, base, nil)
	state = decodeAs[chatflow.State](t, body)
	assert.Equal(t, chatflow.InspectorHidden, state.Inspector.State)
	assert.Equal(t, chatflow.PanelNodes, state.Panel)

	status, _ = ts.do(http.MethodPut, base+"/selection", map[string]string{"nodeId": "ghost"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSave_MultipleRoots(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")
	ts.dropMessage(base, 0, 0)
	ts.dropMessage(base, 100, 0)

	status, body := ts.do(http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	resp := decodeAs[saveResponse](t, body)
	assert.False(t, resp.Saved)
	assert.Len(t, resp.Roots, 2)
	assert.Equal(t, notify.Notification{
		Message: chatflow.MsgMultipleRoots,
		Kind:    notify.KindError,
		Visible: true,
	}, resp.Notification)

	// Nothing was persisted
	status, _ = ts.do(http.MethodGet, base+"/revisions", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSave_Success(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")
	a := ts.dropMessage(base, 0, 0)
	b := ts.dropMessage(base, 100, 0)
	status, _ := ts.do(http.MethodPost, base+"/edges", map[string]string{"source": a.ID, "target": b.ID})
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.do(http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	resp := decodeAs[saveResponse](t, body)
	assert.True(t, resp.Saved)
	assert.Equal(t, chatflow.MsgSaveSuccess, resp.Notification.Message)
	assert.Equal(t, notify.KindSuccess, resp.Notification.Kind)

	saved, err := ts.flows.LoadFlow(context.Background(), "f1")
	require.NoError(t, err)
	assert.Len(t, saved.Nodes, 2)
	assert.Len(t, saved.Edges, 1)

	status, body = ts.do(http.MethodGet, base+"/revisions", nil)
	require.Equal(t, http.StatusOK, status)
	infos := decodeAs[[]store.Info](t, body)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Revision)

	status, _ = ts.do(http.MethodDelete, base+"/notification", nil)
	require.Equal(t, http.StatusNoContent, status)
	_, body = ts.do(http.MethodGet, base, nil)
	note := decodeAs[chatflow.State](t, body).Notification
	assert.False(t, note.Visible)
	assert.Equal(t, chatflow.MsgSaveSuccess, note.Message)
}

func TestReopenFromStore(t *testing.T) {
	ts := newTestServer(t)

	flow := chatflow.Flow{Nodes: []chatflow.Node{
		{ID: "n1", Type: chatflow.TypeMessage, Data: chatflow.NodeData{"text": "saved"}},
	}}
	require.NoError(t, ts.flows.SaveFlow(context.Background(), "stored", flow))

	status, body := ts.do(http.MethodGet, "/api/v1/flows/stored", nil)
	require.Equal(t, http.StatusOK, status)
	state := decodeAs[chatflow.State](t, body)
	require.Len(t, state.Flow.Nodes, 1)
	assert.Equal(t, "saved", state.Flow.Nodes[0].Data.Text())
}

func TestCreateFlow_SavedIDConflicts(t *testing.T) {
	ts := newTestServer(t)

	flow := chatflow.Flow{Nodes: []chatflow.Node{
		{ID: "n1", Type: chatflow.TypeMessage, Data: chatflow.NodeData{"text": "keep me"}},
	}}
	require.NoError(t, ts.flows.SaveFlow(context.Background(), "saved", flow))

	status, body := ts.do(http.MethodPost, "/api/v1/flows", map[string]string{"id": "saved"})
	require.Equal(t, http.StatusConflict, status, string(body))
	assert.Contains(t, string(body), "Flow already exists")

	// Saving through the reopened editor keeps the stored node.
	status, body = ts.do(http.MethodPost, "/api/v1/flows/saved/save", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	latest, err := ts.flows.LoadFlow(context.Background(), "saved")
	require.NoError(t, err)
	require.Len(t, latest.Nodes, 1)
	assert.Equal(t, "keep me", latest.Nodes[0].Data.Text())
}

func TestBadJSON(t *testing.T) {
	ts := newTestServer(t)
	base := ts.openFlow("f1")

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+base+"/edges", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

type fixedMetrics []observability.MetricPoint

func (f fixedMetrics) Collect(context.Context) ([]observability.MetricPoint, error) {
	return f, nil
}

func TestDebugMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	points := fixedMetrics{{Name: "chatflow.saves", Value: 2, Attributes: map[string]string{"success": "true"}}}

	with := httptest.NewServer(New(session.NewManager(), WithLogger(logger), WithMetricsCollector(points)).Handler())
	defer with.Close()
	resp, err := http.Get(with.URL + "/debug/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []observability.MetricPoint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []observability.MetricPoint(points), got)

	without := httptest.NewServer(New(session.NewManager(), WithLogger(logger)).Handler())
	defer without.Close()
	resp2, err := http.Get(without.URL + "/debug/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
