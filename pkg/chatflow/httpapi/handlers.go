package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/randalmurphal/chatflow/pkg/chatflow"
	"github.com/randalmurphal/chatflow/pkg/chatflow/notify"
	"github.com/randalmurphal/chatflow/pkg/chatflow/session"
	"github.com/randalmurphal/chatflow/pkg/chatflow/store"
)

type createFlowRequest struct {
	ID string `json:"id" validate:"omitempty,max=128"`
}

type viewportRequest struct {
	Bounds chatflow.Bounds `json:"bounds"`
	PanX   float64         `json:"panX"`
	PanY   float64         `json:"panY"`
	Zoom   float64         `json:"zoom" validate:"gte=0"`
}

type dropRequest struct {
	// Payload is the drag data string the palette put on the transfer.
	Payload string  `json:"payload"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

type dropResponse struct {
	Created bool           `json:"created"`
	Node    *chatflow.Node `json:"node,omitempty"`
}

type positionRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type connectRequest struct {
	Source       string `json:"source" validate:"required"`
	SourceHandle string `json:"sourceHandle"`
	Target       string `json:"target" validate:"required"`
	TargetHandle string `json:"targetHandle"`
}

type selectionRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}

type textRequest struct {
	// Text may be empty; a pointer tells "cleared" apart from "missing".
	Text *string `json:"text" validate:"required"`
}

type saveResponse struct {
	Saved        bool                `json:"saved"`
	Roots        []string            `json:"roots,omitempty"`
	Notification notify.Notification `json:"notification"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"flows":  s.sessions.Len(),
	})
}

func (s *Server) debugMetrics(w http.ResponseWriter, r *http.Request) {
	points, err := s.metrics.Collect(r.Context())
	if err != nil {
		s.logger.Error("collect metrics", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to collect metrics")
		return
	}
	s.respondJSON(w, http.StatusOK, points)
}

func (s *Server) listTemplates(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.palette.List())
}

func (s *Server) createFlow(w http.ResponseWriter, r *http.Request) {
	var req createFlowRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}

	e, err := s.sessions.Create(r.Context(), req.ID)
	if errors.Is(err, session.ErrFlowExists) {
		s.respondError(w, http.StatusConflict, "Flow already exists")
		return
	}
	if err != nil {
		s.logger.Error("create flow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to create flow")
		return
	}
	s.respondJSON(w, http.StatusCreated, e.State())
}

// editor resolves the {flowID} route parameter. On failure it has
// already written the response.
func (s *Server) editor(w http.ResponseWriter, r *http.Request) (*chatflow.Editor, bool) {
	flowID := chi.URLParam(r, "flowID")

	e, err := s.sessions.Open(r.Context(), flowID)
	if errors.Is(err, session.ErrUnknownFlow) {
		s.respondError(w, http.StatusNotFound, "Flow not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("open flow", "flow_id", flowID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to open flow")
		return nil, false
	}
	return e, true
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, e.State())
}

func (s *Server) setViewport(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if !s.decode(w, r, &req) {
		return
	}

	e.SetViewport(chatflow.Viewport{Bounds: req.Bounds, PanX: req.PanX, PanY: req.PanY, Zoom: req.Zoom})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) drop(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req dropRequest
	if !s.decode(w, r, &req) {
		return
	}

	// Ignored drops are not errors.
	n, created := e.Drop(r.Context(), []byte(req.Payload), chatflow.Point{X: req.ClientX, Y: req.ClientY})
	if !created {
		s.respondJSON(w, http.StatusOK, dropResponse{})
		return
	}
	s.respondJSON(w, http.StatusCreated, dropResponse{Created: true, Node: &n})
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := e.MoveNode(chi.URLParam(r, "nodeID"), chatflow.Position{X: *req.X, Y: *req.Y})
	if errors.Is(err, chatflow.ErrNodeNotFound) {
		s.respondError(w, http.StatusNotFound, "Node not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to move node")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req connectRequest
	if !s.decode(w, r, &req) {
		return
	}

	for _, id := range []string{req.Source, req.Target} {
		if _, ok := e.Node(id); !ok {
			s.respondError(w, http.StatusNotFound, "Node not found: "+id)
			return
		}
	}

	res := e.Connect(r.Context(), chatflow.Connection{
		Source:       req.Source,
		SourceHandle: req.SourceHandle,
		Target:       req.Target,
		TargetHandle: req.TargetHandle,
	})
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}

	if !e.RemoveEdge(r.Context(), chi.URLParam(r, "edgeID")) {
		s.respondError(w, http.StatusNotFound, "Edge not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := e.Select(req.NodeID); err != nil {
		s.respondError(w, http.StatusNotFound, "Node not found")
		return
	}
	s.respondJSON(w, http.StatusOK, e.Inspector())
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	e.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) editText(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}

	n, err := e.EditText(*req.Text)
	switch {
	case errors.Is(err, chatflow.ErrNoSelection):
		s.respondError(w, http.StatusConflict, "No node selected")
	case errors.Is(err, chatflow.ErrNodeNotFound):
		s.respondError(w, http.StatusNotFound, "Node not found")
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, "Failed to edit text")
	default:
		s.respondJSON(w, http.StatusOK, n)
	}
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}

	err := e.Save(r.Context())
	resp := saveResponse{Saved: err == nil, Notification: e.Notification()}

	var rootsErr *chatflow.MultipleRootsError
	switch {
	case errors.As(err, &rootsErr):
		resp.Roots = rootsErr.Roots
		s.respondJSON(w, http.StatusUnprocessableEntity, resp)
	case err != nil:
		s.logger.Error("save flow", "flow_id", e.ID(), "error", err)
		s.respondJSON(w, http.StatusInternalServerError, resp)
	default:
		s.respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) dismissNotification(w http.ResponseWriter, r *http.Request) {
	e, ok := s.editor(w, r)
	if !ok {
		return
	}
	e.DismissNotification()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRevisions(w http.ResponseWriter, r *http.Request) {
	if s.revisions == nil {
		s.respondError(w, http.StatusNotImplemented, "Revisions are not stored")
		return
	}

	flowID := chi.URLParam(r, "flowID")
	infos, err := s.revisions.Revisions(r.Context(), flowID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(infos) == 0) {
		s.respondError(w, http.StatusNotFound, "Flow not found")
		return
	}
	if err != nil {
		s.logger.Error("list revisions", "flow_id", flowID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to list revisions")
		return
	}
	s.respondJSON(w, http.StatusOK, infos)
}
