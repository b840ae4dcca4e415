package controlplane

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

type createEdgeRequest struct {
	FromNodeID    string         `json:"fromNodeId"`
	ToNodeID      string         `json:"toNodeId"`
	Bidirectional bool           `json:"bidirectional,omitempty"`
	Type          model.EdgeType `json:"type"`
	Label         string         `json:"label,omitempty"`
}

// handleCreateEdge implements createEdge (§6): emits edge.created.
func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	var req createEdgeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.FromNodeID == "" || req.ToNodeID == "" {
		writeJSONError(w, http.StatusBadRequest, "fromNodeId and toNodeId are required")
		return
	}

	edge := model.Edge{
		ID:            "edge-" + uuid.NewString(),
		RunID:         h.ID,
		FromNodeID:    req.FromNodeID,
		ToNodeID:      req.ToNodeID,
		Bidirectional: req.Bidirectional,
		Type:          req.Type,
		Label:         req.Label,
	}
	if err := h.Store.Publish(event.New(h.ID, event.EdgeCreated{Edge: edge})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "create edge: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// handleDeleteEdge implements deleteEdge (§6): emits edge.deleted.
func (s *Server) handleDeleteEdge(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	edgeID := chi.URLParam(r, "edgeID")
	if _, ok := h.Store.Snapshot().Edges[edgeID]; !ok {
		writeJSONError(w, http.StatusNotFound, "unknown edge "+edgeID)
		return
	}
	if err := h.Store.Publish(event.New(h.ID, event.EdgeDeleted{EdgeID: edgeID})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "delete edge: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
