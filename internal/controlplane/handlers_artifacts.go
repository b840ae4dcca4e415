package controlplane

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

type recordArtifactRequest struct {
	NodeID     string                  `json:"nodeId"`
	Kind       model.ArtifactKind      `json:"kind"`
	Name       string                  `json:"name"`
	ContentB64 string                  `json:"contentBase64"`
	Metadata   *model.ArtifactMetadata `json:"metadata,omitempty"`
}

// handleRecordArtifact implements recordArtifact (§6): writes the blob
// to the run's artifact directory and emits artifact.created.
func (s *Server) handleRecordArtifact(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	var req recordArtifactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.NodeID == "" || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "nodeId and name are required")
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.ContentB64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "contentBase64: "+err.Error())
		return
	}

	art, err := h.Artifacts.Record(h.Store, h.ID, req.NodeID, req.Kind, req.Name, content, req.Metadata)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "record artifact: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, art)
}

type deliverEnvelopeRequest struct {
	FromNodeID string                 `json:"fromNodeId"`
	ToNodeID   string                 `json:"toNodeId"`
	Message    string                 `json:"message"`
	Structured map[string]any         `json:"structured,omitempty"`
	Artifacts  []model.ArtifactRef    `json:"artifacts,omitempty"`
	ContextRef string                 `json:"contextRef,omitempty"`
	Response   *model.EnvelopeResponse `json:"response,omitempty"`
}

// handleDeliverEnvelope implements deliverEnvelope (§6): an operator- or
// control-plane-originated handoff, routed the same way send_handoff
// routes a tool-originated one (internal/tools.StoreGraphHandlers).
func (s *Server) handleDeliverEnvelope(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	var req deliverEnvelopeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ToNodeID == "" {
		writeJSONError(w, http.StatusBadRequest, "toNodeId is required")
		return
	}
	if _, ok := h.Store.Snapshot().Nodes[req.ToNodeID]; !ok {
		writeJSONError(w, http.StatusNotFound, "unknown node "+req.ToNodeID)
		return
	}

	env := model.Envelope{
		ID:         "env-" + uuid.NewString(),
		FromNodeID: req.FromNodeID,
		ToNodeID:   req.ToNodeID,
		CreatedAt:  time.Now(),
		Payload: model.EnvelopePayload{
			Message:    req.Message,
			Structured: req.Structured,
			Artifacts:  req.Artifacts,
			ContextRef: req.ContextRef,
			Response:   req.Response,
		},
	}

	rt := h.Store.Runtime(req.ToNodeID)
	rt.EnqueueEnvelope(env)
	inboxCount := rt.InboxCount()

	if err := h.Store.Publish(event.New(h.ID, event.HandoffSent{Envelope: env})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "deliver envelope: "+err.Error())
		return
	}
	if err := h.Store.Publish(event.New(h.ID, event.NodePatch{NodeID: req.ToNodeID, InboxCount: &inboxCount})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "deliver envelope: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, env)
}
