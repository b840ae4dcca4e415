package controlplane

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

type createNodeRequest struct {
	Label              string                    `json:"label"`
	RoleTemplate       string                    `json:"roleTemplate"`
	Provider           string                    `json:"provider"`
	Capabilities       model.Capabilities        `json:"capabilities"`
	Permissions        model.Permissions         `json:"permissions"`
	NativeToolHandling model.NativeToolHandling  `json:"nativeToolHandling,omitempty"`
}

// handleCreateNode implements createNode (§6): NodeState; emits node.patch.
func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	var req createNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.NativeToolHandling == "" {
		req.NativeToolHandling = model.NativeToolHandlingEngine
	}

	nodeID := "node-" + uuid.NewString()
	status := model.NodeStatusIdle
	connection := model.ConnectionIdle
	patch := event.NodePatch{
		NodeID:             nodeID,
		Label:              &req.Label,
		RoleTemplate:       &req.RoleTemplate,
		Provider:           &req.Provider,
		Capabilities:       &req.Capabilities,
		Permissions:        &req.Permissions,
		NativeToolHandling: &req.NativeToolHandling,
		Status:             &status,
		Connection:         &connection,
	}
	if err := h.Store.Publish(event.New(h.ID, patch)); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "create node: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, h.Store.Snapshot().Nodes[nodeID])
}

type updateNodeRequest struct {
	Label              *string                   `json:"label,omitempty"`
	RoleTemplate       *string                   `json:"roleTemplate,omitempty"`
	Provider           *string                   `json:"provider,omitempty"`
	Capabilities       *model.Capabilities       `json:"capabilities,omitempty"`
	Permissions        *model.Permissions        `json:"permissions,omitempty"`
	NativeToolHandling *model.NativeToolHandling `json:"nativeToolHandling,omitempty"`
}

// handleUpdateNode implements updateNode (§6): a provider change closes
// the node's current session and sets connection=disconnected so the
// next turn starts a fresh one against the new provider.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	if _, ok := h.Store.Snapshot().Nodes[nodeID]; !ok {
		writeJSONError(w, http.StatusNotFound, "unknown node "+nodeID)
		return
	}

	var req updateNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	patch := event.NodePatch{
		NodeID:             nodeID,
		Label:              req.Label,
		RoleTemplate:       req.RoleTemplate,
		Provider:           req.Provider,
		Capabilities:       req.Capabilities,
		Permissions:        req.Permissions,
		NativeToolHandling: req.NativeToolHandling,
	}
	if req.Provider != nil {
		if err := h.Runner.Close(r.Context(), nodeID); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "close session for provider change: "+err.Error())
			return
		}
		disconnected := model.ConnectionDisconnected
		patch.Connection = &disconnected
	}
	if err := h.Store.Publish(event.New(h.ID, patch)); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "update node: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Snapshot().Nodes[nodeID])
}

// handleDeleteNode implements deleteNode (§6): closes the session,
// cascades edges/approvals (handled by the fold on node.deleted).
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	if _, ok := h.Store.Snapshot().Nodes[nodeID]; !ok {
		writeJSONError(w, http.StatusNotFound, "unknown node "+nodeID)
		return
	}
	if err := h.Runner.Close(r.Context(), nodeID); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "close node session: "+err.Error())
		return
	}
	h.Approvals.DropForNode(nodeID)
	if err := h.Store.Publish(event.New(h.ID, event.NodeDeleted{NodeID: nodeID})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "delete node: "+err.Error())
		return
	}
	h.Store.DropRuntime(nodeID)
	w.WriteHeader(http.StatusNoContent)
}

// handleResetNode implements resetNode (§6): resets the adapter session,
// clears the node's inbox and summary, and sets it idle. The node's stall
// counters are held by the scheduler and are not cleared here.
func (s *Server) handleResetNode(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	if _, ok := h.Store.Snapshot().Nodes[nodeID]; !ok {
		writeJSONError(w, http.StatusNotFound, "unknown node "+nodeID)
		return
	}
	if err := h.Runner.Reset(r.Context(), nodeID); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset node session: "+err.Error())
		return
	}
	h.Store.Runtime(nodeID).DrainInbox()

	idle := model.NodeStatusIdle
	emptySummary := ""
	zero := 0
	patch := event.NodePatch{NodeID: nodeID, Status: &idle, Summary: &emptySummary, InboxCount: &zero}
	if err := h.Store.Publish(event.New(h.ID, patch)); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset node: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Snapshot().Nodes[nodeID])
}

type postMessageRequest struct {
	Content   string `json:"content"`
	Interrupt bool   `json:"interrupt,omitempty"`
}

// handlePostMessage implements postMessage (§6): enqueues a UserMessage;
// interrupt=true targets the head of queue and fires an adapter
// interrupt if the node is currently running.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	node, exists := h.Store.Snapshot().Nodes[nodeID]
	if !exists {
		writeJSONError(w, http.StatusNotFound, "unknown node "+nodeID)
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	msg := model.UserMessage{
		ID:        "msg-" + uuid.NewString(),
		RunID:     h.ID,
		NodeID:    nodeID,
		Role:      "user",
		Content:   req.Content,
		CreatedAt: time.Now(),
		Interrupt: req.Interrupt,
	}
	h.Store.Runtime(nodeID).EnqueueMessage(msg)

	if req.Interrupt && node.Status == model.NodeStatusRunning {
		if err := h.Runner.Interrupt(r.Context(), nodeID); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "interrupt node: "+err.Error())
			return
		}
	}

	writeJSON(w, http.StatusAccepted, msg)
}
