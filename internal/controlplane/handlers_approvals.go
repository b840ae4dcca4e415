package controlplane

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

// handleListApprovals implements listApprovals (§6).
func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	snap := h.Store.Snapshot()
	out := make([]*model.Approval, 0, len(snap.Approvals))
	for _, a := range snap.Approvals {
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleResolveApproval implements resolveApproval (§6): forwards the
// resolution to the Runner via the Approval Queue, then performs the
// "blocked -> idle upon approval resolution" node transition the data
// model invariant requires (§3) and sets PendingTurn so the scheduler's
// next tick resumes the node's suspended tool queue.
func (s *Server) handleResolveApproval(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	approvalID := chi.URLParam(r, "approvalID")

	var resolution model.ApprovalResolution
	if err := decodeJSON(r, &resolution); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	approval, pending := h.Approvals.Pending(approvalID)
	if err := h.Approvals.Resolve(approvalID, resolution); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "resolve approval: "+err.Error())
		return
	}
	if !pending {
		writeJSON(w, http.StatusOK, map[string]string{"status": "unknown or already-resolved approval id, dropped"})
		return
	}

	if err := h.Store.Publish(event.New(h.ID, event.ApprovalResolved{ApprovalID: approvalID, NodeID: approval.NodeID, Resolution: resolution})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "publish approval.resolved: "+err.Error())
		return
	}

	idle := model.NodeStatusIdle
	if err := h.Store.Publish(event.New(h.ID, event.NodePatch{NodeID: approval.NodeID, Status: &idle})); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "unblock node: "+err.Error())
		return
	}
	h.Store.Runtime(approval.NodeID).PendingTurn = true

	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
