package controlplane

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentgraph/agentgraph/internal/engine"
	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/scheduler"
)

type createRunRequest struct {
	Mode       model.OrchestrationMode `json:"mode,omitempty"`
	GlobalMode model.GlobalMode        `json:"globalMode,omitempty"`
	Cwd        string                  `json:"cwd,omitempty"`
}

// handleCreateRun implements createRun (§6): { mode?, globalMode?, cwd? }
// -> RunState; emits run.patch, run.mode.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	h, err := s.reg.CreateRun(engine.CreateRunConfig{Mode: req.Mode, GlobalMode: req.GlobalMode, Cwd: req.Cwd})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "create run: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, h.Store.Snapshot())
}

// handleListRuns implements listRuns (§6).
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	handles := s.reg.List()
	out := make([]any, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.Store.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRun implements getRun (§6).
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Snapshot())
}

type updateRunRequest struct {
	Status     *model.RunStatus  `json:"status,omitempty"`
	Mode       *model.OrchestrationMode `json:"mode,omitempty"`
	GlobalMode *model.GlobalMode `json:"globalMode,omitempty"`
}

// handleUpdateRun implements updateRun (§6): pausing interrupts running
// nodes, resuming synthesizes "Continue." messages into previously
// interrupted nodes, and stopping closes every node's session.
func (s *Server) handleUpdateRun(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	var req updateRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	prevStatus := h.Store.Snapshot().Run.Status

	if req.Status != nil {
		if err := h.Store.Publish(event.New(h.ID, event.RunPatch{Status: req.Status, GlobalMode: req.GlobalMode})); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "update run: "+err.Error())
			return
		}
		switch *req.Status {
		case model.RunStatusPaused:
			if err := scheduler.Pause(r.Context(), h); err != nil {
				writeJSONError(w, http.StatusInternalServerError, "pause run: "+err.Error())
				return
			}
		case model.RunStatusRunning:
			if prevStatus == model.RunStatusPaused {
				scheduler.Resume(h)
			}
		case model.RunStatusStopped:
			snap := h.Store.Snapshot()
			for nodeID := range snap.Nodes {
				_ = h.Runner.Close(r.Context(), nodeID)
			}
		}
	} else if req.GlobalMode != nil {
		if err := h.Store.Publish(event.New(h.ID, event.RunPatch{GlobalMode: req.GlobalMode})); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "update run: "+err.Error())
			return
		}
	}

	if req.Mode != nil {
		if err := h.Store.Publish(event.New(h.ID, event.RunMode{Mode: *req.Mode})); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "update run mode: "+err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, h.Store.Snapshot())
}

// handleDeleteRun implements deleteRun (§6): cascades to nodes/edges/
// artifacts and removes the run directory.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, ok := s.reg.Get(runID); !ok {
		writeJSONError(w, http.StatusNotFound, "unknown run "+runID)
		return
	}
	if err := s.reg.Delete(runID); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "delete run: "+err.Error())
		return
	}
	s.brokers.drop(runID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSubscribeEvents implements subscribeEvents (§6): a tail stream
// of EventEnvelope for one run.
func (s *Server) handleSubscribeEvents(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handleFor(w, r)
	if !ok {
		return
	}
	s.subscribeBroker(h).ServeHTTP(w, r)
}
