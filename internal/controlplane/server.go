// Package controlplane implements the Control Plane (§6): the external
// HTTP+SSE surface through which an operator (CLI, dashboard, or any
// other client) drives runs, nodes, edges, messages, and approvals.
// Every state-changing operation here does nothing but translate a
// request into a call against internal/engine.Registry and its
// collaborators — the Store, Runner, and Approval Queue remain the
// single source of truth; this package owns no state of its own beyond
// per-run SSE brokers.
//
// The router shape (go-chi/chi/v5, JSON request/response helpers) is
// grounded on SPEC_FULL.md's DOMAIN STACK decision to replace the
// teacher's net/http ServeMux-based internal/webui with chi for
// "richer routing," while keeping webui's writeJSON/writeJSONError
// helper idiom.
package controlplane

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agentgraph/agentgraph/internal/engine"
	"github.com/agentgraph/agentgraph/internal/event"
)

// Server is the control plane's HTTP handler set over one engine.Registry.
type Server struct {
	reg    *engine.Registry
	router chi.Router

	brokers *brokerSet
}

// New builds a Server wired to reg. Call Handler to obtain the
// http.Handler to serve.
func New(reg *engine.Registry) *Server {
	s := &Server{reg: reg, brokers: newBrokerSet()}
	s.router = s.buildRouter()
	return s
}

// Handler returns the control plane's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.handleGetRun)
			r.Patch("/", s.handleUpdateRun)
			r.Delete("/", s.handleDeleteRun)
			r.Get("/events", s.handleSubscribeEvents)

			r.Post("/nodes", s.handleCreateNode)
			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateNode)
				r.Delete("/", s.handleDeleteNode)
				r.Post("/reset", s.handleResetNode)
				r.Post("/messages", s.handlePostMessage)
			})

			r.Post("/edges", s.handleCreateEdge)
			r.Delete("/edges/{edgeID}", s.handleDeleteEdge)

			r.Get("/approvals", s.handleListApprovals)
			r.Post("/approvals/{approvalID}/resolve", s.handleResolveApproval)

			r.Post("/artifacts", s.handleRecordArtifact)
			r.Post("/envelopes", s.handleDeliverEnvelope)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("controlplane: encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// handleFor resolves the {runID} path parameter into its RunHandle, or
// writes a 404 and returns false.
func (s *Server) handleFor(w http.ResponseWriter, r *http.Request) (*engine.RunHandle, bool) {
	runID := chi.URLParam(r, "runID")
	h, ok := s.reg.Get(runID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown run "+runID)
		return nil, false
	}
	return h, true
}

// subscribeBroker wires a run's event.Bus to its SSE Broker exactly
// once, lazily, the first time a subscriber asks for it.
func (s *Server) subscribeBroker(h *engine.RunHandle) *Broker {
	return s.brokers.get(h.ID, func() *Broker {
		b := NewBroker()
		h.Store.Subscribe(func(e event.Event) { b.Publish(e) })
		return b
	})
}
