// Package approval implements the Approval Queue (§4.5): an id-keyed
// map of pending approvals that correlates operator resolutions with
// the Runner that is blocked waiting on them.
//
// The at-most-once resolution contract and the "unknown id is a no-op
// warning, never an error" policy are grounded on the HITL checkpoint
// interfaces found in the corpus (itsneelabh-gomind's orchestration
// package), which define the same shape for an external approval
// checkpoint store — adapted here down to an in-memory, single-process
// map, since approvals in this engine are Runtime-scoped rather than
// durable across hosts.
package approval

import (
	"log"
	"sync"

	"github.com/agentgraph/agentgraph/internal/model"
)

// Resolver is implemented by whatever owns the Runner for a node: it
// receives a resolution once Resolve looks up the pending approval.
type Resolver interface {
	ResolveApproval(nodeID, approvalID string, resolution model.ApprovalResolution) error
}

// Queue holds pending approvals keyed by id.
type Queue struct {
	mu       sync.Mutex
	pending  map[string]model.Approval
	resolver Resolver
}

// New constructs an empty Queue that forwards resolutions to resolver.
// resolver may be nil if it will be supplied later via SetResolver,
// which callers need when the resolver (the Runner) itself requires the
// Queue at construction time (internal/engine breaks that cycle this way).
func New(resolver Resolver) *Queue {
	return &Queue{pending: make(map[string]model.Approval), resolver: resolver}
}

// SetResolver attaches the Resolver once it becomes available.
func (q *Queue) SetResolver(resolver Resolver) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.resolver = resolver
}

// Request registers a new pending approval. The id must equal the
// gated tool call's id (§3 "Approval").
func (q *Queue) Request(a model.Approval) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[a.ID] = a
}

// Pending returns the approval for id, if still outstanding.
func (q *Queue) Pending(id string) (model.Approval, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.pending[id]
	return a, ok
}

// Resolve removes the pending entry for id and forwards the resolution
// to the owning Runner. An unknown id is dropped with a logged warning
// — it is never treated as an error, since the approval may have
// already been resolved or the node since deleted (§4.5, §8 invariant
// 10 "resolving an already-resolved approval is a no-op").
func (q *Queue) Resolve(id string, resolution model.ApprovalResolution) error {
	q.mu.Lock()
	a, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()

	if !ok {
		log.Printf("approval: resolve for unknown or already-resolved id %s dropped", id)
		return nil
	}

	resolution = normalize(resolution)
	q.mu.Lock()
	resolver := q.resolver
	q.mu.Unlock()
	return resolver.ResolveApproval(a.NodeID, id, resolution)
}

// DropForNode removes every pending approval keyed to nodeID, used when
// a node is deleted (§3 "Ownership and lifecycle").
func (q *Queue) DropForNode(nodeID string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var dropped []string
	for id, a := range q.pending {
		if a.NodeID == nodeID {
			delete(q.pending, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// normalize applies the Open Question decision for a "modified"
// resolution whose args are not object-shaped: treat it as denied with
// an explanatory error (§9 "Open questions").
func normalize(r model.ApprovalResolution) model.ApprovalResolution {
	if r.Kind != model.ApprovalModified {
		return r
	}
	if r.ModifiedArgs == nil {
		return model.ApprovalResolution{
			Kind:  model.ApprovalDenied,
			Error: "modified resolution missing modifiedArgs; treated as denied",
		}
	}
	return r
}
