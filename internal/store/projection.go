// Package store holds the Run Store: the in-memory projection built by
// folding a run's event log, the per-node ephemeral runtime the
// projection doesn't cover, and a sqlite-backed snapshot cache used to
// speed up cold-start recovery.
package store

import "github.com/agentgraph/agentgraph/internal/model"

// Projection is the durable, derivable state of one run: everything
// that is reconstructed purely by folding the run's event log. It
// excludes ephemeral runtime state: inboxes, queues and cancellation
// handles live in NodeRuntime, and the per-node stall counters are held
// by the scheduler, not by the Store.
type Projection struct {
	Run       model.Run
	Nodes     map[string]*model.Node
	Edges     map[string]*model.Edge
	Artifacts map[string]*model.Artifact
	Approvals map[string]*model.Approval
}

// NewProjection returns an empty projection for a freshly created run.
func NewProjection(run model.Run) *Projection {
	return &Projection{
		Run:       run,
		Nodes:     make(map[string]*model.Node),
		Edges:     make(map[string]*model.Edge),
		Artifacts: make(map[string]*model.Artifact),
		Approvals: make(map[string]*model.Approval),
	}
}

// EdgesTouching returns every edge whose endpoints include nodeID.
func (p *Projection) EdgesTouching(nodeID string) []*model.Edge {
	var out []*model.Edge
	for _, e := range p.Edges {
		if e.FromNodeID == nodeID || e.ToNodeID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// ArtifactsProducedBy returns every artifact produced by nodeID.
func (p *Projection) ArtifactsProducedBy(nodeID string) []*model.Artifact {
	var out []*model.Artifact
	for _, a := range p.Artifacts {
		if a.NodeID == nodeID {
			out = append(out, a)
		}
	}
	return out
}

// ApprovalsForNode returns every approval keyed to nodeID.
func (p *Projection) ApprovalsForNode(nodeID string) []*model.Approval {
	var out []*model.Approval
	for _, a := range p.Approvals {
		if a.NodeID == nodeID {
			out = append(out, a)
		}
	}
	return out
}
