package store

import (
	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

// Apply is the fold: a deterministic function of (p, e) that mutates p
// to reflect e and returns it. It depends on nothing but its two
// arguments, so replaying a log by calling Apply in order reconstructs
// exactly the same projection the live path produced (§4.1, §8
// invariant 1). Every event Type declared in package event (listed in
// event.Kinds) has a case below.
func Apply(p *Projection, e event.Event) *Projection {
	switch payload := e.Payload.(type) {
	case event.RunPatch:
		applyRunPatch(p, payload)
	case event.RunMode:
		p.Run.Mode = payload.Mode
		p.Run.UpdatedAt = e.Ts
	case event.RunStalled:
		// Informational only; the accompanying RunPatch{status:paused}
		// carries the actual state transition.
	case event.NodePatch:
		applyNodePatch(p, payload)
		p.Run.UpdatedAt = e.Ts
	case event.NodeProgress:
		// Advisory UI hint only — never folded into the projection.
	case event.NodeDeleted:
		applyNodeDeleted(p, payload)
		p.Run.UpdatedAt = e.Ts
	case event.EdgeCreated:
		p.Edges[payload.Edge.ID] = &payload.Edge
		p.Run.EdgeIDs = append(p.Run.EdgeIDs, payload.Edge.ID)
		p.Run.UpdatedAt = e.Ts
	case event.EdgeDeleted:
		delete(p.Edges, payload.EdgeID)
		p.Run.EdgeIDs = removeString(p.Run.EdgeIDs, payload.EdgeID)
		p.Run.UpdatedAt = e.Ts
	case event.ArtifactCreated:
		p.Artifacts[payload.Artifact.ID] = &payload.Artifact
		p.Run.ArtifactIDs = append(p.Run.ArtifactIDs, payload.Artifact.ID)
		p.Run.UpdatedAt = e.Ts
	case event.MessageUser:
		// Runtime-only: the message queue lives in Runtime, not the
		// projection; the accompanying NodePatch{inboxCount} is what
		// the projection records.
	case event.MessageAssistantDelta, event.MessageAssistantFinal,
		event.MessageThinkingDelta, event.MessageThinkingFinal,
		event.MessageReasoning:
		// Transient stream content; recorded in the log for audit and
		// replay-to-observers, not folded into the projection.
	case event.ToolProposed, event.ToolStarted, event.ToolCompleted:
		// Transient tool-execution trace; not folded into the projection.
	case event.ApprovalRequested:
		a := payload.Approval
		p.Approvals[a.ID] = &a
	case event.ApprovalResolved:
		delete(p.Approvals, payload.ApprovalID)
	case event.HandoffSent, event.HandoffReported:
		// Runtime-only: the target inbox lives in Runtime; the
		// accompanying NodePatch{inboxCount} records the projection effect.
	case event.TelemetryUsage:
		if n, ok := p.Nodes[payload.NodeID]; ok {
			n.TokenUsage = n.TokenUsage.Add(payload.Usage)
		}
		p.Run.TokenUsage = p.Run.TokenUsage.Add(payload.Usage)
		p.Run.UpdatedAt = e.Ts
	}
	return p
}

func applyRunPatch(p *Projection, patch event.RunPatch) {
	if patch.Status != nil {
		p.Run.Status = *patch.Status
	}
	if patch.GlobalMode != nil {
		p.Run.GlobalMode = *patch.GlobalMode
	}
	if patch.TokenUsage != nil {
		p.Run.TokenUsage = *patch.TokenUsage
	}
	if patch.UpdatedAt != nil {
		p.Run.UpdatedAt = *patch.UpdatedAt
	}
}

func applyNodePatch(p *Projection, patch event.NodePatch) {
	n, ok := p.Nodes[patch.NodeID]
	if !ok {
		n = &model.Node{ID: patch.NodeID, RunID: p.Run.ID}
		p.Nodes[patch.NodeID] = n
		p.Run.NodeIDs = append(p.Run.NodeIDs, patch.NodeID)
	}
	if patch.Label != nil {
		n.Label = *patch.Label
	}
	if patch.RoleTemplate != nil {
		n.RoleTemplate = *patch.RoleTemplate
	}
	if patch.Provider != nil {
		n.Provider = *patch.Provider
	}
	if patch.Capabilities != nil {
		n.Capabilities = *patch.Capabilities
	}
	if patch.Permissions != nil {
		n.Permissions = *patch.Permissions
	}
	if patch.NativeToolHandling != nil {
		n.NativeToolHandling = *patch.NativeToolHandling
	}
	if patch.Status != nil {
		n.Status = *patch.Status
	}
	if patch.Summary != nil {
		n.Summary = *patch.Summary
	}
	if patch.Connection != nil {
		n.Connection = *patch.Connection
	}
	if patch.Streaming != nil {
		n.Streaming = *patch.Streaming
	}
	if patch.InboxCount != nil {
		n.InboxCount = *patch.InboxCount
	}
	if patch.TokenUsage != nil {
		n.TokenUsage = *patch.TokenUsage
	}
	if patch.Session != nil {
		n.Session = *patch.Session
	}
	if patch.Todos != nil {
		n.Todos = patch.Todos
	}
	if patch.LastActivity != nil {
		n.LastActivity = *patch.LastActivity
	}
}

func applyNodeDeleted(p *Projection, payload event.NodeDeleted) {
	delete(p.Nodes, payload.NodeID)
	p.Run.NodeIDs = removeString(p.Run.NodeIDs, payload.NodeID)

	for id, e := range p.Edges {
		if e.FromNodeID == payload.NodeID || e.ToNodeID == payload.NodeID {
			delete(p.Edges, id)
			p.Run.EdgeIDs = removeString(p.Run.EdgeIDs, id)
		}
	}
	for id, a := range p.Artifacts {
		if a.NodeID == payload.NodeID {
			delete(p.Artifacts, id)
			p.Run.ArtifactIDs = removeString(p.Run.ArtifactIDs, id)
		}
	}
	for id, a := range p.Approvals {
		if a.NodeID == payload.NodeID {
			delete(p.Approvals, id)
		}
	}
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
