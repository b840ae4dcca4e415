package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

// todoWriteTool is the well-known name a role's TodoWrite shows up
// under, whether the provider wraps it natively or the engine handles
// it directly (§4.3 step 6).
const todoWriteTool = "TodoWrite"

// drainToolQueueLocked processes ns.pending.queue from the head,
// suspending on the first tool that needs approval and resuming where
// it left off on a later call (§4.3 "Tool queue processing",
// "Resuming from approval"). Caller holds ns.mu.
func (r *Runner) drainToolQueueLocked(ctx context.Context, ns *nodeSession, in TurnInput) TurnResult {
	pt := ns.pending

	for len(pt.queue) > 0 {
		call := pt.queue[0]

		if !pt.proposed[call.ID] {
			pt.proposed[call.ID] = true
			r.publishNode(in.Run.ID, event.ToolProposed{NodeID: in.Node.ID, ToolCall: call})
		}

		if call.ProviderHandled {
			r.publishNode(in.Run.ID, event.ToolCompleted{
				NodeID: in.Node.ID, ToolCallID: call.ID, OK: false,
				Error: "tool executed natively by provider, not re-run by engine",
			})
			pt.queue = pt.queue[1:]
			continue
		}

		if strings.EqualFold(call.Name, todoWriteTool) {
			r.applyTodoWrite(in.Run.ID, in.Node.ID, call)
			pt.queue = pt.queue[1:]
			continue
		}

		if err := checkEdgeManagement(in.Node, call); err != nil {
			r.publishNode(in.Run.ID, event.ToolCompleted{NodeID: in.Node.ID, ToolCallID: call.ID, OK: false, Error: err.Error()})
			pt.toolErrs = append(pt.toolErrs, fmt.Sprintf("%s: %s", call.Name, err.Error()))
			pt.queue = pt.queue[1:]
			continue
		}

		needsApproval := in.Node.Permissions.PermissionsMode == model.PermissionsGated ||
			(isAgentManagementTool(call.Name) && in.Node.Permissions.AgentManagementRequiresApproval)

		if needsApproval && pt.resolution == nil {
			approvalID := call.ID
			a := model.Approval{
				ID:       approvalID,
				NodeID:   in.Node.ID,
				ToolCall: call,
				Context:  fmt.Sprintf("node %s requests %s", in.Node.ID, call.Name),
			}
			if r.approvals != nil {
				r.approvals.Request(a)
			}
			r.publishNode(in.Run.ID, event.ApprovalRequested{Approval: a})
			return TurnResult{Kind: OutcomeBlocked, Approval: &a, Summary: "awaiting approval: " + call.Name}
		}

		if pt.resolution != nil {
			res := pt.resolution
			pt.resolution = nil
			switch res.Kind {
			case model.ApprovalDenied:
				r.publishNode(in.Run.ID, event.ToolCompleted{NodeID: in.Node.ID, ToolCallID: call.ID, OK: false, Error: "denied by operator"})
				pt.toolErrs = append(pt.toolErrs, fmt.Sprintf("%s: denied by operator", call.Name))
				pt.queue = pt.queue[1:]
				continue
			case model.ApprovalModified:
				call.Args = res.ModifiedArgs
				pt.queue[0] = call
			}
		}

		pt.queue = pt.queue[1:]
		r.executeToolLocked(ctx, in, call, pt)
	}

	finalMessage := pt.message
	if len(pt.toolErrs) > 0 {
		finalMessage += "\n\nTool errors:\n"
		for _, e := range pt.toolErrs {
			finalMessage += "- " + e + "\n"
		}
	}
	diff, verificationFailure := pt.lastDiff, pt.verificationFailure
	ns.pending = nil
	return r.finishTurnLocked(in, finalMessage, diff, verificationFailure)
}

func (r *Runner) executeToolLocked(ctx context.Context, in TurnInput, call model.ToolCall, pt *pendingTurn) {
	r.publishNode(in.Run.ID, event.ToolStarted{NodeID: in.Node.ID, ToolCallID: call.ID})

	start := time.Now()
	ok, output, execErr := r.tools.Execute(ctx, in.Run, &in.Node, call)
	duration := time.Since(start).Milliseconds()

	r.publishNode(in.Run.ID, event.ToolCompleted{
		NodeID: in.Node.ID, ToolCallID: call.ID, OK: ok, Output: output, Error: execErr, DurationMS: duration,
	})
	if !ok {
		pt.toolErrs = append(pt.toolErrs, fmt.Sprintf("%s: %s", call.Name, execErr))
		// "command" is the general-purpose verification tool (tests,
		// builds, lint); a failure there is this turn's verification
		// signal for the stall detector (§4.6).
		if call.Name == "command" {
			pt.verificationFailure = true
		}
	}
	if diff, ok := output.(string); ok && call.Name == "command" && looksLikeDiff(diff) {
		pt.lastDiff = diff
	}
}

func looksLikeDiff(s string) bool {
	return strings.HasPrefix(s, "diff --git") || strings.HasPrefix(s, "--- ")
}

// resumePendingLocked resumes a suspended turn for a node whose
// pendingTurn flag is set; the scheduler passes no new envelopes or
// messages for a resume (§4.3 "Resuming from approval").
func (r *Runner) resumePendingLocked(ctx context.Context, ns *nodeSession, in TurnInput) TurnResult {
	if ns.pending == nil {
		return TurnResult{Kind: OutcomeFailed, Err: fmt.Errorf("runner: resume called with no pending turn")}
	}
	return r.drainToolQueueLocked(ctx, ns, in)
}

// finishTurnLocked builds the completed outcome, hashing the output
// and (if present) the diff for the stall detector (§4.6). Caller holds
// ns.mu (via RunTurn/drainToolQueueLocked).
func (r *Runner) finishTurnLocked(in TurnInput, message, diff string, verificationFailure bool) TurnResult {
	res := TurnResult{
		Kind:                OutcomeCompleted,
		Message:             message,
		Summary:             summarize(message),
		OutputHash:          hashString(message),
		VerificationFailure: verificationFailure,
	}
	if diff != "" {
		res.DiffHash = hashString(diff)
	}
	return res
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func summarize(message string) string {
	const max = 120
	trimmed := strings.TrimSpace(message)
	if len(trimmed) <= max {
		return trimmed
	}
	return trimmed[:max] + "…"
}

func checkEdgeManagement(n model.Node, call model.ToolCall) error {
	switch call.Name {
	case "spawn_node":
		if n.Capabilities.EdgeManagement != model.EdgeManagementAll {
			return fmt.Errorf("spawn_node requires edgeManagement=all")
		}
	case "create_edge":
		lvl := n.Capabilities.EdgeManagement
		if lvl != model.EdgeManagementSelf && lvl != model.EdgeManagementAll {
			return fmt.Errorf("create_edge requires edgeManagement=self or all")
		}
	}
	return nil
}

func isAgentManagementTool(name string) bool {
	return name == "spawn_node" || name == "create_edge"
}

func (r *Runner) applyTodoWrite(runID, nodeID string, call model.ToolCall) {
	todos := parseTodos(call.Args)
	r.publishNode(runID, event.NodePatch{NodeID: nodeID, Todos: todos})
}

func parseTodos(args map[string]any) []model.Todo {
	raw, ok := args["todos"].([]any)
	if !ok {
		return nil
	}
	out := make([]model.Todo, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := model.Todo{}
		if v, ok := m["id"].(string); ok {
			t.ID = v
		}
		if v, ok := m["content"].(string); ok {
			t.Content = v
		}
		if v, ok := m["status"].(string); ok {
			t.Status = v
		}
		out = append(out, t)
	}
	return out
}

func (r *Runner) publishNode(runID string, payload event.Payload) {
	if r.store == nil {
		return
	}
	_ = r.store.Publish(event.New(runID, payload))
}
