package tools

import (
	"context"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/store"
	"github.com/google/uuid"
)

// GraphHandlers executes the graph-mutating tools (§4.4): spawn_node,
// create_edge, send_handoff. Separated from the Executor so a caller
// can wire a different backing store, or none at all.
type GraphHandlers interface {
	SpawnNode(ctx context.Context, run model.Run, node *model.Node, args map[string]any) (ok bool, output any, execErr string)
	CreateEdge(ctx context.Context, run model.Run, node *model.Node, args map[string]any) (ok bool, output any, execErr string)
	SendHandoff(ctx context.Context, run model.Run, node *model.Node, args map[string]any) (ok bool, output any, execErr string)
}

// StoreGraphHandlers implements GraphHandlers directly against a
// *store.Store: spawn_node and create_edge emit a single event each
// (node.patch, edge.created), and send_handoff enqueues an Envelope
// onto the target's runtime inbox and emits handoff.sent plus the
// target's node.patch{inboxCount} (§4.4 "send_handoff").
type StoreGraphHandlers struct {
	Store *store.Store
}

func NewStoreGraphHandlers(st *store.Store) *StoreGraphHandlers {
	return &StoreGraphHandlers{Store: st}
}

// SpawnNode emits a node.patch carrying every creation-time field; the
// id is new, so the fold lazily creates the node (event.NodePatch,
// internal/store/fold.go's applyNodePatch) the same way any other
// patch does.
func (h *StoreGraphHandlers) SpawnNode(ctx context.Context, run model.Run, node *model.Node, args map[string]any) (bool, any, string) {
	if node.Capabilities.EdgeManagement != model.EdgeManagementAll {
		return false, nil, "spawn_node requires edgeManagement=all"
	}

	label, _ := argString(args, "label")
	roleTemplate, _ := argString(args, "roleTemplate")
	provider, _ := argString(args, "provider")
	if provider == "" {
		provider = node.Provider
	}

	caps := parseCapabilities(args)
	perms := parsePermissions(args)
	nth := model.NativeToolHandlingEngine
	if v, ok := argString(args, "nativeToolHandling"); ok && v == string(model.NativeToolHandlingProvider) {
		nth = model.NativeToolHandlingProvider
	}

	newID := "node-" + uuid.NewString()
	status := model.NodeStatusIdle
	connection := model.ConnectionIdle

	patch := event.NodePatch{
		NodeID:             newID,
		Label:              &label,
		RoleTemplate:       &roleTemplate,
		Provider:           &provider,
		Capabilities:       &caps,
		Permissions:        &perms,
		NativeToolHandling: &nth,
		Status:             &status,
		Connection:         &connection,
	}
	if err := h.Store.Publish(event.New(run.ID, patch)); err != nil {
		return false, nil, err.Error()
	}
	return true, map[string]any{"nodeId": newID}, ""
}

// CreateEdge emits edge.created. A node with edgeManagement=self may
// only create edges touching its own id; edgeManagement=all may
// create any edge.
func (h *StoreGraphHandlers) CreateEdge(ctx context.Context, run model.Run, node *model.Node, args map[string]any) (bool, any, string) {
	lvl := node.Capabilities.EdgeManagement
	if lvl != model.EdgeManagementSelf && lvl != model.EdgeManagementAll {
		return false, nil, "create_edge requires edgeManagement=self or all"
	}

	from, _ := argString(args, "fromNodeId")
	if from == "" {
		from = node.ID
	}
	to, ok := argString(args, "toNodeId")
	if !ok || to == "" {
		return false, nil, "create_edge requires a toNodeId argument"
	}
	if lvl == model.EdgeManagementSelf && from != node.ID && to != node.ID {
		return false, nil, "create_edge with edgeManagement=self must touch the caller's own node"
	}

	bidirectional, _ := args["bidirectional"].(bool)
	edgeType := model.EdgeTypeHandoff
	if v, ok := argString(args, "type"); ok && v == string(model.EdgeTypeReport) {
		edgeType = model.EdgeTypeReport
	}
	label, _ := argString(args, "label")

	edge := model.Edge{
		ID:            "edge-" + uuid.NewString(),
		RunID:         run.ID,
		FromNodeID:    from,
		ToNodeID:      to,
		Bidirectional: bidirectional,
		Type:          edgeType,
		Label:         label,
	}
	if err := h.Store.Publish(event.New(run.ID, event.EdgeCreated{Edge: edge})); err != nil {
		return false, nil, err.Error()
	}
	return true, map[string]any{"edgeId": edge.ID}, ""
}

// SendHandoff constructs an Envelope, enqueues it onto the target
// node's runtime inbox, and emits handoff.sent plus the target's
// node.patch{inboxCount}. It never waits for a reply; a
// response.expectation=required payload only sets an advisory marker
// the target's next prompt will surface.
func (h *StoreGraphHandlers) SendHandoff(ctx context.Context, run model.Run, node *model.Node, args map[string]any) (bool, any, string) {
	to, ok := argString(args, "toNodeId")
	if !ok || to == "" {
		return false, nil, "send_handoff requires a toNodeId argument"
	}
	message, _ := argString(args, "message")

	payload := model.EnvelopePayload{Message: message}
	if structured, ok := args["structured"].(map[string]any); ok {
		payload.Structured = structured
	}
	if contextRef, ok := argString(args, "contextRef"); ok {
		payload.ContextRef = contextRef
	}
	if expectation, ok := argString(args, "responseExpectation"); ok {
		payload.Response = &model.EnvelopeResponse{
			Expectation: model.ResponseExpectation(expectation),
		}
	}

	env := model.Envelope{
		ID:         "env-" + uuid.NewString(),
		FromNodeID: node.ID,
		ToNodeID:   to,
		CreatedAt:  time.Now(),
		Payload:    payload,
	}

	rt := h.Store.Runtime(to)
	rt.EnqueueEnvelope(env)
	inboxCount := rt.InboxCount()

	if err := h.Store.Publish(event.New(run.ID, event.HandoffSent{Envelope: env})); err != nil {
		return false, nil, err.Error()
	}
	if err := h.Store.Publish(event.New(run.ID, event.NodePatch{NodeID: to, InboxCount: &inboxCount})); err != nil {
		return false, nil, err.Error()
	}
	return true, map[string]any{"envelopeId": env.ID}, ""
}

func parseCapabilities(args map[string]any) model.Capabilities {
	caps := model.Capabilities{EdgeManagement: model.EdgeManagementNone}
	raw, ok := args["capabilities"].(map[string]any)
	if !ok {
		return caps
	}
	caps.SpawnNodes, _ = raw["spawnNodes"].(bool)
	caps.WriteCode, _ = raw["writeCode"].(bool)
	caps.WriteDocs, _ = raw["writeDocs"].(bool)
	caps.RunCommands, _ = raw["runCommands"].(bool)
	caps.DelegateOnly, _ = raw["delegateOnly"].(bool)
	if lvl, ok := raw["edgeManagement"].(string); ok {
		caps.EdgeManagement = model.EdgeManagementLevel(lvl)
	}
	return caps
}

func parsePermissions(args map[string]any) model.Permissions {
	perms := model.Permissions{PermissionsMode: model.PermissionsGated}
	raw, ok := args["permissions"].(map[string]any)
	if !ok {
		return perms
	}
	if mode, ok := raw["permissionsMode"].(string); ok {
		perms.PermissionsMode = model.PermissionsMode(mode)
	}
	perms.AgentManagementRequiresApproval, _ = raw["agentManagementRequiresApproval"].(bool)
	return perms
}
