// Package model defines the entity types that make up a run's projection:
// Run, Node, Edge, Envelope, UserMessage, Artifact, Approval and ToolCall.
// Every cross-entity reference is by id; no entity holds a pointer to
// another, so the projection can be stored as flat id-keyed maps without
// ownership cycles.
package model

import "time"

// RunStatus is the lifecycle status of a Run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPaused  RunStatus = "paused"
	RunStatusStopped RunStatus = "stopped"
	RunStatusFailed  RunStatus = "failed"
)

// OrchestrationMode controls whether orchestrator nodes self-continue.
type OrchestrationMode string

const (
	ModeAuto        OrchestrationMode = "AUTO"
	ModeInteractive OrchestrationMode = "INTERACTIVE"
)

// GlobalMode tightens or relaxes which tools a node is willing to invoke.
type GlobalMode string

const (
	GlobalModePlanning       GlobalMode = "PLANNING"
	GlobalModeImplementation GlobalMode = "IMPLEMENTATION"
)

// Run is the top-level owner of all other entities in a run.
type Run struct {
	ID            string            `json:"id"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Status        RunStatus         `json:"status"`
	Mode          OrchestrationMode `json:"mode"`
	GlobalMode    GlobalMode        `json:"globalMode"`
	Cwd           string            `json:"cwd"`
	TokenUsage    TokenUsage        `json:"tokenUsage"`
	NodeIDs       []string          `json:"nodeIds"`
	EdgeIDs       []string          `json:"edgeIds"`
	ArtifactIDs   []string          `json:"artifactIds"`
}

// TokenUsage is an additive aggregate of provider token consumption.
type TokenUsage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// Add accumulates u2 into u and returns the result.
func (u TokenUsage) Add(u2 TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + u2.PromptTokens,
		CompletionTokens: u.CompletionTokens + u2.CompletionTokens,
		TotalTokens:      u.TotalTokens + u2.TotalTokens,
	}
}

// NodeStatus reflects whether the scheduler currently holds a turn in
// flight for the node.
type NodeStatus string

const (
	NodeStatusIdle    NodeStatus = "idle"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusBlocked NodeStatus = "blocked"
	NodeStatusFailed  NodeStatus = "failed"
)

// ConnectionStatus is the node's provider-adapter connection state.
type ConnectionStatus string

const (
	ConnectionIdle         ConnectionStatus = "idle"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// EdgeManagementLevel constrains a node's ability to mutate the graph.
type EdgeManagementLevel string

const (
	EdgeManagementNone EdgeManagementLevel = "none"
	EdgeManagementSelf EdgeManagementLevel = "self"
	EdgeManagementAll  EdgeManagementLevel = "all"
)

// Capabilities gates which tools a node may invoke.
type Capabilities struct {
	SpawnNodes      bool                `json:"spawnNodes"`
	WriteCode       bool                `json:"writeCode"`
	WriteDocs       bool                `json:"writeDocs"`
	RunCommands     bool                `json:"runCommands"`
	DelegateOnly    bool                `json:"delegateOnly"`
	EdgeManagement  EdgeManagementLevel `json:"edgeManagement"`
}

// PermissionsMode controls whether tool calls require human approval.
type PermissionsMode string

const (
	PermissionsSkip  PermissionsMode = "skip"
	PermissionsGated PermissionsMode = "gated"
)

// Permissions holds a node's approval-gating configuration.
type Permissions struct {
	PermissionsMode                PermissionsMode `json:"permissionsMode"`
	AgentManagementRequiresApproval bool            `json:"agentManagementRequiresApproval"`
}

// NativeToolHandling indicates who actually executes workspace tools
// the provider's own CLI may already handle natively.
type NativeToolHandling string

const (
	NativeToolHandlingEngine   NativeToolHandling = "engine"
	NativeToolHandlingProvider NativeToolHandling = "provider"
)

// SessionDescriptor is the opaque session handle a provider adapter
// assigns once a session is established, plus any reset commands the
// provider needs run before reuse.
type SessionDescriptor struct {
	SessionID     string   `json:"sessionId,omitempty"`
	ResetCommands []string `json:"resetCommands,omitempty"`
}

// Node is a long-lived conversation with an external coding agent.
type Node struct {
	ID                 string             `json:"id"`
	RunID              string             `json:"runId"`
	Label              string             `json:"label"`
	RoleTemplate       string             `json:"roleTemplate"`
	Provider           string             `json:"provider"`
	Status             NodeStatus         `json:"status"`
	Summary            string             `json:"summary"`
	LastActivity       time.Time          `json:"lastActivity"`
	TokenUsage         TokenUsage         `json:"tokenUsage"`
	Capabilities       Capabilities       `json:"capabilities"`
	Permissions        Permissions        `json:"permissions"`
	NativeToolHandling NativeToolHandling `json:"nativeToolHandling"`
	Session            SessionDescriptor  `json:"session"`
	Connection         ConnectionStatus   `json:"connection"`
	Streaming          bool               `json:"streaming"`
	HeartbeatAt        time.Time          `json:"heartbeatAt"`
	InboxCount         int                `json:"inboxCount"`
	Todos              []Todo             `json:"todos,omitempty"`

	// Node carries no runtime-only state: a node's inbox, message queue
	// and resume flags live in store.NodeRuntime, outside the persisted
	// projection, and are empty again after a cold restart.
}

// Todo is a single TodoWrite-tracked item surfaced via node.patch.
type Todo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
}

// EdgeType distinguishes a routing hint's intent.
type EdgeType string

const (
	EdgeTypeHandoff EdgeType = "handoff"
	EdgeTypeReport  EdgeType = "report"
)

// Edge is a routing hint between two nodes; it never restricts envelope
// delivery, which may target any node regardless of declared edges.
type Edge struct {
	ID            string   `json:"id"`
	RunID         string   `json:"runId"`
	FromNodeID    string   `json:"fromNodeId"`
	ToNodeID      string   `json:"toNodeId"`
	Bidirectional bool     `json:"bidirectional"`
	Type          EdgeType `json:"type"`
	Label         string   `json:"label,omitempty"`
}

// ResponseExpectation declares whether an envelope's sender awaits a reply.
type ResponseExpectation string

const (
	ResponseNone     ResponseExpectation = "none"
	ResponseOptional ResponseExpectation = "optional"
	ResponseRequired ResponseExpectation = "required"
)

// ArtifactRef points at an artifact referenced by an envelope payload.
type ArtifactRef struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
}

// EnvelopeStatus is an optional producer-reported outcome marker.
type EnvelopeStatus struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// EnvelopeResponse declares the sender's expectation of a reply.
type EnvelopeResponse struct {
	Expectation ResponseExpectation `json:"expectation"`
	ReplyTo     string              `json:"replyTo,omitempty"`
}

// EnvelopePayload is the structured body of a handoff.
type EnvelopePayload struct {
	Message    string            `json:"message"`
	Structured map[string]any    `json:"structured,omitempty"`
	Artifacts  []ArtifactRef     `json:"artifacts,omitempty"`
	Status     *EnvelopeStatus   `json:"status,omitempty"`
	Response   *EnvelopeResponse `json:"response,omitempty"`
	ContextRef string            `json:"contextRef,omitempty"`
}

// Envelope is a structured handoff routed from one node to another. It
// lives in the target node's inbox until consumed by its next turn.
type Envelope struct {
	ID         string          `json:"id"`
	FromNodeID string          `json:"fromNodeId"`
	ToNodeID   string          `json:"toNodeId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Payload    EnvelopePayload `json:"payload"`
}

// UserMessage is operator input addressed to a node, or unaddressed
// (targeting the orchestrator).
type UserMessage struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	NodeID    string    `json:"nodeId,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Interrupt bool      `json:"interrupt"`
}

// ArtifactKind classifies the kind of blob an artifact wraps.
type ArtifactKind string

const (
	ArtifactKindPrompt       ArtifactKind = "prompt"
	ArtifactKindDiff         ArtifactKind = "diff"
	ArtifactKindLog          ArtifactKind = "log"
	ArtifactKindJSON         ArtifactKind = "json"
	ArtifactKindUserFeedback ArtifactKind = "user-feedback"
)

// ArtifactMetadata is optional descriptive data about an artifact.
type ArtifactMetadata struct {
	FilesChanged []string `json:"filesChanged,omitempty"`
	Summary      string   `json:"summary,omitempty"`
}

// Artifact is a named blob produced by a node during a run.
type Artifact struct {
	ID         string            `json:"id"`
	RunID      string            `json:"runId"`
	NodeID     string            `json:"nodeId"`
	Kind       ArtifactKind      `json:"kind"`
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	CreatedAt  time.Time         `json:"createdAt"`
	Metadata   *ArtifactMetadata `json:"metadata,omitempty"`
}

// ApprovalResolutionKind is the operator's decision on a pending approval.
type ApprovalResolutionKind string

const (
	ApprovalApproved ApprovalResolutionKind = "approved"
	ApprovalDenied   ApprovalResolutionKind = "denied"
	ApprovalModified ApprovalResolutionKind = "modified"
)

// ApprovalResolution is the operator's response to an approval request.
type ApprovalResolution struct {
	Kind         ApprovalResolutionKind `json:"kind"`
	ModifiedArgs map[string]any         `json:"modifiedArgs,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Approval is a suspension token gating one tool execution on explicit
// operator consent. Its id equals the gated tool call's id.
type Approval struct {
	ID         string               `json:"id"`
	NodeID     string               `json:"nodeId"`
	ToolCall   ToolCall             `json:"toolCall"`
	Context    string               `json:"context,omitempty"`
	Timeout    *time.Duration       `json:"timeout,omitempty"`
	Resolution *ApprovalResolution  `json:"resolution,omitempty"`
}

// ToolCall is a single tool invocation extracted from an assistant turn.
type ToolCall struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Args            map[string]any `json:"args"`
	ProviderHandled bool           `json:"providerHandled,omitempty"`
}
