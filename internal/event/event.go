// Package event defines the closed set of event families that make up a
// run's append-only log, the log itself, and the in-process bus that
// fans events out to live subscribers. Every mutation to a run's
// projection flows through a single emitted Event; nothing else is
// allowed to mutate the projection.
package event

import (
	"time"

	"github.com/agentgraph/agentgraph/internal/model"
)

// Type identifies one of the closed set of event families. Handlers that
// switch on Type should include a default case that panics in tests
// (see Kinds below) so a newly added family cannot be silently dropped.
type Type string

const (
	TypeRunPatch               Type = "run.patch"
	TypeRunMode                Type = "run.mode"
	TypeRunStalled             Type = "run.stalled"
	TypeNodePatch              Type = "node.patch"
	TypeNodeProgress           Type = "node.progress"
	TypeNodeDeleted            Type = "node.deleted"
	TypeEdgeCreated            Type = "edge.created"
	TypeEdgeDeleted            Type = "edge.deleted"
	TypeArtifactCreated        Type = "artifact.created"
	TypeMessageUser            Type = "message.user"
	TypeMessageAssistantDelta  Type = "message.assistant.delta"
	TypeMessageAssistantFinal  Type = "message.assistant.final"
	TypeMessageThinkingDelta   Type = "message.assistant.thinking.delta"
	TypeMessageThinkingFinal   Type = "message.assistant.thinking.final"
	TypeMessageReasoning       Type = "message.reasoning"
	TypeToolProposed           Type = "tool.proposed"
	TypeToolStarted            Type = "tool.started"
	TypeToolCompleted          Type = "tool.completed"
	TypeApprovalRequested      Type = "approval.requested"
	TypeApprovalResolved       Type = "approval.resolved"
	TypeHandoffSent            Type = "handoff.sent"
	TypeHandoffReported        Type = "handoff.reported"
	TypeTelemetryUsage         Type = "telemetry.usage"
)

// Kinds enumerates every Type known to this package, used by tests that
// assert every family is handled by a fold/dispatch switch.
var Kinds = []Type{
	TypeRunPatch, TypeRunMode, TypeRunStalled,
	TypeNodePatch, TypeNodeProgress, TypeNodeDeleted,
	TypeEdgeCreated, TypeEdgeDeleted,
	TypeArtifactCreated,
	TypeMessageUser, TypeMessageAssistantDelta, TypeMessageAssistantFinal,
	TypeMessageThinkingDelta, TypeMessageThinkingFinal, TypeMessageReasoning,
	TypeToolProposed, TypeToolStarted, TypeToolCompleted,
	TypeApprovalRequested, TypeApprovalResolved,
	TypeHandoffSent, TypeHandoffReported,
	TypeTelemetryUsage,
}

// Event is the envelope common to every event family. Payload carries
// the family-specific fields and is typed per-family below; callers
// should construct events with the New* helpers rather than populating
// Event directly, so Type and Payload always agree.
type Event struct {
	ID      string    `json:"id"`
	RunID   string    `json:"runId"`
	Ts      time.Time `json:"ts"`
	Type    Type      `json:"type"`
	// Payload is not encoded as a field of its own: MarshalJSON and
	// UnmarshalJSON flatten its fields into the envelope object.
	Payload Payload   `json:"-"`
}

// Payload is implemented by every family-specific payload type. The
// marker method exists only to make "which types can be a Payload" a
// closed, compiler-checked set.
type Payload interface {
	isPayload()
}

// --- run family -------------------------------------------------------

type RunPatch struct {
	Status     *model.RunStatus  `json:"status,omitempty"`
	GlobalMode *model.GlobalMode `json:"globalMode,omitempty"`
	TokenUsage *model.TokenUsage `json:"tokenUsage,omitempty"`
	UpdatedAt  *time.Time        `json:"updatedAt,omitempty"`
}

func (RunPatch) isPayload() {}

type RunMode struct {
	Mode model.OrchestrationMode `json:"mode"`
}

func (RunMode) isPayload() {}

type StallEvidenceKind string

const (
	StallOutputRepeat       StallEvidenceKind = "output-repeat"
	StallDiffRepeat         StallEvidenceKind = "diff-repeat"
	StallVerificationRepeat StallEvidenceKind = "verification-repeat"
)

type StallEvidence struct {
	Kind       StallEvidenceKind `json:"kind"`
	NodeID     string            `json:"nodeId"`
	SampleHash string            `json:"sampleHash"`
	Count      int               `json:"count"`
}

type RunStalled struct {
	Evidence StallEvidence `json:"evidence"`
}

func (RunStalled) isPayload() {}

// --- node family -------------------------------------------------------

// NodePatch is the authoritative state-mutating node event; every field
// is a partial update, nil meaning "unchanged". A node.patch carrying
// the identity fields (Label/RoleTemplate/Provider/Capabilities/
// Permissions/NativeToolHandling) for an id not yet in the projection
// is how a node comes into existence — spec.md's event family list has
// no separate "node.created" kind, so spawn_node emits a single patch
// with every field populated.
type NodePatch struct {
	NodeID             string                     `json:"nodeId"`
	Label              *string                    `json:"label,omitempty"`
	RoleTemplate       *string                    `json:"roleTemplate,omitempty"`
	Provider           *string                    `json:"provider,omitempty"`
	Capabilities       *model.Capabilities        `json:"capabilities,omitempty"`
	Permissions        *model.Permissions         `json:"permissions,omitempty"`
	NativeToolHandling *model.NativeToolHandling  `json:"nativeToolHandling,omitempty"`
	Status             *model.NodeStatus          `json:"status,omitempty"`
	Summary            *string                    `json:"summary,omitempty"`
	Connection         *model.ConnectionStatus    `json:"connection,omitempty"`
	Streaming          *bool                      `json:"streaming,omitempty"`
	InboxCount         *int                       `json:"inboxCount,omitempty"`
	TokenUsage         *model.TokenUsage          `json:"tokenUsage,omitempty"`
	Session            *model.SessionDescriptor   `json:"session,omitempty"`
	Todos              []model.Todo               `json:"todos,omitempty"`
	LastActivity       *time.Time                 `json:"lastActivity,omitempty"`
}

func (NodePatch) isPayload() {}

// NodeProgress carries the same payload shape as NodePatch but is
// advisory-only: it must never be folded into the projection.
type NodeProgress struct {
	NodePatch
}

func (NodeProgress) isPayload() {}

type NodeDeleted struct {
	NodeID string `json:"nodeId"`
}

func (NodeDeleted) isPayload() {}

// --- edge family -------------------------------------------------------

type EdgeCreated struct {
	Edge model.Edge `json:"edge"`
}

func (EdgeCreated) isPayload() {}

type EdgeDeleted struct {
	EdgeID string `json:"edgeId"`
}

func (EdgeDeleted) isPayload() {}

// --- artifact family -----------------------------------------------------

type ArtifactCreated struct {
	Artifact model.Artifact `json:"artifact"`
}

func (ArtifactCreated) isPayload() {}

// --- message family -----------------------------------------------------

type MessageUser struct {
	Message model.UserMessage `json:"message"`
}

func (MessageUser) isPayload() {}

type MessageAssistantDelta struct {
	NodeID string `json:"nodeId"`
	Delta  string `json:"delta"`
}

func (MessageAssistantDelta) isPayload() {}

type MessageAssistantFinal struct {
	NodeID    string           `json:"nodeId"`
	Content   string           `json:"content"`
	ToolCalls []model.ToolCall `json:"toolCalls,omitempty"`
}

func (MessageAssistantFinal) isPayload() {}

type MessageThinkingDelta struct {
	NodeID string `json:"nodeId"`
	Delta  string `json:"delta"`
}

func (MessageThinkingDelta) isPayload() {}

type MessageThinkingFinal struct {
	NodeID  string `json:"nodeId"`
	Content string `json:"content"`
}

func (MessageThinkingFinal) isPayload() {}

type MessageReasoning struct {
	NodeID  string `json:"nodeId"`
	Content string `json:"content"`
}

func (MessageReasoning) isPayload() {}

// --- tool family -------------------------------------------------------

type ToolProposed struct {
	NodeID   string         `json:"nodeId"`
	ToolCall model.ToolCall `json:"toolCall"`
}

func (ToolProposed) isPayload() {}

type ToolStarted struct {
	NodeID     string `json:"nodeId"`
	ToolCallID string `json:"toolCallId"`
}

func (ToolStarted) isPayload() {}

type ToolCompleted struct {
	NodeID     string      `json:"nodeId"`
	ToolCallID string      `json:"toolCallId"`
	OK         bool        `json:"ok"`
	Output     any         `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMS int64       `json:"durationMs"`
}

func (ToolCompleted) isPayload() {}

// --- approval family -----------------------------------------------------

type ApprovalRequested struct {
	Approval model.Approval `json:"approval"`
}

func (ApprovalRequested) isPayload() {}

type ApprovalResolved struct {
	ApprovalID string                     `json:"approvalId"`
	NodeID     string                     `json:"nodeId"`
	Resolution model.ApprovalResolution   `json:"resolution"`
}

func (ApprovalResolved) isPayload() {}

// --- handoff family -----------------------------------------------------

type HandoffSent struct {
	Envelope model.Envelope `json:"envelope"`
}

func (HandoffSent) isPayload() {}

type HandoffReported struct {
	Envelope model.Envelope `json:"envelope"`
}

func (HandoffReported) isPayload() {}

// --- telemetry family -----------------------------------------------------

type TelemetryUsage struct {
	NodeID string           `json:"nodeId"`
	Usage  model.TokenUsage `json:"usage"`
}

func (TelemetryUsage) isPayload() {}
