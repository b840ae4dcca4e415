package event

import (
	"time"

	"github.com/google/uuid"
)

// New constructs an Event with a fresh id and the current timestamp.
// The clock is injectable via NewAt for deterministic tests.
func New(runID string, payload Payload) Event {
	return NewAt(runID, payload, time.Now())
}

// NewAt constructs an Event with a fresh id and an explicit timestamp.
func NewAt(runID string, payload Payload, ts time.Time) Event {
	return Event{
		ID:      uuid.NewString(),
		RunID:   runID,
		Ts:      ts,
		Type:    typeOf(payload),
		Payload: payload,
	}
}

// typeOf returns the Type tag for a concrete payload value. Every
// Payload implementation must be listed here; event_test.go asserts
// this switch and decodePayload's switch stay in sync with Kinds.
func typeOf(p Payload) Type {
	switch p.(type) {
	case RunPatch:
		return TypeRunPatch
	case RunMode:
		return TypeRunMode
	case RunStalled:
		return TypeRunStalled
	case NodePatch:
		return TypeNodePatch
	case NodeProgress:
		return TypeNodeProgress
	case NodeDeleted:
		return TypeNodeDeleted
	case EdgeCreated:
		return TypeEdgeCreated
	case EdgeDeleted:
		return TypeEdgeDeleted
	case ArtifactCreated:
		return TypeArtifactCreated
	case MessageUser:
		return TypeMessageUser
	case MessageAssistantDelta:
		return TypeMessageAssistantDelta
	case MessageAssistantFinal:
		return TypeMessageAssistantFinal
	case MessageThinkingDelta:
		return TypeMessageThinkingDelta
	case MessageThinkingFinal:
		return TypeMessageThinkingFinal
	case MessageReasoning:
		return TypeMessageReasoning
	case ToolProposed:
		return TypeToolProposed
	case ToolStarted:
		return TypeToolStarted
	case ToolCompleted:
		return TypeToolCompleted
	case ApprovalRequested:
		return TypeApprovalRequested
	case ApprovalResolved:
		return TypeApprovalResolved
	case HandoffSent:
		return TypeHandoffSent
	case HandoffReported:
		return TypeHandoffReported
	case TelemetryUsage:
		return TypeTelemetryUsage
	default:
		panic("event: unregistered payload type")
	}
}
