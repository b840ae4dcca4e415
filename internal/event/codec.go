package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// MarshalJSON flattens {id, runId, ts, type} and the payload's own
// fields into one JSON object, per the wire format in §6.
func (e Event) MarshalJSON() ([]byte, error) {
	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("event: marshal payload: %w", err)
	}
	var payloadFields map[string]json.RawMessage
	if err := json.Unmarshal(payloadJSON, &payloadFields); err != nil {
		return nil, fmt.Errorf("event: payload is not a JSON object: %w", err)
	}

	out := map[string]json.RawMessage{}
	for k, v := range payloadFields {
		out[k] = v
	}
	idJSON, _ := json.Marshal(e.ID)
	runIDJSON, _ := json.Marshal(e.RunID)
	tsJSON, _ := json.Marshal(e.Ts)
	typeJSON, _ := json.Marshal(e.Type)
	out["id"] = idJSON
	out["runId"] = runIDJSON
	out["ts"] = tsJSON
	out["type"] = typeJSON

	return json.Marshal(out)
}

// UnmarshalJSON reconstructs Event, dispatching the payload into the
// concrete type registered for e.Type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var envelope struct {
		ID    string    `json:"id"`
		RunID string    `json:"runId"`
		Ts    time.Time `json:"ts"`
		Type  Type      `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("event: decode envelope: %w", err)
	}
	payload, err := decodePayload(envelope.Type, data)
	if err != nil {
		return err
	}

	e.ID = envelope.ID
	e.RunID = envelope.RunID
	e.Ts = envelope.Ts
	e.Type = envelope.Type
	e.Payload = payload
	return nil
}

// decodePayload unmarshals the full wire object into the payload type
// registered for typ. Every Type constant declared in this package must
// have an entry here; TestEveryKindRoundTrips (in event_test.go) asserts
// that at test time.
func decodePayload(typ Type, data []byte) (Payload, error) {
	switch typ {
	case TypeRunPatch:
		var p RunPatch
		return p, json.Unmarshal(data, &p)
	case TypeRunMode:
		var p RunMode
		return p, json.Unmarshal(data, &p)
	case TypeRunStalled:
		var p RunStalled
		return p, json.Unmarshal(data, &p)
	case TypeNodePatch:
		var p NodePatch
		return p, json.Unmarshal(data, &p)
	case TypeNodeProgress:
		var p NodeProgress
		return p, json.Unmarshal(data, &p)
	case TypeNodeDeleted:
		var p NodeDeleted
		return p, json.Unmarshal(data, &p)
	case TypeEdgeCreated:
		var p EdgeCreated
		return p, json.Unmarshal(data, &p)
	case TypeEdgeDeleted:
		var p EdgeDeleted
		return p, json.Unmarshal(data, &p)
	case TypeArtifactCreated:
		var p ArtifactCreated
		return p, json.Unmarshal(data, &p)
	case TypeMessageUser:
		var p MessageUser
		return p, json.Unmarshal(data, &p)
	case TypeMessageAssistantDelta:
		var p MessageAssistantDelta
		return p, json.Unmarshal(data, &p)
	case TypeMessageAssistantFinal:
		var p MessageAssistantFinal
		return p, json.Unmarshal(data, &p)
	case TypeMessageThinkingDelta:
		var p MessageThinkingDelta
		return p, json.Unmarshal(data, &p)
	case TypeMessageThinkingFinal:
		var p MessageThinkingFinal
		return p, json.Unmarshal(data, &p)
	case TypeMessageReasoning:
		var p MessageReasoning
		return p, json.Unmarshal(data, &p)
	case TypeToolProposed:
		var p ToolProposed
		return p, json.Unmarshal(data, &p)
	case TypeToolStarted:
		var p ToolStarted
		return p, json.Unmarshal(data, &p)
	case TypeToolCompleted:
		var p ToolCompleted
		return p, json.Unmarshal(data, &p)
	case TypeApprovalRequested:
		var p ApprovalRequested
		return p, json.Unmarshal(data, &p)
	case TypeApprovalResolved:
		var p ApprovalResolved
		return p, json.Unmarshal(data, &p)
	case TypeHandoffSent:
		var p HandoffSent
		return p, json.Unmarshal(data, &p)
	case TypeHandoffReported:
		var p HandoffReported
		return p, json.Unmarshal(data, &p)
	case TypeTelemetryUsage:
		var p TelemetryUsage
		return p, json.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("event: unknown event type %q", typ)
	}
}
