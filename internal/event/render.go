package event

import (
	"fmt"
	"io"
)

// typeColors maps event families to the same dim/cyan/yellow/green/red
// ANSI palette the teacher's terminal renderer used for pipeline states.
var typeColors = map[Type]string{
	TypeRunPatch:          "\033[36m",
	TypeRunStalled:        "\033[31m",
	TypeNodePatch:         "\033[33m",
	TypeMessageUser:       "\033[36m",
	TypeMessageAssistantFinal: "\033[32m",
	TypeToolProposed:      "\033[33m",
	TypeToolStarted:       "\033[33m",
	TypeToolCompleted:     "\033[32m",
	TypeApprovalRequested: "\033[35m",
	TypeApprovalResolved:  "\033[35m",
	TypeHandoffSent:       "\033[34m",
}

const (
	dim   = "\033[90m"
	reset = "\033[0m"
)

// RenderHumanReadable writes a compact single-line rendering of e to w,
// in the same dim-timestamp / colored-state / payload-summary shape the
// teacher's NDJSONEmitter used for its terminal output.
func RenderHumanReadable(w io.Writer, e Event) {
	color := typeColors[e.Type]
	if color == "" {
		color = reset
	}
	ts := e.Ts.Format("15:04:05")
	summary := summarize(e)
	fmt.Fprintf(w, "%s[%s]%s %s%-24s%s %s\n", dim, ts, reset, color, e.Type, reset, summary)
}

func summarize(e Event) string {
	switch p := e.Payload.(type) {
	case RunPatch:
		if p.Status != nil {
			return fmt.Sprintf("run=%s status=%s", e.RunID, *p.Status)
		}
		return fmt.Sprintf("run=%s", e.RunID)
	case RunStalled:
		return fmt.Sprintf("node=%s kind=%s count=%d", p.Evidence.NodeID, p.Evidence.Kind, p.Evidence.Count)
	case NodePatch:
		if p.Status != nil {
			return fmt.Sprintf("node=%s status=%s", p.NodeID, *p.Status)
		}
		return fmt.Sprintf("node=%s", p.NodeID)
	case MessageUser:
		return fmt.Sprintf("node=%s %q", p.Message.NodeID, truncate(p.Message.Content, 60))
	case MessageAssistantFinal:
		return fmt.Sprintf("node=%s %q", p.NodeID, truncate(p.Content, 60))
	case ToolProposed:
		return fmt.Sprintf("node=%s tool=%s", p.NodeID, p.ToolCall.Name)
	case ToolCompleted:
		return fmt.Sprintf("node=%s tool=%s ok=%v", p.NodeID, p.ToolCallID, p.OK)
	case ApprovalRequested:
		return fmt.Sprintf("node=%s approval=%s tool=%s", p.Approval.NodeID, p.Approval.ID, p.Approval.ToolCall.Name)
	case ApprovalResolved:
		return fmt.Sprintf("node=%s approval=%s kind=%s", p.NodeID, p.ApprovalID, p.Resolution.Kind)
	case HandoffSent:
		return fmt.Sprintf("from=%s to=%s", p.Envelope.FromNodeID, p.Envelope.ToNodeID)
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
