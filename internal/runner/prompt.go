package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/agentgraph/agentgraph/internal/model"
)

// systemBlock is the fixed global context and tool protocol text sent
// to every provider regardless of role. It is intentionally terse: the
// provider's own tool-calling conventions (function-calling schema,
// stream-json tool_use blocks) carry the actual protocol; this block
// only states the ground rules the protocol can't express on its own.
const systemBlock = `You are one node in a graph of cooperating coding agents.
Other nodes may send you structured handoffs; you may send handoffs back via
the send_handoff tool. Tool calls that mutate the graph (spawn_node,
create_edge) are gated by your capabilities and may require operator
approval before they run.`

// modeBlock returns the PLANNING vs IMPLEMENTATION preamble (§4.3).
func modeBlock(mode model.GlobalMode) string {
	if mode == model.GlobalModePlanning {
		return "Mode: PLANNING. Do not modify files; produce a plan and stop for review."
	}
	return "Mode: IMPLEMENTATION. You may modify files and run commands within your capabilities."
}

// taskBlock renders run/node identity plus incoming messages and
// envelopes (§4.3 "Prompt composition").
func taskBlock(in TurnInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\nNode: %s (%s)\n", in.Run.ID, in.Node.ID, in.Node.Label)

	for _, m := range in.Messages {
		tag := "message"
		if m.Interrupt {
			tag = "interrupt"
		}
		fmt.Fprintf(&b, "\n[%s from %s]\n%s\n", tag, fallback(m.Role, "operator"), m.Content)
	}
	for _, e := range in.Envelopes {
		fmt.Fprintf(&b, "\n[handoff from %s]\n%s\n", e.FromNodeID, e.Payload.Message)
		if e.Payload.Response != nil && e.Payload.Response.Expectation == model.ResponseRequired {
			fmt.Fprintf(&b, "(awaiting your response; reply via send_handoff to %s)\n", e.FromNodeID)
		}
	}
	return b.String()
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// headerHash hashes the concatenation of system+role, the portion of
// the prompt a delta send can elide (§4.3).
func headerHash(system, role string) string {
	sum := sha256.Sum256([]byte(system + "\x00" + role))
	return hex.EncodeToString(sum[:])
}

// composePromptLocked builds this turn's prompt and decides whether it
// must be sent in full. Caller holds ns.mu.
func (r *Runner) composePromptLocked(ns *nodeSession, in TurnInput) (prompt string, kind promptKind, hash string) {
	hash = headerHash(systemBlock, ns.roleText)

	full := !ns.sentFull ||
		hash != ns.lastHeaderHash ||
		!ns.resumeSupported ||
		in.Node.Connection == model.ConnectionDisconnected

	mode := modeBlock(in.Run.GlobalMode)
	task := taskBlock(in)

	if !full {
		return mode + "\n\n" + task, promptDelta, hash
	}
	return systemBlock + "\n\n" + ns.roleText + "\n\n" + mode + "\n\n" + task, promptFull, hash
}
