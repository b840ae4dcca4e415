// Package adapter implements the Provider Adapter contract (§4.3): the
// boundary between the Node Runner and whatever external coding-agent
// process or API backs a node. A Session is a long-lived conversation
// handle — started once per node, fed turns, and torn down on node
// deletion or run shutdown.
//
// The session-oriented shape (start/send/interrupt/resolveApproval/
// resetSession/close instead of a one-shot Run call) is new: it
// generalizes the teacher's one-shot AdapterRunner (internal/adapter
// in the corpus, ProcessGroupRunner.Run) to a conversation that spans
// many turns without restarting the underlying process or losing the
// provider's own session state.
package adapter

import (
	"context"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

// StartParams configures a session before its first turn.
type StartParams struct {
	RunID         string
	NodeID        string
	Provider      string
	Model         string
	WorkspacePath string
	SystemPrompt  string
	AllowedTools  []string
	DenyTools     []string
	Env           []string
	Timeout       time.Duration

	// ResumeSessionID reattaches to a provider-side session left by a
	// prior process (e.g. after an engine restart), when the provider
	// supports it. Empty starts fresh.
	ResumeSessionID string
}

// TurnInput is what the Runner hands the adapter to advance a turn: the
// envelopes and user messages drained from the node's inbox this tick,
// already composed into the prompt by the Runner (§4.4 "Prompt
// composition"). Adapters that speak a structured protocol may also
// want the raw values for metadata; adapters that only accept a flat
// string should use Prompt.
type TurnInput struct {
	Prompt    string
	Envelopes []model.Envelope
	Messages  []model.UserMessage
}

// Sink receives events as a session produces them. Event timestamps and
// ids are assigned by the caller (via event.New), not the adapter — the
// adapter only supplies the payload, keeping all adapters symmetric
// regardless of how the underlying provider timestamps things.
type Sink interface {
	Emit(payload event.Payload)
	Fail(err error)
}

// Session is a live conversation with a provider. Send must not be
// called again before the previous turn's assistant.final (or an
// error) has been delivered to the Sink; the Runner serializes this.
type Session interface {
	// Start establishes the session (spawns a process, opens a
	// connection, or simply records params for a lazy first Send,
	// depending on the adapter). Start may be called again after Close
	// to begin a fresh session for the same node.
	Start(ctx context.Context, params StartParams, sink Sink) error

	// Send advances the conversation by one turn.
	Send(ctx context.Context, turn TurnInput) error

	// Interrupt asks the in-flight turn, if any, to stop early. It is
	// not an error to call Interrupt when no turn is in flight.
	Interrupt(ctx context.Context) error

	// ResolveApproval forwards an operator's decision on a previously
	// proposed tool call back into the provider's turn, for adapters
	// whose underlying CLI performs its own tool-call gating natively
	// (§4.3 "Native tool handling").
	ResolveApproval(ctx context.Context, approvalID string, resolution model.ApprovalResolution) error

	// ResetSession discards provider-side conversation state (e.g. a
	// context-compaction command) while keeping the process alive,
	// when the provider supports it; otherwise it is equivalent to
	// Close followed by a fresh Start.
	ResetSession(ctx context.Context) error

	// SessionID returns the provider-assigned session handle, if any,
	// for persistence into model.SessionDescriptor.
	SessionID() string

	// Close tears the session down. It must be safe to call more than
	// once and from a different goroutine than the turn in flight.
	Close() error
}

// Factory constructs a Session for a provider name (the manifest's
// adapter id, e.g. "claude-subprocess", "mock", "http-chat").
type Factory func(provider string) (Session, error)
