package store

import (
	"context"

	"github.com/agentgraph/agentgraph/internal/model"
)

// NodeRuntime holds the per-node ephemeral state the projection does
// not cover: the envelope inbox, the user-message queue, the scheduler
// resume flags, and the cancellation handle for in-flight provider
// work. None of this is derived by folding events — it is runtime-only
// and is empty again after a cold restart (§3 "Persistence").
type NodeRuntime struct {
	EnvelopeInbox    []model.Envelope
	MessageQueue     []model.UserMessage
	PendingTurn      bool
	AutoPromptQueued bool

	// ToolProposed caches which tool-call ids have already had a
	// tool.proposed event emitted, so a resume after approval doesn't
	// duplicate it (§4.3 "Tool queue processing", step 1).
	ToolProposed map[string]bool

	// Cancel cancels any in-flight adapter work for this node, derived
	// from the owning run's cancel handle (§5 "Cancellation & timeouts").
	Cancel context.CancelFunc
}

// newNodeRuntime returns a zeroed runtime record for a node.
func newNodeRuntime() *NodeRuntime {
	return &NodeRuntime{ToolProposed: make(map[string]bool)}
}

// InboxCount returns the combined count the Store must reflect in the
// node's persisted inboxCount field (§8 invariant 3).
func (r *NodeRuntime) InboxCount() int {
	return len(r.EnvelopeInbox) + len(r.MessageQueue)
}

// Runnable reports whether a node with this runtime and projection
// status is eligible for the next scheduler tick (§4.2 "Runnable
// predicate").
func Runnable(n *model.Node, rt *NodeRuntime) bool {
	if n.Status != model.NodeStatusIdle {
		return false
	}
	if n.Connection == model.ConnectionDisconnected {
		return false
	}
	return len(rt.EnvelopeInbox) > 0 ||
		len(rt.MessageQueue) > 0 ||
		rt.PendingTurn ||
		rt.AutoPromptQueued
}

// EnqueueEnvelope appends env to the inbox. Interrupt semantics do not
// apply to envelopes, only to user messages.
func (r *NodeRuntime) EnqueueEnvelope(env model.Envelope) {
	r.EnvelopeInbox = append(r.EnvelopeInbox, env)
}

// EnqueueMessage appends msg to the message queue, placing interrupting
// messages at the head (§3 "UserMessage").
func (r *NodeRuntime) EnqueueMessage(msg model.UserMessage) {
	if msg.Interrupt {
		r.MessageQueue = append([]model.UserMessage{msg}, r.MessageQueue...)
		return
	}
	r.MessageQueue = append(r.MessageQueue, msg)
}

// DrainInbox removes and returns every pending envelope and message,
// with interrupt messages having already been sorted to the front by
// EnqueueMessage. Called at the start of a non-resuming turn (§4.2 step 2).
func (r *NodeRuntime) DrainInbox() ([]model.Envelope, []model.UserMessage) {
	envelopes := r.EnvelopeInbox
	messages := r.MessageQueue
	r.EnvelopeInbox = nil
	r.MessageQueue = nil
	return envelopes, messages
}
