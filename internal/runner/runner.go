// Package runner implements the Node Runner (§4.3): the component that
// owns one ProviderSession per node, composes prompts, drives a turn
// through the provider adapter, and processes the resulting tool queue
// up to the next approval suspension or terminal outcome.
//
// The overall shape — a per-entity cached session, a signal sink read
// until a terminal signal, and explicit session lifecycle commands
// (reset/interrupt/close) — is grounded on the teacher's
// internal/pipeline executor, which drives one step's adapter call to
// completion inside a single goroutine per step; here the same idea is
// stretched across many turns of one long-lived session instead of one
// request per step.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentgraph/agentgraph/internal/adapter"
	"github.com/agentgraph/agentgraph/internal/approval"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/store"
)

// ProviderSpec resolves a node's provider into the parameters needed to
// start an adapter session. internal/manifest.Resolver produces it from
// a loaded graph.yaml and satisfies Resolver.
type ProviderSpec struct {
	Binary          string
	ResumeSupported bool // false means the protocol is stateless: always send full prompt
}

// Resolver looks up provider wiring and role-template text for a node.
type Resolver interface {
	ProviderSpec(provider string) (ProviderSpec, error)
	RoleTemplate(roleTemplate string) (string, error)
}

// ToolExecutor runs a single tool call against a node's workspace or
// graph-mutation handlers (§4.4). Implemented by internal/tools. Run is
// passed alongside Node because workspace tools execute against the
// run's cwd and graph-mutating tools need the run id to address the
// Store.
type ToolExecutor interface {
	Execute(ctx context.Context, run model.Run, node *model.Node, call model.ToolCall) (ok bool, output any, execErr string)
}

// Runner owns every node's cached ProviderSession and drives turns.
type Runner struct {
	store     *store.Store
	adapters  adapter.Factory
	resolver  Resolver
	tools     ToolExecutor
	approvals *approval.Queue

	mu       sync.Mutex
	sessions map[string]*nodeSession
}

// New constructs a Runner. approvals may be nil only in tests that never
// exercise a gated permissions mode.
func New(st *store.Store, adapters adapter.Factory, resolver Resolver, tools ToolExecutor, approvals *approval.Queue) *Runner {
	return &Runner{
		store:     st,
		adapters:  adapters,
		resolver:  resolver,
		tools:     tools,
		approvals: approvals,
		sessions:  make(map[string]*nodeSession),
	}
}

// TurnOutcomeKind is the discriminant of TurnResult, per §4.3.
type TurnOutcomeKind string

const (
	OutcomeCompleted   TurnOutcomeKind = "completed"
	OutcomeBlocked     TurnOutcomeKind = "blocked"
	OutcomeInterrupted TurnOutcomeKind = "interrupted"
	OutcomeFailed      TurnOutcomeKind = "failed"
)

// TurnInput is the Scheduler's argument to RunTurn.
type TurnInput struct {
	Run       model.Run
	Node      model.Node
	Envelopes []model.Envelope
	Messages  []model.UserMessage
}

// TurnResult is the Scheduler's view of a completed RunTurn call.
type TurnResult struct {
	Kind                TurnOutcomeKind
	Message             string
	Summary             string
	OutputHash          string
	DiffHash            string
	VerificationFailure bool
	Approval            *model.Approval
	Err                 error
}

func (r *Runner) sessionFor(nodeID string) *nodeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[nodeID]
	if !ok {
		s = &nodeSession{}
		r.sessions[nodeID] = s
	}
	return s
}

// RunTurn executes one turn for a node, per §4.3. The scheduler has
// already marked the node running and drained its inbox (unless a
// pendingTurn resume is in progress, in which case envelopes/messages
// are empty and ignored).
func (r *Runner) RunTurn(ctx context.Context, in TurnInput) TurnResult {
	ns := r.sessionFor(in.Node.ID)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.pending != nil {
		return r.resumePendingLocked(ctx, ns, in)
	}

	if err := r.ensureStartedLocked(ctx, ns, in); err != nil {
		return TurnResult{Kind: OutcomeFailed, Err: err, Summary: "adapter start failed"}
	}

	prompt, kind, headerHash := r.composePromptLocked(ns, in)

	sink := &runnerSink{runID: in.Run.ID, nodeID: in.Node.ID, st: r.store}
	turnInput := adapter.TurnInput{Prompt: prompt, Envelopes: in.Envelopes, Messages: in.Messages}

	err := ns.session.Send(ctx, turnInput)
	if ctx.Err() != nil {
		return TurnResult{Kind: OutcomeInterrupted, Message: sink.partial(), Summary: "interrupted"}
	}
	if err != nil {
		return TurnResult{Kind: OutcomeFailed, Err: err, Summary: "adapter send failed"}
	}

	if kind == promptFull {
		ns.sentFull = true
	}
	ns.lastHeaderHash = headerHash
	ns.lastSessionID = ns.session.SessionID()

	if sink.final == nil {
		return TurnResult{Kind: OutcomeFailed, Err: fmt.Errorf("runner: adapter returned no final message"), Summary: "no final message"}
	}

	toolCalls := dedupToolCalls(sink.final.ToolCalls)
	if len(toolCalls) == 0 {
		return r.finishTurnLocked(in, sink.final.Content, "", false)
	}

	ns.pending = &pendingTurn{
		queue:    toolCalls,
		message:  sink.final.Content,
		proposed: map[string]bool{},
	}
	return r.drainToolQueueLocked(ctx, ns, in)
}

func (r *Runner) ensureStartedLocked(ctx context.Context, ns *nodeSession, in TurnInput) error {
	if ns.session != nil {
		return nil
	}
	spec, err := r.resolver.ProviderSpec(in.Node.Provider)
	if err != nil {
		return fmt.Errorf("runner: resolving provider %q: %w", in.Node.Provider, err)
	}
	sess, err := r.adapters(in.Node.Provider)
	if err != nil {
		return fmt.Errorf("runner: building adapter for %q: %w", in.Node.Provider, err)
	}
	ns.resumeSupported = spec.ResumeSupported
	ns.session = sess

	role, err := r.resolver.RoleTemplate(in.Node.RoleTemplate)
	if err != nil {
		role = ""
	}
	ns.roleText = role

	startSink := &runnerSink{runID: in.Run.ID, nodeID: in.Node.ID, st: r.store}
	params := adapter.StartParams{
		RunID:           in.Run.ID,
		NodeID:          in.Node.ID,
		Provider:        in.Node.Provider,
		WorkspacePath:   in.Run.Cwd,
		ResumeSessionID: in.Node.Session.SessionID,
	}
	if err := sess.Start(ctx, params, startSink); err != nil {
		ns.session = nil
		return err
	}
	return nil
}

// Close drains and tears down a node's session (§4.3 "Session
// commands": closeNode).
func (r *Runner) Close(ctx context.Context, nodeID string) error {
	r.mu.Lock()
	ns, ok := r.sessions[nodeID]
	delete(r.sessions, nodeID)
	r.mu.Unlock()
	if r.approvals != nil {
		r.approvals.DropForNode(nodeID)
	}
	if !ok || ns.session == nil {
		return nil
	}
	return ns.session.Close()
}

// Reset clears a node's adapter session so the next turn sends a full
// prompt (§4.3 "Session commands": resetSession).
func (r *Runner) Reset(ctx context.Context, nodeID string) error {
	ns := r.sessionFor(nodeID)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.session == nil {
		return nil
	}
	if err := ns.session.ResetSession(ctx); err != nil {
		return err
	}
	ns.sentFull = false
	ns.lastHeaderHash = ""
	ns.pending = nil
	return nil
}

// Interrupt calls adapter.Interrupt() for a running node (§4.3 "Session
// commands": interruptNode).
func (r *Runner) Interrupt(ctx context.Context, nodeID string) error {
	ns := r.sessionFor(nodeID)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.session == nil {
		return nil
	}
	return ns.session.Interrupt(ctx)
}

// ResolveApproval feeds an operator decision back into a node's
// suspended tool queue; the scheduler's next RunTurn call for this node
// resumes processing (§4.5).
func (r *Runner) ResolveApproval(nodeID, approvalID string, resolution model.ApprovalResolution) error {
	ns := r.sessionFor(nodeID)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.pending == nil {
		return nil
	}
	ns.pending.resolution = &resolution
	return nil
}

func dedupToolCalls(calls []model.ToolCall) []model.ToolCall {
	seen := make(map[string]bool, len(calls))
	out := make([]model.ToolCall, 0, len(calls))
	for _, c := range calls {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
