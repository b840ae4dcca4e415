// Package scheduler implements the Scheduler (§4.2): a cooperative tick
// loop that enumerates every active run, finds each run's runnable
// nodes, and drives one Runner turn per node per tick. It is the
// component that makes internal/runner.Runner.RunTurn reachable from a
// running process — nothing else in the engine calls it.
//
// The "single ticker goroutine fanning bounded work out per tick" shape
// is grounded on the teacher's internal/relay.RelayMonitor (a periodic
// check loop) combined with golang.org/x/sync/errgroup for the
// per-tick node fan-out, exactly as named in SPEC_FULL.md's DOMAIN
// STACK table.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/agentgraph/agentgraph/internal/engine"
	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/loopsafety"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/runner"
	"golang.org/x/sync/errgroup"
)

// DefaultTick is the scheduler's fixed tick period (§4.2).
const DefaultTick = 250 * time.Millisecond

// orchestratorRole is the role-template name by which a node is
// recognized as an orchestrator for the AUTO-mode self-continuation
// rule (§4.2 step 6). spec.md leaves "orchestrator-role node"
// undefined beyond this convention; §9's open questions name this
// exact ambiguity, resolved here and recorded in DESIGN.md.
const orchestratorRole = "orchestrator"

// Scheduler drives every active run's nodes forward one tick at a time.
type Scheduler struct {
	registry       *engine.Registry
	tick           time.Duration
	stallThreshold int

	mu       sync.Mutex
	counters map[string]map[string]loopsafety.Counters // runID -> nodeID -> counters
}

// Config configures a Scheduler. Zero values take spec defaults.
type Config struct {
	Tick           time.Duration
	StallThreshold int
}

// New builds a Scheduler over registry.
func New(registry *engine.Registry, cfg Config) *Scheduler {
	tick := cfg.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	threshold := cfg.StallThreshold
	if threshold <= 0 {
		threshold = loopsafety.DefaultThreshold
	}
	return &Scheduler{
		registry:       registry,
		tick:           tick,
		stallThreshold: threshold,
		counters:       make(map[string]map[string]loopsafety.Counters),
	}
}

// Run blocks, ticking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs exactly one scheduling pass over every active run. Exported
// so tests can drive the scheduler without waiting on the ticker.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, h := range s.registry.List() {
		h := h
		run := h.Store.Snapshot().Run
		if run.Status != model.RunStatusRunning {
			continue
		}
		s.tickRun(ctx, h)
	}
}

// tickRun dispatches one turn for every runnable node in h, bounding
// per-tick fan-out with an errgroup (§5 "turn execution ... yields at
// every suspension point; concurrency across nodes arises from
// overlapping turns").
func (s *Scheduler) tickRun(ctx context.Context, h *engine.RunHandle) {
	nodeIDs := h.Store.RunnableNodeIDs()
	if len(nodeIDs) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nodeID := range nodeIDs {
		nodeID := nodeID
		g.Go(func() error {
			s.dispatchNode(gctx, h, nodeID)
			return nil
		})
	}
	_ = g.Wait()
}

// dispatchNode performs the six-step turn dispatch of §4.2 for one
// node. Errors are never propagated past this boundary (§7
// "Propagation policy"); any failure becomes a synthetic failed turn.
func (s *Scheduler) dispatchNode(ctx context.Context, h *engine.RunHandle, nodeID string) {
	snap := h.Store.Snapshot()
	node, ok := snap.Nodes[nodeID]
	if !ok {
		return
	}
	run := snap.Run

	// Step 1: mark running, emit node.patch + node.progress.
	runningStatus := model.NodeStatusRunning
	now := time.Now()
	patch := event.NodePatch{NodeID: nodeID, Status: &runningStatus, LastActivity: &now}
	if err := h.Store.Publish(event.New(run.ID, patch)); err != nil {
		log.Printf("scheduler: publish node running for %s: %v", nodeID, err)
		return
	}
	if err := h.Store.Publish(event.New(run.ID, event.NodeProgress{NodePatch: patch})); err != nil {
		log.Printf("scheduler: publish node.progress for %s: %v", nodeID, err)
	}

	rt := h.Store.Runtime(nodeID)
	resuming := rt.PendingTurn
	var envelopes []model.Envelope
	var messages []model.UserMessage
	if !resuming {
		envelopes, messages = rt.DrainInbox()
		zero := 0
		if err := h.Store.Publish(event.New(run.ID, event.NodePatch{NodeID: nodeID, InboxCount: &zero})); err != nil {
			log.Printf("scheduler: publish inbox reset for %s: %v", nodeID, err)
		}
	}
	rt.PendingTurn = false
	rt.AutoPromptQueued = false

	// Step 3: invoke the Runner.
	result := h.Runner.RunTurn(ctx, runner.TurnInput{Run: run, Node: *node, Envelopes: envelopes, Messages: messages})

	// Step 4: apply the outcome.
	s.applyOutcome(h, run, node, result)

	// Step 5: loop-safety, only meaningful after a completed turn.
	stalled := false
	if result.Kind == runner.OutcomeCompleted {
		stalled = s.applyLoopSafety(h, run.ID, nodeID, result)
	}

	// Step 6: AUTO-mode orchestrator self-continuation.
	if result.Kind == runner.OutcomeCompleted && !stalled &&
		node.RoleTemplate == orchestratorRole && run.Mode == model.ModeAuto {
		rt.AutoPromptQueued = true
	}
}

func (s *Scheduler) applyOutcome(h *engine.RunHandle, run model.Run, node *model.Node, result runner.TurnResult) {
	now := time.Now()
	var status model.NodeStatus
	summary := result.Summary

	switch result.Kind {
	case runner.OutcomeCompleted:
		status = model.NodeStatusIdle
	case runner.OutcomeBlocked:
		status = model.NodeStatusBlocked
	case runner.OutcomeInterrupted:
		status = model.NodeStatusIdle
		if summary == "" {
			summary = "interrupted"
		}
	case runner.OutcomeFailed:
		status = model.NodeStatusFailed
		if summary == "" && result.Err != nil {
			summary = result.Err.Error()
		}
	default:
		status = model.NodeStatusFailed
		summary = fmt.Sprintf("unknown turn outcome %q", result.Kind)
	}

	patch := event.NodePatch{NodeID: node.ID, Status: &status, LastActivity: &now}
	if summary != "" {
		patch.Summary = &summary
	}
	if err := h.Store.Publish(event.New(run.ID, patch)); err != nil {
		log.Printf("scheduler: publish outcome for %s: %v", node.ID, err)
	}
}

func verificationHash(result runner.TurnResult) string {
	if result.VerificationFailure {
		return "verification-failure"
	}
	return ""
}

// applyLoopSafety implements §4.6: update the node's stall counters and,
// if any crossed threshold, pause the run and block the node. Returns
// true iff a stall was detected this turn.
func (s *Scheduler) applyLoopSafety(h *engine.RunHandle, runID, nodeID string, result runner.TurnResult) bool {
	s.mu.Lock()
	if s.counters[runID] == nil {
		s.counters[runID] = make(map[string]loopsafety.Counters)
	}
	prev := s.counters[runID][nodeID]
	next, evidence := loopsafety.UpdateStallState(prev, result.OutputHash, result.DiffHash, verificationHash(result), s.stallThreshold)
	s.counters[runID][nodeID] = next
	s.mu.Unlock()

	if evidence == nil {
		return false
	}

	pausedStatus := model.RunStatusPaused
	if err := h.Store.Publish(event.New(runID, event.RunPatch{Status: &pausedStatus})); err != nil {
		log.Printf("scheduler: publish run paused for %s: %v", runID, err)
	}
	if err := h.Store.Publish(event.New(runID, event.RunStalled{Evidence: event.StallEvidence{
		Kind:       event.StallEvidenceKind(evidence.Kind),
		NodeID:     nodeID,
		SampleHash: evidence.SampleHash,
		Count:      evidence.Count,
	}})); err != nil {
		log.Printf("scheduler: publish run.stalled for %s: %v", runID, err)
	}

	blockedStatus := model.NodeStatusBlocked
	stalledSummary := "stalled"
	if err := h.Store.Publish(event.New(runID, event.NodePatch{NodeID: nodeID, Status: &blockedStatus, Summary: &stalledSummary})); err != nil {
		log.Printf("scheduler: publish node stalled for %s: %v", nodeID, err)
	}
	return true
}

// Pause implements updateRun(status=paused) (§6): stop starting new
// turns on the run (the caller is responsible for flipping run.status;
// Tick already skips non-running runs) and interrupt every node that
// is currently running, transitioning it to idle with summary
// "interrupted" (§4.2 "Pause / stop semantics").
func Pause(ctx context.Context, h *engine.RunHandle) error {
	snap := h.Store.Snapshot()
	for nodeID, n := range snap.Nodes {
		if n.Status != model.NodeStatusRunning {
			continue
		}
		if err := h.Runner.Interrupt(ctx, nodeID); err != nil {
			log.Printf("scheduler: interrupt %s on pause: %v", nodeID, err)
		}
		idle := model.NodeStatusIdle
		summary := "interrupted"
		if err := h.Store.Publish(event.New(snap.Run.ID, event.NodePatch{NodeID: nodeID, Status: &idle, Summary: &summary})); err != nil {
			return err
		}
	}
	return nil
}

// Resume implements updateRun(status=running) after a pause: every node
// left "interrupted" receives a synthetic "Continue." user message so
// its next tick picks it back up (§6 updateRun, §4.2).
func Resume(h *engine.RunHandle) {
	snap := h.Store.Snapshot()
	for nodeID, n := range snap.Nodes {
		if n.Summary != "interrupted" {
			continue
		}
		rt := h.Store.Runtime(nodeID)
		rt.EnqueueMessage(model.UserMessage{
			ID:        "msg-continue-" + nodeID,
			RunID:     snap.Run.ID,
			NodeID:    nodeID,
			Role:      "user",
			Content:   "Continue.",
			CreatedAt: time.Now(),
		})
	}
}
