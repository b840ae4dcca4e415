package runner

import (
	"sync"

	"github.com/agentgraph/agentgraph/internal/adapter"
	"github.com/agentgraph/agentgraph/internal/model"
)

type promptKind int

const (
	promptFull promptKind = iota
	promptDelta
)

// pendingTurn preserves tool-queue state across an approval suspension
// (§4.3 "Resuming from approval"). It lives on the nodeSession, not the
// Runner, since it is scoped to the node's current session.
type pendingTurn struct {
	queue    []model.ToolCall
	message  string
	toolErrs []string
	proposed map[string]bool

	// lastDiff and verificationFailure feed the stall detector's
	// per-turn signals (§4.6); lastDiff is empty unless a tool's output
	// was recognized as unified-diff-shaped.
	lastDiff            string
	verificationFailure bool

	// resolution is set by ResolveApproval and consumed by the next
	// RunTurn call that resumes this pending turn.
	resolution *model.ApprovalResolution
}

// nodeSession is the Runner's per-node cached state: the adapter
// session handle, the prompt-kind memory from §4.3 "Prompt
// composition", and any suspended tool queue.
type nodeSession struct {
	mu sync.Mutex

	session         adapter.Session
	roleText        string
	resumeSupported bool

	sentFull       bool
	lastHeaderHash string
	lastSessionID  string

	pending *pendingTurn
}
