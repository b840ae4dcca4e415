package adapter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/google/uuid"
)

// MockConfig scripts a MockSession's behavior, adapted from the
// corpus's MockAdapter/MockConfig (internal/adapter/mock.go) down from
// a one-shot Run() result to a per-turn scripted reply.
type MockConfig struct {
	Reply          string
	TokensUsed     int
	SimulatedDelay time.Duration
	ShouldFail     bool
	FailError      error
	ProposesTool   string          // if set, the turn also proposes a tool call by this name before the reply
	ToolCalls      []model.ToolCall // if set, these ride on message.assistant.final for engine-side dispatch
}

type MockOption func(*MockConfig)

func WithReply(reply string) MockOption           { return func(c *MockConfig) { c.Reply = reply } }
func WithMockTokens(tokens int) MockOption        { return func(c *MockConfig) { c.TokensUsed = tokens } }
func WithMockDelay(d time.Duration) MockOption    { return func(c *MockConfig) { c.SimulatedDelay = d } }
func WithMockFailure(err error) MockOption        { return func(c *MockConfig) { c.ShouldFail, c.FailError = true, err } }
func WithProposedTool(toolName string) MockOption { return func(c *MockConfig) { c.ProposesTool = toolName } }

// WithToolCalls scripts calls that arrive on message.assistant.final,
// the shape an engine-handled provider (NativeToolHandlingEngine) uses
// so a test can exercise the Runner's own tool queue processing.
func WithToolCalls(calls ...model.ToolCall) MockOption {
	return func(c *MockConfig) { c.ToolCalls = calls }
}

// MockSession is a Session that never shells out, for tests and for
// manifest providers declared with transport "mock".
type MockSession struct {
	cfg MockConfig

	mu        sync.Mutex
	params    StartParams
	sink      Sink
	sessionID string
}

func NewMockSession(opts ...MockOption) *MockSession {
	cfg := MockConfig{TokensUsed: 0}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MockSession{cfg: cfg}
}

func (m *MockSession) Start(ctx context.Context, params StartParams, sink Sink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = params
	m.sink = sink
	if m.sessionID == "" {
		m.sessionID = "mock-" + uuid.NewString()
	}
	return nil
}

func (m *MockSession) Send(ctx context.Context, turn TurnInput) error {
	if m.cfg.SimulatedDelay > 0 {
		select {
		case <-time.After(m.cfg.SimulatedDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.cfg.ShouldFail {
		if m.cfg.FailError != nil {
			return m.cfg.FailError
		}
		return fmt.Errorf("mock adapter: scripted failure")
	}

	m.mu.Lock()
	nodeID := m.params.NodeID
	sink := m.sink
	m.mu.Unlock()

	if m.cfg.ProposesTool != "" {
		call := model.ToolCall{ID: uuid.NewString(), Name: m.cfg.ProposesTool, Args: map[string]any{}}
		sink.Emit(event.ToolProposed{NodeID: nodeID, ToolCall: call})
	}

	reply := m.cfg.Reply
	if reply == "" {
		reply = fmt.Sprintf("mock reply to %d envelope(s), %d message(s)", len(turn.Envelopes), len(turn.Messages))
	}
	sink.Emit(event.MessageAssistantDelta{NodeID: nodeID, Delta: reply})
	sink.Emit(event.MessageAssistantFinal{NodeID: nodeID, Content: reply, ToolCalls: m.cfg.ToolCalls})

	tokens := m.cfg.TokensUsed
	if tokens == 0 {
		tokens = 200 + rand.Intn(600)
	}
	sink.Emit(event.TelemetryUsage{NodeID: nodeID, Usage: model.TokenUsage{
		PromptTokens:     int64(tokens / 2),
		CompletionTokens: int64(tokens - tokens/2),
		TotalTokens:      int64(tokens),
	}})
	return nil
}

func (m *MockSession) Interrupt(ctx context.Context) error { return nil }

func (m *MockSession) ResolveApproval(ctx context.Context, approvalID string, resolution model.ApprovalResolution) error {
	return nil
}

func (m *MockSession) ResetSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = "mock-" + uuid.NewString()
	return nil
}

func (m *MockSession) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

func (m *MockSession) Close() error { return nil }

// MockRegistry hands out a named MockSession per registered key so tests
// can script different nodes' behavior independently, adapted from the
// corpus's MockAdapterRegistry. Factory matches the key against the
// provider string it is called with; an unregistered provider gets a
// fresh default MockSession.
type MockRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*MockSession
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{sessions: make(map[string]*MockSession)}
}

func (r *MockRegistry) Register(nodeID string, session *MockSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[nodeID] = session
}

func (r *MockRegistry) Factory() Factory {
	return func(provider string) (Session, error) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		if s, ok := r.sessions[provider]; ok {
			return s, nil
		}
		return NewMockSession(), nil
	}
}
