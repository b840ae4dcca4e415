package runner

import (
	"strings"
	"sync"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/store"
)

// runnerSink implements adapter.Sink for one RunTurn call. Deltas and
// provider-native tool events are republished onto the run's event bus
// as they arrive, so subscribers see live progress; the final message
// and usage are captured for the Runner's own decision point (§4.3).
type runnerSink struct {
	runID  string
	nodeID string
	st     *store.Store

	mu sync.Mutex

	partialBuf strings.Builder
	final      *event.MessageAssistantFinal
	usage      model.TokenUsage
	failErr    error

	// proposedViaProvider collects tool calls the adapter itself both
	// proposed and executed (NativeToolHandlingProvider): the Runner's
	// own tool queue must never re-run these.
	proposedViaProvider []model.ToolCall
}

func (s *runnerSink) Emit(p event.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := p.(type) {
	case event.MessageAssistantDelta:
		s.partialBuf.WriteString(v.Delta)
		s.publish(v)
	case event.MessageAssistantFinal:
		s.final = &v
		s.publish(v)
	case event.MessageThinkingDelta:
		s.publish(v)
	case event.MessageThinkingFinal:
		s.publish(v)
	case event.TelemetryUsage:
		s.usage = s.usage.Add(v.Usage)
		s.publish(v)
	case event.ToolProposed:
		s.proposedViaProvider = append(s.proposedViaProvider, v.ToolCall)
		s.publish(v)
	case event.ToolStarted:
		s.publish(v)
	case event.ToolCompleted:
		s.publish(v)
	}
}

func (s *runnerSink) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *runnerSink) partial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partialBuf.String()
}

// publish forwards a payload the Runner does not own onto the run's
// event log, best-effort: a publish failure here is logged by Store
// itself and must never abort an in-flight turn.
func (s *runnerSink) publish(payload event.Payload) {
	if s.st == nil {
		return
	}
	_ = s.st.Publish(event.New(s.runID, payload))
}
