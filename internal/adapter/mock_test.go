package adapter

import (
	"context"
	"testing"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []event.Payload
	errs   []error
}

func (r *recordingSink) Emit(p event.Payload) { r.events = append(r.events, p) }
func (r *recordingSink) Fail(err error)       { r.errs = append(r.errs, err) }

func TestMockSessionEmitsReplyAndUsage(t *testing.T) {
	m := NewMockSession(WithReply("done"), WithMockTokens(100))
	sink := &recordingSink{}
	require.NoError(t, m.Start(context.Background(), StartParams{NodeID: "n1"}, sink))

	require.NoError(t, m.Send(context.Background(), TurnInput{Prompt: "go"}))

	var sawFinal, sawUsage bool
	for _, e := range sink.events {
		switch p := e.(type) {
		case event.MessageAssistantFinal:
			sawFinal = true
			assert.Equal(t, "done", p.Content)
		case event.TelemetryUsage:
			sawUsage = true
			assert.Equal(t, int64(100), p.Usage.TotalTokens)
		}
	}
	assert.True(t, sawFinal)
	assert.True(t, sawUsage)
}

func TestMockSessionScriptedFailure(t *testing.T) {
	m := NewMockSession(WithMockFailure(assert.AnError))
	sink := &recordingSink{}
	require.NoError(t, m.Start(context.Background(), StartParams{NodeID: "n1"}, sink))

	err := m.Send(context.Background(), TurnInput{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMockSessionProposesTool(t *testing.T) {
	m := NewMockSession(WithProposedTool("read_file"))
	sink := &recordingSink{}
	require.NoError(t, m.Start(context.Background(), StartParams{NodeID: "n1"}, sink))
	require.NoError(t, m.Send(context.Background(), TurnInput{}))

	require.IsType(t, event.ToolProposed{}, sink.events[0])
	assert.Equal(t, "read_file", sink.events[0].(event.ToolProposed).ToolCall.Name)
}

func TestMockRegistryReturnsRegisteredSessionByProvider(t *testing.T) {
	reg := NewMockRegistry()
	scripted := NewMockSession(WithReply("special"))
	reg.Register("n1", scripted)

	factory := reg.Factory()
	s, err := factory("n1")
	require.NoError(t, err)
	assert.Same(t, scripted, s)

	generic, err := factory("n2")
	require.NoError(t, err)
	assert.NotSame(t, scripted, generic)
}

func TestResetSessionIssuesNewSessionID(t *testing.T) {
	m := NewMockSession()
	sink := &recordingSink{}
	require.NoError(t, m.Start(context.Background(), StartParams{NodeID: "n1"}, sink))
	first := m.SessionID()

	require.NoError(t, m.ResetSession(context.Background()))
	assert.NotEqual(t, first, m.SessionID())
}
