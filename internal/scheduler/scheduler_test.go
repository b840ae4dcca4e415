package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/agentgraph/agentgraph/internal/engine"
	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/manifest"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *engine.Registry {
	t.Helper()
	m := &manifest.Manifest{Providers: map[string]manifest.ProviderConfig{
		"mock": {Transport: "mock"},
	}}
	reg, err := engine.NewRegistry(t.TempDir(), m)
	require.NoError(t, err)
	return reg
}

func spawnIdleNode(t *testing.T, h *engine.RunHandle, nodeID string) {
	t.Helper()
	status := model.NodeStatusIdle
	connection := model.ConnectionIdle
	provider := "mock"
	perms := model.Permissions{PermissionsMode: model.PermissionsSkip}
	patch := event.NodePatch{
		NodeID:      nodeID,
		Status:      &status,
		Connection:  &connection,
		Provider:    &provider,
		Permissions: &perms,
	}
	require.NoError(t, h.Store.Publish(event.New(h.ID, patch)))
}

func TestTickDrivesRunnableNodeToCompletion(t *testing.T) {
	reg := testRegistry(t)
	h, err := reg.CreateRun(engine.CreateRunConfig{Cwd: t.TempDir()})
	require.NoError(t, err)

	spawnIdleNode(t, h, "node-1")
	h.Store.Runtime("node-1").EnqueueMessage(model.UserMessage{
		ID: "msg-1", RunID: h.ID, NodeID: "node-1", Role: "user", Content: "hello",
	})

	sched := New(reg, Config{Tick: time.Millisecond})
	sched.Tick(context.Background())

	snap := h.Store.Snapshot()
	node := snap.Nodes["node-1"]
	require.NotNil(t, node)
	assert.Equal(t, model.NodeStatusIdle, node.Status)
	assert.NotZero(t, node.TokenUsage.TotalTokens)
	assert.Equal(t, 0, node.InboxCount)
}

func TestTickSkipsNonRunningRun(t *testing.T) {
	reg := testRegistry(t)
	h, err := reg.CreateRun(engine.CreateRunConfig{Cwd: t.TempDir()})
	require.NoError(t, err)
	spawnIdleNode(t, h, "node-1")
	h.Store.Runtime("node-1").EnqueueMessage(model.UserMessage{ID: "m", RunID: h.ID, NodeID: "node-1", Role: "user", Content: "hi"})

	paused := model.RunStatusPaused
	require.NoError(t, h.Store.Publish(event.New(h.ID, event.RunPatch{Status: &paused})))

	sched := New(reg, Config{Tick: time.Millisecond})
	sched.Tick(context.Background())

	node := h.Store.Snapshot().Nodes["node-1"]
	assert.Equal(t, model.NodeStatusIdle, node.Status)
	assert.Equal(t, 1, h.Store.Runtime("node-1").InboxCount(), "inbox must not be drained on a paused run")
}

func TestPauseInterruptsRunningNodes(t *testing.T) {
	reg := testRegistry(t)
	h, err := reg.CreateRun(engine.CreateRunConfig{Cwd: t.TempDir()})
	require.NoError(t, err)
	spawnIdleNode(t, h, "node-1")

	running := model.NodeStatusRunning
	require.NoError(t, h.Store.Publish(event.New(h.ID, event.NodePatch{NodeID: "node-1", Status: &running})))

	require.NoError(t, Pause(context.Background(), h))

	node := h.Store.Snapshot().Nodes["node-1"]
	assert.Equal(t, model.NodeStatusIdle, node.Status)
	assert.Equal(t, "interrupted", node.Summary)
}

func TestResumeEnqueuesContinueMessageForInterruptedNodes(t *testing.T) {
	reg := testRegistry(t)
	h, err := reg.CreateRun(engine.CreateRunConfig{Cwd: t.TempDir()})
	require.NoError(t, err)
	spawnIdleNode(t, h, "node-1")
	interrupted := "interrupted"
	require.NoError(t, h.Store.Publish(event.New(h.ID, event.NodePatch{NodeID: "node-1", Summary: &interrupted})))

	Resume(h)

	envelopes, messages := h.Store.Runtime("node-1").DrainInbox()
	assert.Empty(t, envelopes)
	require.Len(t, messages, 1)
	assert.Equal(t, "Continue.", messages[0].Content)
}
