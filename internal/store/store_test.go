package store

import (
	"path/filepath"
	"testing"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAppendsFoldsAndNotifies(t *testing.T) {
	dir := t.TempDir()
	s, err := New(model.Run{ID: "run-1"}, Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	var received []event.Type
	s.Subscribe(func(e event.Event) { received = append(received, e.Type) })

	status := model.RunStatusRunning
	require.NoError(t, s.Publish(event.New("run-1", event.RunPatch{Status: &status})))

	snap := s.Snapshot()
	assert.Equal(t, model.RunStatusRunning, snap.Run.Status)
	assert.Equal(t, []event.Type{event.TypeRunPatch}, received)

	events, err := event.ReadAllFrom(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestSnapshotRestoreThenFoldNoNewEventsMatchesLive(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenSnapshotCache(filepath.Join(dir, "snapshots.db"))
	require.NoError(t, err)
	defer cache.Close()

	s, err := New(model.Run{ID: "run-1"}, Options{Dir: dir, Snapshots: cache})
	require.NoError(t, err)

	status := model.NodeStatusIdle
	require.NoError(t, s.Publish(event.New("run-1", event.NodePatch{NodeID: "a", Status: &status})))
	require.NoError(t, s.Publish(event.New("run-1", event.NodePatch{NodeID: "b", Status: &status})))
	liveSnapshot := s.Snapshot()
	require.NoError(t, s.Close())

	restored, err := Open("run-1", Options{Dir: dir, Snapshots: cache})
	require.NoError(t, err)
	defer restored.Close()

	restoredSnapshot := restored.Snapshot()
	assert.Equal(t, len(liveSnapshot.Nodes), len(restoredSnapshot.Nodes))
	assert.Contains(t, restoredSnapshot.Nodes, "a")
	assert.Contains(t, restoredSnapshot.Nodes, "b")
}

func TestOpenFallsBackToReplayWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := New(model.Run{ID: "run-1"}, Options{Dir: dir})
	require.NoError(t, err)

	status := model.NodeStatusIdle
	require.NoError(t, s.Publish(event.New("run-1", event.NodePatch{NodeID: "a", Status: &status})))
	require.NoError(t, s.Close())

	restored, err := Open("run-1", Options{Dir: dir})
	require.NoError(t, err)
	defer restored.Close()

	snap := restored.Snapshot()
	assert.Contains(t, snap.Nodes, "a", "cold start without a snapshot cache must fully replay the log")
}

func TestInboxCountInvariant(t *testing.T) {
	dir := t.TempDir()
	s, err := New(model.Run{ID: "run-1"}, Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	rt := s.Runtime("a")
	rt.EnqueueEnvelope(model.Envelope{ID: "env1", ToNodeID: "a"})
	rt.EnqueueMessage(model.UserMessage{ID: "m1", NodeID: "a"})

	assert.Equal(t, 2, rt.InboxCount())
}
