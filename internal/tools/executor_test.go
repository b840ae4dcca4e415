package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun(t *testing.T) model.Run {
	t.Helper()
	return model.Run{ID: "r1", Cwd: t.TempDir()}
}

func baseNode() *model.Node {
	return &model.Node{ID: "n1", RunID: "r1"}
}

func TestWriteThenReadFile(t *testing.T) {
	run := testRun(t)
	node := baseNode()
	node.Capabilities.WriteCode = true

	e := New(nil)
	ok, out, errStr := e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "write_file", Args: map[string]any{"path": "sub/hello.txt", "content": "hi"},
	})
	require.True(t, ok, errStr)
	assert.Contains(t, out, "wrote")

	ok, out, errStr = e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "read_file", Args: map[string]any{"path": "sub/hello.txt"},
	})
	require.True(t, ok, errStr)
	assert.Equal(t, "hi", out)
}

func TestWriteFileRequiresCapability(t *testing.T) {
	run := testRun(t)
	node := baseNode()

	e := New(nil)
	ok, _, errStr := e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "write_file", Args: map[string]any{"path": "x", "content": "y"},
	})
	assert.False(t, ok)
	assert.Contains(t, errStr, "writeCode")
}

func TestWriteFileRejectsEscapingPath(t *testing.T) {
	run := testRun(t)
	node := baseNode()
	node.Capabilities.WriteCode = true

	e := New(nil)
	ok, _, errStr := e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "write_file", Args: map[string]any{"path": "../../etc/passwd", "content": "x"},
	})
	assert.False(t, ok)
	assert.NotEmpty(t, errStr)

	// confirm nothing escaped the workspace
	_, statErr := os.Stat(filepath.Join(filepath.Dir(run.Cwd), "etc", "passwd"))
	assert.Error(t, statErr)
}

func TestListFiles(t *testing.T) {
	run := testRun(t)
	require.NoError(t, os.WriteFile(filepath.Join(run.Cwd, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(run.Cwd, "sub"), 0o755))

	e := New(nil)
	ok, out, errStr := e.Execute(context.Background(), run, baseNode(), model.ToolCall{Name: "list_files", Args: map[string]any{}})
	require.True(t, ok, errStr)
	names, ok := out.([]string)
	require.True(t, ok)
	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "sub/")
}

func TestDeleteFileRequiresCapability(t *testing.T) {
	run := testRun(t)
	e := New(nil)
	ok, _, errStr := e.Execute(context.Background(), run, baseNode(), model.ToolCall{
		Name: "delete_file", Args: map[string]any{"path": "a.txt"},
	})
	assert.False(t, ok)
	assert.Contains(t, errStr, "writeCode")
}

func TestCommandRequiresCapability(t *testing.T) {
	run := testRun(t)
	e := New(nil)
	ok, _, errStr := e.Execute(context.Background(), run, baseNode(), model.ToolCall{
		Name: "command", Args: map[string]any{"command": "echo hi"},
	})
	assert.False(t, ok)
	assert.Contains(t, errStr, "runCommands")
}

func TestCommandRunsAndCapturesOutput(t *testing.T) {
	run := testRun(t)
	node := baseNode()
	node.Capabilities.RunCommands = true

	e := New(nil)
	ok, out, errStr := e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "command", Args: map[string]any{"command": "echo hello"},
	})
	require.True(t, ok, errStr)
	assert.Contains(t, out, "hello")
}

func TestCommandFailureReportsNonZeroExit(t *testing.T) {
	run := testRun(t)
	node := baseNode()
	node.Capabilities.RunCommands = true

	e := New(nil)
	ok, _, errStr := e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "command", Args: map[string]any{"command": "false"},
	})
	assert.False(t, ok)
	assert.NotEmpty(t, errStr)
}

func TestUnknownToolReportsError(t *testing.T) {
	e := New(nil)
	ok, _, errStr := e.Execute(context.Background(), testRun(t), baseNode(), model.ToolCall{Name: "frobnicate"})
	assert.False(t, ok)
	assert.Contains(t, errStr, "unknown tool")
}

func TestGraphToolsFailWithoutHandler(t *testing.T) {
	e := New(nil)
	node := baseNode()
	node.Capabilities.EdgeManagement = model.EdgeManagementAll
	ok, _, errStr := e.Execute(context.Background(), testRun(t), node, model.ToolCall{Name: "spawn_node", Args: map[string]any{}})
	assert.False(t, ok)
	assert.Contains(t, errStr, "no graph handler")
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(model.Run{ID: "r1", Status: model.RunStatusRunning}, store.Options{Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSpawnNodeCreatesNodeViaPatch(t *testing.T) {
	st := newTestStore(t)
	h := NewStoreGraphHandlers(st)
	e := New(h)

	node := baseNode()
	node.Capabilities.EdgeManagement = model.EdgeManagementAll

	run := model.Run{ID: "r1", Cwd: t.TempDir()}
	ok, out, errStr := e.Execute(context.Background(), run, node, model.ToolCall{
		Name: "spawn_node",
		Args: map[string]any{"label": "reviewer", "roleTemplate": "review", "provider": "claude"},
	})
	require.True(t, ok, errStr)
	result, ok := out.(map[string]any)
	require.True(t, ok)
	newID := result["nodeId"].(string)

	snap := st.Snapshot()
	n, ok := snap.Nodes[newID]
	require.True(t, ok)
	assert.Equal(t, "reviewer", n.Label)
	assert.Equal(t, "claude", n.Provider)
}

func TestSpawnNodeRequiresEdgeManagementAll(t *testing.T) {
	st := newTestStore(t)
	h := NewStoreGraphHandlers(st)
	e := New(h)

	ok, _, errStr := e.Execute(context.Background(), model.Run{ID: "r1"}, baseNode(), model.ToolCall{Name: "spawn_node"})
	assert.False(t, ok)
	assert.Contains(t, errStr, "edgeManagement")
}

func TestCreateEdgeEmitsEdgeCreated(t *testing.T) {
	st := newTestStore(t)
	h := NewStoreGraphHandlers(st)
	e := New(h)

	node := baseNode()
	node.Capabilities.EdgeManagement = model.EdgeManagementSelf

	ok, out, errStr := e.Execute(context.Background(), model.Run{ID: "r1"}, node, model.ToolCall{
		Name: "create_edge", Args: map[string]any{"toNodeId": "n2"},
	})
	require.True(t, ok, errStr)
	result := out.(map[string]any)
	edgeID := result["edgeId"].(string)

	snap := st.Snapshot()
	_, ok = snap.Edges[edgeID]
	assert.True(t, ok)
}

func TestSendHandoffEnqueuesOnTargetInbox(t *testing.T) {
	st := newTestStore(t)
	h := NewStoreGraphHandlers(st)
	e := New(h)

	ok, _, errStr := e.Execute(context.Background(), model.Run{ID: "r1"}, baseNode(), model.ToolCall{
		Name: "send_handoff", Args: map[string]any{"toNodeId": "n2", "message": "please review"},
	})
	require.True(t, ok, errStr)

	rt := st.Runtime("n2")
	require.Len(t, rt.EnvelopeInbox, 1)
	assert.Equal(t, "please review", rt.EnvelopeInbox[0].Payload.Message)

	snap := st.Snapshot()
	n2 := snap.Nodes["n2"]
	require.NotNil(t, n2)
	assert.Equal(t, 1, n2.InboxCount)
}
