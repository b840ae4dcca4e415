package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(model.Run{ID: "r1", Status: model.RunStatusRunning}, store.Options{Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, dir
}

func TestRecordWritesBlobAndEmitsEvent(t *testing.T) {
	st, dir := newTestStore(t)
	a := New(dir)

	art, err := a.Record(st, "r1", "n1", model.ArtifactKindDiff, "patch.diff", []byte("diff content"), nil)
	require.NoError(t, err)

	assert.Contains(t, filepath.Base(art.Path), art.ID)
	assert.Contains(t, filepath.Base(art.Path), "patch.diff")

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, "diff content", string(data))

	snap := st.Snapshot()
	_, ok := snap.Artifacts[art.ID]
	assert.True(t, ok, "artifact.created must fold into the projection")
}

func TestRecordSanitizesTraversalInName(t *testing.T) {
	st, dir := newTestStore(t)
	a := New(dir)

	art, err := a.Record(st, "r1", "n1", model.ArtifactKindLog, "../../etc/passwd", []byte("x"), nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "artifacts"), filepath.Dir(art.Path))
	assert.NotContains(t, filepath.Base(art.Path), "..")
}

func TestReadRoundTrips(t *testing.T) {
	st, dir := newTestStore(t)
	a := New(dir)

	art, err := a.Record(st, "r1", "n1", model.ArtifactKindJSON, "out.json", []byte(`{"ok":true}`), nil)
	require.NoError(t, err)

	data, err := a.Read(art)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestRemoveRunArtifactsDeletesDirectory(t *testing.T) {
	st, dir := newTestStore(t)
	a := New(dir)
	_, err := a.Record(st, "r1", "n1", model.ArtifactKindLog, "a.log", []byte("x"), nil)
	require.NoError(t, err)

	require.NoError(t, a.RemoveRunArtifacts())
	_, statErr := os.Stat(filepath.Join(dir, "artifacts"))
	assert.True(t, os.IsNotExist(statErr))
}
