package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareRunCreatesScratchDir(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base)
	require.NoError(t, err)

	dir, err := m.PrepareRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run-1"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPrepareRunIsolatesRuns(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base)
	require.NoError(t, err)

	dirA, err := m.PrepareRun("run-a")
	require.NoError(t, err)
	dirB, err := m.PrepareRun("run-b")
	require.NoError(t, err)

	assert.NotEqual(t, dirA, dirB)

	require.NoError(t, os.WriteFile(filepath.Join(dirA, "scratch.txt"), []byte("a"), 0o644))
	_, err = os.Stat(filepath.Join(dirB, "scratch.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveRunDeletesOnlyThatRun(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base)
	require.NoError(t, err)

	dirA, err := m.PrepareRun("run-a")
	require.NoError(t, err)
	dirB, err := m.PrepareRun("run-b")
	require.NoError(t, err)

	require.NoError(t, m.RemoveRun("run-a"))

	_, err = os.Stat(dirA)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dirB)
	assert.NoError(t, err)
}

func TestRemoveRunOfUnknownRunIsNoop(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base)
	require.NoError(t, err)

	assert.NoError(t, m.RemoveRun("never-existed"))
}
