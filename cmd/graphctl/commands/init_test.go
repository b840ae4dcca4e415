package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentgraph/agentgraph/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInitWritesManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")

	root := newTestCmd(t, path)
	root.root.AddCommand(NewInitCmd())
	root.run(t, "init")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var m manifest.Manifest
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Contains(t, m.Providers, "mock")
	assert.Contains(t, m.RoleTemplates, "orchestrator")
}

func TestInitRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiVersion: custom\n"), 0o644))

	root := newTestCmd(t, path)
	root.root.AddCommand(NewInitCmd())
	err := root.execute(t, "init")
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "apiVersion: custom\n", string(data))
}
