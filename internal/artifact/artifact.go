// Package artifact implements the Artifact Store (§2 C2): a blob store
// that writes a named byte slice under a run's artifacts directory and
// returns the path a model.Artifact should record, grounded on the
// teacher's executor.writeOutputArtifacts (internal/pipeline/executor.go),
// which resolves a path under a run-local artifacts directory,
// MkdirAlls it, and writes the bytes with os.WriteFile — generalized
// here from a step's declared OutputArtifacts to any caller (Tool
// Executor, Control Plane recordArtifact) recording an arbitrary named
// blob for a node.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/store"
	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// safeName collapses any character outside a conservative allowlist to
// an underscore, so a producing node's chosen artifact name can never
// smuggle a path-traversal segment or a shell-hostile character into
// the artifacts/<artifactId>-<safeName> filename (§6 "Persisted state
// layout").
func safeName(name string) string {
	name = filepath.Base(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "artifact"
	}
	return name
}

// Store writes artifact blobs under one run's data directory and
// publishes the artifact.created event that lets the projection fold
// them (internal/store/fold.go already handles the fold side; nothing
// previously called the write side this package now provides).
type Store struct {
	dir string
}

// New returns a Store rooted at runDir (the same directory Store.Dir
// passes to event.OpenLog for events.jsonl); artifacts are written
// under runDir/artifacts.
func New(runDir string) *Store {
	return &Store{dir: filepath.Join(runDir, "artifacts")}
}

// Record writes content under artifacts/<artifactId>-<safeName>,
// appends an artifact.created event to st (so the run's projection and
// any live subscribers learn about it), and returns the recorded
// model.Artifact.
func (a *Store) Record(st *store.Store, runID, nodeID string, kind model.ArtifactKind, name string, content []byte, meta *model.ArtifactMetadata) (model.Artifact, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: create artifacts dir: %w", err)
	}

	id := "artifact-" + uuid.NewString()
	filename := fmt.Sprintf("%s-%s", id, safeName(name))
	path := filepath.Join(a.dir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: write %s: %w", filename, err)
	}

	art := model.Artifact{
		ID:        id,
		RunID:     runID,
		NodeID:    nodeID,
		Kind:      kind,
		Name:      name,
		Path:      path,
		CreatedAt: time.Now(),
		Metadata:  meta,
	}
	if err := st.Publish(event.New(runID, event.ArtifactCreated{Artifact: art})); err != nil {
		return model.Artifact{}, err
	}
	return art, nil
}

// Read returns the bytes previously written for art.
func (a *Store) Read(art model.Artifact) ([]byte, error) {
	return os.ReadFile(art.Path)
}

// RemoveRunArtifacts deletes the entire artifacts directory for a run,
// part of deleteRun's cascade (§3 "Ownership and lifecycle": "the
// artifact directory is removed").
func (a *Store) RemoveRunArtifacts() error {
	if a.dir == "" || a.dir == "/" {
		return fmt.Errorf("artifact: refusing to remove empty or root artifacts dir")
	}
	if !strings.HasSuffix(a.dir, string(filepath.Separator)+"artifacts") {
		return fmt.Errorf("artifact: refusing to remove non-artifacts dir %q", a.dir)
	}
	return os.RemoveAll(a.dir)
}
