// Package engine is the composition root for one run: it wires the Run
// Store, Node Runner, Approval Queue, Tool Executor, and Artifact Store
// together the way spec.md §2's data-flow diagram describes, and holds
// the registry of concurrently active runs the Scheduler and Control
// Plane both operate against.
//
// The "construct every collaborator for one unit of work in one place"
// shape is grounded on the teacher's cmd/wave/commands/run.go, which
// builds a pipeline execution's store/audit/workspace dependencies
// together before invoking the executor; here the unit of work is a
// run instead of a pipeline invocation, and there may be many active
// at once instead of exactly one process-lifetime run.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agentgraph/agentgraph/internal/approval"
	"github.com/agentgraph/agentgraph/internal/artifact"
	"github.com/agentgraph/agentgraph/internal/audit"
	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/manifest"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/runner"
	"github.com/agentgraph/agentgraph/internal/store"
	"github.com/agentgraph/agentgraph/internal/tools"
	"github.com/agentgraph/agentgraph/internal/workspace"
	"github.com/google/uuid"
)

// RunHandle bundles every per-run collaborator. Its fields are the same
// objects the Scheduler and Control Plane each need a handle to; there
// is exactly one RunHandle per active run.
type RunHandle struct {
	ID        string
	Dir       string
	Store     *store.Store
	Runner    *runner.Runner
	Approvals *approval.Queue
	Tools     *tools.Executor
	Artifacts *artifact.Store
	Audit     *audit.TraceLogger
}

// CreateRunConfig is createRun's input (§6).
type CreateRunConfig struct {
	Mode       model.OrchestrationMode
	GlobalMode model.GlobalMode
	Cwd        string
}

// Registry owns every active run's RunHandle, keyed by run id.
type Registry struct {
	dataDir   string
	manifest  *manifest.Manifest
	workspace *workspace.Manager

	mu   sync.Mutex
	runs map[string]*RunHandle
}

// NewRegistry opens (or will create, on first CreateRun) dataDir as the
// root of every run's persisted state (§6 "Persisted state layout").
// It also provisions <dataDir>/workspaces as the root every run's
// command-tool scratch directory is carved out of.
func NewRegistry(dataDir string, m *manifest.Manifest) (*Registry, error) {
	ws, err := workspace.NewManager(filepath.Join(dataDir, "workspaces"))
	if err != nil {
		return nil, err
	}
	return &Registry{dataDir: dataDir, manifest: m, workspace: ws, runs: make(map[string]*RunHandle)}, nil
}

// CreateRun provisions a brand-new run directory, wires its
// collaborators, and publishes the creation events (§6 "createRun ...
// emits run.patch, run.mode").
func (reg *Registry) CreateRun(cfg CreateRunConfig) (*RunHandle, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := "run-" + uuid.NewString()
	dir := filepath.Join(reg.dataDir, "runs", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create run dir: %w", err)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = model.ModeInteractive
	}
	globalMode := cfg.GlobalMode
	if globalMode == "" {
		globalMode = model.GlobalModeImplementation
	}
	now := time.Now()
	run := model.Run{
		ID:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Status:     model.RunStatusRunning,
		Mode:       mode,
		GlobalMode: globalMode,
		Cwd:        cfg.Cwd,
	}

	handle, err := reg.build(run, dir)
	if err != nil {
		return nil, err
	}

	status := model.RunStatusRunning
	patch := event.RunPatch{Status: &status, GlobalMode: &globalMode, UpdatedAt: &now}
	if err := handle.Store.Publish(event.NewAt(id, patch, now)); err != nil {
		return nil, err
	}
	if err := handle.Store.Publish(event.NewAt(id, event.RunMode{Mode: mode}, now)); err != nil {
		return nil, err
	}

	reg.runs[id] = handle
	return handle, nil
}

// Open recovers an existing run directory (cold start), replaying its
// event log / snapshot per §3 "Persistence".
func (reg *Registry) Open(runID string) (*RunHandle, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if h, ok := reg.runs[runID]; ok {
		return h, nil
	}

	dir := filepath.Join(reg.dataDir, "runs", runID)
	snaps, err := store.OpenSnapshotCache(filepath.Join(dir, "snapshot.db"))
	if err != nil {
		return nil, fmt.Errorf("engine: open snapshot cache: %w", err)
	}
	st, err := store.Open(runID, store.Options{Dir: dir, Snapshots: snaps})
	if err != nil {
		return nil, fmt.Errorf("engine: open run %s: %w", runID, err)
	}

	handle, err := reg.wire(runID, dir, st)
	if err != nil {
		return nil, err
	}
	reg.runs[runID] = handle
	return handle, nil
}

// Get returns the handle for an already-active run.
func (reg *Registry) Get(runID string) (*RunHandle, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	h, ok := reg.runs[runID]
	return h, ok
}

// List returns every active run's handle, in no particular order.
func (reg *Registry) List() []*RunHandle {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*RunHandle, 0, len(reg.runs))
	for _, h := range reg.runs {
		out = append(out, h)
	}
	return out
}

// Delete cascades a run's teardown (§3 "Ownership and lifecycle":
// "provider sessions are closed, the artifact directory is removed, the
// event log file is removed").
func (reg *Registry) Delete(runID string) error {
	reg.mu.Lock()
	h, ok := reg.runs[runID]
	delete(reg.runs, runID)
	reg.mu.Unlock()
	if !ok {
		return fmt.Errorf("engine: unknown run %s", runID)
	}

	snap := h.Store.Snapshot()
	for nodeID := range snap.Nodes {
		_ = h.Runner.Close(context.Background(), nodeID)
	}
	_ = h.Artifacts.RemoveRunArtifacts()
	if h.Audit != nil {
		_ = h.Audit.Close()
	}
	if reg.workspace != nil {
		_ = reg.workspace.RemoveRun(runID)
	}
	_ = h.Store.Close()
	return os.RemoveAll(h.Dir)
}

func (reg *Registry) build(run model.Run, dir string) (*RunHandle, error) {
	snaps, err := store.OpenSnapshotCache(filepath.Join(dir, "snapshot.db"))
	if err != nil {
		return nil, fmt.Errorf("engine: open snapshot cache: %w", err)
	}
	st, err := store.New(run, store.Options{Dir: dir, Snapshots: snaps})
	if err != nil {
		return nil, fmt.Errorf("engine: create store: %w", err)
	}
	return reg.wire(run.ID, dir, st)
}

func (reg *Registry) wire(runID, dir string, st *store.Store) (*RunHandle, error) {
	toolsExec := tools.New(tools.NewStoreGraphHandlers(st))

	auditLogger, err := audit.NewTraceLogger(dir)
	if err != nil {
		return nil, fmt.Errorf("engine: open audit logger: %w", err)
	}
	toolsExec.WithAuditLogger(auditLogger)

	if reg.workspace != nil {
		scratchDir, err := reg.workspace.PrepareRun(runID)
		if err != nil {
			return nil, fmt.Errorf("engine: prepare workspace: %w", err)
		}
		toolsExec.WithScratchDir(scratchDir)
	}

	approvals := approval.New(nil)

	cwd := st.Snapshot().Run.Cwd
	resolver := manifest.NewResolver(reg.manifest, cwd)
	factory := reg.manifest.AdapterFactory()

	r := runner.New(st, factory, resolver, toolsExec, approvals)
	approvals.SetResolver(r)

	return &RunHandle{
		ID:        runID,
		Dir:       dir,
		Store:     st,
		Runner:    r,
		Approvals: approvals,
		Tools:     toolsExec,
		Artifacts: artifact.New(dir),
		Audit:     auditLogger,
	}, nil
}
