package store

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

// Store is the Run Store for one run: the event log, the in-memory
// projection folded from it, the per-node runtime, and the event bus
// that fans published events out to subscribers. All mutation goes
// through Publish; nothing else may write to Projection (§5
// "Shared-resource policy").
type Store struct {
	mu         sync.Mutex
	dir        string
	log        *event.Log
	bus        *event.Bus
	projection *Projection
	runtimes   map[string]*NodeRuntime
	snapshots  *SnapshotCache // nil if no snapshot cache configured
	eventCount int            // events folded into projection so far
}

// Options configures a new Store.
type Options struct {
	// Dir is the run's data directory (contains events.jsonl and the
	// artifacts/ subdirectory).
	Dir string
	// Snapshots is an optional snapshot cache for fast cold-start
	// recovery. If nil, cold start always replays the full log.
	Snapshots *SnapshotCache
}

// New creates a fresh Store for a newly created run.
func New(run model.Run, opts Options) (*Store, error) {
	l, err := event.OpenLog(filepath.Join(opts.Dir, "events.jsonl"))
	if err != nil {
		return nil, err
	}
	return &Store{
		dir:        opts.Dir,
		log:        l,
		bus:        event.NewBus(),
		projection: NewProjection(run),
		runtimes:   map[string]*NodeRuntime{},
		snapshots:  opts.Snapshots,
	}, nil
}

// Open recovers a Store for an existing run: it tries the snapshot
// cache first, falling back to full log replay if the snapshot is
// missing or corrupt (§3 "Persistence").
func Open(runID string, opts Options) (*Store, error) {
	l, err := event.OpenLog(filepath.Join(opts.Dir, "events.jsonl"))
	if err != nil {
		return nil, err
	}
	events, err := l.ReadAll()
	if err != nil {
		return nil, err
	}

	var projection *Projection
	tail := events
	seq := 0
	if opts.Snapshots != nil {
		if snap, snapSeq, err := opts.Snapshots.Load(runID); err == nil && snap != nil {
			projection = snap
			seq = snapSeq
			if snapSeq <= len(events) {
				tail = events[snapSeq:]
			}
		} else if err != nil {
			log.Printf("store: snapshot load failed for run %s, falling back to full replay: %v", runID, err)
		}
	}
	if projection == nil {
		projection = NewProjection(model.Run{ID: runID})
		tail = events
		seq = 0
	}
	for _, e := range tail {
		Apply(projection, e)
	}
	seq += len(tail)

	s := &Store{
		dir:        opts.Dir,
		log:        l,
		bus:        event.NewBus(),
		projection: projection,
		runtimes:   map[string]*NodeRuntime{},
		snapshots:  opts.Snapshots,
		eventCount: seq,
	}
	for id := range projection.Nodes {
		s.runtimes[id] = newNodeRuntime()
	}
	return s, nil
}

// Publish executes the durability order from §4.1: append to the log
// first (a failure here aborts the publish entirely — the event never
// happened), then fold into the projection, then persist a snapshot
// (failures here are warnings only), then notify subscribers.
func (s *Store) Publish(e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.log.Append(e); err != nil {
		return err
	}
	Apply(s.projection, e)
	s.eventCount++

	if s.snapshots != nil {
		if err := s.snapshots.Save(s.projection.Run.ID, s.eventCount, s.projection); err != nil {
			log.Printf("store: snapshot write failed for run %s: %v", s.projection.Run.ID, err)
		}
	}

	s.bus.Publish(e)
	return nil
}

// Subscribe registers a listener on the run's event bus.
func (s *Store) Subscribe(l event.Listener) (unsubscribe func()) {
	return s.bus.Subscribe(l)
}

// Snapshot returns a copy of the current projection for read access
// (getRun/listRuns, §6).
func (s *Store) Snapshot() Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjection(s.projection)
}

// Runtime returns (creating if necessary) the ephemeral runtime record
// for nodeID. Callers must hold no external lock; Store serializes
// access to its own state internally.
func (s *Store) Runtime(nodeID string) *NodeRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.runtimes[nodeID]
	if !ok {
		rt = newNodeRuntime()
		s.runtimes[nodeID] = rt
	}
	return rt
}

// DropRuntime removes a node's ephemeral runtime, used when a node is
// deleted.
func (s *Store) DropRuntime(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runtimes, nodeID)
}

// RunnableNodeIDs returns the ids of every node currently eligible for
// a scheduler turn, in projection iteration order (stable per run as
// required by §4.2 "Ordering guarantees" only in the sense that a
// single Store instance iterates its own map consistently within a
// tick; true cross-tick stability is provided by the scheduler's own
// node ordering, not by this method).
func (s *Store) RunnableNodeIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, n := range s.projection.Nodes {
		if Runnable(n, s.runtimeLocked(id)) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) runtimeLocked(nodeID string) *NodeRuntime {
	rt, ok := s.runtimes[nodeID]
	if !ok {
		rt = newNodeRuntime()
		s.runtimes[nodeID] = rt
	}
	return rt
}

// Close releases the log file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Close()
}

func cloneProjection(p *Projection) Projection {
	out := Projection{
		Run:       p.Run,
		Nodes:     make(map[string]*model.Node, len(p.Nodes)),
		Edges:     make(map[string]*model.Edge, len(p.Edges)),
		Artifacts: make(map[string]*model.Artifact, len(p.Artifacts)),
		Approvals: make(map[string]*model.Approval, len(p.Approvals)),
	}
	for k, v := range p.Nodes {
		n := *v
		out.Nodes[k] = &n
	}
	for k, v := range p.Edges {
		e := *v
		out.Edges[k] = &e
	}
	for k, v := range p.Artifacts {
		a := *v
		out.Artifacts[k] = &a
	}
	for k, v := range p.Approvals {
		a := *v
		out.Approvals[k] = &a
	}
	return out
}
