package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Log is the append-only per-run durable sequence of event records
// backed by a single NDJSON file (runs/<runId>/events.jsonl per §6).
// It is the ground truth: Store rebuilds its projection by replaying
// this file on cold start.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenLog opens (creating if necessary) the events.jsonl file at path
// for appending, and reading the existing file during ReadAll.
func OpenLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("event: open log %s: %w", path, err)
	}
	return &Log{path: path, file: f}, nil
}

// Append writes one event as a single JSON line and flushes it to disk
// before returning. A failure here must abort the publish entirely —
// callers must not fold the event into the projection or notify
// subscribers if Append returns an error.
func (l *Log) Append(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("event: marshal for append: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("event: append to %s: %w", l.path, err)
	}
	return l.file.Sync()
}

// ReadAll reads every event recorded so far, in append order. It opens
// its own read handle so it can be called while the log's append
// handle is held open.
func (l *Log) ReadAll() ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("event: open %s for read: %w", l.path, err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("event: corrupt log %s at line %d: %w", l.path, lineNo, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("event: scan %s: %w", l.path, err)
	}
	return events, nil
}

// Close releases the append handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// ReadAllFrom reads every event in the NDJSON file at path without
// requiring a Log to be opened first, used by cold-start recovery
// before the live append handle exists.
func ReadAllFrom(path string) ([]Event, error) {
	l := &Log{path: path}
	return l.ReadAll()
}
