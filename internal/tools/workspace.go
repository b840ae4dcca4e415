package tools

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentgraph/agentgraph/internal/model"
)

// resolveWithinCwd joins rel onto run.Cwd and confirms the result does
// not escape it. filepath.Join collapses ".." segments before the
// security validator ever sees them, so the validator's approved-
// directory check (keyed to run.Cwd) is what actually rejects an
// escape — not the literal ".." substring, which Join has already
// removed.
func (e *Executor) resolveWithinCwd(run model.Run, rel string) (string, error) {
	if run.Cwd == "" {
		return "", fmt.Errorf("run has no workspace cwd configured")
	}
	candidate := filepath.Join(run.Cwd, rel)

	result, err := e.validatorFor(run.Cwd).ValidatePath(candidate)
	if err != nil {
		return "", err
	}
	return result.ValidatedPath, nil
}

func (e *Executor) readFile(run model.Run, call model.ToolCall) (bool, any, string) {
	rel, ok := argString(call.Args, "path")
	if !ok {
		return false, nil, "read_file requires a path argument"
	}
	abs, err := e.resolveWithinCwd(run, rel)
	if err != nil {
		return false, nil, err.Error()
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return false, nil, err.Error()
	}
	return true, string(data), ""
}

func (e *Executor) writeFile(run model.Run, node *model.Node, call model.ToolCall) (bool, any, string) {
	rel, ok := argString(call.Args, "path")
	if !ok {
		return false, nil, "write_file requires a path argument"
	}
	content, ok := argString(call.Args, "content")
	if !ok {
		return false, nil, "write_file requires a content argument"
	}
	abs, err := e.resolveWithinCwd(run, rel)
	if err != nil {
		return false, nil, err.Error()
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return false, nil, err.Error()
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return false, nil, err.Error()
	}
	if e.audit != nil {
		_ = e.audit.LogFileOp(run.ID, node.ID, "write", rel)
	}
	return true, fmt.Sprintf("wrote %d bytes to %s", len(content), rel), ""
}

func (e *Executor) deleteFile(run model.Run, node *model.Node, call model.ToolCall) (bool, any, string) {
	rel, ok := argString(call.Args, "path")
	if !ok {
		return false, nil, "delete_file requires a path argument"
	}
	abs, err := e.resolveWithinCwd(run, rel)
	if err != nil {
		return false, nil, err.Error()
	}
	if err := os.Remove(abs); err != nil {
		return false, nil, err.Error()
	}
	if e.audit != nil {
		_ = e.audit.LogFileOp(run.ID, node.ID, "delete", rel)
	}
	return true, fmt.Sprintf("deleted %s", rel), ""
}

func (e *Executor) listFiles(run model.Run, call model.ToolCall) (bool, any, string) {
	rel, _ := argString(call.Args, "path")
	abs, err := e.resolveWithinCwd(run, rel)
	if err != nil {
		return false, nil, err.Error()
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return false, nil, err.Error()
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return true, names, ""
}
