// Package tools implements the Tool Executor (§4.4): a pure dispatcher
// keyed on tool name. Workspace tools (read_file, write_file,
// list_files, delete_file, command) execute against a run's cwd gated
// by the calling node's capability flags; graph-mutating tools
// (spawn_node, create_edge, send_handoff) are forwarded to an injected
// GraphHandlers implementation.
package tools

import (
	"context"
	"fmt"

	"github.com/agentgraph/agentgraph/internal/audit"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/agentgraph/agentgraph/internal/security"
)

const (
	toolReadFile   = "read_file"
	toolWriteFile  = "write_file"
	toolListFiles  = "list_files"
	toolDeleteFile = "delete_file"
	toolCommand    = "command"

	toolSpawnNode   = "spawn_node"
	toolCreateEdge  = "create_edge"
	toolSendHandoff = "send_handoff"
)

// Executor dispatches tool calls on name, satisfying runner.ToolExecutor.
type Executor struct {
	graph      GraphHandlers
	mcp        *MCPSource
	logger     *security.SecurityLogger
	audit      audit.AuditLogger
	scratchDir string
}

// New builds an Executor. graph may be nil if the run never enables
// agent-management capabilities; any attempt to invoke a graph tool
// without one then fails with an execution error, not a panic.
func New(graph GraphHandlers) *Executor {
	return &Executor{
		graph:  graph,
		logger: security.NewSecurityLogger(false),
	}
}

// WithMCPSource attaches an optional external MCP tool source; any
// tool name not one of the five workspace tools or three graph tools
// is forwarded to it before being reported unknown.
func (e *Executor) WithMCPSource(src *MCPSource) *Executor {
	e.mcp = src
	return e
}

// WithAuditLogger attaches a trace log that every tool call and file
// mutation this Executor performs is recorded to. Nil (the default)
// disables auditing.
func (e *Executor) WithAuditLogger(a audit.AuditLogger) *Executor {
	e.audit = a
	return e
}

// WithScratchDir sets the directory the command tool points TMPDIR at,
// keeping a run's subprocess temp files contained and cleaned up
// alongside its other state. Empty (the default) leaves TMPDIR unset.
func (e *Executor) WithScratchDir(dir string) *Executor {
	e.scratchDir = dir
	return e
}

// validatorFor scopes a fresh PathValidator's approved directory to a
// single run's workspace; a single Executor may serve many runs
// concurrently, each with its own cwd, so the approved-directory list
// can't be fixed at construction time.
func (e *Executor) validatorFor(cwd string) *security.PathValidator {
	cfg := security.SecurityConfig{
		Enabled: true,
		PathValidation: security.PathValidationConfig{
			ApprovedDirectories: []string{cwd},
			MaxPathLength:       4096,
			AllowSymlinks:       false,
		},
	}
	return security.NewPathValidator(cfg, e.logger)
}

// Execute runs a single tool call against run/node, per §4.4's table of
// required capabilities.
func (e *Executor) Execute(ctx context.Context, run model.Run, node *model.Node, call model.ToolCall) (bool, any, string) {
	if e.audit != nil {
		_ = e.audit.LogToolCall(run.ID, node.ID, call.Name, fmt.Sprintf("%v", call.Args))
	}
	if err := validateArgs(call.Name, call.Args); err != nil {
		return false, nil, fmt.Sprintf("%s: invalid arguments: %s", call.Name, err)
	}
	switch call.Name {
	case toolReadFile:
		return e.readFile(run, call)
	case toolWriteFile:
		if !node.Capabilities.WriteCode && !node.Capabilities.WriteDocs {
			return false, nil, "write_file requires writeCode or writeDocs"
		}
		return e.writeFile(run, node, call)
	case toolListFiles:
		return e.listFiles(run, call)
	case toolDeleteFile:
		if !node.Capabilities.WriteCode && !node.Capabilities.WriteDocs {
			return false, nil, "delete_file requires writeCode or writeDocs"
		}
		return e.deleteFile(run, node, call)
	case toolCommand:
		if !node.Capabilities.RunCommands {
			return false, nil, "command requires runCommands"
		}
		return e.runCommand(ctx, run, call)
	case toolSpawnNode, toolCreateEdge, toolSendHandoff:
		return e.dispatchGraph(ctx, run, node, call)
	default:
		if e.mcp != nil && e.mcp.Has(call.Name) {
			return e.mcp.Call(ctx, call.Name, call.Args)
		}
		return false, nil, fmt.Sprintf("unknown tool %q", call.Name)
	}
}

func (e *Executor) dispatchGraph(ctx context.Context, run model.Run, node *model.Node, call model.ToolCall) (bool, any, string) {
	if e.graph == nil {
		return false, nil, fmt.Sprintf("%s: no graph handler configured", call.Name)
	}
	switch call.Name {
	case toolSpawnNode:
		return e.graph.SpawnNode(ctx, run, node, call.Args)
	case toolCreateEdge:
		return e.graph.CreateEdge(ctx, run, node, call.Args)
	case toolSendHandoff:
		return e.graph.SendHandoff(ctx, run, node, call.Args)
	}
	return false, nil, fmt.Sprintf("unknown graph tool %q", call.Name)
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}
