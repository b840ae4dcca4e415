package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/agentgraph/agentgraph/internal/model"
)

// commandTimeout is the per-invocation cap for the command tool (§5
// "Cancellation & timeouts": 30 min for configured commands).
const commandTimeout = 30 * time.Minute

func (e *Executor) runCommand(ctx context.Context, run model.Run, call model.ToolCall) (bool, any, string) {
	command, ok := argString(call.Args, "command")
	if !ok || strings.TrimSpace(command) == "" {
		return false, nil, "command requires a command argument"
	}
	if run.Cwd == "" {
		return false, nil, "run has no workspace cwd configured"
	}

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return false, nil, "command is empty after parsing"
	}

	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, parts[0], parts[1:]...)
	cmd.Dir = run.Cwd
	if e.scratchDir != "" {
		cmd.Env = append(os.Environ(), "TMPDIR="+e.scratchDir)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, string(output), fmt.Sprintf("command %q failed: %s", command, err)
	}
	return true, string(output), ""
}
