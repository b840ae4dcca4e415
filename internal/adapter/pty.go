package adapter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
)

// PtySession drives a provider's interactive (non one-shot) CLI over a
// pseudo-terminal, for providers whose only faithful session mode is
// the full TUI — they don't offer a one-shot/stream-json flag at all.
// The pty plumbing (pty.Start, a read loop appending into a bounded
// ring buffer, prompt-regex detection on the last line) is grounded on
// the corpus's codex-interactive-driver tool, generalized from a
// fixed scripted action list into a long-lived Session that accepts
// one TurnInput at a time from the Runner.
type PtySession struct {
	binary    string
	promptRe  *regexp.Regexp
	maxBytes  int

	mu     sync.Mutex
	ptmx   *os.File
	cmd    *exec.Cmd
	params StartParams
	sink   Sink
	output []byte
	doneCh chan error
}

// NewPtySession builds a pty-driven session. promptRe matches the
// line the provider prints when it is idle and ready for input.
func NewPtySession(binary string, promptRe *regexp.Regexp) *PtySession {
	return &PtySession{binary: binary, promptRe: promptRe, maxBytes: 1 << 20}
}

func (p *PtySession) Start(ctx context.Context, params StartParams, sink Sink) error {
	p.mu.Lock()
	p.params = params
	p.sink = sink
	p.output = nil

	args := p.buildArgs()
	cmd := exec.Command(p.binary, args...)
	cmd.Dir = params.WorkspacePath
	cmd.Env = append(os.Environ(), params.Env...)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("pty adapter: start %s: %w", p.binary, err)
	}
	done := make(chan error, 1)
	p.ptmx = ptmx
	p.cmd = cmd
	p.doneCh = done
	p.mu.Unlock()
	go p.readLoop()
	go func() { done <- cmd.Wait() }()

	return p.waitPrompt(20 * time.Second)
}

func (p *PtySession) buildArgs() []string {
	var args []string
	if p.params.Model != "" {
		args = append(args, "--model", p.params.Model)
	}
	if len(p.params.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(normalizeAllowedTools(p.params.AllowedTools), ","))
	}
	return args
}

func (p *PtySession) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			p.appendOutput(buf[:n])
			p.sink.Emit(event.MessageAssistantDelta{NodeID: p.params.NodeID, Delta: string(buf[:n])})
		}
		if err != nil {
			return
		}
	}
}

func (p *PtySession) appendOutput(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(chunk) >= p.maxBytes {
		p.output = append([]byte(nil), chunk[len(chunk)-p.maxBytes:]...)
		return
	}
	need := len(p.output) + len(chunk) - p.maxBytes
	if need > 0 {
		p.output = append([]byte(nil), p.output[need:]...)
	}
	p.output = append(p.output, chunk...)
}

func (p *PtySession) outputString() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(append([]byte(nil), p.output...))
}

func (p *PtySession) Send(ctx context.Context, turn TurnInput) error {
	p.mu.Lock()
	ptmx := p.ptmx
	p.mu.Unlock()
	if ptmx == nil {
		return fmt.Errorf("pty adapter: session not started")
	}
	if _, err := ptmx.Write([]byte(turn.Prompt)); err != nil {
		return err
	}
	if _, err := ptmx.Write([]byte("\r")); err != nil {
		return err
	}
	if err := p.waitPrompt(p.params.Timeout); err != nil {
		return err
	}
	p.sink.Emit(event.MessageAssistantFinal{NodeID: p.params.NodeID, Content: lastScreen(stripANSI(p.outputString()))})
	return nil
}

func (p *PtySession) waitPrompt(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	deadline := time.Now().Add(timeout)
	for {
		if p.promptRe.MatchString(lastLine(stripANSI(p.outputString()))) {
			return nil
		}
		select {
		case err := <-p.doneCh:
			if err != nil {
				return fmt.Errorf("pty adapter: process exited waiting for prompt: %w", err)
			}
			return fmt.Errorf("pty adapter: process exited waiting for prompt")
		default:
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pty adapter: timeout waiting for prompt")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (p *PtySession) Interrupt(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ptmx == nil {
		return nil
	}
	_, err := p.ptmx.Write([]byte{0x03})
	return err
}

func (p *PtySession) ResolveApproval(ctx context.Context, approvalID string, resolution model.ApprovalResolution) error {
	return nil
}

func (p *PtySession) ResetSession(ctx context.Context) error {
	if err := p.Close(); err != nil {
		return err
	}
	p.mu.Lock()
	params, sink := p.params, p.sink
	p.mu.Unlock()
	return p.Start(ctx, params, sink)
}

func (p *PtySession) SessionID() string { return "" }

func (p *PtySession) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ptmx != nil {
		_ = p.ptmx.Close()
		p.ptmx = nil
	}
	return nil
}

func lastLine(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	parts := strings.Split(text, "\n")
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

func lastScreen(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	parts := strings.Split(text, "\n")
	if len(parts) <= 40 {
		return text
	}
	return strings.Join(parts[len(parts)-40:], "\n")
}

func stripANSI(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == 0x1b && i+1 < len(s) {
			switch s[i+1] {
			case '[':
				i += 2
				for i < len(s) {
					c := s[i]
					if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
						i++
						break
					}
					i++
				}
				continue
			case ']':
				i += 2
				for i < len(s) {
					if s[i] == 0x07 {
						i++
						break
					}
					if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
						i += 2
						break
					}
					i++
				}
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
