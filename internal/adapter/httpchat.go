package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/agentgraph/agentgraph/internal/event"
	"github.com/agentgraph/agentgraph/internal/model"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// HTTPChatSession talks to a chat-completions-style HTTP API directly,
// for providers with no CLI at all. Tool calls the model proposes are
// never executed by the provider (NativeToolHandlingEngine): the
// Runner's Tool Executor runs them and the result is fed back in on
// the next turn's messages.
//
// The SSE frame reader is grounded on the corpus's MCP SSECaller
// (goadesign-goa-ai's runtime/mcp/ssecaller.go): the same
// "event:"/"data:" line-accumulation loop, adapted here from an
// RPC-response stream to an OpenAI-style chat-completion delta stream.
type HTTPChatSession struct {
	client   *http.Client
	endpoint string
	apiKey   string
	limiter  *rate.Limiter

	mu        sync.Mutex
	params    StartParams
	sink      Sink
	sessionID string
	history   []chatMessage
}

// NewHTTPChatSession builds a session against a chat-completions
// endpoint (OpenAI-compatible wire format).
// NewHTTPChatSession builds a session against a chat-completions
// endpoint. requestsPerSecond bounds how often Send may call out —
// unlike a subprocess CLI invocation, a raw HTTP provider will hand
// back its own 429s under a stall-recovering burst of retries, so the
// adapter self-throttles rather than relying on the caller to pace it.
func NewHTTPChatSession(endpoint, apiKey string, requestsPerSecond float64) *HTTPChatSession {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &HTTPChatSession{
		client:   &http.Client{Timeout: 0},
		endpoint: endpoint,
		apiKey:   apiKey,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

type chatMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall  `json:"tool_calls,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatDelta struct {
	Choices []struct {
		Delta struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (h *HTTPChatSession) Start(ctx context.Context, params StartParams, sink Sink) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.params = params
	h.sink = sink
	h.sessionID = "http-" + uuid.NewString()
	h.history = nil
	if params.SystemPrompt != "" {
		h.history = append(h.history, chatMessage{Role: "system", Content: params.SystemPrompt})
	}
	return nil
}

func (h *HTTPChatSession) Send(ctx context.Context, turn TurnInput) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.history = append(h.history, chatMessage{Role: "user", Content: turn.Prompt})
	reqBody := chatRequest{Model: h.params.Model, Messages: h.history, Stream: true}
	nodeID := h.params.NodeID
	h.mu.Unlock()

	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http chat adapter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http chat adapter: status %d: %s", resp.StatusCode, string(raw))
	}

	var full strings.Builder
	var toolCalls []chatToolCall
	reader := bufio.NewReader(resp.Body)
	for {
		data, err := readSSEData(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("http chat adapter: reading stream: %w", err)
		}
		if string(data) == "[DONE]" {
			break
		}
		var delta chatDelta
		if json.Unmarshal(data, &delta) != nil {
			continue
		}
		for _, choice := range delta.Choices {
			if choice.Delta.Content != "" {
				full.WriteString(choice.Delta.Content)
				h.sink.Emit(event.MessageAssistantDelta{NodeID: nodeID, Delta: choice.Delta.Content})
			}
			toolCalls = append(toolCalls, choice.Delta.ToolCalls...)
		}
		if delta.Usage != nil {
			h.sink.Emit(event.TelemetryUsage{NodeID: nodeID, Usage: model.TokenUsage{
				PromptTokens:     int64(delta.Usage.PromptTokens),
				CompletionTokens: int64(delta.Usage.CompletionTokens),
				TotalTokens:      int64(delta.Usage.TotalTokens),
			}})
		}
	}

	h.mu.Lock()
	assistantMsg := chatMessage{Role: "assistant", Content: full.String(), ToolCalls: toolCalls}
	h.history = append(h.history, assistantMsg)
	h.mu.Unlock()

	h.sink.Emit(event.MessageAssistantFinal{NodeID: nodeID, Content: full.String(), ToolCalls: toModelToolCalls(toolCalls)})
	for _, tc := range toModelToolCalls(toolCalls) {
		h.sink.Emit(event.ToolProposed{NodeID: nodeID, ToolCall: tc})
	}
	return nil
}

func toModelToolCalls(calls []chatToolCall) []model.ToolCall {
	var out []model.ToolCall
	for _, c := range calls {
		var args map[string]any
		json.Unmarshal([]byte(c.Function.Arguments), &args)
		out = append(out, model.ToolCall{ID: c.ID, Name: c.Function.Name, Args: args})
	}
	return out
}

func readSSEData(reader *bufio.Reader) ([]byte, error) {
	var data []byte
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) == 0 {
				continue
			}
			return data, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			chunk := strings.TrimPrefix(after, " ")
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
		}
	}
}

func (h *HTTPChatSession) Interrupt(ctx context.Context) error { return nil }

// ResolveApproval feeds a tool's approved/denied outcome back into the
// conversation as a tool-role message, matching the OpenAI function-
// calling protocol, so the next Send carries the result forward.
func (h *HTTPChatSession) ResolveApproval(ctx context.Context, approvalID string, resolution model.ApprovalResolution) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	content := "denied"
	if resolution.Kind == model.ApprovalApproved {
		content = "approved"
	}
	h.history = append(h.history, chatMessage{Role: "tool", ToolCallID: approvalID, Content: content})
	return nil
}

func (h *HTTPChatSession) ResetSession(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = nil
	h.sessionID = "http-" + uuid.NewString()
	return nil
}

func (h *HTTPChatSession) SessionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionID
}

func (h *HTTPChatSession) Close() error { return nil }
