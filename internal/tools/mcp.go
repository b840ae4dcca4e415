package tools

import (
	"context"
	"fmt"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// MCPSource bridges an external MCP stdio server's tools into the Tool
// Executor as an additional tool-name namespace, adapted down from the
// corpus's MCP server manager (one server connection, not a registry
// of many). A caller attaches one to an Executor with WithMCPSource; no
// role template or manifest field connects a server.
type MCPSource struct {
	mu     sync.Mutex
	client *mcpclient.Client
	names  map[string]bool
}

// ConnectStdio launches command as an MCP stdio server, performs the
// handshake, and records its tool names.
func ConnectStdio(ctx context.Context, command string, args []string, env []string) (*MCPSource, error) {
	c, err := mcpclient.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: create stdio client: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{Name: "agentgraph", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}

	listed, err := c.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}

	names := make(map[string]bool, len(listed.Tools))
	for _, t := range listed.Tools {
		names[t.Name] = true
	}
	return &MCPSource{client: c, names: names}, nil
}

// Has reports whether name was discovered on the connected server.
func (s *MCPSource) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[name]
}

// Call invokes a tool on the connected server and flattens its result
// into the executor's (ok, output, error) shape.
func (s *MCPSource) Call(ctx context.Context, name string, args map[string]any) (bool, any, string) {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return false, nil, fmt.Sprintf("mcp tool %q: %s", name, err)
	}
	if res.IsError {
		return false, renderContent(res.Content), fmt.Sprintf("mcp tool %q reported an error", name)
	}
	return true, renderContent(res.Content), ""
}

func (s *MCPSource) Close() error {
	return s.client.Close()
}

func renderContent(content []mcpgo.Content) string {
	out := ""
	for _, c := range content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
