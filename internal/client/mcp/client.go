// Package mcp is a small agent-side client for the paracore MCP endpoint.
// It keeps the rest of the code independent of the MCP SDK types.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool is an available MCP tool.
type Tool struct {
	Name        string
	Description string
}

// ToolResult is the text returned by a tool call.
type ToolResult struct {
	Text    []string
	IsError bool
}

// Client creates MCP sessions.
type Client struct {
	mcpClient *mcpsdk.Client
}

// Session is an open MCP session.
type Session struct {
	mu         sync.Mutex
	mcpSession *mcpsdk.ClientSession
}

// NewClient creates a client that identifies itself with name and version.
func NewClient(name, version string) *Client {
	return &Client{
		mcpClient: mcpsdk.NewClient(&mcpsdk.Implementation{Name: name, Version: version}, nil),
	}
}

// NewStreamableTransport creates a streamable HTTP transport for url.
func NewStreamableTransport(url string, httpClient *http.Client) mcpsdk.Transport {
	return &mcpsdk.StreamableClientTransport{
		Endpoint:   url,
		HTTPClient: httpClient,
	}
}

// Connect opens a session over transport.
func (c *Client) Connect(ctx context.Context, transport mcpsdk.Transport) (*Session, error) {
	if transport == nil {
		return nil, ErrInvalidTransport
	}
	s, err := c.mcpClient.Connect(ctx, transport, nil)
	if err != nil {
		return nil, err
	}
	return &Session{mcpSession: s}, nil
}

func (s *Session) session() (*mcpsdk.ClientSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mcpSession == nil {
		return nil, ErrSessionClosed
	}
	return s.mcpSession, nil
}

// ListTools returns the tools of the server sorted by name.
func (s *Session) ListTools(ctx context.Context) ([]Tool, error) {
	session, err := s.session()
	if err != nil {
		return nil, err
	}
	result, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		return nil, err
	}
	tools := make([]Tool, len(result.Tools))
	for i, t := range result.Tools {
		tools[i] = Tool{Name: t.Name, Description: t.Description}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools, nil
}

// CallTool invokes a tool. Only text content is supported.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	session, err := s.session()
	if err != nil {
		return nil, err
	}
	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	out := &ToolResult{IsError: result.IsError}
	for _, c := range result.Content {
		text, ok := c.(*mcpsdk.TextContent)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedContent, c)
		}
		out.Text = append(out.Text, text.Text)
	}
	return out, nil
}

// Close terminates the session. Closing twice returns ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	session := s.mcpSession
	s.mcpSession = nil
	s.mu.Unlock()
	if session == nil {
		return ErrSessionClosed
	}
	return session.Close()
}
