// Package mcpserver exposes the gesture commands as Model Context Protocol tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/frudas24/qaagent/internal/command"
	"github.com/frudas24/qaagent/internal/element"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Dispatcher runs decoded command requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req command.Request) command.Reply
}

// Elements is the element table surface the tools edit.
type Elements interface {
	Set(id string, r geom.Rect) error
	Remove(id string) bool
	Entries() []element.Entry
}

// Server wraps an MCP server whose tools forward to a Dispatcher.
type Server struct {
	server     *server.MCPServer
	dispatcher Dispatcher
	elements   Elements
	log        zerolog.Logger
}

// New builds the MCP server and registers every tool.
func New(version string, dispatcher Dispatcher, elements Elements, logger *zerolog.Logger) *Server {
	log := logging.For("mcp")
	if logger != nil {
		log = *logger
	}
	s := &Server{
		server: server.NewMCPServer(
			"qaagent",
			version,
			server.WithToolCapabilities(true),
			server.WithInstructions("Drive the host UI with synthesized touch, mouse and key input. Coordinates are screen pixels."),
		),
		dispatcher: dispatcher,
		elements:   elements,
		log:        log,
	}
	s.registerGestureTools()
	s.registerElementTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.server
}

// Serve speaks MCP over in/out until ctx ends or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info().Int("tools", len(s.server.ListTools())).Msg("mcp stdio server started")
	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}

// dispatch encodes params as a command frame payload and runs it.
func (s *Server) dispatch(ctx context.Context, name string, params ...any) (*mcp.CallToolResult, error) {
	if params == nil {
		params = []any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", name, err)
	}
	req := command.Request{ID: uuid.NewString(), Name: name, Params: gjson.ParseBytes(raw)}
	reply := s.dispatcher.Dispatch(ctx, req)
	return replyResult(name, reply), nil
}

// replyResult renders a dispatcher reply as tool output.
func replyResult(name string, reply command.Reply) *mcp.CallToolResult {
	if reply.Status != command.StatusOK {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(fmt.Sprintf("%s failed (status %d): %v", name, reply.Status, reply.Value)),
			},
			IsError: true,
		}
	}
	text := fmt.Sprintf("%s done", name)
	if reply.Value != nil {
		if b, err := json.Marshal(reply.Value); err == nil {
			text = string(b)
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(format string, a ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf(format, a...))},
		IsError: true,
	}
}
