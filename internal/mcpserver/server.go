// Package mcpserver exposes the NinjaRMM API as MCP tools over stdio.
//
// Tools are thin per-endpoint request builders: they translate tool arguments
// into API query parameters or bodies and hand the call to the ninja client,
// which acquires the right credential for the operation name. The three
// auth management tools operate on the authentication manager directly.
package mcpserver

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/goetzcj/ninjamcp/internal/auth"
	"github.com/goetzcj/ninjamcp/internal/ninja"
)

const (
	serverName    = "ninjamcp"
	serverVersion = "1.4.1"
)

// Server wraps the MCP server and the collaborators the tool handlers need.
type Server struct {
	client  *ninja.Client
	manager *auth.Manager
	mcp     *server.MCPServer
}

// New creates the MCP server and registers all tools.
func New(client *ninja.Client, manager *auth.Manager) *Server {
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		client:  client,
		manager: manager,
		mcp:     mcpServer,
	}

	s.registerDeviceTools()
	s.registerActivityTools()
	s.registerAlertTools()
	s.registerBackupTools()
	s.registerScriptTools()
	s.registerTicketTools()
	s.registerCountTools()
	s.registerAuthTools()

	return s
}

// Start serves the MCP protocol over stdio until the context is cancelled or
// the client closes the stream.
func (s *Server) Start(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
