// Package mcpserver exposes the wizard controller as MCP tools over
// streamable HTTP.
package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/wizard"
	"github.com/mark3labs/mcp-go/server"
)

// Wizard is the controller surface the tools drive.
type Wizard interface {
	Snapshot() wizard.Snapshot
	CompleteStep(ctx context.Context, id int) error
	GoBack(ctx context.Context)
	GoToStep(ctx context.Context, id int) error
	Restart(ctx context.Context)
}

// Server manages an embedded MCP HTTP server bound to one wizard.
type Server struct {
	wizard     Wizard
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	stdServer  *http.Server
	port       int
	mu         sync.Mutex
}

// New creates a server for w. It is not started until Start is called.
func New(w Wizard) *Server {
	return &Server{wizard: w}
}

// Start starts the MCP HTTP server on a random localhost port and returns
// the port.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	s.mcpServer = server.NewMCPServer(
		"linkwizard",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	// Listen first and hand the listener to Serve so the port cannot be taken
	// in between.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find available port: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mcpHandler := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)
	mux.Handle("/mcp", mcpHandler)

	s.stdServer = &http.Server{Handler: mux}
	s.httpServer = mcpHandler

	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	logger.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop shuts the HTTP server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil
	}

	logger.Debug("Stopping MCP server")
	if err := s.stdServer.Shutdown(ctx); err != nil {
		logger.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.stdServer = nil
	s.mcpServer = nil
	return nil
}

// URL returns the HTTP URL of the MCP endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}
