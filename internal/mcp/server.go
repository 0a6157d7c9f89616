// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the posterior update and regenerate operations as tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/bayesplot/internal/logging"
	"github.com/nvandessel/bayesplot/internal/posterior"
	"github.com/nvandessel/bayesplot/internal/ratelimit"
	"github.com/nvandessel/bayesplot/internal/session"
)

// Server wraps the MCP SDK server. A stdio server has exactly one client,
// so it holds a single session state that tool calls read and replace.
type Server struct {
	server       *sdk.Server
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
	trace        *logging.TraceLogger
	newSrc       func() (rand.Source, error)

	mu    sync.Mutex
	state session.State
}

// Config holds server configuration.
type Config struct {
	Name     string // Server name (e.g., "bayesplot")
	Version  string // Server version
	Defaults posterior.Params
	Logger   *slog.Logger
	Trace    *logging.TraceLogger
}

// NewServer creates a new MCP server with the posterior tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default parameters: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
		trace:        cfg.Trace,
		newSrc:       posterior.NewSource,
	}

	src, err := s.newSrc()
	if err != nil {
		return nil, fmt.Errorf("new random source: %w", err)
	}
	s.state = session.State{
		ID:     "mcp",
		Params: cfg.Defaults,
		Seeds:  posterior.RegenerateObservations(src, posterior.MaxObservations),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "transport", "stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// State returns a copy of the held session state.
func (s *Server) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Seeds = append(posterior.Seeds(nil), s.state.Seeds...)
	return st
}
