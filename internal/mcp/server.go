package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/galley/internal/domain/engine"
	"github.com/louisbranch/galley/internal/domain/event"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Galley Kitchen MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// EventStore pages a kitchen's journal for the event_list tool.
type EventStore interface {
	ListEvents(ctx context.Context, kitchenID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// Service wires the kitchen engine into the MCP tool handlers. KitchenID
// is the default kitchen when a tool input omits one; ActorID attributes
// MCP-dispatched commands in the journal.
type Service struct {
	Handler   engine.Handler
	Loader    engine.StateLoader
	Events    EventStore
	KitchenID string
	ActorID   string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server exposing the kitchen tools.
func New(service *Service) (*Server, error) {
	if service == nil {
		return nil, errors.New("service is required")
	}
	if service.Loader == nil {
		return nil, errors.New("state loader is required")
	}
	if service.Events == nil {
		return nil, errors.New("event store is required")
	}
	if service.KitchenID == "" {
		return nil, errors.New("kitchen id is required")
	}
	if service.ActorID == "" {
		service.ActorID = "mcp"
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(mcpServer, IngredientAddTool(), IngredientAddHandler(service))
	mcp.AddTool(mcpServer, IngredientConsumeTool(), IngredientConsumeHandler(service))
	mcp.AddTool(mcpServer, RecipeAddTool(), RecipeAddHandler(service))
	mcp.AddTool(mcpServer, RecipeRemoveTool(), RecipeRemoveHandler(service))
	mcp.AddTool(mcpServer, ShiftOpenTool(), ShiftOpenHandler(service))
	mcp.AddTool(mcpServer, ShiftCloseTool(), ShiftCloseHandler(service))
	mcp.AddTool(mcpServer, CookTool(), CookHandler(service))
	mcp.AddTool(mcpServer, StateGetTool(), StateGetHandler(service))
	mcp.AddTool(mcpServer, EventListTool(), EventListHandler(service))

	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
// Context cancellation is the normal shutdown path, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
