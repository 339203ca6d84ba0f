// ABOUTME: MCP server setup for the medical record store.
// ABOUTME: Binds one owner's records to MCP tools and resources over stdio.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/records"
)

// Server wraps the MCP server with record access for a single owner.
type Server struct {
	mcpServer *mcp.Server
	records   *records.Store
	owner     *models.User
}

// NewServer creates a new MCP server acting as owner.
func NewServer(store *records.Store, owner *models.User) (*Server, error) {
	if store == nil || owner == nil {
		return nil, errors.New("mcp server needs a record store and an owner")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "medrec",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		records:   store,
		owner:     owner,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
