package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/vinted-backoffice/internal/listing"
)

const (
	serverName    = "vinted-backoffice"
	serverVersion = "1.0.0"
)

// NewServer builds the MCP server with every back-office tool registered.
func NewServer(svc *listing.Service) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	registerTools(s, &handlers{svc: svc})
	return s
}

// Serve starts the MCP stdio server.
func Serve(svc *listing.Service) error {
	return server.ServeStdio(NewServer(svc))
}
