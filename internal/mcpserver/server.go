// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the admin console operations for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/corvand/remedy/internal/mutate"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/view"
)

// Server wraps the MCP server with the console tools.
type Server struct {
	mcp       *server.MCPServer
	medicines *mutate.Coordinator[record.Medicine]
	orders    *mutate.Coordinator[record.Order]
}

// New creates a new MCP server with all tools registered.
func New(medicines *mutate.Coordinator[record.Medicine], orders *mutate.Coordinator[record.Order]) *Server {
	s := &Server{medicines: medicines, orders: orders}

	s.mcp = server.NewMCPServer(
		"Remedy",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_inventory",
		mcp.WithDescription("Search the medicine catalog by name (case-insensitive substring)."),
		mcp.WithString("query", mcp.Description("Search term; empty returns the full catalog")),
	), s.searchInventory)

	s.mcp.AddTool(mcp.NewTool("list_orders",
		mcp.WithDescription("List all customer orders with their delivery status."),
	), s.listOrders)

	s.mcp.AddTool(mcp.NewTool("update_delivery_status",
		mcp.WithDescription("Set the delivery status of one order."),
		mcp.WithString("order_id", mcp.Required(), mcp.Description("Store identifier of the order")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New delivery status, e.g. Pending, Shipped, Delivered")),
	), s.updateDeliveryStatus)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchInventory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}
	matched := view.Filter(s.medicines.Cache().Snapshot(), query, func(m record.Medicine) string {
		return m.MedicineName
	})
	out, _ := json.MarshalIndent(matched, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listOrders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.orders.Cache().Snapshot(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) updateDeliveryStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("order_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patch := record.StatusPatch{Status: status}
	if err := s.orders.Update(ctx, id, patch, nil, mutate.RefreshFull); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("updated: " + id), nil
}
