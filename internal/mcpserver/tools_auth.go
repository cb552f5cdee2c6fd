package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerAuthTools() {
	s.mcp.AddTool(mcp.NewTool("get_auth_status",
		mcp.WithDescription("Check current authentication status and capabilities"),
	), s.handleGetAuthStatus)

	s.mcp.AddTool(mcp.NewTool("reauthorize_user",
		mcp.WithDescription("Re-authenticate the user identity for ticket operations"),
	), s.handleReauthorizeUser)

	s.mcp.AddTool(mcp.NewTool("clear_tokens",
		mcp.WithDescription("Clear stored authentication tokens"),
		mcp.WithString("token_type",
			mcp.Description("Which tokens to clear: all, client, or user (default all)"),
			mcp.Enum("all", "client", "user"),
		),
	), s.handleClearTokens)
}

func (s *Server) handleGetAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.manager.Status()

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render auth status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleReauthorizeUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.manager.ReauthorizeUser(ctx); err != nil {
		return errorResult("reauthorize_user", err), nil
	}
	return mcp.NewToolResultText("User re-authorization completed successfully"), nil
}

func (s *Server) handleClearTokens(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenType := request.GetString("token_type", "all")

	if err := s.manager.ClearTokens(ctx, tokenType); err != nil {
		return errorResult("clear_tokens", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared %s tokens successfully", tokenType)), nil
}
