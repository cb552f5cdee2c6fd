package mcpserver

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerActivityTools() {
	s.mcp.AddTool(mcp.NewTool("get_activities",
		mcp.WithDescription("Get activity log entries with optional filtering"),
		mcp.WithString("device_filter",
			mcp.Description("Device filter expression to scope activities"),
		),
		mcp.WithString("activity_class",
			mcp.Description("Activity class (SYSTEM, DEVICE, USER, ALL)"),
		),
		mcp.WithString("activity_type",
			mcp.Description("Activity type (e.g. SCRIPT, CONDITION, PATCH_MANAGEMENT)"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by activity status"),
		),
		mcp.WithNumber("older_than",
			mcp.Description("Return activities older than this activity ID"),
		),
		mcp.WithNumber("newer_than",
			mcp.Description("Return activities newer than this activity ID"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of activities to return"),
		),
	), s.handleGetActivities)
}

func (s *Server) handleGetActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params := url.Values{}
	setString(params, args, "device_filter", "df")
	setString(params, args, "activity_class", "class")
	setString(params, args, "activity_type", "type")
	setString(params, args, "status", "status")
	setInt(params, args, "older_than", "olderThan")
	setInt(params, args, "newer_than", "newerThan")
	setInt(params, args, "page_size", "pageSize")

	result, err := s.client.Get(ctx, "/activities", "get_activities", params)
	if err != nil {
		return errorResult("get_activities", err), nil
	}
	return jsonResult(result), nil
}
