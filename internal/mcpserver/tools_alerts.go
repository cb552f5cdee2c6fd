package mcpserver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerAlertTools() {
	s.mcp.AddTool(mcp.NewTool("get_alerts",
		mcp.WithDescription("Get active alerts with optional filtering"),
		mcp.WithString("device_filter",
			mcp.Description("Device filter expression to scope alerts"),
		),
		mcp.WithString("source_type",
			mcp.Description("Filter by alert source type (e.g. CONDITION, AGENT_OFFLINE)"),
		),
	), s.handleGetAlerts)

	s.mcp.AddTool(mcp.NewTool("get_device_alerts",
		mcp.WithDescription("Get active alerts for a specific device"),
		mcp.WithNumber("device_id",
			mcp.Required(),
			mcp.Description("Device ID"),
		),
	), s.handleGetDeviceAlerts)

	s.mcp.AddTool(mcp.NewTool("reset_alert",
		mcp.WithDescription("Reset (acknowledge) an alert by its UID"),
		mcp.WithString("alert_uid",
			mcp.Required(),
			mcp.Description("Alert UID"),
		),
		mcp.WithString("note",
			mcp.Description("Optional note recorded with the reset"),
		),
	), s.handleResetAlert)
}

func (s *Server) handleGetAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params := url.Values{}
	setString(params, args, "device_filter", "df")
	setString(params, args, "source_type", "sourceType")

	result, err := s.client.Get(ctx, "/alerts", "get_alerts", params)
	if err != nil {
		return errorResult("get_alerts", err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleGetDeviceAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deviceID, err := request.RequireInt("device_id")
	if err != nil {
		return mcp.NewToolResultError("device_id argument is required"), nil
	}

	result, err := s.client.Get(ctx, fmt.Sprintf("/device/%d/alerts", deviceID), "get_device_alerts", nil)
	if err != nil {
		return errorResult("get_device_alerts", err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleResetAlert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	alertUID, err := request.RequireString("alert_uid")
	if err != nil {
		return mcp.NewToolResultError("alert_uid argument is required"), nil
	}

	var body map[string]any
	if note, ok := request.GetArguments()["note"].(string); ok && note != "" {
		body = map[string]any{"activityData": map[string]any{"note": note}}
	}

	result, err := s.client.Post(ctx, fmt.Sprintf("/alerts/%s/reset", url.PathEscape(alertUID)), "reset_alert", body)
	if err != nil {
		return errorResult("reset_alert", err), nil
	}
	return jsonResult(result), nil
}
