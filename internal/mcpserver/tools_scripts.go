package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerScriptTools() {
	s.mcp.AddTool(mcp.NewTool("get_automation_scripts",
		mcp.WithDescription("Get available automation scripts"),
	), s.handleGetAutomationScripts)

	s.mcp.AddTool(mcp.NewTool("run_script",
		mcp.WithDescription("Run an automation script on a device"),
		mcp.WithNumber("device_id",
			mcp.Required(),
			mcp.Description("Device ID to run the script on"),
		),
		mcp.WithNumber("script_id",
			mcp.Required(),
			mcp.Description("Automation script ID"),
		),
		mcp.WithString("parameters",
			mcp.Description("Optional script parameters"),
		),
		mcp.WithString("run_as",
			mcp.Description("Credential to run the script as (e.g. SYSTEM)"),
		),
	), s.handleRunScript)
}

func (s *Server) handleGetAutomationScripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.client.Get(ctx, "/automation/scripts", "get_automation_scripts", nil)
	if err != nil {
		return errorResult("get_automation_scripts", err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deviceID, err := request.RequireInt("device_id")
	if err != nil {
		return mcp.NewToolResultError("device_id argument is required"), nil
	}
	scriptID, err := request.RequireInt("script_id")
	if err != nil {
		return mcp.NewToolResultError("script_id argument is required"), nil
	}

	args := request.GetArguments()
	body := map[string]any{
		"deviceId": deviceID,
		"scriptId": scriptID,
	}
	if parameters, ok := args["parameters"].(string); ok && parameters != "" {
		body["parameters"] = parameters
	}
	if runAs, ok := args["run_as"].(string); ok && runAs != "" {
		body["runAs"] = runAs
	}

	result, err := s.client.Post(ctx, "/automation/scripts/run", "run_script", body)
	if err != nil {
		return errorResult("run_script", err), nil
	}
	return jsonResult(result), nil
}
