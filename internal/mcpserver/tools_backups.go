package mcpserver

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBackupTools() {
	s.mcp.AddTool(mcp.NewTool("get_backup_jobs",
		mcp.WithDescription("Get backup jobs with optional filtering"),
		mcp.WithString("device_filter",
			mcp.Description("Device filter expression to scope backup jobs"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by job status (e.g. COMPLETED, FAILED, RUNNING)"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of jobs to return"),
		),
	), s.handleGetBackupJobs)
}

func (s *Server) handleGetBackupJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params := url.Values{}
	setString(params, args, "device_filter", "df")
	setString(params, args, "status", "status")
	setInt(params, args, "page_size", "pageSize")

	result, err := s.client.Get(ctx, "/backup-jobs", "get_backup_jobs", params)
	if err != nil {
		return errorResult("get_backup_jobs", err), nil
	}
	return jsonResult(result), nil
}
