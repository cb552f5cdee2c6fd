package mcpserver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/goetzcj/ninjamcp/internal/ninja"
)

func (s *Server) registerDeviceTools() {
	s.mcp.AddTool(mcp.NewTool("get_organizations",
		mcp.WithDescription("Get all organizations with their IDs and names"),
	), s.handleGetOrganizations)

	s.mcp.AddTool(mcp.NewTool("get_devices",
		mcp.WithDescription("Get basic device information with optional filtering"),
		mcp.WithString("device_filter",
			mcp.Description("Raw device filter expression; overrides the individual filter arguments"),
		),
		mcp.WithString("organization_ids",
			mcp.Description("Comma-separated organization IDs to filter by"),
		),
		mcp.WithString("exclude_organization_ids",
			mcp.Description("Comma-separated organization IDs to exclude"),
		),
		mcp.WithString("location_ids",
			mcp.Description("Comma-separated location IDs to filter by"),
		),
		mcp.WithString("exclude_location_ids",
			mcp.Description("Comma-separated location IDs to exclude"),
		),
		mcp.WithString("device_classes",
			mcp.Description("Comma-separated device classes (e.g. WINDOWS_SERVER, MAC)"),
		),
		mcp.WithString("approval_status",
			mcp.Description("Filter by approval status (PENDING or APPROVED)"),
		),
		mcp.WithString("online_status",
			mcp.Description("Filter by connectivity state"),
			mcp.Enum("online", "offline"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of devices to return"),
		),
		mcp.WithNumber("after",
			mcp.Description("Last device ID of the previous page (cursor)"),
		),
	), s.handleGetDevices("/devices", "get_devices"))

	s.mcp.AddTool(mcp.NewTool("get_devices_detailed",
		mcp.WithDescription("Get comprehensive device information with optional filtering"),
		mcp.WithString("device_filter",
			mcp.Description("Raw device filter expression; overrides the individual filter arguments"),
		),
		mcp.WithString("organization_ids",
			mcp.Description("Comma-separated organization IDs to filter by"),
		),
		mcp.WithString("exclude_organization_ids",
			mcp.Description("Comma-separated organization IDs to exclude"),
		),
		mcp.WithString("location_ids",
			mcp.Description("Comma-separated location IDs to filter by"),
		),
		mcp.WithString("exclude_location_ids",
			mcp.Description("Comma-separated location IDs to exclude"),
		),
		mcp.WithString("device_classes",
			mcp.Description("Comma-separated device classes (e.g. WINDOWS_SERVER, MAC)"),
		),
		mcp.WithString("approval_status",
			mcp.Description("Filter by approval status (PENDING or APPROVED)"),
		),
		mcp.WithString("online_status",
			mcp.Description("Filter by connectivity state"),
			mcp.Enum("online", "offline"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of devices to return"),
		),
		mcp.WithNumber("after",
			mcp.Description("Last device ID of the previous page (cursor)"),
		),
	), s.handleGetDevices("/devices-detailed", "get_devices_detailed"))

	s.mcp.AddTool(mcp.NewTool("get_device_details",
		mcp.WithDescription("Get detailed information about a specific device by ID"),
		mcp.WithNumber("device_id",
			mcp.Required(),
			mcp.Description("Device ID"),
		),
	), s.handleGetDeviceDetails)
}

func (s *Server) handleGetOrganizations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.client.Get(ctx, "/organizations", "get_organizations", nil)
	if err != nil {
		return errorResult("get_organizations", err), nil
	}
	return jsonResult(result), nil
}

// handleGetDevices builds a device listing handler for the given endpoint.
// Both device listings accept the same filter arguments.
func (s *Server) handleGetDevices(endpoint, operation string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		params := url.Values{}
		setInt(params, args, "page_size", "pageSize")
		setInt(params, args, "after", "after")

		filter, err := deviceFilterFromArgs(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if filter != "" {
			params.Set("df", filter)
		}

		result, err := s.client.Get(ctx, endpoint, operation, params)
		if err != nil {
			return errorResult(operation, err), nil
		}
		return jsonResult(result), nil
	}
}

func (s *Server) handleGetDeviceDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deviceID, err := request.RequireInt("device_id")
	if err != nil {
		return mcp.NewToolResultError("device_id argument is required"), nil
	}

	result, err := s.client.Get(ctx, fmt.Sprintf("/device/%d", deviceID), "get_device_details", nil)
	if err != nil {
		return errorResult("get_device_details", err), nil
	}
	return jsonResult(result), nil
}

// deviceFilterFromArgs assembles the df query parameter. A raw device_filter
// argument wins over the individual criteria.
func deviceFilterFromArgs(args map[string]any) (string, error) {
	if raw, ok := args["device_filter"].(string); ok && raw != "" {
		return raw, nil
	}

	builder := &ninja.FilterBuilder{}

	orgIDs, err := idList(args, "organization_ids")
	if err != nil {
		return "", err
	}
	builder.Organizations(orgIDs, false)

	excludeOrgIDs, err := idList(args, "exclude_organization_ids")
	if err != nil {
		return "", err
	}
	builder.Organizations(excludeOrgIDs, true)

	locIDs, err := idList(args, "location_ids")
	if err != nil {
		return "", err
	}
	builder.Locations(locIDs, false)

	excludeLocIDs, err := idList(args, "exclude_location_ids")
	if err != nil {
		return "", err
	}
	builder.Locations(excludeLocIDs, true)

	if _, err := builder.DeviceClasses(stringList(args, "device_classes"), false); err != nil {
		return "", err
	}

	if status, ok := args["approval_status"].(string); ok {
		if _, err := builder.ApprovalStatus(status); err != nil {
			return "", err
		}
	}

	if status, ok := args["online_status"].(string); ok && status != "" {
		switch strings.ToLower(strings.TrimSpace(status)) {
		case "online":
			builder.Online(true)
		case "offline":
			builder.Online(false)
		default:
			return "", fmt.Errorf("invalid online status: %s", status)
		}
	}

	return builder.String(), nil
}
