package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// countPageSize is the maximum page the devices endpoint serves.
const countPageSize = 1000

func (s *Server) registerCountTools() {
	s.mcp.AddTool(mcp.NewTool("get_device_count",
		mcp.WithDescription("Count devices matching an optional filter, paginating through all pages"),
		mcp.WithString("device_filter",
			mcp.Description("Device filter expression to scope the count"),
		),
	), s.handleGetDeviceCount)

	s.mcp.AddTool(mcp.NewTool("get_device_count_by_organization",
		mcp.WithDescription("Count devices per organization, applying an optional filter to each"),
		mcp.WithString("device_filter",
			mcp.Description("Raw device filter expression; overrides the individual filter arguments"),
		),
		mcp.WithString("device_classes",
			mcp.Description("Comma-separated device classes to count (e.g. WINDOWS_SERVER, MAC)"),
		),
		mcp.WithString("approval_status",
			mcp.Description("Filter by approval status (PENDING or APPROVED)"),
		),
		mcp.WithString("online_status",
			mcp.Description("Filter by connectivity state"),
			mcp.Enum("online", "offline"),
		),
	), s.handleGetDeviceCountByOrganization)
}

// countDevices walks the device listing with the given filter and counts the
// returned ids across all pages.
func (s *Server) countDevices(ctx context.Context, operation, filter string) (int, error) {
	total := 0
	after := 0
	for {
		params := url.Values{}
		params.Set("pageSize", strconv.Itoa(countPageSize))
		if after > 0 {
			params.Set("after", strconv.Itoa(after))
		}
		if filter != "" {
			params.Set("df", filter)
		}

		result, err := s.client.Get(ctx, "/devices", operation, params)
		if err != nil {
			return 0, err
		}

		var page []struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(result, &page); err != nil {
			return 0, fmt.Errorf("unexpected response: %w", err)
		}

		total += len(page)
		if len(page) < countPageSize {
			return total, nil
		}
		after = page[len(page)-1].ID
	}
}

func (s *Server) handleGetDeviceCount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := request.GetString("device_filter", "")

	total, err := s.countDevices(ctx, "get_device_count", filter)
	if err != nil {
		return errorResult("get_device_count", err), nil
	}

	summary, err := json.MarshalIndent(map[string]int{"device_count": total}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get_device_count failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(summary)), nil
}

// organizationCount is one row of the per-organization count summary.
type organizationCount struct {
	OrganizationID   int    `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	DeviceCount      int    `json:"device_count"`
}

func (s *Server) handleGetDeviceCountByOrganization(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const operation = "get_device_count_by_organization"
	args := request.GetArguments()

	base, err := deviceFilterFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.client.Get(ctx, "/organizations", operation, nil)
	if err != nil {
		return errorResult(operation, err), nil
	}

	var orgs []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(result, &orgs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: unexpected response: %v", operation, err)), nil
	}

	counts := make([]organizationCount, 0, len(orgs))
	total := 0
	for _, org := range orgs {
		filter := fmt.Sprintf("org=%d", org.ID)
		if base != "" {
			filter += " AND " + base
		}

		count, err := s.countDevices(ctx, operation, filter)
		if err != nil {
			return errorResult(operation, err), nil
		}

		name := org.Name
		if name == "" {
			name = fmt.Sprintf("Organization %d", org.ID)
		}
		counts = append(counts, organizationCount{
			OrganizationID:   org.ID,
			OrganizationName: name,
			DeviceCount:      count,
		})
		total += count
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].DeviceCount > counts[j].DeviceCount })

	summary, err := json.MarshalIndent(map[string]any{
		"total_organizations": len(counts),
		"total_devices":       total,
		"organizations":       counts,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", operation, err)), nil
	}
	return mcp.NewToolResultText(string(summary)), nil
}
