package mcpserver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

// Ticketing tools run under the interactive user identity: their operation
// names route to the user credential slot.
func (s *Server) registerTicketTools() {
	s.mcp.AddTool(mcp.NewTool("get_ticket_boards",
		mcp.WithDescription("Get all ticket boards"),
	), s.handleGetTicketBoards)

	s.mcp.AddTool(mcp.NewTool("get_my_tickets",
		mcp.WithDescription("Get tickets assigned to the current user with optional filtering"),
		mcp.WithNumber("board_id",
			mcp.Description("Filter by ticket board ID"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by ticket status (e.g. OPEN, IN_PROGRESS, RESOLVED)"),
		),
		mcp.WithString("priority",
			mcp.Description("Filter by priority (e.g. LOW, MEDIUM, HIGH, CRITICAL)"),
		),
		mcp.WithString("since",
			mcp.Description("Get tickets since this timestamp (ISO format)"),
		),
		mcp.WithString("until",
			mcp.Description("Get tickets until this timestamp (ISO format)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Pagination cursor for next page"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of tickets to return (max 1000)"),
		),
	), s.handleListTickets("get_my_tickets", "assignedToMe"))

	s.mcp.AddTool(mcp.NewTool("get_unassigned_tickets",
		mcp.WithDescription("Get unassigned tickets with optional filtering"),
		mcp.WithNumber("board_id",
			mcp.Description("Filter by ticket board ID"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by ticket status (e.g. OPEN, IN_PROGRESS, RESOLVED)"),
		),
		mcp.WithString("priority",
			mcp.Description("Filter by priority (e.g. LOW, MEDIUM, HIGH, CRITICAL)"),
		),
		mcp.WithString("since",
			mcp.Description("Get tickets since this timestamp (ISO format)"),
		),
		mcp.WithString("until",
			mcp.Description("Get tickets until this timestamp (ISO format)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Pagination cursor for next page"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Number of tickets to return (max 1000)"),
		),
	), s.handleListTickets("get_unassigned_tickets", "unassigned"))

	s.mcp.AddTool(mcp.NewTool("get_ticket_details",
		mcp.WithDescription("Get detailed information about a specific ticket"),
		mcp.WithNumber("ticket_id",
			mcp.Required(),
			mcp.Description("Ticket ID"),
		),
	), s.handleGetTicketDetails)

	s.mcp.AddTool(mcp.NewTool("update_ticket_status",
		mcp.WithDescription("Update the status of a ticket"),
		mcp.WithNumber("ticket_id",
			mcp.Required(),
			mcp.Description("Ticket ID"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New ticket status"),
		),
	), s.handleUpdateTicketStatus)

	s.mcp.AddTool(mcp.NewTool("add_ticket_note",
		mcp.WithDescription("Add a note to a ticket"),
		mcp.WithNumber("ticket_id",
			mcp.Required(),
			mcp.Description("Ticket ID"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Note text"),
		),
		mcp.WithBoolean("public",
			mcp.Description("Whether the note is visible to the requester"),
		),
	), s.handleAddTicketNote)
}

// handleListTickets builds a ticket listing handler. The marker parameter
// ("assignedToMe" or "unassigned") scopes the listing.
func (s *Server) handleListTickets(operation, marker string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		params := url.Values{}
		params.Set(marker, "true")
		setInt(params, args, "board_id", "boardId")
		setString(params, args, "status", "status")
		setString(params, args, "priority", "priority")
		setString(params, args, "since", "since")
		setString(params, args, "until", "until")
		setString(params, args, "cursor", "cursor")
		setInt(params, args, "page_size", "pageSize")

		result, err := s.client.Get(ctx, "/ticketing/tickets", operation, params)
		if err != nil {
			return errorResult(operation, err), nil
		}
		return jsonResult(result), nil
	}
}

func (s *Server) handleGetTicketBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.client.Get(ctx, "/ticketing/boards", "get_ticket_boards", nil)
	if err != nil {
		return errorResult("get_ticket_boards", err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleGetTicketDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketID, err := request.RequireInt("ticket_id")
	if err != nil {
		return mcp.NewToolResultError("ticket_id argument is required"), nil
	}

	result, err := s.client.Get(ctx, fmt.Sprintf("/ticketing/tickets/%d", ticketID), "get_ticket_details", nil)
	if err != nil {
		return errorResult("get_ticket_details", err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleUpdateTicketStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketID, err := request.RequireInt("ticket_id")
	if err != nil {
		return mcp.NewToolResultError("ticket_id argument is required"), nil
	}
	status, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("status argument is required"), nil
	}

	body := map[string]any{"status": status}
	result, err := s.client.Patch(ctx, fmt.Sprintf("/ticketing/tickets/%d", ticketID), "update_ticket_status", body)
	if err != nil {
		return errorResult("update_ticket_status", err), nil
	}
	return jsonResult(result), nil
}

func (s *Server) handleAddTicketNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticketID, err := request.RequireInt("ticket_id")
	if err != nil {
		return mcp.NewToolResultError("ticket_id argument is required"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required"), nil
	}

	public, _ := request.GetArguments()["public"].(bool)
	body := map[string]any{
		"body":   text,
		"public": public,
	}

	result, err := s.client.Post(ctx, fmt.Sprintf("/ticketing/tickets/%d/notes", ticketID), "add_ticket_note", body)
	if err != nil {
		return errorResult("add_ticket_note", err), nil
	}
	return jsonResult(result), nil
}
