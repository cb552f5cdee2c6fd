package mcpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// jsonResult pretty-prints an API payload as a text tool result.
func jsonResult(payload json.RawMessage) *mcp.CallToolResult {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return mcp.NewToolResultText(string(payload))
	}
	return mcp.NewToolResultText(buf.String())
}

// errorResult renders a failed operation as a tool error result.
func errorResult(operation string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", operation, err))
}

// setString copies a string argument into the query parameters if present.
func setString(params url.Values, args map[string]any, key, param string) {
	if v, ok := args[key].(string); ok && v != "" {
		params.Set(param, v)
	}
}

// setInt copies a numeric argument into the query parameters if present.
// JSON numbers arrive as float64.
func setInt(params url.Values, args map[string]any, key, param string) {
	if v, ok := args[key].(float64); ok {
		params.Set(param, strconv.Itoa(int(v)))
	}
}

// intArg returns a numeric argument as an int.
func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// idList parses a comma-separated id list argument ("12, 15, 20").
func idList(args map[string]any, key string) ([]int, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in %s", part, key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// stringList parses a comma-separated string list argument.
func stringList(args map[string]any, key string) []string {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
