package mcpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/goetzcj/ninjamcp/internal/auth"
	"github.com/goetzcj/ninjamcp/internal/ninja"
	"github.com/goetzcj/ninjamcp/internal/tokenstore"
)

// newCountServer builds a Server over a fake API with an injected token.
func newCountServer(t *testing.T, handler http.Handler) *Server {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	backend, err := tokenstore.NewFileBackend(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	manager := auth.NewManager(auth.NewStore(backend), nil, auth.ManagerConfig{Mode: auth.ModeHybrid})
	manager.InjectClientToken(t.Context(), auth.InjectedToken{AccessToken: "tok"})

	return New(ninja.NewClient(api.URL, manager), manager)
}

// deviceIDs renders n device objects with sequential ids starting at from.
func deviceIDs(from, n int) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = fmt.Sprintf(`{"id":%d}`, from+i)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool returned error result: %+v", res.Content)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestGetDeviceCountPaginates(t *testing.T) {
	var requests []string
	server := newCountServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/devices" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		requests = append(requests, r.URL.Query().Get("after"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(deviceIDs(1, countPageSize)))
			return
		}
		_, _ = w.Write([]byte(deviceIDs(countPageSize+1, 5)))
	}))

	req := mcp.CallToolRequest{}
	res, err := server.handleGetDeviceCount(t.Context(), req)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	var summary map[string]int
	if err := json.Unmarshal([]byte(resultText(t, res)), &summary); err != nil {
		t.Fatalf("summary not valid JSON: %v", err)
	}
	if summary["device_count"] != countPageSize+5 {
		t.Errorf("device_count = %d, want %d", summary["device_count"], countPageSize+5)
	}

	// A full page forces a second request cursored past the last id.
	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	if requests[1] != "1000" {
		t.Errorf("second request after = %q, want 1000", requests[1])
	}
}

func TestGetDeviceCountByOrganization(t *testing.T) {
	perOrg := map[string]string{
		"org=1": deviceIDs(1, 3),
		"org=2": deviceIDs(10, 1),
	}

	server := newCountServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/organizations":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Alpha"},{"id":2,"name":"Beta"}]`))
		case "/api/v2/devices":
			page, ok := perOrg[r.URL.Query().Get("df")]
			if !ok {
				t.Errorf("unexpected device filter: %q", r.URL.Query().Get("df"))
				page = "[]"
			}
			_, _ = w.Write([]byte(page))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))

	req := mcp.CallToolRequest{}
	res, err := server.handleGetDeviceCountByOrganization(t.Context(), req)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	var summary struct {
		TotalOrganizations int                 `json:"total_organizations"`
		TotalDevices       int                 `json:"total_devices"`
		Organizations      []organizationCount `json:"organizations"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &summary); err != nil {
		t.Fatalf("summary not valid JSON: %v", err)
	}

	if summary.TotalOrganizations != 2 {
		t.Errorf("total_organizations = %d, want 2", summary.TotalOrganizations)
	}
	if summary.TotalDevices != 4 {
		t.Errorf("total_devices = %d, want 4", summary.TotalDevices)
	}

	// Sorted by device count, descending.
	if len(summary.Organizations) != 2 {
		t.Fatalf("organizations = %d, want 2", len(summary.Organizations))
	}
	if summary.Organizations[0].OrganizationName != "Alpha" || summary.Organizations[0].DeviceCount != 3 {
		t.Errorf("first row = %+v, want Alpha with 3 devices", summary.Organizations[0])
	}
	if summary.Organizations[1].OrganizationName != "Beta" || summary.Organizations[1].DeviceCount != 1 {
		t.Errorf("second row = %+v, want Beta with 1 device", summary.Organizations[1])
	}
}

func TestGetDeviceCountByOrganizationWithFilter(t *testing.T) {
	var filters []string
	server := newCountServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/organizations":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Alpha"}]`))
		case "/api/v2/devices":
			filters = append(filters, r.URL.Query().Get("df"))
			_, _ = w.Write([]byte(deviceIDs(1, 2)))
		}
	}))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"online_status": "online"}

	res, err := server.handleGetDeviceCountByOrganization(t.Context(), req)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	_ = resultText(t, res)

	// The per-organization clause leads and the criteria follow.
	if len(filters) != 1 || filters[0] != "org=1 AND online" {
		t.Errorf("filters = %v, want [org=1 AND online]", filters)
	}
}

func TestGetDeviceCountByOrganizationRejectsBadFilter(t *testing.T) {
	server := newCountServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued for invalid arguments")
	}))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"device_classes": "TOASTER"}

	res, err := server.handleGetDeviceCountByOrganization(t.Context(), req)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result for an invalid device class")
	}
}
