package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *noteservice.Service) {
	t.Helper()
	svc := testutil.TestService(t)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_folders":
		result, err = srv.listFolders(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "export_note":
		result, err = srv.exportNote(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, svc := testServer(t)
	f, err := svc.CreateFolder(context.Background(), "Work", "blue")
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"folder_id": f.ID,
		"title":     "Todo",
		"body":      "Buy milk",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	created := resultText(r)
	if !strings.Contains(created, `"Todo"`) || !strings.Contains(created, `"Buy milk"`) {
		t.Errorf("create result = %q", created)
	}

	notes, err := svc.ListNotes(context.Background(), f.ID)
	if err != nil || len(notes) != 1 {
		t.Fatalf("notes = %+v, err = %v", notes, err)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": notes[0].ID})
	if !strings.Contains(resultText(r), `"Buy milk"`) {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestListFolders(t *testing.T) {
	srv, svc := testServer(t)
	_, _ = svc.CreateFolder(context.Background(), "Work", "blue")
	_, _ = svc.CreateFolder(context.Background(), "Home", "green")

	r := callTool(t, srv, "list_folders", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Work") || !strings.Contains(text, "Home") {
		t.Errorf("list = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSearchNotes(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	f, _ := svc.CreateFolder(ctx, "Work", "blue")
	_, _ = svc.CreateNote(ctx, f.ID, "project kickoff")
	_, _ = svc.CreateNote(ctx, f.ID, "unrelated")

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "KICKOFF"})
	text := resultText(r)
	if !strings.Contains(text, "project kickoff") || strings.Contains(text, "unrelated") {
		t.Errorf("search = %q", text)
	}
}

func TestExportNote(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	f, _ := svc.CreateFolder(ctx, "Work", "blue")

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"folder_id": f.ID,
		"title":     "Todo",
		"body":      "Buy milk",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	notes, _ := svc.ListNotes(ctx, f.ID)

	r = callTool(t, srv, "export_note", map[string]interface{}{"id": notes[0].ID})
	if got := resultText(r); got != "Todo\n\nBuy milk" {
		t.Errorf("export = %q", got)
	}
}
