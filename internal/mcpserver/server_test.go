package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root, svc := testutil.TestBrowse(t)
	return New(svc, testutil.TestThemeStore(t)), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "browse_directory":
		result, err = srv.browseDirectory(ctx, req)
	case "read_markdown":
		result, err = srv.readMarkdown(ctx, req)
	case "list_themes":
		result, err = srv.listThemes(ctx, req)
	case "save_theme":
		result, err = srv.saveTheme(ctx, req)
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

func TestBrowseDirectory(t *testing.T) {
	srv, root := testServer(t)
	if err := os.MkdirAll(filepath.Join(root, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "readme.md"), []byte("# hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "browse_directory", map[string]interface{}{"path": root})
	text := resultText(r)
	if !strings.Contains(text, "readme.md") || !strings.Contains(text, "notes") {
		t.Errorf("listing = %q", text)
	}
}

func TestBrowseDirectoryOutsideBoundary(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "browse_directory", map[string]interface{}{"path": "/etc"})
	if !r.IsError {
		t.Error("expected error for path outside boundary")
	}
}

func TestReadMarkdown(t *testing.T) {
	srv, root := testServer(t)
	if err := os.WriteFile(filepath.Join(root, "doc.md"), []byte("# Doc\nbody"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "read_markdown", map[string]interface{}{
		"path": filepath.Join(root, "doc.md"),
	})
	if got := resultText(r); got != "# Doc\nbody" {
		t.Errorf("read result = %q", got)
	}
}

func TestReadMarkdownMissing(t *testing.T) {
	srv, root := testServer(t)
	r := callTool(t, srv, "read_markdown", map[string]interface{}{
		"path": filepath.Join(root, "nope.md"),
	})
	if !r.IsError {
		t.Error("expected error for missing file")
	}
}

func TestSaveAndListThemes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "save_theme", map[string]interface{}{
		"id":   "Dark Mode!",
		"name": "Dark Mode",
		"css":  "body { background: #111; }",
	})
	if got := resultText(r); got != "saved: darkmode" {
		t.Errorf("save result = %q", got)
	}

	r = callTool(t, srv, "list_themes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "darkmode") || !strings.Contains(text, "Dark Mode") {
		t.Errorf("themes = %q", text)
	}
}
