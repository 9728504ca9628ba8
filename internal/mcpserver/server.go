// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Raido tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/themes"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *browse.Service
	themes *themes.Store
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *browse.Service, store *themes.Store) *Server {
	s := &Server{svc: svc, themes: store}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("browse_directory",
		mcp.WithDescription("List the contents of a directory inside the allowed boundary. "+
			"Returns subdirectories and Markdown files; hidden entries and symlinks are excluded."),
		mcp.WithString("path", mcp.Description("Absolute directory path (empty for the default start directory)")),
	), s.browseDirectory)

	s.mcp.AddTool(mcp.NewTool("read_markdown",
		mcp.WithDescription("Read the raw content of a Markdown file inside the allowed boundary."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to the Markdown file")),
	), s.readMarkdown)

	s.mcp.AddTool(mcp.NewTool("list_themes",
		mcp.WithDescription("List the available viewer CSS themes."),
	), s.listThemes)

	s.mcp.AddTool(mcp.NewTool("save_theme",
		mcp.WithDescription("Create or replace a viewer CSS theme. The id is reduced to "+
			"lowercase letters, digits, hyphen and underscore before use."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Theme identifier")),
		mcp.WithString("css", mcp.Required(), mcp.Description("Theme CSS content")),
		mcp.WithString("name", mcp.Description("Human-readable theme name")),
		mcp.WithString("description", mcp.Description("Short theme description")),
	), s.saveTheme)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) browseDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := ""
	if p, err := req.RequireString("path"); err == nil {
		path = p
	}
	if path == "" {
		path = s.svc.Root()
	}
	listing, err := s.svc.List(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(listing, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	file, err := s.svc.ReadFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(file.Content), nil
}

func (s *Server) listThemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.themes.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(list, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	css, err := req.RequireString("css")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := ""
	if v, err := req.RequireString("name"); err == nil {
		name = v
	}
	description := ""
	if v, err := req.RequireString("description"); err == nil {
		description = v
	}

	saved, err := s.themes.Save(id, name, description, css)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", saved)), nil
}
