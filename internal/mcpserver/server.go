// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only collection tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/outlineservice"
)

const formatURI = "idmkit://format"

// Server wraps the MCP server with idmkit tools.
type Server struct {
	mcp *server.MCPServer
	svc *outlineservice.Service
}

// New creates a new MCP server with all idmkit tools registered.
func New(svc *outlineservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"idmkit",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_sections",
		mcp.WithDescription("Full-text search through section headlines, attributes and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchSections)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of sections carrying it, most used first."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("read_outline",
		mcp.WithDescription("Read the IDM text of a collection subtree. "+
			"Read the format first via get_format_contract or the idmkit://format resource."),
		mcp.WithString("path", mcp.Description("Headline path such as notes/daily (empty for the whole collection)")),
	), s.readOutline)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List the indexed collection files."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("find_uri",
		mcp.WithDescription("Find sections bookmarking a URI. URIs are compared in normalized form."),
		mcp.WithString("uri", mcp.Required(), mcp.Description("URI to look up")),
	), s.findURI)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the IDM outline notation and collection layout."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "IDM Format",
			mcp.WithResourceDescription("IDM outline notation and collection layout."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	lines := make([]string, len(tags))
	for i, tc := range tags {
		lines[i] = fmt.Sprintf("%s %d", tc.Tag, tc.Count)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	detail, err := s.svc.Outline(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(detail.Text), nil
}

func (s *Server) listFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.Files(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) findURI(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sections, err := s.svc.FindURI(ctx, uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sections), nil
}

func (s *Server) getFormatContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
