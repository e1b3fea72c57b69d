// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the sitemap to LLM clients via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sitemapd/internal/apperr"
	"github.com/starford/sitemapd/internal/content"
	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/sitemapservice"
)

const entryFormatURI = "sitemapd://entry-format"

// Sitemaps is what the tools need from the sitemap service.
type Sitemaps interface {
	Links(ctx context.Context) ([]models.LinkEntry, error)
	XML(ctx context.Context) (*sitemapservice.Document, error)
}

// Server wraps the MCP server with the sitemap tools.
type Server struct {
	mcp        *server.MCPServer
	svc        Sitemaps
	store      content.Store
	files      *content.FS
	categories func() []models.ContentCategory
}

// New creates a new MCP server with all tools registered. files backs
// read_entry and may be nil.
func New(svc Sitemaps, store content.Store, files *content.FS, categories func() []models.ContentCategory) *Server {
	s := &Server{svc: svc, store: store, files: files, categories: categories}

	s.mcp = server.NewMCPServer(
		"sitemapd",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_sitemap_links",
		mcp.WithDescription("Collect the sitemap and return its links as JSON, in sitemap order."),
		mcp.WithString("category", mcp.Description("Optional category slug; only that category's links are returned")),
		mcp.WithNumber("max_depth", mcp.Description("Optional maximum depth (0 = root only)")),
	), s.getSitemapLinks)

	s.mcp.AddTool(mcp.NewTool("get_sitemap_xml",
		mcp.WithDescription("Return the rendered sitemap.xml document."),
	), s.getSitemapXML)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the content categories that contribute links to the sitemap."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List the published entries of a category, newest first."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category slug")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the raw Markdown source of a content entry. "+
			"The format is described by the "+entryFormatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the content root (e.g. pages/about.md)")),
	), s.readEntry)

	s.mcp.AddResource(
		mcp.NewResource(entryFormatURI, "Entry Format",
			mcp.WithResourceDescription("Frontmatter fields that control how an entry appears in the sitemap."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSitemapLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}
	maxDepth := -1
	if d, err := req.RequireInt("max_depth"); err == nil {
		maxDepth = d
	}

	links, err := s.svc.Links(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]models.LinkEntry, 0, len(links))
	for _, l := range links {
		if maxDepth >= 0 && l.Depth > maxDepth {
			continue
		}
		if category != "" && l.Category != category {
			continue
		}
		out = append(out, l)
	}
	return jsonResult(out)
}

func (s *Server) getSitemapXML(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.svc.XML(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(doc.Body)), nil
}

func (s *Server) listCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type category struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	var out []category
	for _, c := range s.categories() {
		out = append(out, category{Slug: c.Slug, Name: c.DisplayName()})
	}
	return jsonResult(out)
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.store.Query(ctx, category, content.DefaultQuery())
	if err != nil {
		if errors.Is(err, apperr.ErrUnknownCategory) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", category)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no entries found"), nil
	}

	var b bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", e.Path, e.DatePublished, e.Title)
	}
	return mcp.NewToolResultText(strings.TrimSuffix(b.String(), "\n")), nil
}

func (s *Server) readEntry(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.files == nil {
		return mcp.NewToolResultError("entry sources are not available"), nil
	}
	data, err := s.files.Read(path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readEntryFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      entryFormatURI,
			MIMEType: "text/markdown",
			Text:     EntryFormat,
		},
	}, nil
}
