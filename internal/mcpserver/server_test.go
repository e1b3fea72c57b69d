package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/sitemapd/internal/models"
	"github.com/starford/sitemapd/internal/render"
	"github.com/starford/sitemapd/internal/routes"
	"github.com/starford/sitemapd/internal/sitemap"
	"github.com/starford/sitemapd/internal/sitemapservice"
	"github.com/starford/sitemapd/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	cats := []models.ContentCategory{{Slug: "pages"}, {Slug: "news"}}
	root, store := testutil.TestContent(t, "pages", "news")
	testutil.WriteEntry(t, root, "pages/about.md", "---\ntitle: About\n---\nAbout us.\n")
	testutil.WriteEntry(t, root, "news/one.md", "---\ntitle: One\ndatepublish: \"2024-01-01\"\n---\n")
	testutil.WriteEntry(t, root, "news/two.md", "---\ntitle: Two\ndatepublish: \"2024-02-01\"\n---\n")

	tbl, err := routes.NewTable(nil, "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	collector, err := sitemap.NewCollector(store, tbl, cats, sitemap.Options{SiteName: "Example", Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	renderer, err := render.New(render.Options{AbsoluteURL: tbl.AbsoluteURL})
	if err != nil {
		t.Fatal(err)
	}
	svc := sitemapservice.NewService(collector, renderer, sitemapservice.Options{Logger: logger})

	return New(svc, store, store, collector.Eligible), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_sitemap_links":
		result, err = srv.getSitemapLinks(ctx, req)
	case "get_sitemap_xml":
		result, err = srv.getSitemapXML(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "list_entries":
		result, err = srv.listEntries(ctx, req)
	case "read_entry":
		result, err = srv.readEntry(ctx, req)
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

func TestGetSitemapLinks(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_sitemap_links", map[string]any{})
	var links []models.LinkEntry
	if err := json.Unmarshal([]byte(resultText(r)), &links); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var urls []string
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	want := "/ /pages /pages/about /news /news/two /news/one"
	if got := strings.Join(urls, " "); got != want {
		t.Errorf("urls = %q, want %q", got, want)
	}
}

func TestGetSitemapLinks_Filters(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_sitemap_links", map[string]any{"max_depth": float64(1)})
	var links []models.LinkEntry
	if err := json.Unmarshal([]byte(resultText(r)), &links); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(links) != 3 {
		t.Errorf("max_depth=1: got %d links, want 3", len(links))
	}

	r = callTool(t, srv, "get_sitemap_links", map[string]any{"category": "news"})
	links = nil
	if err := json.Unmarshal([]byte(resultText(r)), &links); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var urls []string
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	if got := strings.Join(urls, " "); got != "/news /news/two /news/one" {
		t.Errorf("category=news: urls = %q", got)
	}
	if len(links) > 0 && (links[0].Title != "News" || links[0].Record != nil) {
		t.Errorf("category=news: listing = %+v", links[0])
	}
}

func TestGetSitemapXML(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_sitemap_xml", nil)
	text := resultText(r)
	if !strings.Contains(text, "<loc>https://example.com/news/two</loc>") {
		t.Errorf("xml = %s", text)
	}
}

func TestListCategories(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_categories", nil)
	if text := resultText(r); !strings.Contains(text, `"name": "News"`) {
		t.Errorf("categories = %s", text)
	}
}

func TestListEntries(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_entries", map[string]any{"category": "news"})
	lines := strings.Split(resultText(r), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "news/two.md\t") {
		t.Errorf("entries = %q", lines)
	}

	r = callTool(t, srv, "list_entries", map[string]any{"category": "events"})
	if !r.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestReadEntry(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_entry", map[string]any{"path": "pages/about.md"})
	if text := resultText(r); text != "---\ntitle: About\n---\nAbout us.\n" {
		t.Errorf("read result = %q", text)
	}

	r = callTool(t, srv, "read_entry", map[string]any{"path": "pages/nope.md"})
	if !r.IsError {
		t.Error("expected error for missing entry")
	}

	r = callTool(t, srv, "read_entry", map[string]any{"path": "../etc/passwd"})
	if !r.IsError {
		t.Error("expected error for path outside the content root")
	}
}

func TestReadEntry_WithoutFiles(t *testing.T) {
	srv := New(nil, nil, nil, func() []models.ContentCategory { return nil })
	r := callTool(t, srv, "read_entry", map[string]any{"path": "pages/about.md"})
	if !r.IsError {
		t.Error("expected error when sources are unavailable")
	}
}
