package routes

import (
	"errors"
	"testing"

	"github.com/starford/sitemapd/internal/apperr"
)

func TestResolve_Defaults(t *testing.T) {
	tbl, err := NewTable(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{Homepage, nil, "/"},
		{ContentListing, map[string]string{ParamCategory: "articles"}, "/articles"},
		{ContentLink, map[string]string{ParamCategory: "articles", ParamSlug: "hello world"}, "/articles/hello%20world"},
		{SitemapXML, nil, "/sitemap.xml"},
	}
	for _, c := range cases {
		got, err := tbl.Resolve(c.name, c.params)
		if err != nil {
			t.Errorf("Resolve(%s): %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("Resolve(%s) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestResolve_Override(t *testing.T) {
	tbl, err := NewTable(map[string]string{"bloglisting": "/blog/{contenttypeslug}/all"}, "")
	if err != nil {
		t.Fatal(err)
	}
	got, err := tbl.Resolve("bloglisting", map[string]string{ParamCategory: "posts"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "/blog/posts/all" {
		t.Errorf("got %q", got)
	}
}

func TestResolve_UnknownRoute(t *testing.T) {
	tbl, _ := NewTable(nil, "")
	_, err := tbl.Resolve("nope", nil)
	if !errors.Is(err, apperr.ErrUnknownRoute) {
		t.Errorf("err = %v, want ErrUnknownRoute", err)
	}
}

func TestResolve_MissingParam(t *testing.T) {
	tbl, _ := NewTable(nil, "")
	_, err := tbl.Resolve(ContentListing, nil)
	if !errors.Is(err, apperr.ErrMissingParameter) {
		t.Errorf("err = %v, want ErrMissingParameter", err)
	}
}

func TestAbsolute(t *testing.T) {
	tbl, err := NewTable(nil, "https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	got, err := tbl.Absolute(SitemapXML, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/sitemap.xml" {
		t.Errorf("got %q", got)
	}
	if tbl.AbsoluteURL("https://other.org/x") != "https://other.org/x" {
		t.Error("absolute link should pass through")
	}
	if tbl.AbsoluteURL("") != "" {
		t.Error("empty link should stay empty")
	}
}

func TestNewTable_RejectsRelativeBase(t *testing.T) {
	if _, err := NewTable(nil, "example.com"); err == nil {
		t.Error("expected error for base url without scheme")
	}
	if _, err := NewTable(map[string]string{"x": "no-slash"}, ""); err == nil {
		t.Error("expected error for pattern without leading slash")
	}
}
