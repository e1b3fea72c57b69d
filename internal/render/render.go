// Package render turns a collected link list into the HTML and XML sitemaps.
package render

import (
	"embed"
	"encoding/xml"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path/filepath"
	"sort"
	"strings"
	texttemplate "text/template"

	"github.com/starford/sitemapd/internal/models"
)

// Content types of the rendered documents.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeXML  = "application/xml; charset=utf-8"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	imageNS   = "http://www.google.com/schemas/sitemap-image/1.1"
)

//go:embed templates/sitemap.html
var defaultTemplates embed.FS

// Options configures a Renderer.
type Options struct {
	SiteName string
	// Template and XMLTemplate are optional paths overriding the built-in output.
	Template     string
	XMLTemplate  string
	IgnoreImages bool
	// AbsoluteURL turns root-relative links into absolute ones for <loc>.
	// nil leaves links unchanged.
	AbsoluteURL func(string) string
	// SitemapXMLURL is advertised in the HTML head snippet.
	SitemapXMLURL string
}

// Entry is the view of one link handed to templates.
type Entry struct {
	models.LinkEntry
	Loc string // absolute URL
}

// View is the template data.
type View struct {
	SiteName     string
	Entries      []Entry
	Depths       []int
	IgnoreImages bool
	HeadSnippet  htmltemplate.HTML
}

// Renderer renders sitemaps. It is safe for concurrent use.
type Renderer struct {
	opts Options
	html *htmltemplate.Template
	xml  *texttemplate.Template // nil renders the built-in urlset
}

var funcs = map[string]any{
	"indent": func(depth int) int {
		if depth <= 1 {
			return 0
		}
		return (depth - 1) * 2
	},
}

// New parses the templates.
func New(opts Options) (*Renderer, error) {
	if opts.AbsoluteURL == nil {
		opts.AbsoluteURL = func(s string) string { return s }
	}
	r := &Renderer{opts: opts}

	var err error
	if opts.Template != "" {
		r.html, err = htmltemplate.New("").Funcs(funcs).ParseFiles(opts.Template)
		if err == nil {
			r.html = r.html.Lookup(filepath.Base(opts.Template))
		}
	} else {
		r.html, err = htmltemplate.New("").Funcs(funcs).ParseFS(defaultTemplates, "templates/sitemap.html")
		if err == nil {
			r.html = r.html.Lookup("sitemap.html")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render: parse html template: %w", err)
	}

	if opts.XMLTemplate != "" {
		t, err := texttemplate.New("").Funcs(funcs).Funcs(texttemplate.FuncMap{"xml": xmlEscape}).ParseFiles(opts.XMLTemplate)
		if err != nil {
			return nil, fmt.Errorf("render: parse xml template: %w", err)
		}
		r.xml = t.Lookup(filepath.Base(opts.XMLTemplate))
	}
	return r, nil
}

// HeadSnippet returns the <link rel="sitemap"> tag advertising href.
func HeadSnippet(href string) htmltemplate.HTML {
	return htmltemplate.HTML(fmt.Sprintf(
		`<link rel="sitemap" type="application/xml" title="Sitemap" href="%s">`,
		htmltemplate.HTMLEscapeString(href)))
}

func (r *Renderer) view(links []models.LinkEntry) View {
	v := View{
		SiteName:     r.opts.SiteName,
		Entries:      make([]Entry, len(links)),
		IgnoreImages: r.opts.IgnoreImages,
	}
	if r.opts.SitemapXMLURL != "" {
		v.HeadSnippet = HeadSnippet(r.opts.SitemapXMLURL)
	}
	depths := map[int]struct{}{}
	for i, l := range links {
		v.Entries[i] = Entry{LinkEntry: l, Loc: r.opts.AbsoluteURL(l.URL)}
		if l.Depth > 1 {
			depths[l.Depth] = struct{}{}
		}
	}
	for d := range depths {
		v.Depths = append(v.Depths, d)
	}
	sort.Ints(v.Depths)
	return v
}

// HTML writes the human-readable sitemap.
func (r *Renderer) HTML(w io.Writer, links []models.LinkEntry) error {
	if err := r.html.Execute(w, r.view(links)); err != nil {
		return fmt.Errorf("render: html: %w", err)
	}
	return nil
}

type urlSet struct {
	XMLName    xml.Name   `xml:"urlset"`
	Xmlns      string     `xml:"xmlns,attr"`
	XmlnsImage string     `xml:"xmlns:image,attr,omitempty"`
	URLs       []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string      `xml:"loc"`
	LastMod string      `xml:"lastmod,omitempty"`
	Images  []imageLink `xml:"image:image,omitempty"`
}

type imageLink struct {
	Loc string `xml:"image:loc"`
}

// XML writes the sitemaps.org urlset: one <url> per link with a non-empty URL.
func (r *Renderer) XML(w io.Writer, links []models.LinkEntry) error {
	if r.xml != nil {
		v := r.view(withURL(links))
		if err := r.xml.Execute(w, v); err != nil {
			return fmt.Errorf("render: xml: %w", err)
		}
		return nil
	}

	set := urlSet{Xmlns: sitemapNS}
	for _, l := range withURL(links) {
		u := urlEntry{Loc: r.opts.AbsoluteURL(l.URL), LastMod: l.LastModified}
		if l.Image != "" && !r.opts.IgnoreImages {
			u.Images = append(u.Images, imageLink{Loc: r.opts.AbsoluteURL(l.Image)})
			set.XmlnsImage = imageNS
		}
		set.URLs = append(set.URLs, u)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("render: xml: %w", err)
	}
	return enc.Close()
}

func withURL(links []models.LinkEntry) []models.LinkEntry {
	out := make([]models.LinkEntry, 0, len(links))
	for _, l := range links {
		if l.URL != "" {
			out = append(out, l)
		}
	}
	return out
}

func xmlEscape(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}
