// Package parser extracts entry metadata from Markdown content with YAML frontmatter.
package parser

import (
	"bytes"
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// StatusPublished is the only status that makes an entry visible.
// Entries without a status are treated as published.
const StatusPublished = "published"

// Result holds the output of parsing a Markdown entry.
type Result struct {
	Frontmatter   map[string]interface{}
	Body          string
	Title         string
	Slug          string
	Link          string
	Image         string
	Status        string
	DatePublished string
	DateChanged   string
}

// Published reports whether the entry should appear on the site.
func (r *Result) Published() bool {
	return r.Status == "" || strings.EqualFold(r.Status, StatusPublished)
}

// Parse extracts frontmatter and derived fields from raw Markdown bytes.
// name is the file path the bytes came from; its stem is the fallback slug.
func Parse(name string, data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Frontmatter:   fm,
		Body:          body,
		Title:         deriveTitle(fm, body),
		Slug:          stringField(fm, "slug"),
		Link:          stringField(fm, "link"),
		Image:         stringField(fm, "image"),
		Status:        stringField(fm, "status"),
		DatePublished: dateField(fm, "datepublish", "date"),
		DateChanged:   dateField(fm, "datechanged", "updated", "datepublish", "date"),
	}
	if res.Slug == "" {
		res.Slug = strings.TrimSuffix(path.Base(filepathToSlash(name)), ".md")
	}
	return res, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Broken frontmatter: keep the whole file as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

func stringField(fm map[string]interface{}, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// dateField returns the first non-empty value among keys, as a string.
// Values are kept raw; callers decide how to parse them.
func dateField(fm map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		v, ok := fm[k]
		if !ok || v == nil {
			continue
		}
		if t, isTime := v.(time.Time); isTime {
			return t.Format(time.RFC3339)
		}
		if s := strings.TrimSpace(cast.ToString(v)); s != "" {
			return s
		}
	}
	return ""
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if s := stringField(fm, "title"); s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func filepathToSlash(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
