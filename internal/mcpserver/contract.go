package mcpserver

// EntryFormat describes the Markdown entry format the content store reads.
const EntryFormat = `# sitemapd Entry Format

Each entry is a Markdown file under <content root>/<category>/, where
<category> is the slug of a configured content type.

## Structure

` + "```" + `markdown
---
title: Human-readable title     # falls back to the first "# " heading
slug: about-us                  # OPTIONAL, defaults to the file name without .md
link: /about                    # OPTIONAL canonical URL; otherwise the contentlink route
image: /files/about.jpg         # OPTIONAL, listed as <image:image> in sitemap.xml
status: published               # OPTIONAL, anything else hides the entry
datepublish: 2024-03-01 09:30   # orders entries, newest first
datechanged: 2024-03-05T10:00:00Z  # becomes <lastmod>; defaults to datepublish
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. Frontmatter fences must be the first thing in the file.
2. Dates may be any common layout (RFC 3339, "2006-01-02", "2006-01-02 15:04:05").
   Dates without a zone are read as UTC. Unparseable dates only drop <lastmod>.
3. Entries without a publish date are listed after all dated entries.
4. Files outside a configured category directory are ignored.
`
