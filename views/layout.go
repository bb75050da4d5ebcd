package views

import (
	"github.com/eringen/spacetraveling"
)

// document writes a full HTML page around body.
func document(hw *htmlWriter, cfg spacetraveling.SiteConfig, meta spacetraveling.PageMeta, jsonLD string, body func()) {
	hw.raw("<!DOCTYPE html><html")
	hw.attr("lang", cfg.Locale)
	hw.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	hw.raw("<title>")
	hw.text(meta.Title)
	hw.raw("</title>")
	if meta.Description != "" {
		hw.raw(`<meta name="description"`)
		hw.attr("content", meta.Description)
		hw.raw(">")
	}
	if meta.URL != "" {
		hw.raw(`<link rel="canonical"`)
		hw.attr("href", meta.URL)
		hw.raw(">")
		hw.raw(`<meta property="og:url"`)
		hw.attr("content", meta.URL)
		hw.raw(">")
	}
	hw.raw(`<meta property="og:title"`)
	hw.attr("content", meta.Title)
	hw.raw(">")
	if meta.OGType != "" {
		hw.raw(`<meta property="og:type"`)
		hw.attr("content", meta.OGType)
		hw.raw(">")
	}
	if meta.Image != "" {
		hw.raw(`<meta property="og:image"`)
		hw.attr("content", meta.Image)
		hw.raw(">")
	}
	hw.raw(`<link rel="alternate" type="application/rss+xml"`)
	hw.attr("title", cfg.Name)
	hw.attr("href", "/feed.xml")
	hw.raw(">")
	hw.raw(`<link rel="stylesheet" href="/assets/post.css">`)
	if jsonLD != "" {
		// json.Marshal escapes <, > and &, so the payload cannot close the tag.
		hw.raw(`<script type="application/ld+json">`)
		hw.raw(jsonLD)
		hw.raw("</script>")
	}
	hw.raw("</head><body>")
	body()
	hw.raw("</body></html>")
}
