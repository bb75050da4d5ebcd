package spacetraveling

import (
	"strings"
	"time"

	"github.com/eringen/spacetraveling/readingtime"
)

// Post is the page's representation of a post document. Values are built by
// GetStaticProps and never modified afterwards.
type Post struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 PostData   `json:"data"`
}

// PostData holds the custom fields of a post.
type PostData struct {
	Title    string  `json:"title" validate:"required"`
	Subtitle string  `json:"subtitle"`
	Banner   Banner  `json:"banner"`
	Author   string  `json:"author"`
	Content  []Block `json:"content"`
}

// Banner is the post's header image.
type Banner struct {
	URL string `json:"url" validate:"required,url"`
}

// Block is one heading plus body section; slice order is display order.
type Block struct {
	Heading string     `json:"heading"`
	Body    []Fragment `json:"body"`
}

// Fragment is one rich-text paragraph. Text is an HTML fragment and is
// rendered without escaping.
type Fragment struct {
	Text string `json:"text"`
}

// bodySeparator goes between the fragments of a block when rendered.
const bodySeparator = "<br /><br />"

// BodyHTML joins the block's fragments for rendering.
func (b Block) BodyHTML() string {
	texts := make([]string, len(b.Body))
	for i, f := range b.Body {
		texts[i] = f.Text
	}
	return strings.Join(texts, bodySeparator)
}

// Text concatenates every fragment of every block with no separator. It is
// the document the reading-time estimate runs over.
func (p Post) Text() string {
	var b strings.Builder
	for _, block := range p.Data.Content {
		for _, f := range block.Body {
			b.WriteString(f.Text)
		}
	}
	return b.String()
}

// ReadingMinutes is the reading time shown on the post page.
func (p Post) ReadingMinutes() int {
	return readingtime.Minutes(p.Text())
}

// PathParams identifies one pre-renderable page.
type PathParams struct {
	Slug string `json:"slug"`
}

// StaticPaths is the enumerator's result: every page to pre-render, and
// whether slugs outside the list may be generated on demand.
type StaticPaths struct {
	Paths    []PathParams `json:"paths"`
	Fallback bool         `json:"fallback"`
}

// Contains reports whether slug is one of the enumerated paths.
func (s StaticPaths) Contains(slug string) bool {
	for _, p := range s.Paths {
		if p.Slug == slug {
			return true
		}
	}
	return false
}

// BannerImage is a locally optimized copy of the banner. A zero value means
// the banner is referenced by its original URL.
type BannerImage struct {
	Src    string
	Width  int
	Height int
}

// PageProps is the renderer's input. A nil Post means the page parameters
// are not resolved yet and the loading placeholder is rendered.
type PageProps struct {
	Post   *Post
	Banner BannerImage
}

// IsFallback reports whether props describe the loading placeholder.
func (p PageProps) IsFallback() bool {
	return p.Post == nil
}

// BannerSrc returns the optimized banner when present, else the original URL.
func (p PageProps) BannerSrc() string {
	if p.Banner.Src != "" {
		return p.Banner.Src
	}
	if p.Post == nil {
		return ""
	}
	return p.Post.Data.Banner.URL
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
