// Package sanitize filters HTML fragments down to an allow-list of tags.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultTags is the allow-list used when a Policy is built without tags.
// It covers what the rich-text editor emits.
var DefaultTags = []string{
	"a", "b", "blockquote", "br", "code", "em", "h3", "h4", "h5", "h6",
	"i", "img", "li", "ol", "p", "pre", "span", "strong", "sub", "sup", "u", "ul",
}

// Policy is an allow-list of HTML tags. It is safe for concurrent use.
type Policy struct {
	tags   map[string]bool
	policy *bluemonday.Policy
}

// NewPolicy returns a policy allowing tags, or DefaultTags when none are given.
// Links keep href, title, target and rel; images keep src, alt and integer
// dimensions. URLs must be relative or use http, https or mailto.
func NewPolicy(tags ...string) *Policy {
	if len(tags) == 0 {
		tags = DefaultTags
	}
	p := &Policy{tags: make(map[string]bool, len(tags))}
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			p.tags[t] = true
		}
	}

	bm := bluemonday.NewPolicy()
	for t := range p.tags {
		bm.AllowElements(t)
	}
	bm.AllowStandardURLs()
	if p.tags["a"] {
		bm.AllowAttrs("href", "title", "target", "rel").OnElements("a")
	}
	if p.tags["img"] {
		bm.AllowAttrs("src", "alt").OnElements("img")
		bm.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	}
	p.policy = bm
	return p
}

// Allows reports whether tag survives sanitization.
func (p *Policy) Allows(tag string) bool {
	return p.tags[strings.ToLower(tag)]
}

// Sanitize returns fragment with disallowed tags removed. Text inside a
// removed tag is kept unless the tag is a script-like container. Comments
// are always dropped.
func (p *Policy) Sanitize(fragment string) string {
	return p.policy.Sanitize(fragment)
}
