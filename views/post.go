package views

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/sanitize"
)

const (
	bannerWidth  = 1280
	bannerHeight = 600
	bannerAlt    = "Imagem do post"
)

// ErrNoBanner is returned when rendering a post without a banner image.
var ErrNoBanner = errors.New("views: post has no banner")

// Post renders the post page, or the loading placeholder while props are
// not resolved.
func Post(cfg spacetraveling.SiteConfig, props spacetraveling.PageProps) templ.Component {
	if props.IsFallback() {
		return Loading(cfg)
	}
	post := *props.Post
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		src := props.BannerSrc()
		if src == "" {
			return ErrNoBanner
		}
		var policy *sanitize.Policy
		if cfg.SanitizeHTML {
			policy = sanitize.NewPolicy(cfg.AllowedTags...)
		}

		hw := newHTMLWriter(w)
		meta := spacetraveling.PageMeta{
			Title:       post.Data.Title + " | " + cfg.Name,
			Description: post.Data.Subtitle,
			URL:         spacetraveling.PostURL(cfg.URL, post.UID),
			OGType:      "article",
			Image:       post.Data.Banner.URL,
		}
		document(hw, cfg, meta, spacetraveling.BlogPostingJsonLD(post, cfg), func() {
			hw.raw(`<img class="banner"`)
			hw.attr("src", src)
			hw.attr("alt", bannerAlt)
			hw.intAttr("width", bannerWidth)
			hw.intAttr("height", bannerHeight)
			hw.raw(` style="object-fit: scale-down">`)

			hw.raw(`<main class="post"><header><h1>`)
			hw.text(post.Data.Title)
			hw.raw(`</h1><div class="info"><time`)
			if post.FirstPublicationDate != nil {
				hw.attr("datetime", post.FirstPublicationDate.UTC().Format(time.RFC3339))
				hw.raw(">")
				hw.text(FormatDate(*post.FirstPublicationDate, cfg.Locale, cfg.Location()))
			} else {
				hw.raw(">")
			}
			hw.raw(`</time><p class="author">`)
			hw.text(post.Data.Author)
			hw.raw(`</p><span class="reading-time">`)
			hw.text(strconv.Itoa(post.ReadingMinutes()) + " min")
			hw.raw(`</span></div></header>`)

			for _, block := range post.Data.Content {
				body := block.BodyHTML()
				if policy != nil {
					body = policy.Sanitize(body)
				}
				hw.raw(`<div class="text-content"><h2>`)
				hw.text(block.Heading)
				hw.raw("</h2><div>")
				hw.raw(body)
				hw.raw("</div></div>")
			}
			hw.raw("</main>")
		})
		return hw.err
	})
}

// Loading renders the placeholder shown while a page is generated.
func Loading(cfg spacetraveling.SiteConfig) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newHTMLWriter(w)
		document(hw, cfg, spacetraveling.PageMeta{Title: cfg.Name}, "", func() {
			hw.raw(`<div class="loading"><h6>Carregando...</h6></div>`)
		})
		return hw.err
	})
}
