package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling"
)

func errorPage(cfg spacetraveling.SiteConfig, title, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := newHTMLWriter(w)
		document(hw, cfg, spacetraveling.PageMeta{Title: title + " | " + cfg.Name}, "", func() {
			hw.raw(`<main class="error-page"><h1>`)
			hw.text(title)
			hw.raw("</h1><p>")
			hw.text(message)
			hw.raw(`</p><p><a href="/feed.xml">`)
			hw.text(cfg.Name)
			hw.raw("</a></p></main>")
		})
		return hw.err
	})
}

// NotFound renders the 404 page.
func NotFound(cfg spacetraveling.SiteConfig) templ.Component {
	return errorPage(cfg, "Post não encontrado", "O post que você procura não existe ou foi removido.")
}

// ServerError renders the 500 page.
func ServerError(cfg spacetraveling.SiteConfig) templ.Component {
	return errorPage(cfg, "Erro interno", "Algo deu errado. Tente novamente em instantes.")
}
