package views

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func testConfig() spacetraveling.SiteConfig {
	return spacetraveling.SiteConfig{
		Name:     "spacetraveling",
		URL:      "https://blog.example.com",
		Locale:   "pt-BR",
		Timezone: "UTC",
	}
}

func testPost() *spacetraveling.Post {
	published := time.Date(2021, 8, 15, 0, 0, 0, 0, time.UTC)
	return &spacetraveling.Post{
		UID:                  "como-utilizar-hooks",
		FirstPublicationDate: &published,
		Data: spacetraveling.PostData{
			Title:    "Como utilizar Hooks",
			Subtitle: "Pensando em sincronização em vez de ciclos de vida",
			Banner:   spacetraveling.Banner{URL: "https://images.prismic.io/banner.png"},
			Author:   "Joseph Oliveira",
			Content: []spacetraveling.Block{
				{Heading: "Proin et varius", Body: []spacetraveling.Fragment{{Text: "Olá"}, {Text: "mundo"}}},
				{Heading: "Cras <laoreet>", Body: []spacetraveling.Fragment{{Text: `<a href="https://x.test">link</a><script>alert(1)</script>`}}},
			},
		},
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2021, 8, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		locale string
		loc    *time.Location
		want   string
	}{
		{"pt-BR", time.UTC, "15 ago 2021"},
		{"pt", nil, "15 ago 2021"},
		{"en-US", time.UTC, "15 Aug 2021"},
		{"", time.UTC, "15 ago 2021"},
		{"pt-BR", time.FixedZone("BRT", -3*60*60), "14 ago 2021"},
	}
	for _, tt := range tests {
		if got := FormatDate(d, tt.locale, tt.loc); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
	if got := FormatDate(time.Date(2022, 2, 3, 12, 0, 0, 0, time.UTC), "pt-BR", time.UTC); got != "03 fev 2022" {
		t.Errorf("got %q, want zero-padded day", got)
	}
}

func TestPostRendersPage(t *testing.T) {
	out := render(t, Post(testConfig(), spacetraveling.PageProps{Post: testPost()}))

	for _, want := range []string{
		`<html lang="pt-BR">`,
		"<title>Como utilizar Hooks | spacetraveling</title>",
		`<link rel="canonical" href="https://blog.example.com/post/como-utilizar-hooks/">`,
		`<img class="banner" src="https://images.prismic.io/banner.png" alt="Imagem do post" width="1280" height="600" style="object-fit: scale-down">`,
		"<h1>Como utilizar Hooks</h1>",
		`<time datetime="2021-08-15T00:00:00Z">15 ago 2021</time>`,
		`<p class="author">Joseph Oliveira</p>`,
		`<span class="reading-time">2 min</span>`,
		`<div class="text-content"><h2>Proin et varius</h2><div>Olá<br /><br />mundo</div></div>`,
		"<h2>Cras &lt;laoreet&gt;</h2>",
		`<script type="application/ld+json">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}
	if strings.Index(out, "Proin et varius") > strings.Index(out, "Cras") {
		t.Error("blocks rendered out of order")
	}
	if !strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("bodies should be injected raw when sanitizing is off")
	}
}

func TestPostSanitizesBodies(t *testing.T) {
	cfg := testConfig()
	cfg.SanitizeHTML = true
	out := render(t, Post(cfg, spacetraveling.PageProps{Post: testPost()}))

	if strings.Contains(out, "alert(1)") {
		t.Error("script content should be removed")
	}
	if !strings.Contains(out, `<a href="https://x.test">link</a>`) {
		t.Errorf("allowed link was removed:\n%s", out)
	}
	if !strings.Contains(out, "Olá<br/><br/>mundo") {
		t.Errorf("line breaks should survive sanitizing:\n%s", out)
	}
}

func TestPostUsesOptimizedBanner(t *testing.T) {
	props := spacetraveling.PageProps{
		Post:   testPost(),
		Banner: spacetraveling.BannerImage{Src: "/images/abc.jpg", Width: 1280, Height: 600},
	}
	out := render(t, Post(testConfig(), props))
	if !strings.Contains(out, `src="/images/abc.jpg"`) {
		t.Errorf("expected optimized banner:\n%s", out)
	}
}

func TestPostWithoutDate(t *testing.T) {
	post := testPost()
	post.FirstPublicationDate = nil
	out := render(t, Post(testConfig(), spacetraveling.PageProps{Post: post}))
	if !strings.Contains(out, "<time></time>") {
		t.Errorf("expected an empty date:\n%s", out)
	}
}

func TestPostWithoutBannerFails(t *testing.T) {
	post := testPost()
	post.Data.Banner.URL = ""
	var buf bytes.Buffer
	err := Post(testConfig(), spacetraveling.PageProps{Post: post}).Render(context.Background(), &buf)
	if !errors.Is(err, ErrNoBanner) {
		t.Errorf("expected ErrNoBanner, got %v", err)
	}
}

func TestPostFallbackRendersLoading(t *testing.T) {
	out := render(t, Post(testConfig(), spacetraveling.PageProps{}))
	if !strings.Contains(out, "Carregando...") {
		t.Errorf("expected loading text:\n%s", out)
	}
	if strings.Contains(out, "<h1>") || strings.Contains(out, "Imagem do post") {
		t.Errorf("loading page should render nothing else:\n%s", out)
	}
}

func TestErrorPages(t *testing.T) {
	cfg := testConfig()
	if out := render(t, NotFound(cfg)); !strings.Contains(out, "Post não encontrado") {
		t.Errorf("unexpected 404 page:\n%s", out)
	}
	if out := render(t, ServerError(cfg)); !strings.Contains(out, "Erro interno") {
		t.Errorf("unexpected 500 page:\n%s", out)
	}
}

func TestFuncs(t *testing.T) {
	f := Funcs()
	if f.Post == nil || f.NotFound == nil || f.ServerError == nil {
		t.Error("all components should be set")
	}
}
