package spacetraveling

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/eringen/spacetraveling/prismic"
)

func TestGetStaticPaths(t *testing.T) {
	src := &fakeSource{docs: []prismic.Document{
		{UID: "primeiro", Type: postType},
		{UID: "", Type: postType},
		{UID: "segundo", Type: postType},
	}}

	paths, err := GetStaticPaths(context.Background(), src, false)
	if err != nil {
		t.Fatalf("GetStaticPaths failed: %v", err)
	}
	want := []PathParams{{Slug: "primeiro"}, {Slug: "segundo"}}
	if !reflect.DeepEqual(paths.Paths, want) {
		t.Errorf("Paths = %v, want %v", paths.Paths, want)
	}
	if paths.Fallback {
		t.Error("Fallback should be false")
	}
	if len(src.queries) != 1 || !reflect.DeepEqual(src.queries[0].Fetch, []string{"post.slug"}) {
		t.Errorf("expected a single query fetching only post.slug, got %+v", src.queries)
	}
	if !paths.Contains("segundo") || paths.Contains("terceiro") {
		t.Error("Contains gave wrong answer")
	}
}

func TestGetStaticPathsPropagatesErrors(t *testing.T) {
	src := &fakeSource{queryErr: errUnreachable}
	_, err := GetStaticPaths(context.Background(), src, false)
	if !errors.Is(err, errUnreachable) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestGetStaticPropsPreservesOrder(t *testing.T) {
	src := &fakeSource{}
	src.put(postDoc(t, "viagem", "Viagem", map[string][]string{
		"Partida":   {"<p>Olá</p>", "<strong>mundo</strong>"},
		"Chegada":   {"fim"},
		"Intervalo": {},
	}, "Partida", "Intervalo", "Chegada"))

	props, err := GetStaticProps(context.Background(), src, PathParams{Slug: "viagem"}, "")
	if err != nil {
		t.Fatalf("GetStaticProps failed: %v", err)
	}
	post := props.Post
	if post == nil {
		t.Fatal("Post should not be nil")
	}
	if post.UID != "viagem" || post.Data.Title != "Viagem" || post.Data.Author != "Autora" {
		t.Errorf("unexpected post fields: %+v", post)
	}
	if post.Data.Banner.URL != "https://images.example.com/viagem.png" {
		t.Errorf("Banner.URL = %q", post.Data.Banner.URL)
	}
	var headings []string
	for _, b := range post.Data.Content {
		headings = append(headings, b.Heading)
	}
	if !reflect.DeepEqual(headings, []string{"Partida", "Intervalo", "Chegada"}) {
		t.Errorf("headings = %v", headings)
	}
	first := post.Data.Content[0].Body
	if len(first) != 2 || first[0].Text != "<p>Olá</p>" || first[1].Text != "<strong>mundo</strong>" {
		t.Errorf("body text was transformed or reordered: %+v", first)
	}
	if post.Data.Content[1].Body == nil {
		t.Error("empty body should be an empty slice, not nil")
	}
	if post.FirstPublicationDate == nil || post.FirstPublicationDate.Format("2006-01-02") != "2021-08-15" {
		t.Errorf("FirstPublicationDate = %v", post.FirstPublicationDate)
	}
}

func TestGetStaticPropsIdempotent(t *testing.T) {
	src := &fakeSource{}
	src.put(postDoc(t, "a", "A", map[string][]string{"h": {"x", "y"}}, "h"))

	first, err := GetStaticProps(context.Background(), src, PathParams{Slug: "a"}, "")
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	second, err := GetStaticProps(context.Background(), src, PathParams{Slug: "a"}, "")
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("loads differ:\n%+v\n%+v", first.Post, second.Post)
	}
}

func TestGetStaticPropsNotFound(t *testing.T) {
	src := &fakeSource{}
	_, err := GetStaticProps(context.Background(), src, PathParams{Slug: "nenhum"}, "")
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestGetStaticPropsRejectsBadSlugs(t *testing.T) {
	src := &fakeSource{}
	for _, slug := range []string{"", "..", "a/b", `a\b`} {
		_, err := GetStaticProps(context.Background(), src, PathParams{Slug: slug}, "")
		if !errors.Is(err, ErrInvalidSlug) {
			t.Errorf("slug %q: expected ErrInvalidSlug, got %v", slug, err)
		}
	}
	if src.lookupCount() != 0 {
		t.Error("invalid slugs should not reach the source")
	}
}

func TestReshapePostValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing banner", `{"title":"T","author":"A","content":[]}`},
		{"relative banner", `{"title":"T","banner":{"url":"banner.png"},"content":[]}`},
		{"missing title", `{"banner":{"url":"https://x.test/b.png"},"content":[]}`},
	}
	for _, tt := range tests {
		_, err := ReshapePost(prismic.Document{UID: "x", Data: []byte(tt.data)})
		if !errors.Is(err, ErrInvalidPost) {
			t.Errorf("%s: expected ErrInvalidPost, got %v", tt.name, err)
		}
	}
}

func TestReshapePostAbsentContent(t *testing.T) {
	post, err := ReshapePost(prismic.Document{
		UID:  "vazio",
		Data: []byte(`{"title":"T","banner":{"url":"https://x.test/b.png"}}`),
	})
	if err != nil {
		t.Fatalf("ReshapePost failed: %v", err)
	}
	if post.Data.Content == nil || len(post.Data.Content) != 0 {
		t.Errorf("Content = %#v, want empty non-nil slice", post.Data.Content)
	}
	if post.FirstPublicationDate != nil {
		t.Errorf("FirstPublicationDate = %v, want nil", post.FirstPublicationDate)
	}
}

func TestPostTextAndBody(t *testing.T) {
	post := Post{Data: PostData{Content: []Block{
		{Heading: "a", Body: []Fragment{{Text: "Olá"}, {Text: "mundo"}}},
		{Heading: "b", Body: []Fragment{{Text: " fim"}}},
	}}}
	if got := post.Text(); got != "Olámundo fim" {
		t.Errorf("Text = %q", got)
	}
	if got := post.Data.Content[0].BodyHTML(); got != "Olá<br /><br />mundo" {
		t.Errorf("BodyHTML = %q", got)
	}
	if got := post.ReadingMinutes(); got != 2 {
		t.Errorf("ReadingMinutes = %d, want 2", got)
	}
}
