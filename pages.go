package spacetraveling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eringen/spacetraveling/prismic"
)

// postType is the custom type of post documents in the repository.
const postType = "post"

var (
	// ErrPostNotFound is returned when no post has the requested slug.
	ErrPostNotFound = errors.New("spacetraveling: post not found")
	// ErrInvalidPost is returned when a post lacks a field the page needs.
	ErrInvalidPost = errors.New("spacetraveling: invalid post")
	// ErrInvalidSlug is returned for empty slugs or slugs that are not a
	// single path segment.
	ErrInvalidSlug = errors.New("spacetraveling: invalid slug")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ContentSource is the headless content API. *prismic.Client satisfies it.
type ContentSource interface {
	Query(ctx context.Context, predicates []prismic.Predicate, opts prismic.QueryOptions) ([]prismic.Document, error)
	GetByUID(ctx context.Context, documentType, uid string, opts prismic.QueryOptions) (prismic.Document, error)
	GetByID(ctx context.Context, id string, opts prismic.QueryOptions) (prismic.Document, error)
}

// PageLoader resolves the paths to pre-render and the props of one page.
// The direct loader and PostCache both implement it.
type PageLoader interface {
	Paths(ctx context.Context) (StaticPaths, error)
	Props(ctx context.Context, slug string) (PageProps, error)
}

// GetStaticPaths lists every post slug. Only the slug field is fetched.
// Documents without a uid cannot be addressed and are skipped.
func GetStaticPaths(ctx context.Context, src ContentSource, fallback bool) (StaticPaths, error) {
	docs, err := src.Query(ctx, []prismic.Predicate{prismic.DocumentType(postType)}, prismic.QueryOptions{
		Fetch: []string{postType + ".slug"},
	})
	if err != nil {
		return StaticPaths{}, fmt.Errorf("spacetraveling: enumerate posts: %w", err)
	}
	paths := make([]PathParams, 0, len(docs))
	for _, d := range docs {
		if d.UID == "" {
			continue
		}
		paths = append(paths, PathParams{Slug: d.UID})
	}
	return StaticPaths{Paths: paths, Fallback: fallback}, nil
}

// GetStaticProps loads the post for params.Slug and reshapes it into page
// props. A non-empty ref reads a preview release instead of the master ref.
func GetStaticProps(ctx context.Context, src ContentSource, params PathParams, ref string) (PageProps, error) {
	if err := checkSlug(params.Slug); err != nil {
		return PageProps{}, err
	}
	doc, err := src.GetByUID(ctx, postType, params.Slug, prismic.QueryOptions{Ref: ref})
	if errors.Is(err, prismic.ErrNotFound) {
		return PageProps{}, fmt.Errorf("%w: %q", ErrPostNotFound, params.Slug)
	}
	if err != nil {
		return PageProps{}, fmt.Errorf("spacetraveling: load post %q: %w", params.Slug, err)
	}
	post, err := ReshapePost(doc)
	if err != nil {
		return PageProps{}, err
	}
	return PageProps{Post: &post}, nil
}

// rawPost mirrors the fields of a post document's data.
type rawPost struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Banner   struct {
		URL string `json:"url"`
	} `json:"banner"`
	Author  string `json:"author"`
	Content []struct {
		Heading string `json:"heading"`
		Body    []struct {
			Text string `json:"text"`
		} `json:"body"`
	} `json:"content"`
}

// ReshapePost copies a post document into a Post. Text passes through
// untouched; block and fragment order are preserved.
func ReshapePost(doc prismic.Document) (Post, error) {
	var raw rawPost
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &raw); err != nil {
			return Post{}, fmt.Errorf("spacetraveling: decode post %q: %w", doc.UID, err)
		}
	}
	post := Post{
		UID: doc.UID,
		Data: PostData{
			Title:    raw.Title,
			Subtitle: raw.Subtitle,
			Banner:   Banner{URL: raw.Banner.URL},
			Author:   raw.Author,
			Content:  make([]Block, 0, len(raw.Content)),
		},
	}
	if doc.FirstPublicationDate != nil && !doc.FirstPublicationDate.IsZero() {
		t := doc.FirstPublicationDate.Time
		post.FirstPublicationDate = &t
	}
	for _, c := range raw.Content {
		block := Block{
			Heading: c.Heading,
			Body:    make([]Fragment, 0, len(c.Body)),
		}
		for _, b := range c.Body {
			block.Body = append(block.Body, Fragment{Text: b.Text})
		}
		post.Data.Content = append(post.Data.Content, block)
	}
	if err := validate.Struct(post); err != nil {
		return Post{}, fmt.Errorf("%w %q: %s", ErrInvalidPost, doc.UID, describeValidation(err))
	}
	return post, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Namespace() + " failed " + fe.Tag()
	}
	return strings.Join(fields, ", ")
}

func checkSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// sourceLoader is the uncached PageLoader used for builds.
type sourceLoader struct {
	src      ContentSource
	fallback bool
}

// NewSourceLoader returns a PageLoader that queries src on every call.
func NewSourceLoader(src ContentSource, fallback bool) PageLoader {
	return sourceLoader{src: src, fallback: fallback}
}

func (l sourceLoader) Paths(ctx context.Context) (StaticPaths, error) {
	return GetStaticPaths(ctx, l.src, l.fallback)
}

func (l sourceLoader) Props(ctx context.Context, slug string) (PageProps, error) {
	return GetStaticProps(ctx, l.src, PathParams{Slug: slug}, "")
}
