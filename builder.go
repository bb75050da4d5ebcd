package spacetraveling

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// BuildReport summarizes one Build call.
type BuildReport struct {
	ID        string
	Pages     int // enumerated pages
	Written   int // pages whose file changed
	Unchanged int
	Pruned    int
	Duration  time.Duration
}

// Builder generates post pages and site files into the output directory.
// Only one build or page generation runs at a time.
type Builder struct {
	cfg    SiteConfig
	loader PageLoader
	views  ViewFuncs
	store  *Store
	images *BannerOptimizer
	logger echo.Logger

	mu sync.Mutex
}

// NewBuilder returns a Builder. images may be nil to reference banners by
// their original URL.
func NewBuilder(cfg SiteConfig, loader PageLoader, views ViewFuncs, store *Store, images *BannerOptimizer, logger echo.Logger) *Builder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Builder{
		cfg:    cfg,
		loader: loader,
		views:  views,
		store:  store,
		images: images,
		logger: logger,
	}
}

type pageResult struct {
	post    Post
	page    Page
	written bool
}

// Build enumerates every post, renders the pages concurrently and writes the
// ones that changed since the last build. Pages no longer enumerated are
// removed. The first page failure cancels the others and fails the build.
func (b *Builder) Build(ctx context.Context) (BuildReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := BuildRecord{ID: uuid.NewString(), StartedAt: time.Now()}
	report, err := b.build(ctx, rec.ID)
	rec.FinishedAt = time.Now()
	rec.Pages, rec.Written, rec.Pruned = report.Pages, report.Written, report.Pruned
	if err != nil {
		rec.Err = err.Error()
	}
	if serr := b.store.SaveBuild(rec); serr != nil && err == nil {
		err = fmt.Errorf("spacetraveling: record build: %w", serr)
	}

	report.ID = rec.ID
	report.Duration = rec.FinishedAt.Sub(rec.StartedAt)
	if err != nil {
		b.logger.Errorf("build %s failed after %s: %v", rec.ID, report.Duration, err)
		return report, err
	}
	b.logger.Infof("build %s: %d pages, %d written, %d unchanged, %d pruned in %s",
		rec.ID, report.Pages, report.Written, report.Unchanged, report.Pruned, report.Duration)
	return report, nil
}

func (b *Builder) build(ctx context.Context, buildID string) (BuildReport, error) {
	var report BuildReport
	paths, err := b.loader.Paths(ctx)
	if err != nil {
		return report, err
	}
	report.Pages = len(paths.Paths)

	results := make([]pageResult, len(paths.Paths))
	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, p := range paths.Paths {
		g.Go(func() error {
			res, err := b.generate(gctx, buildID, p.Slug)
			if err != nil {
				return err
			}
			results[i] = res
			if res.written {
				written.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Written = int(written.Load())
	report.Unchanged = report.Pages - report.Written

	pruned, err := b.prune(paths)
	report.Pruned = pruned
	if err != nil {
		return report, err
	}

	posts := make([]Post, len(results))
	for i, r := range results {
		posts[i] = r.post
	}
	if err := b.writeSiteFiles(ctx, posts); err != nil {
		return report, err
	}
	return report, nil
}

// BuildPage generates the page for one slug. Slugs the enumerator does not
// list are ErrPostNotFound unless on-demand generation is enabled.
func (b *Builder) BuildPage(ctx context.Context, slug string) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths, err := b.loader.Paths(ctx)
	if err != nil {
		return Page{}, err
	}
	if !paths.Contains(slug) && !paths.Fallback {
		return Page{}, fmt.Errorf("%w: %q", ErrPostNotFound, slug)
	}
	res, err := b.generate(ctx, uuid.NewString(), slug)
	if err != nil {
		return Page{}, err
	}
	if res.written {
		b.logger.Infof("generated %s", res.page.Path)
	}
	return res.page, nil
}

// pagePath is the output path of a post page, relative to the output dir.
func pagePath(slug string) string {
	return path.Join("post", slug, "index.html")
}

func (b *Builder) generate(ctx context.Context, buildID, slug string) (pageResult, error) {
	props, err := b.loader.Props(ctx, slug)
	if err != nil {
		return pageResult{}, err
	}
	if b.images != nil {
		banner, err := b.images.Optimize(ctx, props.Post.Data.Banner.URL)
		if err != nil {
			return pageResult{}, fmt.Errorf("spacetraveling: page %q: %w", slug, err)
		}
		props.Banner = banner
	}

	var buf bytes.Buffer
	if err := b.views.Post(b.cfg, props).Render(ctx, &buf); err != nil {
		return pageResult{}, fmt.Errorf("spacetraveling: render %q: %w", slug, err)
	}
	sum := sha256.Sum256(buf.Bytes())
	page := Page{
		Slug:        slug,
		Path:        pagePath(slug),
		Hash:        hex.EncodeToString(sum[:]),
		BuildID:     buildID,
		GeneratedAt: time.Now(),
	}
	if b.images != nil {
		page.Banner = strings.TrimPrefix(props.Banner.Src, "/")
	}
	file := b.outputFile(page.Path)

	prev, err := b.store.GetPage(slug)
	switch {
	case err == nil && prev.Hash == page.Hash && fileExists(file):
		return pageResult{post: *props.Post, page: prev}, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return pageResult{}, fmt.Errorf("spacetraveling: manifest %q: %w", slug, err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return pageResult{}, fmt.Errorf("spacetraveling: page %q: %w", slug, err)
	}
	if err := writeFileAtomic(file, buf.Bytes()); err != nil {
		return pageResult{}, fmt.Errorf("spacetraveling: write %q: %w", slug, err)
	}
	if err := b.store.SavePage(page); err != nil {
		return pageResult{}, fmt.Errorf("spacetraveling: manifest %q: %w", slug, err)
	}
	b.logger.Debugf("wrote %s", page.Path)
	return pageResult{post: *props.Post, page: page, written: true}, nil
}

// prune removes pages recorded in the manifest that are no longer enumerated,
// along with optimized banners no remaining page uses.
func (b *Builder) prune(paths StaticPaths) (int, error) {
	pages, err := b.store.ListPages()
	if err != nil {
		return 0, fmt.Errorf("spacetraveling: list manifest: %w", err)
	}
	inUse := make(map[string]bool)
	for _, p := range pages {
		if paths.Contains(p.Slug) && p.Banner != "" {
			inUse[p.Banner] = true
		}
	}
	pruned := 0
	for _, p := range pages {
		if paths.Contains(p.Slug) {
			continue
		}
		if err := checkSlug(p.Slug); err == nil {
			if err := os.RemoveAll(filepath.Dir(b.outputFile(p.Path))); err != nil {
				return pruned, fmt.Errorf("spacetraveling: prune %q: %w", p.Slug, err)
			}
		}
		if p.Banner != "" && !inUse[p.Banner] && isBannerPath(p.Banner) {
			if err := os.Remove(b.outputFile(p.Banner)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return pruned, fmt.Errorf("spacetraveling: prune banner %q: %w", p.Banner, err)
			}
			inUse[p.Banner] = true // already removed
		}
		if err := b.store.DeletePage(p.Slug); err != nil {
			return pruned, fmt.Errorf("spacetraveling: prune %q: %w", p.Slug, err)
		}
		b.logger.Infof("pruned %s", p.Path)
		pruned++
	}
	return pruned, nil
}

func (b *Builder) writeSiteFiles(ctx context.Context, posts []Post) error {
	sortPosts(posts)
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"sitemap.xml", func(w io.Writer) error { return WriteSitemap(w, b.cfg, posts) }},
		{"feed.xml", func(w io.Writer) error { return WriteFeed(w, b.cfg, posts) }},
		{"404.html", func(w io.Writer) error { return b.views.NotFound(b.cfg).Render(ctx, w) }},
		{"assets/post.css", func(w io.Writer) error {
			css, err := EmbeddedAssets.ReadFile("embedded/post.css")
			if err != nil {
				return err
			}
			_, err = w.Write(css)
			return err
		}},
	}
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.write(&buf); err != nil {
			return fmt.Errorf("spacetraveling: %s: %w", f.name, err)
		}
		name := b.outputFile(f.name)
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			return fmt.Errorf("spacetraveling: %s: %w", f.name, err)
		}
		if err := writeFileAtomic(name, buf.Bytes()); err != nil {
			return fmt.Errorf("spacetraveling: %s: %w", f.name, err)
		}
	}
	return nil
}

func (b *Builder) outputFile(rel string) string {
	return filepath.Join(b.cfg.OutputDir, filepath.FromSlash(rel))
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
