package spacetraveling

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/prismic"
)

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	if checkSlug(slug) != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config))
	}

	if ref := PreviewRef(c); ref != "" {
		props, err := GetStaticProps(c.Request().Context(), a.Source, PathParams{Slug: slug}, ref)
		var se *prismic.StatusError
		switch {
		case errors.Is(err, ErrPostNotFound):
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config))
		case errors.As(err, &se) && se.Code >= 400 && se.Code < 500:
			// expired or revoked preview ref
			c.Logger().Infof("preview of %q rejected, leaving preview: %v", slug, err)
			if err := clearPreviewSession(c); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			c.Response().Header().Set("Cache-Control", "no-store")
			return Render(c, a.Views.Post(a.Config, props))
		}
	}

	page, err := a.Store.GetPage(slug)
	switch {
	case err == nil:
		file := filepath.Join(a.Config.OutputDir, filepath.FromSlash(page.Path))
		if fileExists(file) {
			return c.File(file)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	if !a.Config.Fallback || a.isMissing(slug) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config))
	}
	a.generateInBackground(slug)
	c.Response().Header().Set("Cache-Control", "no-store")
	return Render(c, a.Views.Post(a.Config, PageProps{}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.collectPosts(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteSitemap(c.Response(), a.Config, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.collectPosts(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteFeed(c.Response(), a.Config, posts)
}

// collectPosts loads every enumerated post through the cache, newest first.
// Posts deleted since enumeration are skipped.
func (a *App) collectPosts(ctx context.Context) ([]Post, error) {
	paths, err := a.Cache.Paths(ctx)
	if err != nil {
		return nil, err
	}
	found := make([]*Post, len(paths.Paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Concurrency)
	for i, p := range paths.Paths {
		g.Go(func() error {
			props, err := a.Cache.Props(gctx, p.Slug)
			if errors.Is(err, ErrPostNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = props.Post
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(found))
	for _, p := range found {
		if p != nil {
			posts = append(posts, *p)
		}
	}
	sortPosts(posts)
	return posts, nil
}

// generateInBackground builds the page for slug unless a generation for it
// is already running.
func (a *App) generateInBackground(slug string) {
	a.pendingMu.Lock()
	if _, ok := a.pending[slug]; ok {
		a.pendingMu.Unlock()
		return
	}
	a.pending[slug] = struct{}{}
	a.pendingMu.Unlock()

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		defer func() {
			a.pendingMu.Lock()
			delete(a.pending, slug)
			a.pendingMu.Unlock()
		}()
		page, err := a.Builder.BuildPage(context.Background(), slug)
		if errors.Is(err, ErrPostNotFound) {
			a.recordMissing(slug, time.Now())
			a.Echo.Logger.Infof("fallback %q: no such post", slug)
			return
		}
		if err != nil {
			a.Echo.Logger.Errorf("fallback %q: %v", slug, err)
			return
		}
		a.Echo.Logger.Infof("fallback %q: generated %s", slug, page.Path)
	}()
}

// isMissing reports whether a recent fallback generation found no post for
// slug. Entries expire with the post cache.
func (a *App) isMissing(slug string) bool {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	at, ok := a.missing[slug]
	if ok && time.Since(at) >= a.Config.PostCacheTTL {
		delete(a.missing, slug)
		return false
	}
	return ok
}

// maxMissing bounds the slugs remembered as missing.
const maxMissing = 1024

// recordMissing remembers that slug has no post. Expired entries are swept
// first; if the map is still full the oldest entry is evicted.
func (a *App) recordMissing(slug string, now time.Time) {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	for s, at := range a.missing {
		if now.Sub(at) >= a.Config.PostCacheTTL {
			delete(a.missing, s)
		}
	}
	if len(a.missing) >= maxMissing {
		oldest, oldestAt := "", now
		for s, at := range a.missing {
			if oldest == "" || at.Before(oldestAt) {
				oldest, oldestAt = s, at
			}
		}
		delete(a.missing, oldest)
	}
	a.missing[slug] = now
}

func (a *App) forgetMissing() {
	a.pendingMu.Lock()
	a.missing = make(map[string]time.Time)
	a.pendingMu.Unlock()
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.Config))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
