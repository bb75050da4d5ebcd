// Package spacetraveling generates and serves the post pages of the
// spacetraveling blog from a Prismic repository.
//
// Users provide their own templ components via the ViewFuncs struct; the
// package enumerates posts, loads and reshapes them, writes the rendered
// pages to disk and serves them with preview and publish webhooks.
package spacetraveling

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ViewFuncs holds the templ components rendered for each kind of page.
// Post receives PageProps with a nil Post while a fallback page is generated.
type ViewFuncs struct {
	Post        func(cfg SiteConfig, props PageProps) templ.Component
	NotFound    func(cfg SiteConfig) templ.Component
	ServerError func(cfg SiteConfig) templ.Component
}

// App wires together the content source, manifest store, post cache,
// builder and HTTP server.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *Store
	Cache   *PostCache
	Views   ViewFuncs
	Source  ContentSource
	Builder *Builder

	httpClient     *http.Client
	customRoutes   []func(*App)
	previewLimiter *RateLimiter
	webhookLimiter *RateLimiter

	background sync.WaitGroup
	pendingMu  sync.Mutex
	pending    map[string]struct{}
	missing    map[string]time.Time

	rebuildMu     sync.Mutex
	rebuilding    bool
	rebuildQueued bool
}

// New creates an App reading posts from source.
func New(cfg SiteConfig, source ContentSource, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	a := &App{
		Config:  cfg,
		Echo:    e,
		Views:   views,
		Source:  source,
		pending: make(map[string]struct{}),
		missing: make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(a)
	}
	a.Echo.Logger.SetLevel(parseLevel(cfg.LogLevel))

	return a
}

func parseLevel(s string) log.Lvl {
	switch s {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// init opens the store and creates the cache and builder once.
func (a *App) init() error {
	if a.Builder != nil {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.ManifestPath)
	if err != nil {
		return fmt.Errorf("spacetraveling: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewPostCache(a.Source, a.Config.PostCacheTTL, a.Config.Fallback)

	var images *BannerOptimizer
	if a.Config.OptimizeImages {
		images = NewBannerOptimizer(a.Config.OutputDir, a.httpClient)
	}
	a.Builder = NewBuilder(a.Config, a.Cache, a.Views, a.Store, images, a.Echo.Logger)
	return nil
}

// Build generates every page from fresh content.
func (a *App) Build(ctx context.Context) (BuildReport, error) {
	if err := a.init(); err != nil {
		return BuildReport{}, err
	}
	a.Cache.Invalidate()
	return a.Builder.Build(ctx)
}

// setup prepares the server without listening.
func (a *App) setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetraveling: SessionSecret is required")
	}
	if err := a.init(); err != nil {
		return err
	}

	a.previewLimiter = NewRateLimiter(20, time.Minute)
	a.webhookLimiter = NewRateLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the store, cache, middleware and routes, and serves the
// generated site until the server is shut down.
func (a *App) Start() error {
	if err := a.setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/assets/post.css", echo.WrapHandler(http.StripPrefix("/assets/", http.FileServer(http.FS(embeddedFS)))))

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/post/:slug/", a.handlePost)

	e.GET("/api/preview", a.handlePreview)
	e.GET("/api/exit-preview", handleExitPreview)
	e.POST("/api/revalidate", a.handleRevalidate)

	e.Static("/", a.Config.OutputDir)
}

// rebuildInBackground starts a full build. A request arriving while one runs
// schedules exactly one more run after it.
func (a *App) rebuildInBackground() {
	a.rebuildMu.Lock()
	if a.rebuilding {
		a.rebuildQueued = true
		a.rebuildMu.Unlock()
		return
	}
	a.rebuilding = true
	a.rebuildMu.Unlock()

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		for {
			if _, err := a.Builder.Build(context.Background()); err != nil {
				a.Echo.Logger.Errorf("rebuild: %v", err)
			}
			a.rebuildMu.Lock()
			if !a.rebuildQueued {
				a.rebuilding = false
				a.rebuildMu.Unlock()
				return
			}
			a.rebuildQueued = false
			a.rebuildMu.Unlock()
		}
	}()
}

// Close waits for background generation and releases resources. Call this
// when the app is shutting down.
func (a *App) Close() error {
	a.background.Wait()
	if a.previewLimiter != nil {
		a.previewLimiter.Close()
	}
	if a.webhookLimiter != nil {
		a.webhookLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
