package spacetraveling

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// defaultConcurrency bounds page generation when Concurrency is unset.
const defaultConcurrency = 4

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string `mapstructure:"name"`                          // Site name, appended to page titles (default "spacetraveling")
	URL         string `mapstructure:"url" validate:"omitempty,url"` // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description"`                   // Feed description
	Locale      string `mapstructure:"locale" validate:"bcp47_language_tag"`
	Timezone    string `mapstructure:"timezone"` // Zone publication dates are shown in (default "UTC")

	APIEndpoint string `mapstructure:"api_endpoint" validate:"required,url"` // Prismic API v2 endpoint
	AccessToken string `mapstructure:"access_token"`

	OutputDir      string `mapstructure:"output_dir"`    // Generated site (default "out")
	ManifestPath   string `mapstructure:"manifest_path"` // SQLite build manifest (default "data/manifest.db")
	Concurrency    int    `mapstructure:"concurrency" validate:"min=1"`
	Fallback       bool   `mapstructure:"fallback"`        // Generate unknown slugs on demand
	OptimizeImages bool   `mapstructure:"optimize_images"` // Download and scale banners into the output

	SanitizeHTML bool     `mapstructure:"sanitize_html"` // Filter post bodies through an allow-list
	AllowedTags  []string `mapstructure:"allowed_tags"`  // Tags kept when SanitizeHTML is set (default sanitize.DefaultTags)

	Addr          string        `mapstructure:"addr"`           // Listen address (default ":3000")
	SessionSecret string        `mapstructure:"session_secret"` // Required by the server: preview cookie secret
	WebhookSecret string        `mapstructure:"webhook_secret"` // Shared secret of the publish webhook
	CookieSecure  bool          `mapstructure:"cookie_secure"`  // Set true for HTTPS
	PostCacheTTL  time.Duration `mapstructure:"post_cache_ttl"` // Post cache TTL (default 5min)

	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error off"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.ManifestPath == "" {
		c.ManifestPath = "data/manifest.db"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.AllowedTags = FilterEmpty(c.AllowedTags)
}

// Validate reports the first configuration problem, if any.
func (c SiteConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("spacetraveling: config: %s", describeValidation(err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("spacetraveling: config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the zone dates are displayed in, UTC if Timezone is unknown.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the Echo logger used by the server and the builder.
func WithLogger(l echo.Logger) Option {
	return func(a *App) {
		a.Echo.Logger = l
	}
}

// WithHTTPClient sets the client used to download banner images.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
