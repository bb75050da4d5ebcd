package spacetraveling

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/prismic"
)

// handlePreview enters preview mode: the token is the ref of the release
// being previewed, documentId the document the editor opened.
func (a *App) handlePreview(c echo.Context) error {
	if !a.previewLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many preview requests. Try again later.")
	}
	token := strings.TrimSpace(c.QueryParam("token"))
	documentID := strings.TrimSpace(c.QueryParam("documentId"))
	if token == "" || documentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token and documentId are required")
	}

	doc, err := a.Source.GetByID(c.Request().Context(), documentID, prismic.QueryOptions{Ref: token})
	var se *prismic.StatusError
	switch {
	case errors.Is(err, prismic.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	case errors.As(err, &se) && se.Code >= 400 && se.Code < 500:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid preview token")
	case err != nil:
		return err
	}
	if doc.Type != postType || doc.UID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "document is not a post")
	}

	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/post/"+url.PathEscape(doc.UID)+"/")
}

func handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, localRedirect(c.QueryParam("redirect")))
}

// localRedirect returns target when it is a path on this site and "/"
// otherwise. Browsers treat a backslash like a slash, and strip tabs and
// newlines, so those never pass.
func localRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	if strings.ContainsFunc(target, func(r rune) bool { return r == '\\' || unicode.IsControl(r) }) {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return target
}

type revalidateRequest struct {
	Secret string `json:"secret"`
	Type   string `json:"type"`
}

// handleRevalidate is the publish webhook. A valid secret drops cached
// content and schedules a rebuild; the response does not wait for it.
func (a *App) handleRevalidate(c echo.Context) error {
	ip := c.RealIP()
	if !a.webhookLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many attempts"})
	}
	var req revalidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if a.Config.WebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.Secret), []byte(a.Config.WebhookSecret)) != 1 {
		a.webhookLimiter.Record(ip)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid secret"})
	}

	a.Cache.Invalidate()
	a.forgetMissing()
	a.rebuildInBackground()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "rebuild scheduled"})
}
