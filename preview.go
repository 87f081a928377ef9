package spacetraveling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/prismic"
)

const (
	previewSessionName = "preview_session"
	previewRefKey      = "ref"
)

// PreviewRef returns the revision ref of the current preview session.
func PreviewRef(c echo.Context) (string, bool) {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return "", false
	}
	ref, ok := sess.Values[previewRefKey].(string)
	return ref, ok && ref != ""
}

func setPreviewRef(c echo.Context, ref string) error {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return err
	}
	sess.Values[previewRefKey] = ref
	return sess.Save(c.Request(), c.Response())
}

func clearPreview(c echo.Context) error {
	sess, err := session.Get(previewSessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, previewRefKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// handlePreview starts a preview session for the document a CMS editor opened
// and redirects to its page.
func (a *App) handlePreview(c echo.Context) error {
	if !a.previewLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many preview requests")
	}
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing preview token")
	}

	slug, err := a.Content.ResolvePreview(c.Request().Context(), token, c.QueryParam("documentId"))
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "preview document not found")
	case errors.Is(err, prismic.ErrForeignURL):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid preview token")
	case err != nil:
		return err
	}

	if err := setPreviewRef(c, token); err != nil {
		return err
	}
	c.Logger().Infof("preview started for %s", slug)
	return c.Redirect(http.StatusTemporaryRedirect, PostKey(slug))
}

func handleExitPreview(c echo.Context) error {
	if err := clearPreview(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}
