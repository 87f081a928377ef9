package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/pagination"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

const (
	mimeRSS  = "application/rss+xml; charset=utf-8"
	mimeAtom = "application/atom+xml; charset=utf-8"
	mimeXML  = "application/xml; charset=utf-8"

	fallbackRefresh = 2 // seconds
)

func (a *App) handleHome(c echo.Context) error {
	if ref, ok := PreviewRef(c); ok {
		return a.servePreview(c, func(ctx context.Context) ([]byte, error) {
			return a.Generator.BuildHome(ctx, ref)
		})
	}
	return a.serveCached(c, HomeKey, a.Generator.Config().ListingRevalidate, echo.MIMETextHTMLCharsetUTF8,
		func(ctx context.Context) ([]byte, error) {
			return a.Generator.BuildHome(ctx, "")
		})
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return echo.ErrNotFound
	}
	if ref, ok := PreviewRef(c); ok {
		return a.servePreview(c, func(ctx context.Context) ([]byte, error) {
			return a.Generator.BuildPost(ctx, slug, ref)
		})
	}
	return a.serveCached(c, PostKey(slug), a.Generator.Config().PostRevalidate, echo.MIMETextHTMLCharsetUTF8,
		func(ctx context.Context) ([]byte, error) {
			return a.Generator.BuildPost(ctx, slug, "")
		})
}

// handleLoadMore returns the cards of the page at cursor. The next cursor is
// sent in the X-Next-Page header, empty on the last page.
func (a *App) handleLoadMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	if !isHTTPURL(cursor) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
	}

	ctrl := pagination.NewController(a.Content, content.PostPage{NextPage: cursor})
	added, err := ctrl.LoadMore(c.Request().Context())
	if err != nil {
		if errors.Is(err, prismic.ErrForeignURL) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
		c.Logger().Errorf("load more: %v", err)
		return RenderStatus(c, http.StatusBadGateway, a.Views.LoadMoreError(cursor))
	}
	cards, err := a.Generator.Cards(added)
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Next-Page", ctrl.Cursor())
	return Render(c, a.Views.PostCards(views.CardsFragment{Posts: cards, NextPage: ctrl.Cursor()}))
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.serveCached(c, SitemapKey, a.Generator.Config().ListingRevalidate, mimeXML, a.Generator.BuildSitemap)
}

func (a *App) handleFeed(c echo.Context) error {
	return a.serveCached(c, FeedKey, a.Generator.Config().ListingRevalidate, mimeRSS, a.Generator.BuildRSS)
}

func (a *App) handleAtom(c echo.Context) error {
	return a.serveCached(c, AtomKey, a.Generator.Config().ListingRevalidate, mimeAtom, a.Generator.BuildAtom)
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\nDisallow: /api/\n")
	b.WriteString("Sitemap: " + strings.TrimSuffix(views.BuildURL(a.Generator.Config().URL), "/") + SitemapKey + "\n")
	return c.String(http.StatusOK, b.String())
}

// serveCached answers from the page cache. A page still being built for the
// first time gets the placeholder, which refreshes itself.
func (a *App) serveCached(c echo.Context, key string, ttl time.Duration, contentType string, build BuildFunc) error {
	res, err := a.Cache.Serve(c.Request().Context(), key, ttl, build)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}

	h := c.Response().Header()
	if res.Fallback {
		h.Set("Cache-Control", "no-store")
		if contentType != echo.MIMETextHTMLCharsetUTF8 {
			h.Set("Retry-After", fmt.Sprint(fallbackRefresh))
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return Render(c, a.Views.Fallback(views.FallbackPage{
			Site:    a.Generator.site(),
			Path:    key,
			Refresh: fallbackRefresh,
		}))
	}

	h.Set("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(ttl.Seconds())))
	switch {
	case res.Stale:
		h.Set("X-Cache", "STALE")
	case res.Miss:
		h.Set("X-Cache", "MISS")
	default:
		h.Set("X-Cache", "HIT")
	}
	return renderPage(c, contentType, res.Body)
}

// servePreview builds a page for the session's ref without touching the cache.
func (a *App) servePreview(c echo.Context, build BuildFunc) error {
	body, err := build(c.Request().Context())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return renderPage(c, echo.MIMETextHTMLCharsetUTF8, body)
}

func (a *App) renderNotFound(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Generator.site()))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		c.Response().Header().Set("Cache-Control", "no-store")
		_ = RenderStatus(c, code, a.Views.ServerError(a.Generator.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
