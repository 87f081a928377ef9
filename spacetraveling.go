// Package spacetraveling serves a blog whose posts live in a headless CMS.
// Pages are rendered ahead of time or on first request, cached, and rebuilt
// in the background once their revalidation window passes.
//
// Templates are supplied through ViewFuncs; DefaultViews uses the views
// package.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/spacetraveling/views"
)

// ViewFuncs holds the templ components the app renders pages with.
type ViewFuncs struct {
	Home          func(views.HomePage) templ.Component
	PostCards     func(views.CardsFragment) templ.Component
	LoadMoreError func(cursor string) templ.Component
	Post          func(views.PostPage) templ.Component
	Fallback      func(views.FallbackPage) templ.Component
	NotFound      func(views.SiteConfig) templ.Component
	ServerError   func(views.SiteConfig) templ.Component
}

// DefaultViews returns the bundled templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:          views.Home,
		PostCards:     views.PostCards,
		LoadMoreError: views.LoadMoreError,
		Post:          views.Post,
		Fallback:      views.Fallback,
		NotFound:      views.NotFound,
		ServerError:   views.ServerError,
	}
}

// App is the central spacetraveling application. It wires together the
// content source, page cache, page store, handlers and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *PageCache
	Generator *Generator
	Content   ContentSource
	Views     ViewFuncs

	previewLimiter *Limiter
	customRoutes   []func(*App)
}

// New creates a new App reading posts from src.
func New(cfg SiteConfig, src ContentSource, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	a := &App{
		Config:  cfg,
		Echo:    e,
		Content: src,
		Views:   DefaultViews(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the page store, restores previously built pages, and registers
// middleware and routes. Start calls it; tests call it directly.
func (a *App) Setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetraveling: SessionSecret is required")
	}

	gen, err := NewGenerator(a.Content, a.Views, a.Config)
	if err != nil {
		return err
	}
	a.Generator = gen

	store, err := NewStore(a.Config.PageStorePath)
	if err != nil {
		return fmt.Errorf("spacetraveling: init page store: %w", err)
	}
	a.Store = store

	a.Cache = NewPageCache(a.Store, a.Echo.Logger, a.Config.FallbackWait, a.Config.BuildTimeout)
	if err := a.restorePages(context.Background()); err != nil {
		return fmt.Errorf("spacetraveling: restore pages: %w", err)
	}

	a.previewLimiter = NewLimiter(10, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and runs the server until it is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// restorePages loads pages built by an earlier run or by the build command.
// They are served as is and revalidated on their first request.
func (a *App) restorePages(ctx context.Context) error {
	pages, err := a.Store.ListPages(ctx)
	if err != nil {
		return err
	}
	for _, p := range pages {
		a.Cache.Put(p.Key, p.Body, p.BuiltAt)
	}
	if len(pages) > 0 {
		a.Echo.Logger.Infof("restored %d pages from %s", len(pages), a.Config.PageStorePath)
	}
	return nil
}

// Prebuild renders the listing and the newest posts, stores them in one
// transaction and publishes them. Nothing is published if any page fails.
func (a *App) Prebuild(ctx context.Context) error {
	pages, err := a.Generator.Prebuild(ctx)
	if err != nil {
		return err
	}
	if err := a.Store.SavePages(ctx, pages); err != nil {
		return fmt.Errorf("spacetraveling: save pages: %w", err)
	}
	for _, p := range pages {
		a.Cache.Put(p.Key, p.Body, p.BuiltAt)
	}
	a.Echo.Logger.Infof("prebuilt %d pages", len(pages))
	return nil
}

// Reload applies a new configuration to page rendering and marks every
// cached page stale. Listen address and storage paths are not reloaded.
func (a *App) Reload(cfg SiteConfig) error {
	if err := a.Generator.SetConfig(cfg); err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.Echo.Logger.Infof("configuration reloaded")
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(publicFS())))))
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/atom.xml", a.handleAtom)
	e.GET("/", a.handleHome)
	e.GET("/post/:slug/", a.handlePost)

	e.GET("/api/posts", a.handleLoadMore)
	e.GET("/api/preview", a.handlePreview)
	e.GET("/api/exit-preview", handleExitPreview)
}

// Shutdown stops the server and waits for background builds.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.Cache != nil {
		a.Cache.Wait()
	}
	return err
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.previewLimiter != nil {
		a.previewLimiter.Stop()
	}
	if a.Cache != nil {
		a.Cache.Wait()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
