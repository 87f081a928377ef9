package spacetraveling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/content"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = content.ErrNotFound

// Status is the build state of a cached page.
type Status int

const (
	StatusNotBuilt Status = iota
	StatusBuilding        // first build in flight, nothing to serve yet
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusBuilding:
		return "building"
	case StatusReady:
		return "ready"
	default:
		return "not built"
	}
}

// BuildFunc renders one page.
type BuildFunc func(ctx context.Context) ([]byte, error)

// PageSaver persists built pages so they survive a restart.
type PageSaver interface {
	SavePage(ctx context.Context, key string, body []byte, builtAt time.Time) error
	DeletePage(ctx context.Context, key string) error
}

// Result is what Serve hands back for a request.
type Result struct {
	Body     []byte
	BuiltAt  time.Time
	Stale    bool // served while a revalidation runs
	Miss     bool // built during this request
	Fallback bool // first build still running; Body is empty
}

type flight struct {
	done    chan struct{}
	body    []byte
	builtAt time.Time
	err     error
}

type entry struct {
	status  Status
	body    []byte
	builtAt time.Time
	flight  *flight
}

// PageCache holds rendered pages and rebuilds them in the background once
// their revalidation window has passed. At most one build per key runs at a
// time.
type PageCache struct {
	mu      sync.Mutex
	entries map[string]*entry

	store        PageSaver
	logger       echo.Logger
	fallbackWait time.Duration
	buildTimeout time.Duration
	now          func() time.Time
	wg           sync.WaitGroup
}

// NewPageCache creates a PageCache. store may be nil.
func NewPageCache(store PageSaver, logger echo.Logger, fallbackWait, buildTimeout time.Duration) *PageCache {
	return &PageCache{
		entries:      make(map[string]*entry),
		store:        store,
		logger:       logger,
		fallbackWait: fallbackWait,
		buildTimeout: buildTimeout,
		now:          time.Now,
	}
}

// Serve returns the page at key. A fresh page is returned as is. A stale page
// is returned immediately and a rebuild starts in the background. A page that
// was never built is built now; if that takes longer than the fallback wait,
// Serve returns a Fallback result and the build carries on. ErrNotFound from
// build removes the page.
func (c *PageCache) Serve(ctx context.Context, key string, ttl time.Duration, build BuildFunc) (Result, error) {
	c.mu.Lock()
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	if e.status == StatusReady {
		res := Result{Body: e.body, BuiltAt: e.builtAt}
		if c.now().Sub(e.builtAt) >= ttl {
			res.Stale = true
			if e.flight == nil {
				c.start(ctx, key, e, build)
			}
		}
		c.mu.Unlock()
		return res, nil
	}
	if e.flight == nil {
		c.start(ctx, key, e, build)
	}
	f := e.flight
	c.mu.Unlock()

	timer := time.NewTimer(c.fallbackWait)
	defer timer.Stop()
	select {
	case <-f.done:
		if f.err != nil {
			return Result{}, f.err
		}
		return Result{Body: f.body, BuiltAt: f.builtAt, Miss: true}, nil
	case <-timer.C:
		return Result{Fallback: true}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// start launches a build for e. c.mu must be held.
func (c *PageCache) start(ctx context.Context, key string, e *entry, build BuildFunc) {
	f := &flight{done: make(chan struct{})}
	e.flight = f
	if e.status == StatusNotBuilt {
		e.status = StatusBuilding
	}
	c.wg.Add(1)
	go c.run(context.WithoutCancel(ctx), key, e, f, build)
}

func (c *PageCache) run(ctx context.Context, key string, e *entry, f *flight, build BuildFunc) {
	defer c.wg.Done()
	ctx, cancel := context.WithTimeout(ctx, c.buildTimeout)
	defer cancel()

	body, err := build(ctx)
	builtAt := c.now()

	switch {
	case err == nil:
		if c.store != nil {
			if serr := c.store.SavePage(ctx, key, body, builtAt); serr != nil {
				c.logger.Errorf("page store: save %s: %v", key, serr)
			}
		}
	case errors.Is(err, ErrNotFound):
		if c.store != nil {
			if serr := c.store.DeletePage(ctx, key); serr != nil {
				c.logger.Errorf("page store: delete %s: %v", key, serr)
			}
		}
	}

	c.mu.Lock()
	switch {
	case err == nil:
		e.status = StatusReady
		e.body = body
		e.builtAt = builtAt
	case errors.Is(err, ErrNotFound):
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		e.status = StatusNotBuilt
		e.body = nil
	default:
		if e.status == StatusBuilding {
			e.status = StatusNotBuilt
		}
		c.logger.Errorf("build %s: %v", key, err)
	}
	e.flight = nil
	f.body, f.builtAt, f.err = body, builtAt, err
	c.mu.Unlock()
	close(f.done)
}

// Put publishes an already built page.
func (c *PageCache) Put(key string, body []byte, builtAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.status = StatusReady
	e.body = body
	e.builtAt = builtAt
}

// Status reports the build state of key.
func (c *PageCache) Status(key string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.status
	}
	return StatusNotBuilt
}

// Invalidate marks every page stale so the next request triggers a rebuild
// while the old output keeps being served.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	for _, e := range c.entries {
		e.builtAt = time.Time{}
	}
	c.mu.Unlock()
}

// Wait blocks until all background builds have finished.
func (c *PageCache) Wait() {
	c.wg.Wait()
}
