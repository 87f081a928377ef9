// Package pagination holds the client-side state of the post listing: the posts
// shown so far and the cursor to the next page.
package pagination

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/spacetraveling/content"
)

var (
	// ErrNoMorePages is returned by LoadMore once the cursor is exhausted.
	ErrNoMorePages = errors.New("pagination: no more pages")
	// ErrLoadInProgress is returned when LoadMore is called while another
	// LoadMore on the same controller has not finished.
	ErrLoadInProgress = errors.New("pagination: load in progress")
)

// Fetcher follows an opaque next-page cursor.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor string) (content.PostPage, error)
}

// Controller accumulates pages of posts. It is seeded once with the first
// page and never fetches that page itself.
type Controller struct {
	fetcher Fetcher
	loading sync.Mutex

	mu     sync.RWMutex
	posts  []content.PostSummary
	seen   map[string]struct{}
	cursor string
}

// NewController seeds a controller with an already fetched first page.
func NewController(fetcher Fetcher, first content.PostPage) *Controller {
	c := &Controller{
		fetcher: fetcher,
		posts:   make([]content.PostSummary, 0, len(first.Results)),
		seen:    make(map[string]struct{}, len(first.Results)),
		cursor:  first.NextPage,
	}
	for _, p := range first.Results {
		if _, dup := c.seen[p.UID]; dup {
			continue
		}
		c.seen[p.UID] = struct{}{}
		c.posts = append(c.posts, p)
	}
	return c
}

// LoadMore fetches the page at the cursor and appends the posts not already
// present. It returns the appended posts. On error the controller is left
// exactly as it was.
func (c *Controller) LoadMore(ctx context.Context) ([]content.PostSummary, error) {
	if !c.loading.TryLock() {
		return nil, ErrLoadInProgress
	}
	defer c.loading.Unlock()

	cursor := c.Cursor()
	if cursor == "" {
		return nil, ErrNoMorePages
	}

	page, err := c.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	added := make([]content.PostSummary, 0, len(page.Results))
	for _, p := range page.Results {
		if _, dup := c.seen[p.UID]; dup {
			continue
		}
		c.seen[p.UID] = struct{}{}
		added = append(added, p)
	}
	c.posts = append(c.posts, added...)
	c.cursor = page.NextPage
	return added, nil
}

// Walk calls LoadMore until the listing is exhausted or maxPages further pages
// were loaded. maxPages <= 0 means no limit.
func (c *Controller) Walk(ctx context.Context, maxPages int) error {
	for n := 0; maxPages <= 0 || n < maxPages; n++ {
		if _, err := c.LoadMore(ctx); err != nil {
			if errors.Is(err, ErrNoMorePages) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Posts returns a copy of the posts loaded so far, in listing order.
func (c *Controller) Posts() []content.PostSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]content.PostSummary(nil), c.posts...)
}

// Cursor returns the next-page cursor, empty when there are no more pages.
func (c *Controller) Cursor() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// HasMore reports whether LoadMore has a page to fetch.
func (c *Controller) HasMore() bool {
	return c.Cursor() != ""
}
