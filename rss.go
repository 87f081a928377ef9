package spacetraveling

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"github.com/eringen/spacetraveling/datefmt"
	"github.com/eringen/spacetraveling/views"
)

const (
	FeedKey = "/feed.xml"
	AtomKey = "/atom.xml"

	feedItems = 20
)

// Feed builds the site feed from the newest posts.
func (g *Generator) Feed(ctx context.Context) (*feeds.Feed, error) {
	cfg := g.Config()
	page, err := g.src.ListPosts(ctx, "", feedItems)
	if err != nil {
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       cfg.Name,
		Link:        &feeds.Link{Href: views.BuildURL(cfg.URL)},
		Description: cfg.Description,
		Id:          views.BuildURL(cfg.URL),
	}
	for _, p := range page.Results {
		postURL := views.BuildURL(cfg.URL, "post", p.UID)
		var created time.Time
		if p.FirstPublicationDate != "" {
			if created, err = datefmt.Parse(p.FirstPublicationDate); err != nil {
				return nil, fmt.Errorf("post %q: %w", p.UID, err)
			}
		}
		if created.After(feed.Updated) {
			feed.Updated = created
		}
		item := &feeds.Item{
			Title:       p.Title,
			Link:        &feeds.Link{Href: postURL},
			Id:          postURL,
			Description: p.Subtitle,
			Created:     created,
		}
		if p.Author != "" {
			item.Author = &feeds.Author{Name: p.Author}
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, nil
}

// BuildRSS renders the RSS 2.0 feed.
func (g *Generator) BuildRSS(ctx context.Context) ([]byte, error) {
	feed, err := g.Feed(ctx)
	if err != nil {
		return nil, err
	}
	rss, err := feed.ToRss()
	if err != nil {
		return nil, err
	}
	return []byte(rss), nil
}

// BuildAtom renders the Atom feed.
func (g *Generator) BuildAtom(ctx context.Context) ([]byte, error) {
	feed, err := g.Feed(ctx)
	if err != nil {
		return nil, err
	}
	atom, err := feed.ToAtom()
	if err != nil {
		return nil, err
	}
	return []byte(atom), nil
}
