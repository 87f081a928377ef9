package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/datefmt"
	"github.com/eringen/spacetraveling/richtext"
	"github.com/eringen/spacetraveling/views"
)

// HomeKey is the cache key of the listing page.
const HomeKey = "/"

// PostKey returns the cache key of a post page.
func PostKey(slug string) string {
	return views.PostPath(slug)
}

// ContentSource is where pages get their posts from.
type ContentSource interface {
	ListPosts(ctx context.Context, ref string, pageSize int) (content.PostPage, error)
	FetchPage(ctx context.Context, cursor string) (content.PostPage, error)
	KnownSlugs(ctx context.Context, limit int) ([]string, error)
	GetPost(ctx context.Context, slug, ref string) (content.PostDetail, error)
	Neighbors(ctx context.Context, post content.PostDetail, ref string) (content.Navigation, error)
	ResolvePreview(ctx context.Context, token, documentID string) (string, error)
}

type settings struct {
	cfg   SiteConfig
	dates datefmt.Formatter
}

// Generator renders pages from content. A non-empty ref renders a preview.
type Generator struct {
	src   ContentSource
	views ViewFuncs
	s     atomic.Pointer[settings]
}

// NewGenerator creates a Generator for cfg.
func NewGenerator(src ContentSource, v ViewFuncs, cfg SiteConfig) (*Generator, error) {
	g := &Generator{src: src, views: v}
	if err := g.SetConfig(cfg); err != nil {
		return nil, err
	}
	return g, nil
}

// SetConfig swaps the site settings used by subsequent builds.
func (g *Generator) SetConfig(cfg SiteConfig) error {
	cfg.setDefaults()
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("spacetraveling: timezone %q: %w", cfg.Timezone, err)
	}
	g.s.Store(&settings{cfg: cfg, dates: datefmt.New(cfg.Locale, loc)})
	return nil
}

// Config returns the current site settings.
func (g *Generator) Config() SiteConfig {
	return g.s.Load().cfg
}

func (g *Generator) site() views.SiteConfig {
	cfg := g.Config()
	return views.SiteConfig{Name: cfg.Name, URL: cfg.URL, Description: cfg.Description, Lang: cfg.Locale}
}

// formatDate formats a publication date. Unpublished documents, seen only in
// previews, have no date.
func (g *Generator) formatDate(date string) (string, error) {
	if date == "" {
		return "", nil
	}
	return g.s.Load().dates.Format(date)
}

// Cards turns summaries into listing cards.
func (g *Generator) Cards(posts []content.PostSummary) ([]views.PostCard, error) {
	cards := make([]views.PostCard, 0, len(posts))
	for _, p := range posts {
		date, err := g.formatDate(p.FirstPublicationDate)
		if err != nil {
			return nil, fmt.Errorf("post %q: %w", p.UID, err)
		}
		cards = append(cards, views.PostCard{
			Slug:     p.UID,
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Author:   p.Author,
			Date:     date,
		})
	}
	return cards, nil
}

// BuildHome renders the listing page.
func (g *Generator) BuildHome(ctx context.Context, ref string) ([]byte, error) {
	cfg := g.Config()
	page, err := g.src.ListPosts(ctx, ref, cfg.PageSize)
	if err != nil {
		return nil, err
	}
	cards, err := g.Cards(page.Results)
	if err != nil {
		return nil, err
	}
	site := g.site()
	return renderBytes(ctx, g.views.Home(views.HomePage{
		Site: site,
		Meta: views.PageMeta{
			Title:       cfg.Name,
			Description: cfg.Description,
			URL:         views.BuildURL(cfg.URL),
			OGType:      "website",
		},
		Posts:    cards,
		NextPage: page.NextPage,
		Preview:  ref != "",
		JSONLD:   template.JS(views.WebsiteJsonLD(site)),
	}))
}

// BuildPost renders a post page. It returns ErrNotFound for unknown slugs.
func (g *Generator) BuildPost(ctx context.Context, slug, ref string) ([]byte, error) {
	post, err := g.src.GetPost(ctx, slug, ref)
	if err != nil {
		return nil, err
	}
	nav, err := g.src.Neighbors(ctx, post, ref)
	if err != nil {
		return nil, err
	}
	date, err := g.formatDate(post.FirstPublicationDate)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", slug, err)
	}

	sections := make([]views.Section, len(post.Content))
	for i, b := range post.Content {
		sections[i] = views.Section{Heading: b.Heading, Body: richtext.AsHTML(b.Body, LinkResolver)}
	}

	cfg := g.Config()
	site := g.site()
	path := PostKey(post.UID)
	return renderBytes(ctx, g.views.Post(views.PostPage{
		Site: site,
		Meta: views.PageMeta{
			Title:       post.Title,
			Description: post.Subtitle,
			URL:         views.BuildURL(cfg.URL, "post", post.UID),
			OGType:      "article",
			Image:       post.Banner.URL,
		},
		Slug:        post.UID,
		Title:       post.Title,
		Author:      post.Author,
		Date:        date,
		ReadingTime: content.ReadingTime(post.Content),
		BannerURL:   post.Banner.URL,
		BannerAlt:   bannerAlt(post),
		Sections:    sections,
		Previous:    navLink(nav.Previous),
		Next:        navLink(nav.Next),
		Comments: views.Comments{
			Repo:      cfg.CommentsRepo,
			IssueTerm: path,
			Theme:     cfg.CommentsTheme,
		},
		Preview: ref != "",
		JSONLD:  template.JS(views.BlogPostingJsonLD(site, post.UID, post.Title, post.Author, post.FirstPublicationDate, post.Banner.URL)),
	}))
}

func bannerAlt(post content.PostDetail) string {
	if post.Banner.Alt != "" {
		return post.Banner.Alt
	}
	return post.Title
}

func navLink(s *content.PostStub) *views.NavLink {
	if s == nil {
		return nil
	}
	return &views.NavLink{Title: s.Title, URL: PostKey(s.UID)}
}

// Prebuild renders the listing and the newest PrebuildLimit posts. It fails as
// a whole if any page fails.
func (g *Generator) Prebuild(ctx context.Context) ([]StoredPage, error) {
	cfg := g.Config()
	slugs, err := g.src.KnownSlugs(ctx, cfg.PrebuildLimit)
	if err != nil {
		return nil, fmt.Errorf("prebuild: %w", err)
	}

	pages := make([]StoredPage, len(slugs)+1)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	eg.Go(func() error {
		body, err := g.BuildHome(ctx, "")
		if err != nil {
			return fmt.Errorf("prebuild %s: %w", HomeKey, err)
		}
		pages[0] = StoredPage{Key: HomeKey, Body: body}
		return nil
	})
	for i, slug := range slugs {
		eg.Go(func() error {
			body, err := g.BuildPost(ctx, slug, "")
			if err != nil {
				return fmt.Errorf("prebuild %s: %w", PostKey(slug), err)
			}
			pages[i+1] = StoredPage{Key: PostKey(slug), Body: body}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range pages {
		pages[i].BuiltAt = now
	}
	return pages, nil
}

func renderBytes(ctx context.Context, cmp templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
