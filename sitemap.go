package spacetraveling

import (
	"bytes"
	"context"
	"encoding/xml"
	"time"

	"github.com/eringen/spacetraveling/datefmt"
	"github.com/eringen/spacetraveling/pagination"
	"github.com/eringen/spacetraveling/views"
)

const SitemapKey = "/sitemap.xml"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// BuildSitemap lists the home page and every post reachable by paging through
// the listing, up to MaxSitemapPages pages.
func (g *Generator) BuildSitemap(ctx context.Context) ([]byte, error) {
	cfg := g.Config()
	first, err := g.src.ListPosts(ctx, "", cfg.PageSize)
	if err != nil {
		return nil, err
	}
	ctrl := pagination.NewController(g.src, first)
	if more := cfg.MaxSitemapPages - 1; more > 0 {
		if err := ctrl.Walk(ctx, more); err != nil {
			return nil, err
		}
	}

	base := cfg.URL
	urls := []sitemapURL{
		{Loc: views.BuildURL(base)},
	}
	for _, p := range ctrl.Posts() {
		u := sitemapURL{Loc: views.BuildURL(base, "post", p.UID)}
		if t, err := datefmt.Parse(p.FirstPublicationDate); err == nil {
			u.LastMod = t.UTC().Format(time.DateOnly)
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(sitemap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
