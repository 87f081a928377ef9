package views

import "html/template"

// SiteConfig holds the site-wide settings templates need.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Lang        string // html lang attribute
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// PostCard is one entry of the post listing, with the date already formatted.
type PostCard struct {
	Slug     string
	Title    string
	Subtitle string
	Author   string
	Date     string
}

// HomePage is the listing page.
type HomePage struct {
	Site     SiteConfig
	Meta     PageMeta
	Posts    []PostCard
	NextPage string // empty hides the load-more button
	Preview  bool
	JSONLD   template.JS
}

// CardsFragment is a page of cards returned by the load-more endpoint.
type CardsFragment struct {
	Posts    []PostCard
	NextPage string
}

// Section is one content block of a post with its body rendered to HTML.
type Section struct {
	Heading string
	Body    template.HTML
}

// NavLink points at a neighboring post.
type NavLink struct {
	Title string
	URL   string
}

// Comments configures the utterances widget. An empty Repo disables it.
type Comments struct {
	Repo      string
	IssueTerm string
	Theme     string
}

// PostPage is a single post.
type PostPage struct {
	Site        SiteConfig
	Meta        PageMeta
	Slug        string
	Title       string
	Author      string
	Date        string
	ReadingTime int
	BannerURL   string
	BannerAlt   string
	Sections    []Section
	Previous    *NavLink
	Next        *NavLink
	Comments    Comments
	Preview     bool
	JSONLD      template.JS
}

// FallbackPage is served while a page is built for the first time.
type FallbackPage struct {
	Site    SiteConfig
	Path    string
	Refresh int // seconds
}
