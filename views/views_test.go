package views

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
)

var testSite = SiteConfig{Name: "spacetraveling", URL: "https://blog.example.com", Lang: "pt-BR"}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func samplePost() PostPage {
	return PostPage{
		Site:        testSite,
		Meta:        PageMeta{Title: "Como utilizar Hooks", URL: "https://blog.example.com/post/hooks/", OGType: "article"},
		Slug:        "hooks",
		Title:       "Como utilizar Hooks",
		Author:      "Joseph Oliveira",
		Date:        "15 mar 2021",
		ReadingTime: 4,
		BannerURL:   "https://images.prismic.io/banner.png",
		Sections: []Section{
			{Heading: "Proin et varius", Body: "<p>Lorem <strong>ipsum</strong></p>"},
		},
		JSONLD: `{"@type":"BlogPosting"}`,
	}
}

func TestPostRendersInfoAndSections(t *testing.T) {
	doc := render(t, Post(samplePost()))

	if got := doc.Find("article h1").Text(); got != "Como utilizar Hooks" {
		t.Errorf("title = %q", got)
	}
	if got := doc.Find(".reading-time").Text(); got != "4 min" {
		t.Errorf("reading time = %q", got)
	}
	if got := doc.Find(".date").Text(); got != "15 mar 2021" {
		t.Errorf("date = %q", got)
	}
	if doc.Find(".post-content strong").Length() != 1 {
		t.Error("section body should be rendered as HTML")
	}
	if src, _ := doc.Find("img.banner").Attr("src"); src != "https://images.prismic.io/banner.png" {
		t.Errorf("banner src = %q", src)
	}
	ld := doc.Find(`script[type="application/ld+json"]`).Text()
	var v map[string]any
	if err := json.Unmarshal([]byte(ld), &v); err != nil {
		t.Errorf("JSON-LD is not valid JSON: %q", ld)
	}
}

func TestPostNavigationOmitsMissingSides(t *testing.T) {
	p := samplePost()
	p.Next = &NavLink{Title: "Criando um app CRA do zero", URL: "/post/cra/"}
	doc := render(t, Post(p))

	if doc.Find("a.prev-button").Length() != 0 {
		t.Error("Post anterior link rendered without a previous post")
	}
	next := doc.Find("a.next-button")
	if next.Length() != 1 || next.Text() != "Próximo post" {
		t.Fatalf("next link = %q", next.Text())
	}
	if href, _ := next.Attr("href"); href != "/post/cra/" {
		t.Errorf("next href = %q", href)
	}

	p.Previous, p.Next = &NavLink{Title: "Older", URL: "/post/older/"}, nil
	doc = render(t, Post(p))
	if doc.Find("a.prev-button").Text() != "Post anterior" {
		t.Error("missing Post anterior link")
	}
	if doc.Find("a.next-button").Length() != 0 {
		t.Error("Próximo post link rendered without a next post")
	}
}

func TestPostComments(t *testing.T) {
	p := samplePost()
	doc := render(t, Post(p))
	if doc.Find("#comments").Length() != 0 {
		t.Error("comments rendered without a repo")
	}

	p.Comments = Comments{Repo: "owner/blog-comments", IssueTerm: "/post/hooks/", Theme: "github-dark"}
	doc = render(t, Post(p))
	s := doc.Find(`#comments script`)
	for attr, want := range map[string]string{
		"src":         "https://utteranc.es/client.js",
		"repo":        "owner/blog-comments",
		"issue-term":  "/post/hooks/",
		"theme":       "github-dark",
		"crossorigin": "anonymous",
	} {
		if got, _ := s.Attr(attr); got != want {
			t.Errorf("%s = %q, want %q", attr, got, want)
		}
	}
}

func TestPreviewExitLink(t *testing.T) {
	p := samplePost()
	if render(t, Post(p)).Find(".preview-button").Length() != 0 {
		t.Error("exit preview link rendered outside preview")
	}
	p.Preview = true
	link := render(t, Post(p)).Find(".preview-button a")
	if href, _ := link.Attr("href"); href != "/api/exit-preview" || link.Text() != "Sair do modo Preview" {
		t.Errorf("exit preview link = %q %q", href, link.Text())
	}
}

func TestHomeLoadMoreButton(t *testing.T) {
	page := HomePage{
		Site: testSite,
		Posts: []PostCard{
			{Slug: "hooks", Title: "Hooks", Subtitle: "Pensando em sincronização", Author: "Joseph", Date: "15 mar 2021"},
			{Slug: "cra", Title: "CRA", Author: "Danilo", Date: "25 mar 2021"},
		},
		NextPage: "https://blog.cdn.prismic.io/api/v2/documents/search?page=2&pageSize=2",
	}
	doc := render(t, Home(page))

	cards := doc.Find("#posts a.post-card")
	if cards.Length() != 2 {
		t.Fatalf("cards = %d, want 2", cards.Length())
	}
	if href, _ := cards.First().Attr("href"); href != "/post/hooks/" {
		t.Errorf("card href = %q", href)
	}
	if slug, _ := cards.Last().Attr("data-slug"); slug != "cra" {
		t.Errorf("data-slug = %q", slug)
	}
	btn := doc.Find("#load-more")
	if btn.Text() != "Carregar mais posts" {
		t.Errorf("button text = %q", btn.Text())
	}
	if cursor, _ := btn.Attr("data-cursor"); cursor != page.NextPage {
		t.Errorf("data-cursor = %q", cursor)
	}

	page.NextPage = ""
	if render(t, Home(page)).Find("#load-more").Length() != 0 {
		t.Error("load more button rendered on the last page")
	}
}

func TestPostCardsFragment(t *testing.T) {
	doc := render(t, PostCards(CardsFragment{Posts: []PostCard{{Slug: "a b", Title: "A"}}}))
	if href, _ := doc.Find("a.post-card").Attr("href"); href != "/post/a%20b/" {
		t.Errorf("href = %q", href)
	}
	if doc.Find("html head link[rel=stylesheet]").Length() != 0 {
		t.Error("fragment should not include the page layout")
	}
}

func TestFallback(t *testing.T) {
	doc := render(t, Fallback(FallbackPage{Site: testSite, Path: "/post/new/", Refresh: 2}))
	if doc.Find("h1").Text() != "Carregando..." {
		t.Errorf("h1 = %q", doc.Find("h1").Text())
	}
	if c, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content"); c != "2" {
		t.Errorf("refresh = %q", c)
	}
}

func TestErrorPages(t *testing.T) {
	if got := render(t, NotFound(testSite)).Find("h1").Text(); got != "404" {
		t.Errorf("404 h1 = %q", got)
	}
	if got := render(t, ServerError(testSite)).Find("h1").Text(); got != "500" {
		t.Errorf("500 h1 = %q", got)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	ld := BlogPostingJsonLD(testSite, "hooks", "Hooks", "Joseph", "2021-03-15T19:25:28+0000", "")
	var v map[string]any
	if err := json.Unmarshal([]byte(ld), &v); err != nil {
		t.Fatal(err)
	}
	if v["url"] != "https://blog.example.com/post/hooks/" {
		t.Errorf("url = %v", v["url"])
	}
	if _, ok := v["image"]; ok {
		t.Error("empty image should be omitted")
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://blog.example.com", nil, "https://blog.example.com"},
		{"https://blog.example.com", []string{"post", "hooks"}, "https://blog.example.com/post/hooks/"},
		{"https://example.com/blog/", []string{"post", "cra"}, "https://example.com/blog/post/cra/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}
