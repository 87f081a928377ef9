// Package views renders the site's pages. Templates are embedded html/template
// files exposed as templ components so handlers render them the same way.
package views

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"postPath": PostPath,
}

func parse(page string, partials ...string) *template.Template {
	files := append([]string{"templates/base.html"}, partials...)
	files = append(files, "templates/"+page)
	return template.Must(template.New(page).Funcs(funcs).ParseFS(templateFS, files...))
}

var (
	homeTmpl     = parse("home.html", "templates/cards.html")
	cardsTmpl    = template.Must(template.New("cards.html").Funcs(funcs).ParseFS(templateFS, "templates/cards.html"))
	loadErrTmpl  = template.Must(template.New("load_error.html").ParseFS(templateFS, "templates/load_error.html"))
	postTmpl     = parse("post.html")
	fallbackTmpl = parse("fallback.html")
	notFoundTmpl = parse("404.html")
	errorTmpl    = parse("500.html")
)

// Home renders the post listing.
func Home(p HomePage) templ.Component {
	return templ.FromGoHTML(homeTmpl, p)
}

// PostCards renders the cards appended by "Carregar mais posts".
func PostCards(f CardsFragment) templ.Component {
	return templ.FromGoHTML(cardsTmpl, f)
}

// LoadMoreError renders the retry notice shown when a page fails to load.
func LoadMoreError(cursor string) templ.Component {
	return templ.FromGoHTML(loadErrTmpl, struct{ Cursor string }{cursor})
}

// Post renders a single post.
func Post(p PostPage) templ.Component {
	return templ.FromGoHTML(postTmpl, p)
}

// Fallback renders the placeholder served while a page is still being built.
func Fallback(p FallbackPage) templ.Component {
	return templ.FromGoHTML(fallbackTmpl, p)
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return templ.FromGoHTML(notFoundTmpl, struct{ Site SiteConfig }{site})
}

// ServerError renders the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return templ.FromGoHTML(errorTmpl, struct{ Site SiteConfig }{site})
}
