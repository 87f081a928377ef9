package spacetraveling

import (
	"net/url"

	"github.com/eringen/spacetraveling/content"
	"github.com/eringen/spacetraveling/richtext"
	"github.com/eringen/spacetraveling/views"
)

// LinkResolver maps CMS document links to site paths. Posts link to their
// page; anything else links home.
func LinkResolver(l richtext.Link) string {
	if l.Type == content.PostType && l.UID != "" {
		return views.PostPath(l.UID)
	}
	return "/"
}

// isHTTPURL reports whether s is an absolute http(s) URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
