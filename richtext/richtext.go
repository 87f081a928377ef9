// Package richtext renders Prismic structured text as plain text or HTML.
package richtext

import (
	"bytes"
	"context"
	"html"
	"html/template"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// Block types emitted by the CMS.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// RichText is an ordered list of blocks.
type RichText []Block

// Block is one structured text node.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	LinkTo     *Link       `json:"linkTo,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
}

// Span marks a range of a block's text. Start and End are UTF-16 offsets.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Data  *Link  `json:"data,omitempty"`
}

// Link is the payload of hyperlink and label spans and of image links.
type Link struct {
	LinkType string `json:"link_type"`
	URL      string `json:"url"`
	ID       string `json:"id"`
	UID      string `json:"uid"`
	Type     string `json:"type"`
	Target   string `json:"target"`
	IsBroken bool   `json:"isBroken"`
	Label    string `json:"label"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Embed is an oEmbed payload.
type Embed struct {
	Type         string `json:"type"`
	EmbedURL     string `json:"embed_url"`
	ProviderName string `json:"provider_name"`
	HTML         string `json:"html"`
}

// LinkResolver maps a document link to a site path.
type LinkResolver func(Link) string

// EmbedOrigins are the oEmbed providers whose iframes are kept. Embeds from
// anywhere else render as a link.
var EmbedOrigins = []string{
	"https://www.youtube.com",
	"https://www.youtube-nocookie.com",
	"https://player.vimeo.com",
	"https://codepen.io",
	"https://codesandbox.io",
}

var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 -]+$`)).OnElements("span", "p", "div")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")

	origins := make([]string, len(EmbedOrigins))
	for i, o := range EmbedOrigins {
		origins[i] = regexp.QuoteMeta(o)
	}
	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(regexp.MustCompile(`^(` + strings.Join(origins, "|") + `)/`)).OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("iframe")
	p.AllowAttrs("title").OnElements("iframe")
	p.AllowAttrs("frameborder").Matching(regexp.MustCompile(`^0$`)).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")
	p.AllowAttrs("allow").Matching(regexp.MustCompile(`^[a-z;\- ]+$`)).OnElements("iframe")
	return p
}

// AsText joins the text of every text-bearing block with sep.
func AsText(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, sep)
}

// AsHTML renders rt to sanitized HTML.
func AsHTML(rt RichText, resolve LinkResolver) template.HTML {
	var buf bytes.Buffer
	render(&buf, rt, resolve)
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// Component returns a templ.Component that renders rt as HTML.
func Component(rt RichText, resolve LinkResolver) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, string(AsHTML(rt, resolve)))
		return err
	})
}

func render(buf *bytes.Buffer, rt RichText, resolve LinkResolver) {
	list := ""
	flushList := func() {
		if list != "" {
			buf.WriteString("</" + list + ">")
			list = ""
		}
	}

	for _, b := range rt {
		var want string
		switch b.Type {
		case TypeListItem:
			want = "ul"
		case TypeOListItem:
			want = "ol"
		}
		if want != list {
			flushList()
			if want != "" {
				buf.WriteString("<" + want + ">")
				list = want
			}
		}

		switch {
		case want != "":
			buf.WriteString("<li>")
			buf.WriteString(renderSpans(b.Text, b.Spans, resolve))
			buf.WriteString("</li>")
		case strings.HasPrefix(b.Type, "heading"):
			level, err := strconv.Atoi(strings.TrimPrefix(b.Type, "heading"))
			if err != nil || level < 1 || level > 6 {
				level = 2
			}
			tag := "h" + strconv.Itoa(level)
			buf.WriteString("<" + tag + ">")
			buf.WriteString(renderSpans(b.Text, b.Spans, resolve))
			buf.WriteString("</" + tag + ">")
		case b.Type == TypePreformatted:
			buf.WriteString("<pre>")
			buf.WriteString(html.EscapeString(b.Text))
			buf.WriteString("</pre>")
		case b.Type == TypeImage:
			img := `<img src="` + html.EscapeString(b.URL) + `" alt="` + html.EscapeString(b.Alt) + `"`
			if b.Dimensions != nil {
				img += ` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`
			}
			img += ` loading="lazy" />`
			if href := linkURL(b.LinkTo, resolve); href != "" {
				img = `<a href="` + html.EscapeString(href) + `">` + img + `</a>`
			}
			buf.WriteString(`<p class="block-img">` + img + `</p>`)
		case b.Type == TypeEmbed:
			if b.Oembed == nil {
				continue
			}
			buf.WriteString(`<div class="embed">`)
			buf.WriteString(renderEmbed(b.Oembed))
			buf.WriteString(`</div>`)
		default:
			buf.WriteString("<p>")
			buf.WriteString(renderSpans(b.Text, b.Spans, resolve))
			buf.WriteString("</p>")
		}
	}
	flushList()
}

// renderEmbed keeps the provider's player when it survives sanitizing and
// falls back to a link to the embedded content otherwise.
func renderEmbed(e *Embed) string {
	if player := sanitizer.Sanitize(e.HTML); strings.Contains(player, "<iframe") && strings.Contains(player, ` src="`) {
		return player
	}
	if e.EmbedURL == "" {
		return ""
	}
	label := e.ProviderName
	if label == "" {
		label = e.EmbedURL
	}
	return `<a href="` + html.EscapeString(e.EmbedURL) + `" target="_blank">` + html.EscapeString(label) + `</a>`
}

// renderSpans applies spans to text. Overlapping spans are split at their
// boundaries so the output is always well nested.
func renderSpans(text string, spans []Span, resolve LinkResolver) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		if s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	bounds := []int{0, n}
	for _, s := range valid {
		bounds = append(bounds, s.Start, s.End)
	}
	sort.Ints(bounds)

	var b strings.Builder
	var open []int
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		if start == end {
			continue
		}
		var active []int
		for idx, s := range valid {
			if s.Start <= start && s.End >= end {
				active = append(active, idx)
			}
		}
		k := 0
		for k < len(open) && k < len(active) && open[k] == active[k] {
			k++
		}
		for j := len(open) - 1; j >= k; j-- {
			b.WriteString(closeTag(valid[open[j]]))
		}
		open = open[:k]
		for _, idx := range active[k:] {
			b.WriteString(openTag(valid[idx], resolve))
			open = append(open, idx)
		}
		segment := string(utf16.Decode(units[start:end]))
		b.WriteString(strings.ReplaceAll(html.EscapeString(segment), "\n", "<br />"))
	}
	for j := len(open) - 1; j >= 0; j-- {
		b.WriteString(closeTag(valid[open[j]]))
	}
	return b.String()
}

func openTag(s Span, resolve LinkResolver) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		tag := `<a href="` + html.EscapeString(linkURL(s.Data, resolve)) + `"`
		if s.Data != nil && s.Data.Target == "_blank" {
			tag += ` target="_blank"`
		}
		return tag + ">"
	case SpanLabel:
		label := ""
		if s.Data != nil {
			label = s.Data.Label
		}
		return `<span class="` + html.EscapeString(label) + `">`
	}
	return "<span>"
}

func closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		return "</a>"
	}
	return "</span>"
}

func linkURL(l *Link, resolve LinkResolver) string {
	if l == nil {
		return ""
	}
	if l.LinkType == "Document" {
		if l.IsBroken || resolve == nil {
			return ""
		}
		return resolve(*l)
	}
	return l.URL
}
