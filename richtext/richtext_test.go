package richtext

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func resolvePost(l Link) string {
	return "/post/" + l.UID + "/"
}

func TestAsText(t *testing.T) {
	rt := RichText{
		{Type: TypeParagraph, Text: "Lorem ipsum"},
		{Type: TypeImage, URL: "https://images.example/a.png"},
		{Type: "heading2", Text: "dolor sit"},
	}
	if got := AsText(rt, " "); got != "Lorem ipsum dolor sit" {
		t.Errorf("AsText = %q", got)
	}
	if got := AsText(nil, " "); got != "" {
		t.Errorf("AsText(nil) = %q, want empty", got)
	}
}

func TestRenderSpans(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []Span
		want  string
	}{
		{"plain", "a < b", nil, "a &lt; b"},
		{"strong", "bold text", []Span{{Start: 0, End: 4, Type: SpanStrong}}, "<strong>bold</strong> text"},
		{"nested", "abcdef", []Span{
			{Start: 0, End: 6, Type: SpanStrong},
			{Start: 2, End: 4, Type: SpanEm},
		}, "<strong>ab<em>cd</em>ef</strong>"},
		{"overlap", "abcdef", []Span{
			{Start: 0, End: 4, Type: SpanStrong},
			{Start: 2, End: 6, Type: SpanEm},
		}, "<strong>ab<em>cd</em></strong><em>ef</em>"},
		{"newline", "a\nb", nil, "a<br />b"},
		{"utf16 offsets", "😀 ok", []Span{{Start: 3, End: 5, Type: SpanEm}}, "😀 <em>ok</em>"},
		{"out of range", "abc", []Span{{Start: 1, End: 99, Type: SpanEm}}, "a<em>bc</em>"},
		{"web link", "site", []Span{{Start: 0, End: 4, Type: SpanHyperlink, Data: &Link{LinkType: "Web", URL: "https://example.com"}}},
			`<a href="https://example.com">site</a>`},
		{"document link", "post", []Span{{Start: 0, End: 4, Type: SpanHyperlink, Data: &Link{LinkType: "Document", UID: "hello", Type: "post"}}},
			`<a href="/post/hello/">post</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSpans(tt.text, tt.spans, resolvePost); got != tt.want {
				t.Errorf("renderSpans = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderGroupsListItems(t *testing.T) {
	rt := RichText{
		{Type: TypeListItem, Text: "one"},
		{Type: TypeListItem, Text: "two"},
		{Type: TypeOListItem, Text: "first"},
		{Type: TypeParagraph, Text: "after"},
	}
	var buf bytes.Buffer
	render(&buf, rt, nil)
	want := "<ul><li>one</li><li>two</li></ul><ol><li>first</li></ol><p>after</p>"
	if buf.String() != want {
		t.Errorf("render = %q, want %q", buf.String(), want)
	}
}

func TestAsHTMLFromJSON(t *testing.T) {
	raw := `[
		{"type":"heading2","text":"Title","spans":[]},
		{"type":"paragraph","text":"Visit the site now","spans":[{"start":10,"end":14,"type":"hyperlink","data":{"link_type":"Web","url":"https://example.com","target":"_blank"}}]},
		{"type":"image","url":"https://images.example/banner.png","alt":"banner","dimensions":{"width":800,"height":400}},
		{"type":"paragraph","text":"<script>alert(1)</script>","spans":[]}
	]`
	var rt RichText
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out := string(AsHTML(rt, resolvePost))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if got := doc.Find("h2").Text(); got != "Title" {
		t.Errorf("h2 = %q", got)
	}
	link := doc.Find("p a")
	if href, _ := link.Attr("href"); href != "https://example.com" {
		t.Errorf("link href = %q", href)
	}
	if link.Text() != "site" {
		t.Errorf("link text = %q", link.Text())
	}
	if src, _ := doc.Find("img").Attr("src"); src != "https://images.example/banner.png" {
		t.Errorf("img src = %q", src)
	}
	if doc.Find("script").Length() != 0 {
		t.Errorf("script element survived: %s", out)
	}
}

func TestAsHTMLEmbed(t *testing.T) {
	const player = "https://www.youtube.com/embed/x"
	tests := []struct {
		name     string
		embed    Embed
		wantSrc  string
		wantHref string
	}{
		{
			name: "allowed provider keeps its player",
			embed: Embed{
				EmbedURL: "https://www.youtube.com/watch?v=x",
				HTML:     `<iframe width="200" height="113" src="` + player + `" frameborder="0" allow="autoplay; encrypted-media; picture-in-picture" allowfullscreen></iframe><script>alert(1)</script>`,
			},
			wantSrc: player,
		},
		{
			name: "unknown provider becomes a link",
			embed: Embed{
				EmbedURL:     "https://video.example.com/v/1",
				ProviderName: "Example Video",
				HTML:         `<iframe src="https://video.example.com/embed/1"></iframe>`,
			},
			wantHref: "https://video.example.com/v/1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.embed
			out := string(AsHTML(RichText{{Type: TypeEmbed, Oembed: &e}}, nil))
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
			if err != nil {
				t.Fatalf("parse output: %v", err)
			}
			embed := doc.Find("div.embed")
			if strings.TrimSpace(out) == `<div class="embed"></div>` || embed.Children().Length() == 0 {
				t.Fatalf("empty embed: %s", out)
			}
			if doc.Find("script").Length() != 0 {
				t.Errorf("script survived: %s", out)
			}
			src, hasFrame := embed.Find("iframe").Attr("src")
			if tt.wantSrc != "" && src != tt.wantSrc {
				t.Errorf("iframe src = %q, want %q", src, tt.wantSrc)
			}
			if tt.wantHref != "" {
				if hasFrame {
					t.Errorf("foreign iframe kept: %s", out)
				}
				link := embed.Find("a")
				if href, _ := link.Attr("href"); href != tt.wantHref {
					t.Errorf("link href = %q, want %q", href, tt.wantHref)
				}
				if link.Text() != "Example Video" {
					t.Errorf("link text = %q", link.Text())
				}
			}
		})
	}
}

func TestComponentRenders(t *testing.T) {
	var buf bytes.Buffer
	rt := RichText{{Type: TypeParagraph, Text: "hello"}}
	if err := Component(rt, nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.String() != "<p>hello</p>" {
		t.Errorf("Component output = %q", buf.String())
	}
}
