// Package content maps CMS documents into the post shapes the site renders.
// Raw API payloads never cross this boundary: every document is projected
// through an explicit field allow-list.
package content

import "github.com/eringen/spacetraveling/richtext"

// PostType is the CMS custom type for blog posts.
const PostType = "post"

// PostSummary is the listing view of a post.
type PostSummary struct {
	UID                  string `json:"uid"`
	FirstPublicationDate string `json:"first_publication_date,omitempty"` // empty when unpublished
	Title                string `json:"title"`
	Subtitle             string `json:"subtitle"`
	Author               string `json:"author"`
}

// PostDetail is a full post with its banner and content blocks.
type PostDetail struct {
	PostSummary
	ID      string
	Banner  Image
	Content []ContentBlock
}

// Image is a CMS image reference.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// ContentBlock is one section of a post: a heading and its rich text body.
type ContentBlock struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// PostPage is one page of the post listing. NextPage is empty iff there are no
// further pages.
type PostPage struct {
	Results  []PostSummary `json:"results"`
	NextPage string        `json:"next_page"`
}

// PostStub is the minimum needed to link to a neighboring post.
type PostStub struct {
	UID   string
	Title string
}

// Navigation holds the neighbors of a post by publication date. A nil side
// means there is no such post.
type Navigation struct {
	Previous *PostStub
	Next     *PostStub
}
