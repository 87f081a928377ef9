package content

import (
	"fmt"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

type summaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

type detailData struct {
	summaryData
	Banner  Image          `json:"banner"`
	Content []ContentBlock `json:"content"`
}

// Summarize keeps uid, first_publication_date, title, subtitle and author and
// drops everything else the API sent.
func Summarize(doc prismic.Document) (PostSummary, error) {
	var data summaryData
	if err := doc.DecodeData(&data); err != nil {
		return PostSummary{}, fmt.Errorf("content: decode summary of %q: %w", doc.UID, err)
	}
	return summary(doc, data), nil
}

func summary(doc prismic.Document, data summaryData) PostSummary {
	s := PostSummary{
		UID:      doc.UID,
		Title:    data.Title,
		Subtitle: data.Subtitle,
		Author:   data.Author,
	}
	if doc.FirstPublicationDate != nil {
		s.FirstPublicationDate = *doc.FirstPublicationDate
	}
	return s
}

// Detail projects a full post document.
func Detail(doc prismic.Document) (PostDetail, error) {
	var data detailData
	if err := doc.DecodeData(&data); err != nil {
		return PostDetail{}, fmt.Errorf("content: decode post %q: %w", doc.UID, err)
	}
	blocks := make([]ContentBlock, len(data.Content))
	for i, c := range data.Content {
		blocks[i] = ContentBlock{
			Heading: c.Heading,
			Body:    append(richtext.RichText(nil), c.Body...),
		}
	}
	return PostDetail{
		PostSummary: summary(doc, data.summaryData),
		ID:          doc.ID,
		Banner:      data.Banner,
		Content:     blocks,
	}, nil
}

// Page projects a search response into a PostPage.
func Page(resp *prismic.Response) (PostPage, error) {
	page := PostPage{Results: make([]PostSummary, 0, len(resp.Results))}
	for _, doc := range resp.Results {
		s, err := Summarize(doc)
		if err != nil {
			return PostPage{}, err
		}
		page.Results = append(page.Results, s)
	}
	if resp.NextPage != nil {
		page.NextPage = *resp.NextPage
	}
	return page, nil
}

func stub(doc prismic.Document) (*PostStub, error) {
	var data summaryData
	if err := doc.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("content: decode %s: %w", doc.ID, err)
	}
	return &PostStub{UID: doc.UID, Title: data.Title}, nil
}
