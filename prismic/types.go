package prismic

import "encoding/json"

// Response is the envelope returned by the documents search endpoint. The same
// shape is returned when following a next_page URL.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Document is a single CMS document. Data is left raw so that callers decode
// only the fields they care about.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Lang                 string          `json:"lang"`
	Data                 json.RawMessage `json:"data"`
}

// DecodeData unmarshals the document's data block into v.
func (d Document) DecodeData(v any) error {
	if len(d.Data) == 0 {
		return nil
	}
	return json.Unmarshal(d.Data, v)
}

// Ref is a content snapshot reference advertised by the API root.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type apiRoot struct {
	Refs []Ref `json:"refs"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// previewSession is the body served at a preview token URL.
type previewSession struct {
	MainDocument string `json:"mainDocument"`
}
