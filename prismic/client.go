// Package prismic is a small read-only client for the Prismic REST API v2.
package prismic

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a single-document lookup has no result.
	ErrNotFound = errors.New("prismic: document not found")
	// ErrForeignURL is returned when asked to follow a URL outside the repository.
	ErrForeignURL = errors.New("prismic: url does not belong to the repository")
	// ErrNoMasterRef is returned when the API root advertises no master ref.
	ErrNoMasterRef = errors.New("prismic: no master ref")
)

const defaultRefTTL = 5 * time.Second

// APIError describes a non-200 response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("prismic: %s returned %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("prismic: %s returned %d", e.URL, e.StatusCode)
}

// QueryOptions are the optional search parameters.
type QueryOptions struct {
	Ref       string // empty means the master ref
	PageSize  int
	Page      int
	Orderings string
	Fetch     []string
	After     string
	Lang      string
}

// Client talks to one Prismic repository.
type Client struct {
	endpoint    *url.URL
	accessToken string
	http        *http.Client
	refTTL      time.Duration

	mu        sync.Mutex
	masterRef string
	fetched   time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRefTTL sets how long the master ref is reused before asking again.
func WithRefTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.refTTL = ttl
	}
}

// New creates a client for the API root at endpoint,
// e.g. https://my-repo.cdn.prismic.io/api/v2.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "prismic: invalid endpoint %q", endpoint)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("prismic: endpoint %q must be an absolute url", endpoint)
	}
	c := &Client{
		endpoint: u,
		http:     &http.Client{Timeout: 15 * time.Second},
		refTTL:   defaultRefTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the API root URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Owns reports whether rawURL points into this repository: the API host or the
// matching non-CDN host that serves preview sessions.
func (c *Client) Owns(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != c.endpoint.Scheme {
		return false
	}
	host := strings.ToLower(u.Host)
	own := strings.ToLower(c.endpoint.Host)
	return host == own || host == strings.Replace(own, ".cdn.", ".", 1)
}

// MasterRef returns the ref of the published content, caching it briefly.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.masterRef != "" && time.Since(c.fetched) < c.refTTL {
		ref := c.masterRef
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	var root apiRoot
	if err := c.get(ctx, c.withToken(c.endpoint.String()), &root); err != nil {
		return "", errors.Wrap(err, "prismic: fetch api root")
	}
	for _, r := range root.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.masterRef = r.Ref
			c.fetched = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Query searches documents matching all predicates.
func (c *Client) Query(ctx context.Context, preds []Predicate, opts QueryOptions) (*Response, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		if ref, err = c.MasterRef(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("ref", ref)
	if len(preds) > 0 {
		q.Set("q", buildQuery(preds))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Orderings != "" {
		q.Set("orderings", opts.Orderings)
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if opts.Lang != "" {
		q.Set("lang", opts.Lang)
	}
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}

	searchURL := c.endpoint.String() + "/documents/search?" + q.Encode()
	var resp Response
	if err := c.get(ctx, searchURL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByUID returns the document of the given custom type with uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid, ref string) (*Document, error) {
	return c.single(ctx, At("my."+docType+".uid", uid), ref)
}

// GetByID returns the document with the given internal id.
func (c *Client) GetByID(ctx context.Context, id, ref string) (*Document, error) {
	return c.single(ctx, At("document.id", id), ref)
}

func (c *Client) single(ctx context.Context, pred Predicate, ref string) (*Document, error) {
	resp, err := c.Query(ctx, []Predicate{pred}, QueryOptions{Ref: ref, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	doc := resp.Results[0]
	return &doc, nil
}

// Fetch follows an opaque API URL, such as a next_page link, and decodes the
// JSON body into v.
func (c *Client) Fetch(ctx context.Context, rawURL string, v any) error {
	if !c.Owns(rawURL) {
		return errors.Wrapf(ErrForeignURL, "fetch %s", rawURL)
	}
	return c.get(ctx, c.withToken(rawURL), v)
}

// PreviewDocument returns the id of the document a preview token was opened for.
func (c *Client) PreviewDocument(ctx context.Context, token string) (string, error) {
	var sess previewSession
	if err := c.Fetch(ctx, token, &sess); err != nil {
		return "", errors.Wrap(err, "prismic: resolve preview token")
	}
	if sess.MainDocument == "" {
		return "", ErrNotFound
	}
	return sess.MainDocument, nil
}

func (c *Client) withToken(rawURL string) string {
	if c.accessToken == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		q.Set("access_token", c.accessToken)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrapf(err, "can't create an http request for %s", redact(rawURL))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	r, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "can't download from %s", redact(rawURL))
	}
	defer func() { _ = r.Body.Close() }()

	var reader io.ReadCloser
	switch r.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(r.Body)
		if err != nil {
			return errors.Wrapf(err, "can't create a gzip reader for %s response", redact(rawURL))
		}
		defer func() { _ = reader.Close() }()
	default:
		reader = r.Body
	}

	if r.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: r.StatusCode, URL: redact(rawURL)}
		var body apiError
		if json.NewDecoder(io.LimitReader(reader, 64<<10)).Decode(&body) == nil {
			apiErr.Message = body.Message
			if apiErr.Message == "" {
				apiErr.Message = body.Error
			}
		}
		if r.StatusCode == http.StatusNotFound {
			return errors.WithStack(&notFoundError{apiErr})
		}
		return errors.WithStack(apiErr)
	}

	if err := json.NewDecoder(reader).Decode(v); err != nil {
		return errors.Wrapf(err, "can't decode the body of %s response", redact(rawURL))
	}
	return nil
}

// notFoundError lets a 404 satisfy both errors.Is(err, ErrNotFound) and
// errors.As(err, **APIError).
type notFoundError struct {
	*APIError
}

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *notFoundError) Unwrap() error        { return e.APIError }

// redact strips the access token from URLs that end up in error messages.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		return rawURL
	}
	q.Set("access_token", "xxx")
	u.RawQuery = q.Encode()
	return u.String()
}
