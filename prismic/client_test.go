package prismic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, search http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var rootHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rootHits, 1)
		fmt.Fprint(w, `{"refs":[{"id":"preview","ref":"P1","isMasterRef":false},{"id":"master","ref":"M1","label":"Master","isMasterRef":true}]}`)
	})
	mux.HandleFunc("/api/v2/documents/search", search)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &rootHits
}

func TestQueryBuildsSearchParameters(t *testing.T) {
	var got *http.Request
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"page":1,"results_per_page":3,"next_page":null,"results":[{"id":"X1","uid":"hello","type":"post","first_publication_date":"2021-03-25T19:25:28+0000","data":{"title":"Hello"}}]}`)
	})
	c, err := New(srv.URL+"/api/v2", WithAccessToken("secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := c.Query(context.Background(), []Predicate{At("document.type", "post")}, QueryOptions{
		PageSize:  3,
		Orderings: Ordering("document.first_publication_date", true),
		Fetch:     []string{"post.title", "post.subtitle"},
		After:     "X0",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	q := got.URL.Query()
	checks := map[string]string{
		"ref":          "M1",
		"q":            `[[at(document.type, "post")]]`,
		"pageSize":     "3",
		"orderings":    "[document.first_publication_date desc]",
		"fetch":        "post.title,post.subtitle",
		"after":        "X0",
		"access_token": "secret",
	}
	for k, want := range checks {
		if q.Get(k) != want {
			t.Errorf("param %s = %q, want %q", k, q.Get(k), want)
		}
	}
	if len(resp.Results) != 1 || resp.Results[0].UID != "hello" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if resp.NextPage != nil {
		t.Errorf("NextPage = %v, want nil", *resp.NextPage)
	}
}

func TestQueryUsesExplicitRef(t *testing.T) {
	srv, rootHits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "PREVIEW" {
			t.Errorf("ref = %q, want PREVIEW", r.URL.Query().Get("ref"))
		}
		fmt.Fprint(w, `{"results":[]}`)
	})
	c, _ := New(srv.URL + "/api/v2")
	if _, err := c.Query(context.Background(), nil, QueryOptions{Ref: "PREVIEW"}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if atomic.LoadInt32(rootHits) != 0 {
		t.Errorf("api root fetched %d times, want 0", *rootHits)
	}
}

func TestMasterRefIsCached(t *testing.T) {
	srv, rootHits := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	})
	c, _ := New(srv.URL + "/api/v2")
	for i := 0; i < 3; i++ {
		if _, err := c.MasterRef(context.Background()); err != nil {
			t.Fatalf("MasterRef: %v", err)
		}
	}
	if n := atomic.LoadInt32(rootHits); n != 1 {
		t.Errorf("api root fetched %d times, want 1", n)
	}
}

func TestGetByUIDNotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Query().Get("q"), `my.post.uid, "missing"`) {
			t.Errorf("unexpected q: %s", r.URL.Query().Get("q"))
		}
		fmt.Fprint(w, `{"results":[]}`)
	})
	c, _ := New(srv.URL + "/api/v2")
	_, err := c.GetByUID(context.Background(), "post", "missing", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"bad predicate"}`)
	})
	c, _ := New(srv.URL+"/api/v2", WithAccessToken("secret"))
	_, err := c.Query(context.Background(), nil, QueryOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "bad predicate" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("access token leaked into error: %v", err)
	}
}

func TestFetchRejectsForeignURL(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c, _ := New(srv.URL + "/api/v2")
	var resp Response
	err := c.Fetch(context.Background(), "http://attacker.example/api/v2/documents/search", &resp)
	if !errors.Is(err, ErrForeignURL) {
		t.Fatalf("expected ErrForeignURL, got %v", err)
	}
}

func TestFetchFollowsNextPage(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %q, want 2", r.URL.Query().Get("page"))
		}
		fmt.Fprint(w, `{"page":2,"next_page":null,"results":[{"uid":"b"}]}`)
	})
	c, _ := New(srv.URL + "/api/v2")
	var resp Response
	if err := c.Fetch(context.Background(), srv.URL+"/api/v2/documents/search?ref=M1&page=2", &resp); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if resp.Page != 2 || len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOwnsAcceptsPreviewHost(t *testing.T) {
	c, _ := New("https://blog.cdn.prismic.io/api/v2")
	cases := map[string]bool{
		"https://blog.cdn.prismic.io/api/v2/documents/search": true,
		"https://blog.prismic.io/previews/abc":                true,
		"http://blog.cdn.prismic.io/api/v2":                   false,
		"https://other.cdn.prismic.io/api/v2":                 false,
		"/relative":                                           false,
	}
	for raw, want := range cases {
		if got := c.Owns(raw); got != want {
			t.Errorf("Owns(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestPredicates(t *testing.T) {
	if got := At("document.type", "post"); got != `[at(document.type, "post")]` {
		t.Errorf("At = %s", got)
	}
	if got := Any("document.tags", "a", "b"); got != `[any(document.tags, ["a", "b"])]` {
		t.Errorf("Any = %s", got)
	}
	if got := Ordering("document.first_publication_date", false); got != "[document.first_publication_date]" {
		t.Errorf("Ordering = %s", got)
	}
}
