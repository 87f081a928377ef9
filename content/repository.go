package content

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/spacetraveling/prismic"
)

// ErrNotFound is returned when a post does not exist in the requested ref.
var ErrNotFound = errors.New("content: post not found")

const publicationDate = "document.first_publication_date"

// Querier is the subset of the CMS client the repository needs.
type Querier interface {
	Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid, ref string) (*prismic.Document, error)
	GetByID(ctx context.Context, id, ref string) (*prismic.Document, error)
	Fetch(ctx context.Context, rawURL string, v any) error
	PreviewDocument(ctx context.Context, token string) (string, error)
}

// Repository reads posts from the CMS.
type Repository struct {
	q Querier
}

// NewRepository creates a Repository backed by q.
func NewRepository(q Querier) *Repository {
	return &Repository{q: q}
}

func isPost() []prismic.Predicate {
	return []prismic.Predicate{prismic.At("document.type", PostType)}
}

// ListPosts returns the first page of posts, newest first. An empty ref reads
// published content.
func (r *Repository) ListPosts(ctx context.Context, ref string, pageSize int) (PostPage, error) {
	resp, err := r.q.Query(ctx, isPost(), prismic.QueryOptions{
		Ref:       ref,
		PageSize:  pageSize,
		Orderings: prismic.Ordering(publicationDate, true),
		Fetch:     []string{PostType + ".title", PostType + ".subtitle", PostType + ".author"},
	})
	if err != nil {
		return PostPage{}, fmt.Errorf("content: list posts: %w", err)
	}
	return Page(resp)
}

// FetchPage follows an opaque next-page cursor.
func (r *Repository) FetchPage(ctx context.Context, cursor string) (PostPage, error) {
	var resp prismic.Response
	if err := r.q.Fetch(ctx, cursor, &resp); err != nil {
		return PostPage{}, fmt.Errorf("content: fetch page: %w", err)
	}
	return Page(&resp)
}

// KnownSlugs returns up to limit of the newest post slugs. These are the pages
// pre-rendered ahead of the first request.
func (r *Repository) KnownSlugs(ctx context.Context, limit int) ([]string, error) {
	resp, err := r.q.Query(ctx, isPost(), prismic.QueryOptions{
		PageSize:  limit,
		Orderings: prismic.Ordering(publicationDate, true),
		Fetch:     []string{PostType + ".title"},
	})
	if err != nil {
		return nil, fmt.Errorf("content: list slugs: %w", err)
	}
	slugs := make([]string, 0, len(resp.Results))
	for _, doc := range resp.Results {
		if doc.UID != "" {
			slugs = append(slugs, doc.UID)
		}
	}
	return slugs, nil
}

// GetPost returns the post with the given slug.
func (r *Repository) GetPost(ctx context.Context, slug, ref string) (PostDetail, error) {
	doc, err := r.q.GetByUID(ctx, PostType, slug, ref)
	if err != nil {
		if errors.Is(err, prismic.ErrNotFound) {
			return PostDetail{}, ErrNotFound
		}
		return PostDetail{}, fmt.Errorf("content: get post %q: %w", slug, err)
	}
	return Detail(*doc)
}

// Neighbors finds the nearest earlier and later posts by publication date.
func (r *Repository) Neighbors(ctx context.Context, post PostDetail, ref string) (Navigation, error) {
	var nav Navigation
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := r.neighbor(ctx, post.ID, ref, true)
		nav.Previous = s
		return err
	})
	g.Go(func() error {
		s, err := r.neighbor(ctx, post.ID, ref, false)
		nav.Next = s
		return err
	})
	if err := g.Wait(); err != nil {
		return Navigation{}, fmt.Errorf("content: neighbors of %q: %w", post.UID, err)
	}
	return nav, nil
}

// neighbor walks one step from id: descending order yields the previous post,
// ascending order the next one.
func (r *Repository) neighbor(ctx context.Context, id, ref string, earlier bool) (*PostStub, error) {
	resp, err := r.q.Query(ctx, isPost(), prismic.QueryOptions{
		Ref:       ref,
		PageSize:  1,
		After:     id,
		Orderings: prismic.Ordering(publicationDate, earlier),
		Fetch:     []string{PostType + ".title"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return stub(resp.Results[0])
}

// ResolvePreview returns the slug of the post a preview token was opened for.
// documentID may be empty, in which case it is read from the preview session.
func (r *Repository) ResolvePreview(ctx context.Context, token, documentID string) (string, error) {
	if documentID == "" {
		id, err := r.q.PreviewDocument(ctx, token)
		if err != nil {
			return "", fmt.Errorf("content: preview session: %w", err)
		}
		documentID = id
	}
	doc, err := r.q.GetByID(ctx, documentID, token)
	if err != nil {
		if errors.Is(err, prismic.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("content: preview document %q: %w", documentID, err)
	}
	if doc.Type != PostType || doc.UID == "" {
		return "", ErrNotFound
	}
	return doc.UID, nil
}
