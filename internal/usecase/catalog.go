package usecase

import (
	"bookfinder/internal/entity"
	"context"
)

// DefaultPageSize is the page size used when a caller does not ask for one.
const DefaultPageSize = 20

// Page is a zero-based pagination window into a catalog result set.
type Page struct {
	StartIndex int
	MaxResults int
}

// SearchResult holds the locally materialized prefix of a catalog result set.
// TotalItems is the catalog's declared total match count and may exceed
// len(Books); after a successful fetch TotalItems >= len(Books) always holds.
type SearchResult struct {
	Query      string
	TotalItems int
	Books      []entity.Book
}

// Catalog is the read-only contract against the external book catalog.
// Every call is a live upstream request: stateless, idempotent, uncached,
// and never retried.
type Catalog interface {
	SearchByKeyword(ctx context.Context, query string, page Page) (SearchResult, error)
	SearchByCategory(ctx context.Context, category string, page Page) (SearchResult, error)
	Newest(ctx context.Context, maxResults int) (SearchResult, error)
	FetchByID(ctx context.Context, id string) (entity.Book, error)
}
