// Package search holds the browse/search state container: the current query,
// the locally held prefix of the catalog's result set, and the detail-view
// book, together with the transition methods that keep them consistent.
package search

import (
	"context"
	"sync"

	"bookfinder/internal/entity"
	"bookfinder/internal/notify"
	"bookfinder/internal/usecase"
)

// Snapshot is a point-in-time copy of the store's list state.
type Snapshot struct {
	Query      string
	Books      []entity.Book
	TotalItems int
	Loading    bool
	Err        error
	HasMore    bool
}

// Store orchestrates catalog calls and owns the result-list and current-book
// state. All mutation goes through its methods.
//
// Concurrent invocations are allowed: an in-flight request is never
// cancelled when superseded, so each slot tags requests with a monotonic
// sequence number and a resolution that is no longer the latest mutates
// nothing. The list slot (Search/ByCategory/Newest/LoadMore) and the
// current-book slot (FetchByID) are sequenced independently.
type Store struct {
	catalog  usecase.Catalog
	notifier notify.Notifier
	pageSize int

	mu         sync.Mutex
	query      string
	books      []entity.Book
	totalItems int
	loading    bool
	lastErr    error
	listSeq    uint64

	current        *entity.Book
	currentLoading bool
	currentErr     error
	currentSeq     uint64
}

func NewStore(catalog usecase.Catalog, notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Store{
		catalog:  catalog,
		notifier: notifier,
		pageSize: usecase.DefaultPageSize,
	}
}

// Search replaces the held result set with the first page for query.
// On failure the held sequence is emptied: stale partial results are never
// kept beside an error.
func (s *Store) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.query = query
	s.books = nil
	s.totalItems = 0
	s.loading = true
	s.lastErr = nil
	pageSize := s.pageSize
	s.mu.Unlock()

	res, err := s.catalog.SearchByKeyword(ctx, query, usecase.Page{MaxResults: pageSize})
	return s.resolveReplace(ctx, seq, res, err, "Failed to search books")
}

// LoadMore appends the page at startIndex for the current query to the held
// sequence. It never reorders or truncates what is already held.
func (s *Store) LoadMore(ctx context.Context, startIndex int) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	query := s.query
	s.loading = true
	pageSize := s.pageSize
	s.mu.Unlock()

	res, err := s.catalog.SearchByKeyword(ctx, query, usecase.Page{StartIndex: startIndex, MaxResults: pageSize})

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		return nil // superseded; discard
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.publishError(ctx, "Failed to load more books")
		return err
	}
	s.books = append(s.books, res.Books...)
	s.totalItems = res.TotalItems
	if s.totalItems < len(s.books) {
		s.totalItems = len(s.books)
	}
	return nil
}

// ByCategory replaces the held sequence with books whose subject matches
// category. The current query is deliberately left alone: LoadMore keeps
// paging the last keyword search.
func (s *Store) ByCategory(ctx context.Context, category string) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.books = nil
	s.totalItems = 0
	s.loading = true
	s.lastErr = nil
	pageSize := s.pageSize
	s.mu.Unlock()

	res, err := s.catalog.SearchByCategory(ctx, category, usecase.Page{MaxResults: pageSize})
	return s.resolveReplace(ctx, seq, res, err, "Failed to fetch books by category")
}

// Newest replaces the held sequence with the newest volumes of the default
// subject. Like ByCategory it does not touch the current query.
func (s *Store) Newest(ctx context.Context) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.books = nil
	s.totalItems = 0
	s.loading = true
	s.lastErr = nil
	pageSize := s.pageSize
	s.mu.Unlock()

	res, err := s.catalog.Newest(ctx, pageSize)
	return s.resolveReplace(ctx, seq, res, err, "Failed to fetch newest books")
}

func (s *Store) resolveReplace(ctx context.Context, seq uint64, res usecase.SearchResult, err error, failureMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		return nil // superseded; discard
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.books = nil
		s.totalItems = 0
		s.publishError(ctx, failureMsg)
		return err
	}
	s.books = res.Books
	s.totalItems = res.TotalItems
	return nil
}

// FetchByID loads the detail-view book into its own slot with its own
// loading flag; failure leaves the slot empty.
func (s *Store) FetchByID(ctx context.Context, id string) (entity.Book, error) {
	s.mu.Lock()
	s.currentSeq++
	seq := s.currentSeq
	s.current = nil
	s.currentLoading = true
	s.currentErr = nil
	s.mu.Unlock()

	book, err := s.catalog.FetchByID(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.currentSeq {
		return book, err // stale: report to this caller, mutate nothing
	}
	s.currentLoading = false
	if err != nil {
		s.currentErr = err
		s.publishError(ctx, "Failed to fetch book details")
		return entity.Book{}, err
	}
	s.current = &book
	return book, nil
}

// Snapshot returns a copy of the list state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	books := make([]entity.Book, len(s.books))
	copy(books, s.books)
	return Snapshot{
		Query:      s.query,
		Books:      books,
		TotalItems: s.totalItems,
		Loading:    s.loading,
		Err:        s.lastErr,
		HasMore:    len(s.books) < s.totalItems,
	}
}

// CurrentBook returns a copy of the detail-view slot.
func (s *Store) CurrentBook() (entity.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return entity.Book{}, false
	}
	return *s.current, true
}

// HasMore reports whether the catalog declared more matches than are held.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books) < s.totalItems
}

// SetQuery records the query without issuing a search.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
}

// Clear empties the list slot and invalidates in-flight list requests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	s.query = ""
	s.books = nil
	s.totalItems = 0
	s.loading = false
	s.lastErr = nil
}

func (s *Store) publishError(ctx context.Context, msg string) {
	s.notifier.Publish(ctx, notify.Event{Level: notify.LevelError, Message: msg})
}
