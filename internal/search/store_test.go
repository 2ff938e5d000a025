package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookfinder/internal/entity"
	"bookfinder/internal/notify"
	"bookfinder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves canned pages and can hold a call open until released,
// which is how the stale-resolution tests stage overlapping requests.
type fakeCatalog struct {
	mu      sync.Mutex
	pages   map[string]usecase.SearchResult
	byID    map[string]entity.Book
	err     error
	holds   map[string]chan struct{}
	touched []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		pages: make(map[string]usecase.SearchResult),
		byID:  make(map[string]entity.Book),
		holds: make(map[string]chan struct{}),
	}
}

func pageKey(query string, start int) string { return fmt.Sprintf("%s@%d", query, start) }

func (f *fakeCatalog) setPage(query string, start int, total int, books ...entity.Book) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageKey(query, start)] = usecase.SearchResult{Query: query, TotalItems: total, Books: books}
}

func (f *fakeCatalog) hold(query string, start int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.holds[pageKey(query, start)] = ch
	return ch
}

func (f *fakeCatalog) lookup(key string) (usecase.SearchResult, error) {
	f.mu.Lock()
	holdCh := f.holds[key]
	f.touched = append(f.touched, key)
	err := f.err
	res, ok := f.pages[key]
	f.mu.Unlock()

	if holdCh != nil {
		<-holdCh
	}
	if err != nil {
		return usecase.SearchResult{}, err
	}
	if !ok {
		return usecase.SearchResult{}, fmt.Errorf("%w: no page staged for %s", usecase.ErrCatalogUnavailable, key)
	}
	return res, nil
}

func (f *fakeCatalog) SearchByKeyword(_ context.Context, query string, page usecase.Page) (usecase.SearchResult, error) {
	return f.lookup(pageKey(query, page.StartIndex))
}

func (f *fakeCatalog) SearchByCategory(_ context.Context, category string, page usecase.Page) (usecase.SearchResult, error) {
	return f.lookup(pageKey("subject:"+category, page.StartIndex))
}

func (f *fakeCatalog) Newest(_ context.Context, _ int) (usecase.SearchResult, error) {
	return f.lookup(pageKey("newest", 0))
}

func (f *fakeCatalog) FetchByID(_ context.Context, id string) (entity.Book, error) {
	f.mu.Lock()
	holdCh := f.holds[id]
	book, ok := f.byID[id]
	f.mu.Unlock()
	if holdCh != nil {
		<-holdCh
	}
	if !ok {
		return entity.Book{}, fmt.Errorf("%w: %w", usecase.ErrCatalogUnavailable, usecase.ErrNotFound)
	}
	return book, nil
}

func books(prefix string, n int) []entity.Book {
	out := make([]entity.Book, n)
	for i := range out {
		out[i] = entity.Book{ID: fmt.Sprintf("%s-%d", prefix, i), Title: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

func TestStore_SearchSetsQueryAndPage(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 47, books("a", 20)...)
	store := NewStore(catalog, nil)

	require.NoError(t, store.Search(context.Background(), "dune"))

	snap := store.Snapshot()
	assert.Equal(t, "dune", snap.Query)
	assert.LessOrEqual(t, len(snap.Books), usecase.DefaultPageSize)
	assert.Equal(t, 47, snap.TotalItems)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

// The walkthrough from the reference behavior: 47 total matches fetched in
// pages of 20, 20 and 7.
func TestStore_LoadMoreWalkthrough(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 47, books("p0", 20)...)
	catalog.setPage("dune", 20, 47, books("p1", 20)...)
	catalog.setPage("dune", 40, 47, books("p2", 7)...)
	store := NewStore(catalog, nil)
	ctx := context.Background()

	require.NoError(t, store.Search(ctx, "dune"))
	snap := store.Snapshot()
	assert.Equal(t, 20, len(snap.Books))
	assert.Equal(t, 47, snap.TotalItems)
	assert.True(t, snap.HasMore)

	require.NoError(t, store.LoadMore(ctx, 20))
	snap = store.Snapshot()
	assert.Equal(t, 40, len(snap.Books))
	assert.True(t, snap.HasMore)

	require.NoError(t, store.LoadMore(ctx, 40))
	snap = store.Snapshot()
	assert.Equal(t, 47, len(snap.Books))
	assert.False(t, snap.HasMore)
}

func TestStore_LoadMoreIsAppendOnly(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 40, books("p0", 20)...)
	catalog.setPage("dune", 20, 40, books("p1", 20)...)
	store := NewStore(catalog, nil)
	ctx := context.Background()

	require.NoError(t, store.Search(ctx, "dune"))
	before := store.Snapshot().Books

	require.NoError(t, store.LoadMore(ctx, 20))
	after := store.Snapshot().Books

	require.Greater(t, len(after), len(before))
	assert.Equal(t, before, after[:len(before)], "held sequence must be a prefix of its extension")
}

func TestStore_SearchFailureEmptiesResults(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 47, books("p0", 20)...)
	recorder := &notify.Recorder{}
	store := NewStore(catalog, recorder)
	ctx := context.Background()

	require.NoError(t, store.Search(ctx, "dune"))
	require.Len(t, store.Snapshot().Books, 20)

	err := store.Search(ctx, "unstaged query")
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrCatalogUnavailable)

	snap := store.Snapshot()
	assert.Empty(t, snap.Books, "no stale partial results beside an error")
	assert.Error(t, snap.Err)
	assert.False(t, snap.Loading)

	event, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, event.Level)
}

// A search superseded by a newer one must not overwrite the newer state,
// even when the older call resolves last.
func TestStore_StaleSearchResultDiscarded(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("slow", 0, 5, books("slow", 5)...)
	catalog.setPage("fast", 0, 3, books("fast", 3)...)
	release := catalog.hold("slow", 0)
	store := NewStore(catalog, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- store.Search(ctx, "slow") }()

	// Wait for the slow search to be in flight before superseding it.
	for {
		if snap := store.Snapshot(); snap.Query == "slow" && snap.Loading {
			break
		}
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, store.Search(ctx, "fast"))
	close(release)
	require.NoError(t, <-done)

	snap := store.Snapshot()
	assert.Equal(t, "fast", snap.Query)
	require.Len(t, snap.Books, 3)
	assert.Equal(t, "fast-0", snap.Books[0].ID)
	assert.Equal(t, 3, snap.TotalItems)
}

func TestStore_StaleLoadMoreDiscarded(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 40, books("p0", 20)...)
	catalog.setPage("dune", 20, 40, books("p1", 20)...)
	catalog.setPage("other", 0, 2, books("o", 2)...)
	release := catalog.hold("dune", 20)
	store := NewStore(catalog, nil)
	ctx := context.Background()

	require.NoError(t, store.Search(ctx, "dune"))

	done := make(chan error, 1)
	go func() { done <- store.LoadMore(ctx, 20) }()
	for {
		if store.Snapshot().Loading {
			break
		}
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, store.Search(ctx, "other"))
	close(release)
	require.NoError(t, <-done)

	snap := store.Snapshot()
	assert.Equal(t, "other", snap.Query)
	assert.Len(t, snap.Books, 2, "stale load-more page must not be appended")
}

func TestStore_ByCategoryKeepsQuery(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 20, books("p0", 20)...)
	catalog.setPage("subject:history", 0, 9, books("h", 9)...)
	store := NewStore(catalog, nil)
	ctx := context.Background()

	require.NoError(t, store.Search(ctx, "dune"))
	require.NoError(t, store.ByCategory(ctx, "history"))

	snap := store.Snapshot()
	assert.Equal(t, "dune", snap.Query, "category browsing must not rewrite the keyword query")
	assert.Len(t, snap.Books, 9)
}

func TestStore_Newest(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("newest", 0, 12, books("n", 12)...)
	store := NewStore(catalog, nil)

	require.NoError(t, store.Newest(context.Background()))
	assert.Len(t, store.Snapshot().Books, 12)
}

func TestStore_FetchByID(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.byID["vol-1"] = entity.Book{ID: "vol-1", Title: "Dune"}
	store := NewStore(catalog, nil)
	ctx := context.Background()

	book, err := store.FetchByID(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)

	current, ok := store.CurrentBook()
	require.True(t, ok)
	assert.Equal(t, "vol-1", current.ID)

	_, err = store.FetchByID(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
	_, ok = store.CurrentBook()
	assert.False(t, ok, "failure leaves the current-book slot absent")
}

func TestStore_HasMoreDerivation(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("short", 0, 3, books("s", 3)...)
	store := NewStore(catalog, nil)

	require.NoError(t, store.Search(context.Background(), "short"))
	snap := store.Snapshot()
	assert.Equal(t, snap.HasMore, len(snap.Books) < snap.TotalItems)
	assert.False(t, snap.HasMore)
}

func TestStore_Clear(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.setPage("dune", 0, 47, books("p0", 20)...)
	store := NewStore(catalog, nil)

	require.NoError(t, store.Search(context.Background(), "dune"))
	store.Clear()

	snap := store.Snapshot()
	assert.Empty(t, snap.Query)
	assert.Empty(t, snap.Books)
	assert.Equal(t, 0, snap.TotalItems)
}

func TestStore_ErrorsAreCatalogFlavored(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.err = fmt.Errorf("%w: boom", usecase.ErrCatalogUnavailable)
	store := NewStore(catalog, nil)

	err := store.Search(context.Background(), "dune")
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrCatalogUnavailable))
}
