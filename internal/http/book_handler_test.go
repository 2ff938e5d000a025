package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"bookfinder/internal/entity"
	"bookfinder/internal/testutil"
	"bookfinder/internal/usecase"
)

type fakeCatalog struct {
	result usecase.SearchResult
	book   entity.Book
	err    error

	lastQuery    string
	lastCategory string
	lastPage     usecase.Page
	lastNewestN  int
	lastID       string
}

func (f *fakeCatalog) SearchByKeyword(_ context.Context, query string, page usecase.Page) (usecase.SearchResult, error) {
	f.lastQuery = query
	f.lastPage = page
	return f.result, f.err
}

func (f *fakeCatalog) SearchByCategory(_ context.Context, category string, page usecase.Page) (usecase.SearchResult, error) {
	f.lastCategory = category
	f.lastPage = page
	return f.result, f.err
}

func (f *fakeCatalog) Newest(_ context.Context, maxResults int) (usecase.SearchResult, error) {
	f.lastNewestN = maxResults
	return f.result, f.err
}

func (f *fakeCatalog) FetchByID(_ context.Context, id string) (entity.Book, error) {
	f.lastID = id
	return f.book, f.err
}

func TestBookHandlerList(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		catalog      *fakeCatalog
		wantStatus   int
		wantQuery    string
		wantCategory string
		wantPage     usecase.Page
	}{
		{
			name: "keyword search",
			path: "/books?q=dune&startIndex=20&maxResults=20",
			catalog: &fakeCatalog{result: usecase.SearchResult{
				Query:      "dune",
				TotalItems: 47,
				Books:      []entity.Book{testutil.TestBook},
			}},
			wantStatus: http.StatusOK,
			wantQuery:  "dune",
			wantPage:   usecase.Page{StartIndex: 20, MaxResults: 20},
		},
		{
			name: "category search",
			path: "/books?category=history",
			catalog: &fakeCatalog{result: usecase.SearchResult{
				Query: "subject:history",
				Books: []entity.Book{testutil.TestBook},
			}},
			wantStatus:   http.StatusOK,
			wantCategory: "history",
		},
		{
			name:       "maxResults capped at upstream limit",
			path:       "/books?q=dune&maxResults=100",
			catalog:    &fakeCatalog{},
			wantStatus: http.StatusOK,
			wantQuery:  "dune",
			wantPage:   usecase.Page{MaxResults: 40},
		},
		{
			name:       "missing selector",
			path:       "/books",
			catalog:    &fakeCatalog{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "catalog unavailable",
			path:       "/books?q=dune",
			catalog:    &fakeCatalog{err: usecase.ErrCatalogUnavailable},
			wantStatus: http.StatusBadGateway,
			wantQuery:  "dune",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookHandler(tt.catalog)
			w := httptest.NewRecorder()
			handler.List(w, testutil.NewRequest(http.MethodGet, tt.path, nil))

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantQuery != "" {
				assert.Equal(t, tt.wantQuery, tt.catalog.lastQuery)
			}
			if tt.wantCategory != "" {
				assert.Equal(t, tt.wantCategory, tt.catalog.lastCategory)
			}
			if tt.wantPage != (usecase.Page{}) {
				assert.Equal(t, tt.wantPage, tt.catalog.lastPage)
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, resp.Body["success"])
				assert.NotNil(t, resp.Body["meta"])
			} else {
				assert.Equal(t, false, resp.Body["success"])
			}
		})
	}
}

func TestBookHandlerListNewest(t *testing.T) {
	catalog := &fakeCatalog{result: usecase.SearchResult{Books: []entity.Book{testutil.TestBook}}}
	handler := NewBookHandler(catalog)

	w := httptest.NewRecorder()
	handler.List(w, testutil.NewRequest(http.MethodGet, "/books?newest=true&maxResults=10", nil))

	resp := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 10, catalog.lastNewestN)
}

func TestBookHandlerGetByID(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		catalog    *fakeCatalog
		wantStatus int
		wantID     string
	}{
		{
			name:       "found",
			path:       "/books/test-vol-789",
			catalog:    &fakeCatalog{book: testutil.TestBook},
			wantStatus: http.StatusOK,
			wantID:     "test-vol-789",
		},
		{
			name:       "unknown volume",
			path:       "/books/nope",
			catalog:    &fakeCatalog{err: usecase.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantID:     "nope",
		},
		{
			name:       "empty id",
			path:       "/books/",
			catalog:    &fakeCatalog{},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookHandler(tt.catalog)
			w := httptest.NewRecorder()
			handler.GetByID(w, testutil.NewRequest(http.MethodGet, tt.path, nil))

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantID, tt.catalog.lastID)
			if tt.wantStatus == http.StatusOK {
				data, ok := resp.Body["data"].(map[string]interface{})
				assert.True(t, ok)
				assert.Equal(t, testutil.TestBook.Title, data["title"])
			}
		})
	}
}
