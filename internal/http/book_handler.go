package http

import (
	"net/http"
	"strconv"
	"strings"

	"bookfinder/internal/httpx"
	"bookfinder/internal/usecase"
)

type BookHandler struct {
	catalog usecase.Catalog
}

func NewBookHandler(catalog usecase.Catalog) *BookHandler {
	return &BookHandler{catalog: catalog}
}

// List serves GET /books. Exactly one of q, category or newest=true selects
// the catalog operation; startIndex and maxResults page through the result.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	page := usecase.Page{}
	page.StartIndex, _ = strconv.Atoi(params.Get("startIndex"))
	page.MaxResults, _ = strconv.Atoi(params.Get("maxResults"))
	if page.MaxResults > 40 {
		page.MaxResults = 40 // upstream cap
	}

	var (
		res usecase.SearchResult
		err error
	)
	switch {
	case params.Get("q") != "":
		res, err = h.catalog.SearchByKeyword(ctx, params.Get("q"), page)
	case params.Get("category") != "":
		res, err = h.catalog.SearchByCategory(ctx, params.Get("category"), page)
	case params.Get("newest") == "true":
		res, err = h.catalog.Newest(ctx, page.MaxResults)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "One of q, category or newest=true is required", nil)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	httpx.JSONSuccess(w, res.Books, map[string]interface{}{
		"query":       res.Query,
		"total_items": res.TotalItems,
		"start_index": page.StartIndex,
		"count":       len(res.Books),
	})
}

// GetByID serves GET /books/{id}.
func (h *BookHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/books/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	book, err := h.catalog.FetchByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, book, nil)
}
