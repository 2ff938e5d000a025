package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"bookfinder/internal/entity"
	"bookfinder/internal/favorites"
	"bookfinder/internal/httpx"
	"bookfinder/internal/notify"
	"bookfinder/internal/usecase"
)

type FavoritesHandler struct {
	repo     usecase.FavoriteRepository
	notifier notify.Notifier
}

func NewFavoritesHandler(repo usecase.FavoriteRepository, notifier notify.Notifier) *FavoritesHandler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &FavoritesHandler{repo: repo, notifier: notifier}
}

// sync builds a request-scoped synchronizer: the user comes from the request
// context and the in-memory mirror lives only for this request.
func (h *FavoritesHandler) sync() *favorites.Synchronizer {
	return favorites.NewSynchronizer(h.repo, httpx.ContextUserSource{}, h.notifier)
}

// List serves GET /favorites.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.sync().FetchAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, books, map[string]int{"count": len(books)})
}

type addFavoriteRequest struct {
	Book entity.Book `json:"book"`
}

// Add serves POST /favorites with the book snapshot in the body.
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if input.Book.ID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input",
			[]httpx.ErrorDetail{{Field: "book.id", Message: "book.id is required"}})
		return
	}

	if err := h.sync().Add(r.Context(), input.Book); err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSONSuccessCreated(w, input.Book)
}

// Remove serves DELETE /favorites/{bookId}. Removing an id that is not a
// favorite succeeds with no content, matching the store's no-op contract.
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	const prefix = "/favorites/"
	bookID := strings.TrimPrefix(r.URL.Path, prefix)
	if bookID == "" || strings.Contains(bookID, "/") {
		http.NotFound(w, r)
		return
	}

	if err := h.sync().Remove(r.Context(), bookID); err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
