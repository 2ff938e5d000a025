package http

import (
	"errors"
	"net/http"

	"bookfinder/internal/httpx"
	"bookfinder/internal/usecase"
)

// writeDomainError maps the error taxonomy onto HTTP statuses. Order
// matters: a missing volume is both NotFound and CatalogUnavailable, and
// the more specific status wins.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, usecase.ErrDuplicateFavorite):
		httpx.JSONError(w, http.StatusConflict, "DUPLICATE_FAVORITE", "Book is already in your favorites", nil)
	case errors.Is(err, usecase.ErrAuthRequired):
		httpx.JSONError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "You must be logged in", nil)
	case errors.Is(err, usecase.ErrAuthFailed):
		httpx.JSONError(w, http.StatusUnauthorized, "AUTH_FAILED", err.Error(), nil)
	case errors.Is(err, usecase.ErrCatalogUnavailable):
		httpx.JSONError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "Book catalog is unavailable", nil)
	case errors.Is(err, usecase.ErrPersistenceUnavailable):
		httpx.JSONError(w, http.StatusServiceUnavailable, "PERSISTENCE_UNAVAILABLE", "Favorites backend is unavailable", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
