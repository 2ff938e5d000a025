package usecase

import "errors"

var (
	// ErrNotFound is returned when a requested record or volume does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCatalogUnavailable covers every failed call to an external catalog:
	// network failure or a non-success upstream status. Calls are never retried.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrAuthFailed is returned when the backend rejects credentials or a
	// session operation.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrAuthRequired is returned when a favorites operation is attempted
	// without an authenticated user.
	ErrAuthRequired = errors.New("authentication required")

	// ErrDuplicateFavorite is returned when adding a book that is already in
	// the user's favorites. It is recoverable: state is left unchanged.
	ErrDuplicateFavorite = errors.New("book is already a favorite")

	// ErrPersistenceUnavailable covers failed calls to the backing data tables.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
