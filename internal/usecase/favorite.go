package usecase

import (
	"bookfinder/internal/entity"
	"context"
)

// FavoriteRepository is the per-user favorites table keyed by
// (user id, book id). Insert must enforce the uniqueness constraint and
// report a conflict as ErrDuplicateFavorite so that racing duplicate adds
// degrade to the same recoverable error the pre-check reports.
type FavoriteRepository interface {
	Insert(ctx context.Context, fav *entity.Favorite) error
	Delete(ctx context.Context, userID, bookID string) error
	Exists(ctx context.Context, userID, bookID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Favorite, error)
}
