package store

import (
	"context"
	"errors"
	"fmt"

	"bookfinder/internal/entity"
	"bookfinder/internal/usecase"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// FavoritePG persists one row per (user_id, book_id) with the denormalized
// book snapshot as JSONB. The table's unique constraint on (user_id, book_id)
// is the backstop for racing duplicate adds.
type FavoritePG struct {
	db *pgxpool.Pool
}

func NewFavoritePG(db *pgxpool.Pool) *FavoritePG {
	return &FavoritePG{db: db}
}

func (r *FavoritePG) Insert(ctx context.Context, fav *entity.Favorite) error {
	snapshot, err := jsonCodec.Marshal(fav.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal book snapshot: %w", err)
	}

	const query = `
	INSERT INTO favorites (id, user_id, book_id, book_data)
	VALUES (gen_random_uuid(), $1, $2, $3)
	RETURNING id, created_at
	`
	err = r.db.QueryRow(ctx, query, fav.UserID, fav.BookID, snapshot).
		Scan(&fav.ID, &fav.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return usecase.ErrDuplicateFavorite
		}
		return err
	}
	return nil
}

// Delete removes the (user, book) relationship. Deleting a book that is not
// present is not an error.
func (r *FavoritePG) Delete(ctx context.Context, userID, bookID string) error {
	const query = `DELETE FROM favorites WHERE user_id = $1 AND book_id = $2`
	_, err := r.db.Exec(ctx, query, userID, bookID)
	return err
}

func (r *FavoritePG) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND book_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, bookID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *FavoritePG) ListByUser(ctx context.Context, userID string) ([]entity.Favorite, error) {
	const query = `
	SELECT id, user_id, book_id, book_data, created_at
	FROM favorites
	WHERE user_id = $1
	ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []entity.Favorite
	for rows.Next() {
		var fav entity.Favorite
		var snapshot []byte
		if err := rows.Scan(&fav.ID, &fav.UserID, &fav.BookID, &snapshot, &fav.CreatedAt); err != nil {
			return nil, err
		}
		if err := jsonCodec.Unmarshal(snapshot, &fav.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal book snapshot for %s: %w", fav.BookID, err)
		}
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}
