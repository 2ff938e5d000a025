package entity

import "time"

// Favorite binds one user to one book. Snapshot is a denormalized copy of the
// book's display attributes captured when the favorite was added; it is a
// stale-tolerant cache, not a foreign key, and later catalog edits never
// update it. At most one Favorite exists per (UserID, BookID).
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Snapshot  Book      `json:"book_data"`
	CreatedAt time.Time `json:"created_at"`
}
