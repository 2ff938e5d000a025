// Package favorites mirrors the authenticated user's saved-book set between
// in-memory state and the per-user favorites table.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookfinder/internal/entity"
	"bookfinder/internal/notify"
	"bookfinder/internal/usecase"
)

// UserSource yields the user an operation acts for. The embedded session
// manager implements it from its own state; the HTTP layer implements it
// from the request context.
type UserSource interface {
	CurrentUser(ctx context.Context) (entity.User, bool)
}

// Synchronizer owns the in-memory favorite set and keeps it consistent with
// the backend. Every operation requires an authenticated user; while
// anonymous each is a no-op reporting ErrAuthRequired.
type Synchronizer struct {
	repo     usecase.FavoriteRepository
	session  UserSource
	notifier notify.Notifier

	mu    sync.Mutex
	books []entity.Book
}

func NewSynchronizer(repo usecase.FavoriteRepository, session UserSource, notifier notify.Notifier) *Synchronizer {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Synchronizer{repo: repo, session: session, notifier: notifier}
}

// Add persists book as a favorite with a snapshot of its display attributes.
// The duplicate check runs against the backend's current state, never the
// local cache; the table's uniqueness constraint backstops the check, so a
// racing concurrent add degrades to the same ErrDuplicateFavorite.
func (s *Synchronizer) Add(ctx context.Context, book entity.Book) error {
	user, ok := s.session.CurrentUser(ctx)
	if !ok {
		s.publish(ctx, notify.LevelError, "You must be logged in to save favorites", "")
		return usecase.ErrAuthRequired
	}

	exists, err := s.repo.Exists(ctx, user.ID, book.ID)
	if err != nil {
		s.publish(ctx, notify.LevelError, "Failed to add to favorites", user.ID)
		return fmt.Errorf("%w: %w", usecase.ErrPersistenceUnavailable, err)
	}
	if exists {
		s.publish(ctx, notify.LevelError, "Book is already in your favorites", user.ID)
		return usecase.ErrDuplicateFavorite
	}

	fav := &entity.Favorite{
		UserID:   user.ID,
		BookID:   book.ID,
		Snapshot: book,
	}
	if err := s.repo.Insert(ctx, fav); err != nil {
		if errors.Is(err, usecase.ErrDuplicateFavorite) {
			s.publish(ctx, notify.LevelError, "Book is already in your favorites", user.ID)
			return usecase.ErrDuplicateFavorite
		}
		s.publish(ctx, notify.LevelError, "Failed to add to favorites", user.ID)
		return fmt.Errorf("%w: %w", usecase.ErrPersistenceUnavailable, err)
	}

	s.mu.Lock()
	s.books = append(s.books, book)
	s.mu.Unlock()

	s.publish(ctx, notify.LevelSuccess, "Book added to favorites", user.ID)
	return nil
}

// Remove deletes the (user, bookID) relationship. Removing a book that is
// not a favorite is a no-op, not an error.
func (s *Synchronizer) Remove(ctx context.Context, bookID string) error {
	user, ok := s.session.CurrentUser(ctx)
	if !ok {
		s.publish(ctx, notify.LevelError, "You must be logged in to manage favorites", "")
		return usecase.ErrAuthRequired
	}

	if err := s.repo.Delete(ctx, user.ID, bookID); err != nil {
		s.publish(ctx, notify.LevelError, "Failed to remove from favorites", user.ID)
		return fmt.Errorf("%w: %w", usecase.ErrPersistenceUnavailable, err)
	}

	s.mu.Lock()
	kept := s.books[:0]
	for _, b := range s.books {
		if b.ID != bookID {
			kept = append(kept, b)
		}
	}
	s.books = kept
	s.mu.Unlock()

	s.publish(ctx, notify.LevelSuccess, "Book removed from favorites", user.ID)
	return nil
}

// FetchAll replaces the in-memory set with the backend's current records,
// reconstructing each book from its stored snapshot. It overwrites; it
// never merges.
func (s *Synchronizer) FetchAll(ctx context.Context) ([]entity.Book, error) {
	user, ok := s.session.CurrentUser(ctx)
	if !ok {
		return nil, usecase.ErrAuthRequired
	}

	records, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		s.publish(ctx, notify.LevelError, "Failed to fetch favorites", user.ID)
		return nil, fmt.Errorf("%w: %w", usecase.ErrPersistenceUnavailable, err)
	}

	books := make([]entity.Book, 0, len(records))
	for _, record := range records {
		books = append(books, record.Snapshot)
	}

	s.mu.Lock()
	s.books = books
	s.mu.Unlock()

	out := make([]entity.Book, len(books))
	copy(out, books)
	return out, nil
}

// Books returns a copy of the in-memory favorite set.
func (s *Synchronizer) Books() []entity.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Book, len(s.books))
	copy(out, s.books)
	return out
}

func (s *Synchronizer) publish(ctx context.Context, level notify.Level, msg, userID string) {
	s.notifier.Publish(ctx, notify.Event{Level: level, Message: msg, UserID: userID})
}
