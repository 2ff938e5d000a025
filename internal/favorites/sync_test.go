package favorites

import (
	"context"
	"errors"
	"testing"

	"bookfinder/internal/entity"
	"bookfinder/internal/notify"
	"bookfinder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFavoriteRepo struct {
	rows           map[string]entity.Favorite // key userID + "/" + bookID
	order          []string
	failAll        bool
	hideFromExists bool // simulate a row landing after the pre-check
}

func newMemFavoriteRepo() *memFavoriteRepo {
	return &memFavoriteRepo{rows: make(map[string]entity.Favorite)}
}

func key(userID, bookID string) string { return userID + "/" + bookID }

func (r *memFavoriteRepo) Insert(_ context.Context, fav *entity.Favorite) error {
	if r.failAll {
		return errors.New("backend down")
	}
	k := key(fav.UserID, fav.BookID)
	if _, ok := r.rows[k]; ok {
		return usecase.ErrDuplicateFavorite
	}
	fav.ID = "fav-" + k
	r.rows[k] = *fav
	r.order = append(r.order, k)
	return nil
}

func (r *memFavoriteRepo) Delete(_ context.Context, userID, bookID string) error {
	if r.failAll {
		return errors.New("backend down")
	}
	delete(r.rows, key(userID, bookID))
	return nil
}

func (r *memFavoriteRepo) Exists(_ context.Context, userID, bookID string) (bool, error) {
	if r.failAll {
		return false, errors.New("backend down")
	}
	if r.hideFromExists {
		return false, nil
	}
	_, ok := r.rows[key(userID, bookID)]
	return ok, nil
}

func (r *memFavoriteRepo) ListByUser(_ context.Context, userID string) ([]entity.Favorite, error) {
	if r.failAll {
		return nil, errors.New("backend down")
	}
	var out []entity.Favorite
	for _, k := range r.order {
		if fav, ok := r.rows[k]; ok && fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}

type fixedUser struct {
	user entity.User
	ok   bool
}

func (f fixedUser) CurrentUser(context.Context) (entity.User, bool) { return f.user, f.ok }

var reader = entity.User{ID: "user-1", Email: "reader@example.com"}

func newTestSync(t *testing.T) (*Synchronizer, *memFavoriteRepo, *notify.Recorder) {
	t.Helper()
	repo := newMemFavoriteRepo()
	recorder := &notify.Recorder{}
	return NewSynchronizer(repo, fixedUser{user: reader, ok: true}, recorder), repo, recorder
}

func TestSynchronizer_AddAndDuplicate(t *testing.T) {
	sync, repo, recorder := newTestSync(t)
	ctx := context.Background()
	book := entity.Book{ID: "B1", Title: "Dune"}

	require.NoError(t, sync.Add(ctx, book))
	assert.Len(t, sync.Books(), 1)
	assert.Len(t, repo.rows, 1)

	// Second add of the same book: exactly one favorite remains and the
	// call reports the duplicate as a recoverable error.
	err := sync.Add(ctx, book)
	require.ErrorIs(t, err, usecase.ErrDuplicateFavorite)
	assert.Len(t, sync.Books(), 1)
	assert.Len(t, repo.rows, 1)

	event, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, event.Level)
}

func TestSynchronizer_AddWhileAnonymous(t *testing.T) {
	repo := newMemFavoriteRepo()
	recorder := &notify.Recorder{}
	sync := NewSynchronizer(repo, fixedUser{ok: false}, recorder)

	err := sync.Add(context.Background(), entity.Book{ID: "B1"})
	require.ErrorIs(t, err, usecase.ErrAuthRequired)
	assert.Empty(t, sync.Books())
	assert.Empty(t, repo.rows)
}

func TestSynchronizer_AddRaceBackstop(t *testing.T) {
	sync, repo, _ := newTestSync(t)
	ctx := context.Background()

	// Simulate a concurrent insert landing between the pre-check and our
	// insert: Exists reports absent while the row is already there, so the
	// insert hits the unique constraint. That conflict must read as a
	// duplicate, not a crash.
	book := entity.Book{ID: "B1", Title: "Dune"}
	repo.rows[key(reader.ID, book.ID)] = entity.Favorite{UserID: reader.ID, BookID: book.ID}
	repo.hideFromExists = true

	err := sync.Add(ctx, book)
	require.ErrorIs(t, err, usecase.ErrDuplicateFavorite)
	assert.Len(t, repo.rows, 1)
}

func TestSynchronizer_RemoveIsIdempotent(t *testing.T) {
	sync, _, _ := newTestSync(t)
	ctx := context.Background()

	require.NoError(t, sync.Add(ctx, entity.Book{ID: "B1"}))
	require.NoError(t, sync.Add(ctx, entity.Book{ID: "B2"}))

	require.NoError(t, sync.Remove(ctx, "B1"))
	assert.Len(t, sync.Books(), 1)

	// Removing an id that is not present is a no-op, not an error.
	require.NoError(t, sync.Remove(ctx, "B1"))
	require.NoError(t, sync.Remove(ctx, "never-added"))
	assert.Len(t, sync.Books(), 1)
}

func TestSynchronizer_FetchAllReplaces(t *testing.T) {
	sync, repo, _ := newTestSync(t)
	ctx := context.Background()

	require.NoError(t, sync.Add(ctx, entity.Book{ID: "B1", Title: "Dune"}))
	require.NoError(t, sync.Add(ctx, entity.Book{ID: "B2", Title: "Hyperion"}))

	// A stale local entry the backend no longer has must not survive.
	require.NoError(t, repo.Delete(ctx, reader.ID, "B2"))

	books, err := sync.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, books, sync.Books())

	// Idempotent: a second fetch with no intervening writes yields the
	// identical set.
	again, err := sync.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, books, again)
}

func TestSynchronizer_FetchAllAnonymous(t *testing.T) {
	sync := NewSynchronizer(newMemFavoriteRepo(), fixedUser{ok: false}, nil)
	_, err := sync.FetchAll(context.Background())
	require.ErrorIs(t, err, usecase.ErrAuthRequired)
}

func TestSynchronizer_PersistenceFailures(t *testing.T) {
	sync, repo, _ := newTestSync(t)
	ctx := context.Background()
	repo.failAll = true

	err := sync.Add(ctx, entity.Book{ID: "B1"})
	require.ErrorIs(t, err, usecase.ErrPersistenceUnavailable)

	err = sync.Remove(ctx, "B1")
	require.ErrorIs(t, err, usecase.ErrPersistenceUnavailable)

	_, err = sync.FetchAll(ctx)
	require.ErrorIs(t, err, usecase.ErrPersistenceUnavailable)
}

func TestSynchronizer_SnapshotIsDenormalized(t *testing.T) {
	sync, repo, _ := newTestSync(t)
	ctx := context.Background()

	book := entity.Book{ID: "B1", Title: "Dune", Authors: []string{"Frank Herbert"}, Thumbnail: "http://img/1"}
	require.NoError(t, sync.Add(ctx, book))

	stored := repo.rows[key(reader.ID, "B1")]
	assert.Equal(t, book, stored.Snapshot)

	// The snapshot is a copy at add time; catalog-side changes never touch it.
	books, err := sync.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dune", books[0].Title)
}
