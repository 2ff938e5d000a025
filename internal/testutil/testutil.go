// Package testutil holds request helpers, canned fixtures and in-memory
// repository fakes shared by handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"bookfinder/internal/entity"
	"bookfinder/internal/platform/crypto"
	"bookfinder/internal/usecase"
)

// TestUser is a canned user for handler tests.
var TestUser = entity.User{
	ID:        "test-user-id-123",
	Email:     "test@example.com",
	Username:  "testuser",
	CreatedAt: time.Now(),
	UpdatedAt: time.Now(),
}

// TestBook is a canned catalog snapshot.
var TestBook = entity.Book{
	ID:            "test-vol-789",
	Title:         "Test Book Title",
	Authors:       []string{"Test Author"},
	PublishedDate: "2003-04",
	Description:   "A test book description",
	PageCount:     321,
	Categories:    []string{"Fiction"},
	Thumbnail:     "http://img/test.jpg",
	Publisher:     "Test Publisher",
	Language:      "en",
}

// GenerateTestToken issues a JWT for requests that must be authenticated.
func GenerateTestToken(secret, userID string) string {
	token, _, _ := crypto.GenerateToken(secret, userID, time.Hour)
	return token
}

// NewRequest creates a JSON HTTP request for testing.
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a JSON HTTP request carrying a bearer token.
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// RecordResponse is a decoded recorder result.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// MemUserRepo is an in-memory usecase.UserRepository.
type MemUserRepo struct {
	mu     sync.Mutex
	users  map[string]entity.User // by id
	nextID int
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: make(map[string]entity.User)}
}

func (r *MemUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return usecase.ErrAuthFailed
		}
	}
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	return nil
}

func (r *MemUserRepo) GetByEmail(_ context.Context, email string) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return entity.User{}, usecase.ErrNotFound
}

func (r *MemUserRepo) GetByID(_ context.Context, id string) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return entity.User{}, usecase.ErrNotFound
}

// MemSessionRepo is an in-memory usecase.SessionRepository.
type MemSessionRepo struct {
	mu     sync.Mutex
	byHash map[string]entity.Session
}

func NewMemSessionRepo() *MemSessionRepo {
	return &MemSessionRepo{byHash: make(map[string]entity.Session)}
}

func (r *MemSessionRepo) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = "sess-" + s.TokenHash[:8]
	s.CreatedAt = time.Now()
	s.LastUsedAt = s.CreatedAt
	r.byHash[s.TokenHash] = *s
	return nil
}

func (r *MemSessionRepo) GetByTokenHash(_ context.Context, hash string) (entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHash[hash]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return entity.Session{}, usecase.ErrNotFound
	}
	return s, nil
}

func (r *MemSessionRepo) DeleteByTokenHash(_ context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byHash, hash)
	return nil
}

func (r *MemSessionRepo) UpdateLastUsed(context.Context, string) error { return nil }
func (r *MemSessionRepo) CleanupExpired(context.Context) error         { return nil }

// MemFavoriteRepo is an in-memory usecase.FavoriteRepository enforcing the
// (user, book) uniqueness constraint like the real table does.
type MemFavoriteRepo struct {
	mu    sync.Mutex
	rows  map[string]entity.Favorite
	order []string
}

func NewMemFavoriteRepo() *MemFavoriteRepo {
	return &MemFavoriteRepo{rows: make(map[string]entity.Favorite)}
}

func favKey(userID, bookID string) string { return userID + "/" + bookID }

func (r *MemFavoriteRepo) Insert(_ context.Context, fav *entity.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := favKey(fav.UserID, fav.BookID)
	if _, ok := r.rows[k]; ok {
		return usecase.ErrDuplicateFavorite
	}
	fav.ID = "fav-" + k
	fav.CreatedAt = time.Now()
	r.rows[k] = *fav
	r.order = append(r.order, k)
	return nil
}

func (r *MemFavoriteRepo) Delete(_ context.Context, userID, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, favKey(userID, bookID))
	return nil
}

func (r *MemFavoriteRepo) Exists(_ context.Context, userID, bookID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[favKey(userID, bookID)]
	return ok, nil
}

func (r *MemFavoriteRepo) ListByUser(_ context.Context, userID string) ([]entity.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Favorite
	for _, k := range r.order {
		if fav, ok := r.rows[k]; ok && fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}
