// Package authsession owns the authenticated identity: a backend service
// over the user and session tables, and a Manager holding the current
// session as an explicit state machine.
package authsession

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"bookfinder/internal/entity"
	"bookfinder/internal/platform/crypto"
	"bookfinder/internal/usecase"
)

const sessionTTL = 30 * 24 * time.Hour

// Service implements the identity backend's contract: password sign-in,
// sign-up, sign-out and session resolution, with opaque session tokens
// stored only as sha256 digests.
type Service struct {
	users    usecase.UserRepository
	sessions usecase.SessionRepository
}

func NewService(users usecase.UserRepository, sessions usecase.SessionRepository) *Service {
	return &Service{users: users, sessions: sessions}
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func newSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Login verifies credentials and opens a session. The returned token is the
// only copy; the backend keeps its hash.
func (s *Service) Login(ctx context.Context, email, password, userAgent string) (entity.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || !crypto.VerifyPassword(user.PasswordHash, password) {
		return entity.User{}, "", fmt.Errorf("%w: invalid email or password", usecase.ErrAuthFailed)
	}

	token, err := s.openSession(ctx, user.ID, userAgent)
	if err != nil {
		return entity.User{}, "", err
	}
	return user, token, nil
}

// Register provisions an account and logs it in. A duplicate email is an
// ErrAuthFailed, matching the backend-rejection contract of login.
func (s *Service) Register(ctx context.Context, email, password, username, userAgent string) (entity.User, string, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return entity.User{}, "", err
	}

	user := entity.User{Email: email, Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, usecase.ErrAuthFailed) {
			return entity.User{}, "", fmt.Errorf("%w: email already registered", usecase.ErrAuthFailed)
		}
		return entity.User{}, "", err
	}

	token, err := s.openSession(ctx, user.ID, userAgent)
	if err != nil {
		return entity.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) openSession(ctx context.Context, userID, userAgent string) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	session := &entity.Session{
		UserID:    userID,
		TokenHash: hashToken(token),
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("%w: %w", usecase.ErrAuthFailed, err)
	}
	return token, nil
}

// Logout closes the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteByTokenHash(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("%w: %w", usecase.ErrAuthFailed, err)
	}
	return nil
}

// Check resolves token to its user. An absent or expired session is not an
// error: it resolves to no user, so Check is safe to call repeatedly.
func (s *Service) Check(ctx context.Context, token string) (entity.User, bool, error) {
	if token == "" {
		return entity.User{}, false, nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			return entity.User{}, false, nil
		}
		return entity.User{}, false, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			return entity.User{}, false, nil
		}
		return entity.User{}, false, err
	}

	_ = s.sessions.UpdateLastUsed(ctx, session.ID)
	return user, true, nil
}
