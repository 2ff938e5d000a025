package store

import (
	"context"
	"errors"

	"bookfinder/internal/entity"
	"bookfinder/internal/usecase"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionPG struct {
	db *pgxpool.Pool
}

func NewSessionPG(db *pgxpool.Pool) *SessionPG {
	return &SessionPG{db: db}
}

func (r *SessionPG) Create(ctx context.Context, session *entity.Session) error {
	const query = `
	INSERT INTO sessions (id, user_id, token_hash, user_agent, expires_at)
	VALUES (gen_random_uuid(), $1, $2, $3, $4)
	RETURNING id, created_at, last_used_at
	`
	return r.db.QueryRow(ctx, query,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt, &session.LastUsedAt)
}

func (r *SessionPG) GetByTokenHash(ctx context.Context, tokenHash string) (entity.Session, error) {
	const query = `
	SELECT id, user_id, token_hash, user_agent, expires_at, created_at, last_used_at
	FROM sessions
	WHERE token_hash = $1 AND expires_at > now()
	LIMIT 1
	`
	var session entity.Session
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Session{}, usecase.ErrNotFound
		}
		return entity.Session{}, err
	}
	return session, nil
}

func (r *SessionPG) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	const query = `DELETE FROM sessions WHERE token_hash = $1`
	_, err := r.db.Exec(ctx, query, tokenHash)
	return err
}

func (r *SessionPG) UpdateLastUsed(ctx context.Context, sessionID string) error {
	const query = `UPDATE sessions SET last_used_at = now() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, sessionID)
	return err
}

func (r *SessionPG) CleanupExpired(ctx context.Context) error {
	const query = `DELETE FROM sessions WHERE expires_at < now()`
	_, err := r.db.Exec(ctx, query)
	return err
}
