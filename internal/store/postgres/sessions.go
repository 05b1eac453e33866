package postgres

import (
	"context"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"
)

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, session_token, created_at, expires_at, is_active, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := s.pool.QueryRow(ctx, query,
		sess.UserID, sess.Token, sess.CreatedAt, sess.ExpiresAt, sess.IsActive, sess.IPAddress, sess.UserAgent,
	).Scan(&sess.ID)
	return mapError(err)
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, session_token, created_at, expires_at, last_accessed_at, is_active, ip_address, user_agent
		FROM user_sessions
		WHERE session_token = $1`
	var sess models.Session
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&sess.ID, &sess.UserID, &sess.Token, &sess.CreatedAt, &sess.ExpiresAt,
		&sess.LastAccessedAt, &sess.IsActive, &sess.IPAddress, &sess.UserAgent,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE user_sessions SET last_accessed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE session_token = $1`, token)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1 OR NOT is_active`, now)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
