package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"

	"golang.org/x/exp/slog"
)

// tokenBytes of entropy per session token.
const tokenBytes = 32

// ClientInfo is recorded on the session row for auditing.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// SessionService issues, checks and revokes server-side sessions.
type SessionService struct {
	users     store.UserStore
	sessions  store.SessionStore
	hasher    PasswordHasher
	ttl       time.Duration
	now       func() time.Time
	dummyHash string
}

// NewSessionService creates a new SessionService whose sessions live for ttl.
func NewSessionService(users store.UserStore, sessions store.SessionStore, hasher PasswordHasher, ttl time.Duration) *SessionService {
	// Compared against when the email is unknown so both failure paths cost one bcrypt check.
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		slog.Warn("could not prepare dummy password hash", "error", err)
	}
	return &SessionService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		ttl:       ttl,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// GenerateToken returns a random URL-safe session token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Start opens a new active session for userID.
func (s *SessionService) Start(ctx context.Context, userID int64, client ClientInfo) (*models.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &models.Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		IsActive:  true,
		IPAddress: optional(client.IP),
		UserAgent: optional(client.UserAgent),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "User", ID: userID}
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown email and a wrong password.
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		_ = s.hasher.Check(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Check(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Validate resolves token to a live session and records the access time.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	sess, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	now := s.now().UTC()
	if !sess.Valid(now) {
		return nil, ErrInvalidSession
	}
	if err := s.sessions.TouchSession(ctx, sess.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("touch session: %w", err)
	}
	sess.LastAccessedAt = &now
	return sess, nil
}

// Invalidate deletes the session for token if there is one. Unknown tokens are not an error.
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.sessions.DeleteSessionByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired and inactive sessions and returns how many were removed.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
