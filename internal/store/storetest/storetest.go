// Package storetest holds a behavioural suite that every store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s. The backend must start empty.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("photos", func(t *testing.T) { testPhotos(t, newStore(t)) })
	t.Run("cascade", func(t *testing.T) { testCascade(t, newStore(t)) })
}

func newUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: email, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func newSession(t *testing.T, s store.Store, userID int64, token string) *models.Session {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sess := &models.Session{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
		IsActive:  true,
	}
	require.NoError(t, s.CreateSession(context.Background(), sess))
	return sess
}

func newPhoto(t *testing.T, s store.Store, userID int64, path string) *models.Photo {
	t.Helper()
	p := &models.Photo{UserID: userID, Filename: "a.png", FilePath: path, FileSize: 3, MimeType: "image/png"}
	require.NoError(t, s.CreatePhoto(context.Background(), p))
	return p
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")

	err := s.CreateUser(ctx, &models.User{FirstName: "x", LastName: "y", Email: "a@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	taken, err := s.EmailTaken(ctx, "a@example.com", a.ID)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = s.EmailTaken(ctx, "a@example.com", b.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	users, err := s.ListUsers(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	users, err = s.ListUsers(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, users)

	b.Email = "a@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, b), store.ErrConflict)

	b.Email = "b2@example.com"
	b.FirstName = "Grace"
	require.NoError(t, s.UpdateUser(ctx, b))
	got, err = s.GetUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "b2@example.com", got.Email)

	require.NoError(t, s.DeleteUser(ctx, b.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, b.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateUser(ctx, b), store.ErrNotFound)
	_, err = s.GetUser(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s, "s@example.com")
	sess := newSession(t, s, u.ID, "token-1")

	dup := &models.Session{UserID: u.ID, Token: "token-1", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour), IsActive: true}
	assert.ErrorIs(t, s.CreateSession(ctx, dup), store.ErrConflict)

	orphan := &models.Session{UserID: u.ID + 1000, Token: "token-x", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour), IsActive: true}
	assert.ErrorIs(t, s.CreateSession(ctx, orphan), store.ErrNotFound)

	got, err := s.GetSessionByToken(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))
	assert.Nil(t, got.LastAccessedAt)

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.TouchSession(ctx, sess.ID, at))
	got, err = s.GetSessionByToken(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, got.LastAccessedAt)
	assert.True(t, got.LastAccessedAt.Equal(at))

	expired := &models.Session{UserID: u.ID, Token: "token-2", CreatedAt: at.Add(-2 * time.Hour), ExpiresAt: at.Add(-time.Hour), IsActive: true}
	require.NoError(t, s.CreateSession(ctx, expired))
	removed, err := s.DeleteExpiredSessions(ctx, at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	deleted, err := s.DeleteSessionByToken(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeleteSessionByToken(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testPhotos(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newUser(t, s, "pa@example.com")
	b := newUser(t, s, "pb@example.com")
	p1 := newPhoto(t, s, a.ID, "one.png")
	newPhoto(t, s, a.ID, "two.png")
	newPhoto(t, s, b.ID, "three.png")

	err := s.CreatePhoto(ctx, &models.Photo{UserID: a.ID, Filename: "x", FilePath: "one.png", MimeType: "image/png"})
	assert.ErrorIs(t, err, store.ErrConflict)
	err = s.CreatePhoto(ctx, &models.Photo{UserID: b.ID + 1000, Filename: "x", FilePath: "four.png", MimeType: "image/png"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListPhotos(ctx, models.PhotoFilter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	owned, err := s.ListPhotos(ctx, models.PhotoFilter{UserID: &a.ID, Skip: 0, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	owned, err = s.ListPhotos(ctx, models.PhotoFilter{UserID: &a.ID, Skip: 2, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, owned)

	paths, err := s.ListPhotoPaths(ctx, &a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.png", "two.png"}, paths)
	paths, err = s.ListPhotoPaths(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	got, err := s.GetPhoto(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "one.png", got.FilePath)
	assert.Nil(t, got.Title)

	require.NoError(t, s.DeletePhoto(ctx, p1.ID))
	assert.ErrorIs(t, s.DeletePhoto(ctx, p1.ID), store.ErrNotFound)
	_, err = s.GetPhoto(ctx, p1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	keep := newUser(t, s, "keep@example.com")
	gone := newUser(t, s, "gone@example.com")

	newSession(t, s, keep.ID, "keep-token")
	for i := 0; i < 2; i++ {
		newSession(t, s, gone.ID, fmt.Sprintf("gone-token-%d", i))
	}
	kept := newPhoto(t, s, keep.ID, "keep.png")
	p1 := newPhoto(t, s, gone.ID, "gone-1.png")
	p2 := newPhoto(t, s, gone.ID, "gone-2.png")

	require.NoError(t, s.DeleteUser(ctx, gone.ID))

	for i := 0; i < 2; i++ {
		_, err := s.GetSessionByToken(ctx, fmt.Sprintf("gone-token-%d", i))
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	for _, id := range []int64{p1.ID, p2.ID} {
		_, err := s.GetPhoto(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}

	_, err := s.GetSessionByToken(ctx, "keep-token")
	assert.NoError(t, err)
	_, err = s.GetPhoto(ctx, kept.ID)
	assert.NoError(t, err)
}
