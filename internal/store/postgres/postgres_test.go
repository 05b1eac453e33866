package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"receipts-backend/internal/config"
	"receipts-backend/internal/db"
	"receipts-backend/internal/store"
	"receipts-backend/internal/store/storetest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set TEST_DATABASE_URL to a disposable database to run these tests.
// Every table is truncated before each case.
func TestStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))

	storetest.Run(t, func(t *testing.T) store.Store {
		_, err := pool.Exec(ctx, `TRUNCATE photos, user_sessions, users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return New(pool)
	})
}

func TestMapError(t *testing.T) {
	require.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), store.ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), store.ErrConflict)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23503"}), store.ErrNotFound)

	other := errors.New("connection reset")
	assert.Same(t, other, mapError(other))
}
