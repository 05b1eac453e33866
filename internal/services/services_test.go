package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/storage"
	"receipts-backend/internal/store/memory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testTTL = 30 * 24 * time.Hour

type testEnv struct {
	store    *memory.Store
	files    *storage.Local
	users    *UserService
	sessions *SessionService
	photos   *PhotoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	files, err := storage.NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	hasher := NewBcryptHasher(bcrypt.MinCost)

	return &testEnv{
		store:    st,
		files:    files,
		users:    NewUserService(st, st, files, hasher),
		sessions: NewSessionService(st, st, hasher, testTTL),
		photos:   NewPhotoService(st, st, files),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.CreateAccount(context.Background(), models.CreateUserRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "correct horse",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) upload(t *testing.T, userID int64, filename string) *models.Photo {
	t.Helper()
	body := []byte("\x89PNG fake image")
	p, err := e.photos.Upload(context.Background(), UploadInput{
		UserID:      userID,
		Filename:    filename,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) fileExists(t *testing.T, key string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(e.files.Dir(), key))
	return err == nil
}

func (e *testEnv) fileCount(t *testing.T) int {
	t.Helper()
	objects, err := e.files.List(context.Background())
	require.NoError(t, err)
	return len(objects)
}
