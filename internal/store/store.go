// Package store defines the persistence contracts shared by the postgres
// and in-memory backends.
package store

import (
	"context"
	"errors"
	"time"

	"receipts-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record conflicts with an existing one")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// EmailTaken ignores the user with excludeID so updates can keep their own address.
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	ListUsers(ctx context.Context, skip, limit int) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the user together with its sessions and photo rows.
	DeleteUser(ctx context.Context, id int64) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	TouchSession(ctx context.Context, id int64, at time.Time) error
	DeleteSessionByToken(ctx context.Context, token string) (bool, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type PhotoStore interface {
	CreatePhoto(ctx context.Context, p *models.Photo) error
	GetPhoto(ctx context.Context, id int64) (*models.Photo, error)
	ListPhotos(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, error)
	// ListPhotoPaths returns storage keys, limited to one owner when userID is set.
	ListPhotoPaths(ctx context.Context, userID *int64) ([]string, error)
	DeletePhoto(ctx context.Context, id int64) error
}

type Store interface {
	UserStore
	SessionStore
	PhotoStore
	Ping(ctx context.Context) error
}
