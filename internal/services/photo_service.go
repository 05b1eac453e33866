package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/storage"
	"receipts-backend/internal/store"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	defaultPhotoExt = ".jpg"
	maxExtLen       = 10
)

// UploadInput is one photo upload as received from the client.
type UploadInput struct {
	UserID      int64
	Filename    string
	ContentType string
	// Size is -1 when the caller does not know it.
	Size        int64
	Body        io.Reader
	Title       *string
	Description *string
}

// ReconcileResult counts the stored objects seen and removed by Reconcile.
type ReconcileResult struct {
	Scanned int
	Removed int
}

// PhotoService stores photo bytes and their metadata rows.
type PhotoService struct {
	users  store.UserStore
	photos store.PhotoStore
	files  storage.Storage
	now    func() time.Time
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(users store.UserStore, photos store.PhotoStore, files storage.Storage) *PhotoService {
	return &PhotoService{users: users, photos: photos, files: files, now: time.Now}
}

// Upload checks the owner and media type, writes the bytes and then the
// metadata row. If the row cannot be written the stored bytes are removed.
func (s *PhotoService) Upload(ctx context.Context, in UploadInput) (*models.Photo, error) {
	if _, err := s.users.GetUser(ctx, in.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "User", ID: in.UserID}
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return nil, ErrInvalidMediaType
	}
	if err := validatePhotoFields(in); err != nil {
		return nil, err
	}

	key := uuid.NewString() + photoExt(in.Filename)
	written, err := s.files.Save(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return nil, &StorageError{Op: "write file", Err: err}
	}

	photo := &models.Photo{
		UserID:      in.UserID,
		Filename:    in.Filename,
		FilePath:    key,
		FileSize:    written,
		MimeType:    in.ContentType,
		Title:       in.Title,
		Description: in.Description,
	}
	if err := s.photos.CreatePhoto(ctx, photo); err != nil {
		if rmErr := s.files.Remove(ctx, key); rmErr != nil {
			slog.Error("Failed to remove file after metadata insert failed", "path", key, "error", rmErr)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "User", ID: in.UserID}
		}
		return nil, &StorageError{Op: "save metadata", Err: err}
	}
	return photo, nil
}

// Get returns the photo metadata by ID.
func (s *PhotoService) Get(ctx context.Context, id int64) (*models.Photo, error) {
	photo, err := s.photos.GetPhoto(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "Photo", ID: id}
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return photo, nil
}

// List returns photos matching filter, ordered by ID.
func (s *PhotoService) List(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, error) {
	photos, err := s.photos.ListPhotos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return photos, nil
}

// Open returns the photo and a reader over its stored bytes. The caller closes the reader.
func (s *PhotoService) Open(ctx context.Context, id int64) (*models.Photo, io.ReadCloser, error) {
	photo, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, photo.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, &NotFoundError{Entity: "Photo file", ID: id}
		}
		return nil, nil, fmt.Errorf("open photo file: %w", err)
	}
	return photo, rc, nil
}

// Delete removes the stored file, then the row. A missing file is ignored.
func (s *PhotoService) Delete(ctx context.Context, id int64) error {
	photo, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.files.Remove(ctx, photo.FilePath); err != nil {
		slog.Warn("Failed to remove photo file", "photo_id", id, "path", photo.FilePath, "error", err)
	}

	if err := s.photos.DeletePhoto(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "Photo", ID: id}
		}
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Reconcile removes stored files that have no photo row and are older than grace.
// The grace period keeps uploads that are still between write and insert.
func (s *PhotoService) Reconcile(ctx context.Context, grace time.Duration) (ReconcileResult, error) {
	var result ReconcileResult

	known, err := s.photos.ListPhotoPaths(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("list photo paths: %w", err)
	}
	referenced := make(map[string]struct{}, len(known))
	for _, path := range known {
		referenced[path] = struct{}{}
	}

	objects, err := s.files.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list stored files: %w", err)
	}

	cutoff := s.now().Add(-grace)
	for _, obj := range objects {
		result.Scanned++
		if _, ok := referenced[obj.Name]; ok {
			continue
		}
		if obj.ModTime.After(cutoff) {
			continue
		}
		if err := s.files.Remove(ctx, obj.Name); err != nil {
			slog.Warn("Failed to remove orphan file", "path", obj.Name, "error", err)
			continue
		}
		slog.Info("Removed orphan file", "path", obj.Name, "size", obj.Size)
		result.Removed++
	}
	return result, nil
}

// photoExt keeps a short alphanumeric extension from the client filename.
func photoExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return defaultPhotoExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultPhotoExt
		}
	}
	return ext
}
