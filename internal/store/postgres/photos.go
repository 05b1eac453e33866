package postgres

import (
	"context"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"
)

const photoColumns = `id, user_id, filename, file_path, file_size, mime_type, title, description, created_at, updated_at`

func scanPhoto(row interface{ Scan(dest ...any) error }) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.UserID, &p.Filename, &p.FilePath, &p.FileSize, &p.MimeType,
		&p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePhoto reports store.ErrNotFound when the owner no longer exists.
func (s *Store) CreatePhoto(ctx context.Context, p *models.Photo) error {
	query := `
		INSERT INTO photos (user_id, filename, file_path, file_size, mime_type, title, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query,
		p.UserID, p.Filename, p.FilePath, p.FileSize, p.MimeType, p.Title, p.Description,
	).Scan(&p.ID, &p.CreatedAt)
	return mapError(err)
}

func (s *Store) GetPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	p, err := scanPhoto(s.pool.QueryRow(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	return p, mapError(err)
}

func (s *Store) ListPhotos(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE ($1::BIGINT IS NULL OR user_id = $1) ORDER BY id OFFSET $2 LIMIT $3`
	rows, err := s.pool.Query(ctx, query, filter.UserID, filter.Skip, filter.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	photos := make([]models.Photo, 0)
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (s *Store) ListPhotoPaths(ctx context.Context, userID *int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT file_path FROM photos WHERE ($1::BIGINT IS NULL OR user_id = $1)`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func (s *Store) DeletePhoto(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
