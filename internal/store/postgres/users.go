package postgres

import (
	"context"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"
)

const userColumns = `id, first_name, last_name, email, password_hash, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (first_name, last_name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query, u.FirstName, u.LastName, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	return mapError(err)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapError(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapError(err)
}

func (s *Store) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	if err := s.pool.QueryRow(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, mapError(err)
	}
	return taken, nil
}

func (s *Store) ListUsers(ctx context.Context, skip, limit int) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser writes every mutable column. A row removed since it was read
// yields store.ErrNotFound.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET first_name = $2, last_name = $3, email = $4, password_hash = $5 WHERE id = $1 RETURNING created_at`
	err := s.pool.QueryRow(ctx, query, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	return mapError(err)
}

// DeleteUser relies on ON DELETE CASCADE for user_sessions and photos.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
