package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"receipts-backend/internal/models"
	"receipts-backend/internal/storage"
	"receipts-backend/internal/store"

	"golang.org/x/exp/slog"
)

// UserService manages user accounts.
type UserService struct {
	users  store.UserStore
	photos store.PhotoStore
	files  storage.Storage
	hasher PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, photos store.PhotoStore, files storage.Storage, hasher PasswordHasher) *UserService {
	return &UserService{users: users, photos: photos, files: files, hasher: hasher}
}

// CreateAccount stores a new user. It does not log the user in.
func (s *UserService) CreateAccount(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	email := NormalizeEmail(req.Email)
	if err := validateName("first_name", req.FirstName); err != nil {
		return nil, err
	}
	if err := validateName("last_name", req.LastName); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Entity: "User", ID: id}
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns a page of users ordered by ID.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update changes only the fields set in req.
func (s *UserService) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		if err := validateName("first_name", *req.FirstName); err != nil {
			return nil, err
		}
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if err := validateName("last_name", *req.LastName); err != nil {
			return nil, err
		}
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			taken, err := s.users.EmailTaken(ctx, email, id)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if taken {
				return nil, ErrDuplicateEmail
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{Entity: "User", ID: id}
		case errors.Is(err, store.ErrConflict):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes the user. Sessions and photo rows go with it; the photo
// files are removed afterwards.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	paths, err := s.photos.ListPhotoPaths(ctx, &id)
	if err != nil {
		return fmt.Errorf("list photo paths: %w", err)
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Entity: "User", ID: id}
		}
		return fmt.Errorf("delete user: %w", err)
	}

	for _, path := range paths {
		if err := s.files.Remove(ctx, path); err != nil {
			slog.Warn("Failed to remove photo file of deleted user", "user_id", id, "path", path, "error", err)
		}
	}
	return nil
}
