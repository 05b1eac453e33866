// Package memory is a process-local store used for development and tests.
// It mirrors the postgres constraints: unique emails, tokens and file paths,
// and cascading user deletes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"receipts-backend/internal/models"
	"receipts-backend/internal/store"
)

type Store struct {
	mu sync.RWMutex

	nextUserID    int64
	nextSessionID int64
	nextPhotoID   int64

	users    map[int64]models.User
	sessions map[int64]models.Session
	photos   map[int64]models.Photo

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		sessions: make(map[int64]models.Session),
		photos:   make(map[int64]models.Photo),
		now:      time.Now,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(u.Email, 0) {
		return store.ErrConflict
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailTakenLocked(email, excludeID), nil
}

func (s *Store) emailTakenLocked(email string, excludeID int64) bool {
	for id, u := range s.users {
		if id != excludeID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) ListUsers(ctx context.Context, skip, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedKeys(s.users)
	users := make([]models.User, 0)
	for _, id := range page(ids, skip, limit) {
		users = append(users, s.users[id])
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.emailTakenLocked(u.Email, u.ID) {
		return store.ErrConflict
	}
	u.CreatedAt = existing.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	for sid, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, sid)
		}
	}
	for pid, p := range s.photos {
		if p.UserID == id {
			delete(s.photos, pid)
		}
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[sess.UserID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range s.sessions {
		if existing.Token == sess.Token {
			return store.ErrConflict
		}
	}
	s.nextSessionID++
	sess.ID = s.nextSessionID
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.Token == token {
			sess := sess
			return &sess, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) TouchSession(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	sess.LastAccessedAt = &at
	s.sessions[id] = sess
	return nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.Token == token {
			delete(s.sessions, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, sess := range s.sessions {
		if !sess.IsActive || !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) CreatePhoto(ctx context.Context, p *models.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.UserID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range s.photos {
		if existing.FilePath == p.FilePath {
			return store.ErrConflict
		}
	}
	s.nextPhotoID++
	p.ID = s.nextPhotoID
	p.CreatedAt = s.now().UTC()
	s.photos[p.ID] = *p
	return nil
}

func (s *Store) GetPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.photos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPhotos(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, id := range sortedKeys(s.photos) {
		if filter.UserID == nil || s.photos[id].UserID == *filter.UserID {
			ids = append(ids, id)
		}
	}
	photos := make([]models.Photo, 0)
	for _, id := range page(ids, filter.Skip, filter.Limit) {
		photos = append(photos, s.photos[id])
	}
	return photos, nil
}

func (s *Store) ListPhotoPaths(ctx context.Context, userID *int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0)
	for _, id := range sortedKeys(s.photos) {
		p := s.photos[id]
		if userID == nil || p.UserID == *userID {
			paths = append(paths, p.FilePath)
		}
	}
	return paths, nil
}

func (s *Store) DeletePhoto(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.photos[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func page(ids []int64, skip, limit int) []int64 {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(ids) {
		return nil
	}
	ids = ids[skip:]
	if limit >= 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}
