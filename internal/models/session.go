package models

import "time"

type Session struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Token          string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	IPAddress      *string    `json:"ip_address,omitempty"`
	UserAgent      *string    `json:"user_agent,omitempty"`
}

// Valid reports whether the session can still authenticate requests at now.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
