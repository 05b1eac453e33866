package models

import "time"

// Photo is the metadata row for an uploaded image. FilePath is the
// generated storage key and never derives from Filename.
type Photo struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Filename    string     `json:"filename"`
	FilePath    string     `json:"file_path"`
	FileSize    int64      `json:"file_size"`
	MimeType    string     `json:"mime_type"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type PhotoFilter struct {
	UserID *int64
	Skip   int
	Limit  int
}
