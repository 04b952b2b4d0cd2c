// Package models holds the server's persistent entities.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Profile is the user-editable part of an account. Pin is empty until
// the client completes PIN setup.
type Profile struct {
	UserID     uuid.UUID
	Name       string
	Pin        string
	PictureKey string
	Language   string
}

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// MediaKind mirrors the wire values used by the client.
type MediaKind string

const (
	KindPhoto    MediaKind = "photo"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
	KindMemory   MediaKind = "memory"
)

type MediaItem struct {
	ID              int64
	OwnerID         uuid.UUID
	Kind            MediaKind
	Filename        string
	ContentType     string
	FileSize        int64
	StorageKey      string
	DurationSeconds *float64
	ThumbnailKey    string
	UploadDate      time.Time
}

// StorageSummary aggregates stored bytes per category.
type StorageSummary struct {
	TotalPhotosBytes    int64 `json:"total_photos_bytes"`
	TotalVideosBytes    int64 `json:"total_videos_bytes"`
	TotalDocumentsBytes int64 `json:"total_documents_bytes"`
	TotalMemoriesBytes  int64 `json:"total_memories_bytes"`
}
