// Package gateway defines the client's view of the vault server and its
// HTTP implementation. Remote failures are reported through sentinel
// errors so callers never inspect message text.
package gateway

import (
	"context"
	"time"

	"github.com/akgupta-cs/mediavault/internal/blob"
)

// MediaKind selects a media category for list/upload/usage calls.
type MediaKind string

const (
	KindPhoto    MediaKind = "photo"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
	KindMemory   MediaKind = "memory"
)

// Profile is the caller's stored profile. An empty Pin means the PIN
// setup step has not been completed yet.
type Profile struct {
	Principal  string `json:"principal"`
	Name       string `json:"name"`
	Pin        string `json:"pin"`
	PictureURL string `json:"picture_url,omitempty"`
}

// MediaItem describes one stored photo or video.
type MediaItem struct {
	ID              int64     `json:"id"`
	Filename        string    `json:"filename"`
	ContentType     string    `json:"content_type"`
	FileSize        int64     `json:"file_size"`
	UploadDate      time.Time `json:"upload_date"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	URL             string    `json:"url,omitempty"`
}

// UploadRequest carries one media payload and its metadata.
type UploadRequest struct {
	Kind            MediaKind
	Filename        string
	ContentType     string
	Content         blob.Ref
	DurationSeconds *float64
	Thumbnail       blob.Ref
	Progress        blob.ProgressFunc
}

// BulkUploadResult summarizes a multi-file upload. Failed items land in
// Errors while the rest succeed independently.
type BulkUploadResult struct {
	IDs          []int64  `json:"ids"`
	SuccessCount int      `json:"success_count"`
	Errors       []string `json:"errors"`
	Message      string   `json:"message"`
}

// StorageSummary is the admin-facing aggregate across all accounts.
type StorageSummary struct {
	TotalPhotosBytes    int64 `json:"total_photos_bytes"`
	TotalVideosBytes    int64 `json:"total_videos_bytes"`
	TotalDocumentsBytes int64 `json:"total_documents_bytes"`
	TotalMemoriesBytes  int64 `json:"total_memories_bytes"`
}

// Gateway is everything the client core needs from the server.
type Gateway interface {
	// Auth and session.
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	// Principal returns the identity of the logged-in user, or "" when
	// no session is active.
	Principal() string

	// Profile.
	GetProfile(ctx context.Context) (*Profile, error)
	SaveProfile(ctx context.Context, p Profile) error
	UpdateProfilePicture(ctx context.Context, picture blob.Ref, contentType string) (string, error)

	// Language preference.
	GetLanguagePreference(ctx context.Context) (string, error)
	SetLanguagePreference(ctx context.Context, lang string) error

	// Access control.
	IsAdmin(ctx context.Context) (bool, error)
	Role(ctx context.Context) (string, error)
	AssignRole(ctx context.Context, principal, role string) error

	// PIN operations. VerifyPin reports a mismatch as ErrPinMismatch.
	VerifyPin(ctx context.Context, pin string) error
	ChangePin(ctx context.Context, currentPin, newPin string) error
	ResetPin(ctx context.Context, newPin string) error

	// Media.
	ListMedia(ctx context.Context, kind MediaKind) ([]MediaItem, error)
	GetMediaMetadata(ctx context.Context, kind MediaKind, id int64) (*MediaItem, error)
	UploadMedia(ctx context.Context, req UploadRequest) (int64, error)
	UploadMediaBulk(ctx context.Context, reqs []UploadRequest) (*BulkUploadResult, error)
	DeleteMedia(ctx context.Context, kind MediaKind, id int64) error
	StorageUsage(ctx context.Context, kind MediaKind) (int64, error)

	// Admin.
	UserCount(ctx context.Context) (int64, error)
	StorageUnitCount(ctx context.Context) (int64, error)
	AggregateStorageSummary(ctx context.Context) (*StorageSummary, error)
	StorageSummaryFor(ctx context.Context, principal string) (*StorageSummary, error)
}
