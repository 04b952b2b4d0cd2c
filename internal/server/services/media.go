package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/blobstore"
	"github.com/akgupta-cs/mediavault/internal/server/models"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/repomanager"
)

// categoryLimitBytes is the per-category allowance enforced on upload:
// 30% of the 20 GiB account limit.
const categoryLimitBytes int64 = 6442450944

// aggregateInvalidator is implemented by the admin service so media
// writes can drop the cached aggregates.
type aggregateInvalidator interface {
	InvalidateAggregates(ctx context.Context)
}

// UploadGrant is a presigned upload slot.
type UploadGrant struct {
	UploadURL  string
	StorageKey string
}

// MediaMetadata registers an object that was uploaded to a grant.
type MediaMetadata struct {
	Filename        string
	ContentType     string
	FileSize        int64
	StorageKey      string
	DurationSeconds *float64
	ThumbnailKey    string
}

// MediaView is a stored item with presigned access URLs.
type MediaView struct {
	models.MediaItem
	URL          string
	ThumbnailURL string
}

// BulkResult reports a metadata batch registration.
type BulkResult struct {
	IDs          []int64
	SuccessCount int
	Errors       []string
}

type MediaService struct {
	rm         repomanager.RepositoryManager
	blobs      blobstore.Store
	aggregates aggregateInvalidator
	log        logging.Logger
}

func NewMediaService(rm repomanager.RepositoryManager, blobs blobstore.Store,
	aggregates aggregateInvalidator, log logging.Logger) *MediaService {
	return &MediaService{rm: rm, blobs: blobs, aggregates: aggregates, log: log}
}

// supportedKind rejects the categories that have no storage backend
// yet.
func supportedKind(kind models.MediaKind) error {
	switch kind {
	case models.KindPhoto, models.KindVideo:
		return nil
	case models.KindDocument, models.KindMemory:
		return common.ErrNotImplemented
	default:
		return fmt.Errorf("unknown media kind %q", kind)
	}
}

// NewUploadGrant reserves a storage key and presigns a PUT for it.
func (s *MediaService) NewUploadGrant(ctx context.Context, contentType string) (*UploadGrant, error) {
	key := s.blobs.RandomKey()
	url, err := s.blobs.PresignPut(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadGrant{UploadURL: url, StorageKey: key}, nil
}

func (s *MediaService) validateMetadata(ctx context.Context, ownerID string, kind models.MediaKind, meta MediaMetadata) error {
	if meta.Filename == "" {
		return common.ErrNameRequired
	}
	if meta.StorageKey == "" || meta.FileSize <= 0 {
		return fmt.Errorf("incomplete upload metadata for %q", meta.Filename)
	}

	used, err := s.rm.Media().SumSizeByOwnerKind(ctx, ownerID, kind)
	if err != nil {
		return err
	}
	if used+meta.FileSize > categoryLimitBytes {
		return fmt.Errorf("upload of %d bytes exceeds the %s storage limit", meta.FileSize, kind)
	}
	return nil
}

// Register records one uploaded object.
func (s *MediaService) Register(ctx context.Context, ownerID string, kind models.MediaKind, meta MediaMetadata) (int64, error) {
	if err := supportedKind(kind); err != nil {
		return 0, err
	}
	if err := s.validateMetadata(ctx, ownerID, kind, meta); err != nil {
		return 0, err
	}

	uid, err := uuid.Parse(ownerID)
	if err != nil {
		return 0, common.ErrNotFound
	}

	id, err := s.rm.Media().Add(ctx, &models.MediaItem{
		OwnerID:         uid,
		Kind:            kind,
		Filename:        meta.Filename,
		ContentType:     meta.ContentType,
		FileSize:        meta.FileSize,
		StorageKey:      meta.StorageKey,
		DurationSeconds: meta.DurationSeconds,
		ThumbnailKey:    meta.ThumbnailKey,
	})
	if err != nil {
		return 0, err
	}

	s.aggregates.InvalidateAggregates(ctx)
	s.log.Info(ctx, "media registered", "id", id, "kind", string(kind), "size", meta.FileSize)
	return id, nil
}

// RegisterBulk records a batch; items fail independently.
func (s *MediaService) RegisterBulk(ctx context.Context, ownerID string, kind models.MediaKind, metas []MediaMetadata) (*BulkResult, error) {
	if err := supportedKind(kind); err != nil {
		return nil, err
	}

	result := &BulkResult{IDs: make([]int64, 0, len(metas)), Errors: make([]string, 0)}
	for _, meta := range metas {
		id, err := s.Register(ctx, ownerID, kind, meta)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", meta.Filename, err))
			continue
		}
		result.IDs = append(result.IDs, id)
		result.SuccessCount++
	}
	return result, nil
}

// List returns the caller's items of one kind with presigned URLs.
// Admins see every user's items.
func (s *MediaService) List(ctx context.Context, callerID string, kind models.MediaKind) ([]MediaView, error) {
	if err := supportedKind(kind); err != nil {
		return nil, err
	}

	caller, err := s.rm.Users().GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var items []models.MediaItem
	if caller.Role == models.RoleAdmin {
		items, err = s.rm.Media().ListByKind(ctx, kind)
	} else {
		items, err = s.rm.Media().ListByOwnerKind(ctx, callerID, kind)
	}
	if err != nil {
		return nil, err
	}

	views := make([]MediaView, 0, len(items))
	for _, item := range items {
		views = append(views, s.view(ctx, item))
	}
	return views, nil
}

func (s *MediaService) view(ctx context.Context, item models.MediaItem) MediaView {
	v := MediaView{MediaItem: item}

	url, err := s.blobs.PresignGet(ctx, item.StorageKey)
	if err != nil {
		s.log.Warn(ctx, "presigning media failed", "id", item.ID, "error", err)
	} else {
		v.URL = url
	}

	if item.ThumbnailKey != "" {
		turl, err := s.blobs.PresignGet(ctx, item.ThumbnailKey)
		if err == nil {
			v.ThumbnailURL = turl
		}
	}
	return v
}

// Get returns one item, owner or admin only.
func (s *MediaService) Get(ctx context.Context, callerID string, id int64) (*MediaView, error) {
	item, err := s.rm.Media().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrAdmin(ctx, callerID, item.OwnerID); err != nil {
		return nil, err
	}

	v := s.view(ctx, *item)
	return &v, nil
}

// Delete removes an item, owner or admin only.
func (s *MediaService) Delete(ctx context.Context, callerID string, kind models.MediaKind, id int64) error {
	if err := supportedKind(kind); err != nil {
		return err
	}

	item, err := s.rm.Media().Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Kind != kind {
		return common.ErrNotFound
	}
	if err := s.requireOwnerOrAdmin(ctx, callerID, item.OwnerID); err != nil {
		return err
	}

	if err := s.rm.Media().Delete(ctx, id); err != nil {
		return err
	}

	// the metadata row is authoritative; a failed object removal only
	// leaves an orphaned blob behind
	if err := s.blobs.Delete(ctx, item.StorageKey); err != nil {
		s.log.Warn(ctx, "deleting media object failed", "id", id, "error", err)
	}
	if item.ThumbnailKey != "" {
		if err := s.blobs.Delete(ctx, item.ThumbnailKey); err != nil {
			s.log.Warn(ctx, "deleting thumbnail object failed", "id", id, "error", err)
		}
	}

	s.aggregates.InvalidateAggregates(ctx)
	return nil
}

// StorageUsage totals the caller's bytes in one category.
func (s *MediaService) StorageUsage(ctx context.Context, callerID string, kind models.MediaKind) (int64, error) {
	if err := supportedKind(kind); err != nil {
		return 0, err
	}
	return s.rm.Media().SumSizeByOwnerKind(ctx, callerID, kind)
}

func (s *MediaService) requireOwnerOrAdmin(ctx context.Context, callerID string, ownerID uuid.UUID) error {
	if callerID == ownerID.String() {
		return nil
	}
	caller, err := s.rm.Users().GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin {
		return common.ErrUnauthorized
	}
	return nil
}
