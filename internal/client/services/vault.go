// Package services wires the remote gateway, the query cache and the
// local stores into the operations the UI calls. Auth failures are
// translated into localized notifications here so the rest of the
// client never inspects error text.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akgupta-cs/mediavault/internal/client/cache"
	"github.com/akgupta-cs/mediavault/internal/client/gateway"
	"github.com/akgupta-cs/mediavault/internal/client/quota"
	"github.com/akgupta-cs/mediavault/internal/i18n"
	"github.com/akgupta-cs/mediavault/internal/logging"
)

// Cached resource names. Principal is appended by the cache key.
const (
	ResourceProfile        = "profile"
	ResourceLanguage       = "language-preference"
	ResourceIsAdmin        = "is-admin"
	ResourcePhotos         = "photos"
	ResourceVideos         = "videos"
	ResourceStorageMetrics = "storage-metrics"
	ResourceUserCount      = "admin-user-count"
	ResourceStorageUnits   = "admin-storage-units"
	ResourceAdminSummary   = "admin-storage-summary"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(message string)
}

// VaultService bundles every data operation of the client.
type VaultService struct {
	gw       gateway.Gateway
	cache    *cache.Cache
	poller   *cache.Poller
	notifier Notifier
	lang     func() i18n.Language
	log      logging.Logger

	profile      *cache.Query[*gateway.Profile]
	language     *cache.Query[string]
	isAdmin      *cache.Query[bool]
	photos       *cache.Query[[]gateway.MediaItem]
	videos       *cache.Query[[]gateway.MediaItem]
	metrics      *cache.Query[quota.Snapshot]
	userCount    *cache.Query[int64]
	storageUnits *cache.Query[int64]
	adminSummary *cache.Query[*gateway.StorageSummary]
}

func NewVaultService(gw gateway.Gateway, c *cache.Cache, p *cache.Poller,
	notifier Notifier, lang func() i18n.Language, log logging.Logger) *VaultService {

	s := &VaultService{
		gw:       gw,
		cache:    c,
		poller:   p,
		notifier: notifier,
		lang:     lang,
		log:      log,
	}

	loggedIn := func() bool { return gw.Principal() != "" }

	s.profile = cache.NewQuery(c, cache.QueryConfig[*gateway.Profile]{
		Resource:  ResourceProfile,
		Principal: gw.Principal,
		Class:     cache.ClassBackground,
		StaleFor:  time.Minute,
		Enabled:   loggedIn,
		Fetch:     gw.GetProfile,
	})
	s.language = cache.NewQuery(c, cache.QueryConfig[string]{
		Resource:  ResourceLanguage,
		Principal: gw.Principal,
		Class:     cache.ClassBackground,
		StaleFor:  time.Minute,
		Enabled:   loggedIn,
		Fetch:     gw.GetLanguagePreference,
	})
	s.isAdmin = cache.NewQuery(c, cache.QueryConfig[bool]{
		Resource:  ResourceIsAdmin,
		Principal: gw.Principal,
		Class:     cache.ClassBackground,
		StaleFor:  time.Minute,
		Enabled:   loggedIn,
		Fetch:     gw.IsAdmin,
	})
	s.photos = cache.NewQuery(c, cache.QueryConfig[[]gateway.MediaItem]{
		Resource:  ResourcePhotos,
		Principal: gw.Principal,
		Class:     cache.ClassActive,
		StaleFor:  5 * time.Second,
		Enabled:   loggedIn,
		Fetch: func(ctx context.Context) ([]gateway.MediaItem, error) {
			return gw.ListMedia(ctx, gateway.KindPhoto)
		},
	})
	s.videos = cache.NewQuery(c, cache.QueryConfig[[]gateway.MediaItem]{
		Resource:  ResourceVideos,
		Principal: gw.Principal,
		Class:     cache.ClassActive,
		StaleFor:  5 * time.Second,
		Enabled:   loggedIn,
		Fetch: func(ctx context.Context) ([]gateway.MediaItem, error) {
			return gw.ListMedia(ctx, gateway.KindVideo)
		},
	})
	s.metrics = cache.NewQuery(c, cache.QueryConfig[quota.Snapshot]{
		Resource:  ResourceStorageMetrics,
		Principal: gw.Principal,
		Class:     cache.ClassIdle,
		StaleFor:  10 * time.Second,
		Enabled:   loggedIn,
		Fetch:     s.fetchMetrics,
	})
	s.userCount = cache.NewQuery(c, cache.QueryConfig[int64]{
		Resource:  ResourceUserCount,
		Principal: gw.Principal,
		Class:     cache.ClassIdle,
		StaleFor:  30 * time.Second,
		Enabled:   loggedIn,
		Fetch:     gw.UserCount,
	})
	s.storageUnits = cache.NewQuery(c, cache.QueryConfig[int64]{
		Resource:  ResourceStorageUnits,
		Principal: gw.Principal,
		Class:     cache.ClassIdle,
		StaleFor:  30 * time.Second,
		Enabled:   loggedIn,
		Fetch:     gw.StorageUnitCount,
	})
	s.adminSummary = cache.NewQuery(c, cache.QueryConfig[*gateway.StorageSummary]{
		Resource:  ResourceAdminSummary,
		Principal: gw.Principal,
		Class:     cache.ClassIdle,
		StaleFor:  30 * time.Second,
		Enabled:   loggedIn,
		Fetch:     gw.AggregateStorageSummary,
	})

	// Admin queries refresh on access only, so non-admin sessions never
	// poll admin endpoints in the background.
	p.Register(s.profile, s.language, s.isAdmin, s.photos, s.videos, s.metrics)

	return s
}

func (s *VaultService) fetchMetrics(ctx context.Context) (quota.Snapshot, error) {
	photoBytes, err := s.gw.StorageUsage(ctx, gateway.KindPhoto)
	if err != nil {
		return quota.Snapshot{}, err
	}
	videoBytes, err := s.gw.StorageUsage(ctx, gateway.KindVideo)
	if err != nil {
		return quota.Snapshot{}, err
	}
	// documents and memories have no storage backend yet
	return quota.NewSnapshot(photoBytes, videoBytes, 0, 0), nil
}

// handleReadError absorbs session errors from cached reads. It reports
// whether the error was handled; a handled read resolves to the type's
// zero value, never to a stale cached result.
func (s *VaultService) handleReadError(ctx context.Context, err error) bool {
	switch {
	case errors.Is(err, gateway.ErrAuthRequired):
		s.notifier.Notify(i18n.T(s.lang(), i18n.KeyAuthRequired))
		s.cache.Clear()
		return true
	case errors.Is(err, gateway.ErrUnauthorized):
		s.notifier.Notify(i18n.T(s.lang(), i18n.KeyUnauthorized))
		return true
	default:
		return false
	}
}

// notifyMutationError localizes well-known mutation failures. The error
// is always returned to the caller.
func (s *VaultService) notifyMutationError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gateway.ErrAuthRequired):
		s.notifier.Notify(i18n.T(s.lang(), i18n.KeyAuthRequired))
		s.cache.Clear()
	case errors.Is(err, gateway.ErrUnauthorized):
		s.notifier.Notify(i18n.T(s.lang(), i18n.KeyUnauthorized))
	case errors.Is(err, gateway.ErrNotImplemented):
		s.notifier.Notify(i18n.T(s.lang(), i18n.KeyFeatureComingSoon))
	}
	return err
}

func (s *VaultService) Profile(ctx context.Context) (*gateway.Profile, error) {
	p, err := s.profile.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return nil, nil
	}
	return p, err
}

func (s *VaultService) LanguagePreference(ctx context.Context) (string, error) {
	lang, err := s.language.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return "", nil
	}
	return lang, err
}

func (s *VaultService) IsAdmin(ctx context.Context) (bool, error) {
	admin, err := s.isAdmin.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return false, nil
	}
	return admin, err
}

func (s *VaultService) Photos(ctx context.Context) ([]gateway.MediaItem, error) {
	items, err := s.photos.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return nil, nil
	}
	return items, err
}

func (s *VaultService) Videos(ctx context.Context) ([]gateway.MediaItem, error) {
	items, err := s.videos.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return nil, nil
	}
	return items, err
}

// Documents and Memories have no backing storage yet; the lists are
// always empty and never touch the network.
func (s *VaultService) Documents(_ context.Context) ([]gateway.MediaItem, error) {
	return []gateway.MediaItem{}, nil
}

func (s *VaultService) Memories(_ context.Context) ([]gateway.MediaItem, error) {
	return []gateway.MediaItem{}, nil
}

func (s *VaultService) StorageMetrics(ctx context.Context) (quota.Snapshot, error) {
	snap, err := s.metrics.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return quota.Snapshot{}, nil
	}
	return snap, err
}

func (s *VaultService) UserCount(ctx context.Context) (int64, error) {
	n, err := s.userCount.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return 0, nil
	}
	return n, err
}

func (s *VaultService) StorageUnitCount(ctx context.Context) (int64, error) {
	n, err := s.storageUnits.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return 0, nil
	}
	return n, err
}

func (s *VaultService) AdminStorageSummary(ctx context.Context) (*gateway.StorageSummary, error) {
	sum, err := s.adminSummary.Get(ctx)
	if err != nil && s.handleReadError(ctx, err) {
		return nil, nil
	}
	return sum, err
}

func (s *VaultService) SaveProfile(ctx context.Context, p gateway.Profile) error {
	if err := s.gw.SaveProfile(ctx, p); err != nil {
		return s.notifyMutationError(ctx, err)
	}
	s.cache.InvalidateResource(ResourceProfile)
	s.cache.InvalidateResource(ResourceLanguage)
	return nil
}

func (s *VaultService) UpdateProfilePicture(ctx context.Context, req gateway.UploadRequest) (string, error) {
	url, err := s.gw.UpdateProfilePicture(ctx, req.Content, req.ContentType)
	if err != nil {
		return "", s.notifyMutationError(ctx, err)
	}
	s.cache.InvalidateResource(ResourceProfile)
	return url, nil
}

// maxUploadBytes is the per-file cap for one kind. Photos carry the
// tighter default.
func maxUploadBytes(kind gateway.MediaKind) int64 {
	if kind == gateway.KindVideo {
		return quota.MaxVideoFileBytes
	}
	return quota.MaxPhotoFileBytes
}

// ValidateUpload applies the client-side checks before any bytes go
// over the wire: non-empty name and the per-kind file size cap. The
// size message cites the actual file size.
func (s *VaultService) ValidateUpload(kind gateway.MediaKind, filename string, size int64) error {
	if filename == "" {
		return errors.New(i18n.T(s.lang(), i18n.KeyNameRequired))
	}
	if limit := maxUploadBytes(kind); size > limit {
		return fmt.Errorf("%s", i18n.T(s.lang(), i18n.KeyFileTooLarge,
			formatBytes(size), formatBytes(limit)))
	}
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func (s *VaultService) invalidateAfterMediaChange(kind gateway.MediaKind) {
	switch kind {
	case gateway.KindPhoto:
		s.cache.InvalidateResource(ResourcePhotos)
	case gateway.KindVideo:
		s.cache.InvalidateResource(ResourceVideos)
	}
	s.cache.InvalidateResource(ResourceStorageMetrics)
	s.cache.InvalidateResource(ResourceStorageUnits)
	s.cache.InvalidateResource(ResourceAdminSummary)
}

func (s *VaultService) UploadMedia(ctx context.Context, req gateway.UploadRequest) (int64, error) {
	if req.Kind == gateway.KindDocument || req.Kind == gateway.KindMemory {
		return 0, s.notifyMutationError(ctx, gateway.ErrNotImplemented)
	}

	id, err := s.gw.UploadMedia(ctx, req)
	if err != nil {
		return 0, s.notifyMutationError(ctx, err)
	}
	s.invalidateAfterMediaChange(req.Kind)
	return id, nil
}

func (s *VaultService) UploadMediaBulk(ctx context.Context, reqs []gateway.UploadRequest) (*gateway.BulkUploadResult, error) {
	if len(reqs) == 0 {
		return &gateway.BulkUploadResult{Message: "nothing to upload"}, nil
	}
	if reqs[0].Kind == gateway.KindDocument || reqs[0].Kind == gateway.KindMemory {
		return nil, s.notifyMutationError(ctx, gateway.ErrNotImplemented)
	}

	res, err := s.gw.UploadMediaBulk(ctx, reqs)
	if err != nil {
		return nil, s.notifyMutationError(ctx, err)
	}
	if res.SuccessCount > 0 {
		s.invalidateAfterMediaChange(reqs[0].Kind)
	}
	return res, nil
}

func (s *VaultService) DeleteMedia(ctx context.Context, kind gateway.MediaKind, id int64) error {
	if kind == gateway.KindDocument || kind == gateway.KindMemory {
		return s.notifyMutationError(ctx, gateway.ErrNotImplemented)
	}

	if err := s.gw.DeleteMedia(ctx, kind, id); err != nil {
		return s.notifyMutationError(ctx, err)
	}
	s.invalidateAfterMediaChange(kind)
	return nil
}

func (s *VaultService) GetMediaMetadata(ctx context.Context, kind gateway.MediaKind, id int64) (*gateway.MediaItem, error) {
	item, err := s.gw.GetMediaMetadata(ctx, kind, id)
	if err != nil {
		return nil, s.notifyMutationError(ctx, err)
	}
	return item, nil
}

func (s *VaultService) AssignRole(ctx context.Context, principal, role string) error {
	if err := s.gw.AssignRole(ctx, principal, role); err != nil {
		return s.notifyMutationError(ctx, err)
	}
	s.cache.InvalidateResource(ResourceIsAdmin)
	s.cache.InvalidateResource(ResourceUserCount)
	return nil
}

func (s *VaultService) StorageSummaryFor(ctx context.Context, principal string) (*gateway.StorageSummary, error) {
	sum, err := s.gw.StorageSummaryFor(ctx, principal)
	if err != nil {
		return nil, s.notifyMutationError(ctx, err)
	}
	return sum, nil
}
