package services

import (
	"context"
	"errors"
	"time"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/cache"
	"github.com/akgupta-cs/mediavault/internal/server/models"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/repomanager"
)

const (
	cacheKeyUserCount    = "admin:user-count"
	cacheKeyStorageUnits = "admin:storage-units"
	cacheKeySummaryAll   = "admin:summary:all"

	cacheKeySummaryOwnerPrefix = "admin:summary:"
)

// AdminService answers the admin dashboard queries. The aggregate
// scans are cached for a short TTL and dropped on every media write.
type AdminService struct {
	rm       repomanager.RepositoryManager
	cache    cache.Cache
	cacheTTL time.Duration
	log      logging.Logger
}

func NewAdminService(rm repomanager.RepositoryManager, c cache.Cache, cacheTTL time.Duration, log logging.Logger) *AdminService {
	return &AdminService{rm: rm, cache: c, cacheTTL: cacheTTL, log: log}
}

func (s *AdminService) requireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.rm.Users().GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin {
		return common.ErrUnauthorized
	}
	return nil
}

// IsAdmin reports whether the caller holds the admin role.
func (s *AdminService) IsAdmin(ctx context.Context, callerID string) (bool, error) {
	caller, err := s.rm.Users().GetByID(ctx, callerID)
	if err != nil {
		return false, err
	}
	return caller.Role == models.RoleAdmin, nil
}

// Role returns the caller's role.
func (s *AdminService) Role(ctx context.Context, callerID string) (string, error) {
	caller, err := s.rm.Users().GetByID(ctx, callerID)
	if err != nil {
		return "", err
	}
	return caller.Role, nil
}

// UserCount is the total number of registered accounts.
func (s *AdminService) UserCount(ctx context.Context, callerID string) (int64, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return 0, err
	}

	var count int64
	if err := s.cache.GetJSON(ctx, cacheKeyUserCount, &count); err == nil {
		return count, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn(ctx, "admin cache read failed", "error", err)
	}

	count, err := s.rm.Users().Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetJSON(ctx, cacheKeyUserCount, count, s.cacheTTL); err != nil {
		s.log.Warn(ctx, "admin cache write failed", "error", err)
	}
	return count, nil
}

// StorageUnitCount is the number of stored objects across every user.
func (s *AdminService) StorageUnitCount(ctx context.Context, callerID string) (int64, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return 0, err
	}

	var count int64
	if err := s.cache.GetJSON(ctx, cacheKeyStorageUnits, &count); err == nil {
		return count, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn(ctx, "admin cache read failed", "error", err)
	}

	count, err := s.rm.Media().CountAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetJSON(ctx, cacheKeyStorageUnits, count, s.cacheTTL); err != nil {
		s.log.Warn(ctx, "admin cache write failed", "error", err)
	}
	return count, nil
}

// SummaryAll aggregates stored bytes per category across every user.
func (s *AdminService) SummaryAll(ctx context.Context, callerID string) (*models.StorageSummary, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	var summary models.StorageSummary
	if err := s.cache.GetJSON(ctx, cacheKeySummaryAll, &summary); err == nil {
		return &summary, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn(ctx, "admin cache read failed", "error", err)
	}

	fresh, err := s.rm.Media().SummaryAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, cacheKeySummaryAll, fresh, s.cacheTTL); err != nil {
		s.log.Warn(ctx, "admin cache write failed", "error", err)
	}
	return fresh, nil
}

// SummaryFor aggregates one user's stored bytes per category.
func (s *AdminService) SummaryFor(ctx context.Context, callerID, targetID string) (*models.StorageSummary, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	key := cacheKeySummaryOwnerPrefix + targetID
	var summary models.StorageSummary
	if err := s.cache.GetJSON(ctx, key, &summary); err == nil {
		return &summary, nil
	}

	fresh, err := s.rm.Media().SummaryByOwner(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, fresh, s.cacheTTL); err != nil {
		s.log.Warn(ctx, "admin cache write failed", "error", err)
	}
	return fresh, nil
}

// InvalidateAggregates drops the cached counts and summaries. Per-user
// summaries expire via their TTL.
func (s *AdminService) InvalidateAggregates(ctx context.Context) {
	if err := s.cache.Delete(ctx, cacheKeyUserCount, cacheKeyStorageUnits, cacheKeySummaryAll); err != nil {
		s.log.Warn(ctx, "admin cache invalidation failed", "error", err)
	}
}
