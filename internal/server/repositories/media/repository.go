// Package media persists photo and video metadata. Payloads live in
// object storage; only keys and sizes are stored here.
package media

import (
	"context"

	"github.com/akgupta-cs/mediavault/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, item *models.MediaItem) (int64, error)
	Get(ctx context.Context, id int64) (*models.MediaItem, error)
	Delete(ctx context.Context, id int64) error
	ListByOwnerKind(ctx context.Context, ownerID string, kind models.MediaKind) ([]models.MediaItem, error)
	ListByKind(ctx context.Context, kind models.MediaKind) ([]models.MediaItem, error)

	// SumSizeByOwnerKind totals stored bytes of one user's category.
	SumSizeByOwnerKind(ctx context.Context, ownerID string, kind models.MediaKind) (int64, error)
	// CountAll is the number of stored objects across all users.
	CountAll(ctx context.Context) (int64, error)
	// SummaryAll aggregates bytes per category across all users.
	SummaryAll(ctx context.Context) (*models.StorageSummary, error)
	// SummaryByOwner aggregates bytes per category for one user.
	SummaryByOwner(ctx context.Context, ownerID string) (*models.StorageSummary, error)
}
