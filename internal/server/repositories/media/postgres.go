package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/dbx"
	"github.com/akgupta-cs/mediavault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, item *models.MediaItem) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO media (owner_id, kind, filename, content_type, file_size, storage_key, duration_seconds, thumbnail_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		item.OwnerID, item.Kind, item.Filename, item.ContentType, item.FileSize,
		item.StorageKey, item.DurationSeconds, item.ThumbnailKey)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("add media: %w", err)
	}
	return id, nil
}

const selectColumns = `id, owner_id, kind, filename, content_type, file_size, storage_key, duration_seconds, thumbnail_key, upload_date`

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.MediaItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM media WHERE id = $1`, id)

	var item models.MediaItem
	err := row.Scan(&item.ID, &item.OwnerID, &item.Kind, &item.Filename, &item.ContentType,
		&item.FileSize, &item.StorageKey, &item.DurationSeconds, &item.ThumbnailKey, &item.UploadDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByOwnerKind(ctx context.Context, ownerID string, kind models.MediaKind) ([]models.MediaItem, error) {
	return r.list(ctx,
		`SELECT `+selectColumns+` FROM media WHERE owner_id = $1 AND kind = $2 ORDER BY upload_date DESC`,
		ownerID, kind)
}

func (r *PostgresRepository) ListByKind(ctx context.Context, kind models.MediaKind) ([]models.MediaItem, error) {
	return r.list(ctx,
		`SELECT `+selectColumns+` FROM media WHERE kind = $1 ORDER BY upload_date DESC`,
		kind)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	items := make([]models.MediaItem, 0)
	for rows.Next() {
		var item models.MediaItem
		err := rows.Scan(&item.ID, &item.OwnerID, &item.Kind, &item.Filename, &item.ContentType,
			&item.FileSize, &item.StorageKey, &item.DurationSeconds, &item.ThumbnailKey, &item.UploadDate)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) SumSizeByOwnerKind(ctx context.Context, ownerID string, kind models.MediaKind) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(file_size), 0) FROM media WHERE owner_id = $1 AND kind = $2`,
		ownerID, kind).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum media size: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) SummaryAll(ctx context.Context) (*models.StorageSummary, error) {
	return r.summary(ctx,
		`SELECT kind, COALESCE(SUM(file_size), 0) FROM media GROUP BY kind`)
}

func (r *PostgresRepository) SummaryByOwner(ctx context.Context, ownerID string) (*models.StorageSummary, error) {
	return r.summary(ctx,
		`SELECT kind, COALESCE(SUM(file_size), 0) FROM media WHERE owner_id = $1 GROUP BY kind`,
		ownerID)
}

func (r *PostgresRepository) summary(ctx context.Context, query string, args ...any) (*models.StorageSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage summary: %w", err)
	}
	defer rows.Close()

	var s models.StorageSummary
	for rows.Next() {
		var kind models.MediaKind
		var total int64
		if err := rows.Scan(&kind, &total); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		switch kind {
		case models.KindPhoto:
			s.TotalPhotosBytes = total
		case models.KindVideo:
			s.TotalVideosBytes = total
		case models.KindDocument:
			s.TotalDocumentsBytes = total
		case models.KindMemory:
			s.TotalMemoriesBytes = total
		}
	}
	return &s, rows.Err()
}
