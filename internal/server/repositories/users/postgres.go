package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

func (r *PostgresRepository) Add(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`,
		username)
	return scanUser(row)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, name, pin, picture_key, language FROM profiles WHERE user_id = $1`,
		userID)

	var p models.Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Pin, &p.PictureKey, &p.Language)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) SaveProfile(ctx context.Context, profile *models.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, pin, picture_key, language)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			pin = excluded.pin,
			picture_key = excluded.picture_key,
			language = excluded.language`,
		profile.UserID, profile.Name, profile.Pin, profile.PictureKey, profile.Language)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateLanguage(ctx context.Context, userID string, language string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET language = $1 WHERE user_id = $2`, language, userID)
	if err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) UpdatePicture(ctx context.Context, userID string, pictureKey string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET picture_key = $1 WHERE user_id = $2`, pictureKey, userID)
	if err != nil {
		return fmt.Errorf("update picture: %w", err)
	}
	return requireRowAffected(res)
}

func (r *PostgresRepository) UpdatePin(ctx context.Context, userID string, pin string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET pin = $1 WHERE user_id = $2`, pin, userID)
	if err != nil {
		return fmt.Errorf("update pin: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
