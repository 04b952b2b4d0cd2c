// Package repomanager owns the database handle and hands out typed
// repositories sharing it.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/akgupta-cs/mediavault/internal/dbx"
	"github.com/akgupta-cs/mediavault/internal/server/migrations"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/media"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/refreshtokens"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/users"
)

// Repositories groups the typed repositories over one handle, either
// the shared pool or a single transaction.
type Repositories struct {
	Users         users.Repository
	Media         media.Repository
	RefreshTokens refreshtokens.Repository
}

type RepositoryManager interface {
	Users() users.Repository
	Media() media.Repository
	RefreshTokens() refreshtokens.Repository
	// InTx runs fn with transaction-scoped repositories, committing on
	// success.
	InTx(ctx context.Context, fn func(r Repositories) error) error
	DB() *sql.DB
	Close() error
}

type PostgresRepositoryManager struct {
	db            *sql.DB
	users         users.Repository
	media         media.Repository
	refreshTokens refreshtokens.Repository
}

var _ RepositoryManager = (*PostgresRepositoryManager)(nil)

// NewPostgres connects, applies pending migrations and builds the
// repositories.
func NewPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &PostgresRepositoryManager{
		db:            db,
		users:         users.NewPostgresRepository(db),
		media:         media.NewPostgresRepository(db),
		refreshTokens: refreshtokens.NewPostgresRepository(db),
	}, nil
}

func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(Repositories{
			Users:         users.NewPostgresRepository(tx),
			Media:         media.NewPostgresRepository(tx),
			RefreshTokens: refreshtokens.NewPostgresRepository(tx),
		})
	})
}

func (m *PostgresRepositoryManager) Users() users.Repository                 { return m.users }
func (m *PostgresRepositoryManager) Media() media.Repository                 { return m.media }
func (m *PostgresRepositoryManager) RefreshTokens() refreshtokens.Repository { return m.refreshTokens }
func (m *PostgresRepositoryManager) DB() *sql.DB                             { return m.db }
func (m *PostgresRepositoryManager) Close() error                            { return m.db.Close() }
