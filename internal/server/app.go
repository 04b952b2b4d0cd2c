// Package server wires the storage, cache and service layers together
// and runs the HTTP API until interrupted.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/blobstore"
	"github.com/akgupta-cs/mediavault/internal/server/cache"
	"github.com/akgupta-cs/mediavault/internal/server/config"
	"github.com/akgupta-cs/mediavault/internal/server/httpapi"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/repomanager"
	"github.com/akgupta-cs/mediavault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	rm     repomanager.RepositoryManager
	api    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if cfg.SecretKey == "" {
		return nil, errors.New("secret key is not configured")
	}

	rm, err := repomanager.NewPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PresignTTL:      cfg.PresignTTL.Duration,
	})
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var aggregateCache cache.Cache
	if cfg.RedisAddr != "" {
		aggregateCache = cache.NewRedisCache(cfg.RedisAddr)
	} else {
		aggregateCache = cache.NewMemoryCache()
	}

	users := services.NewUserService(rm, cfg.SecretKey,
		cfg.AccessTokenDuration.Duration, cfg.RefreshTokenDuration.Duration, logger)
	profiles := services.NewProfileService(rm, blobs, logger)
	admin := services.NewAdminService(rm, aggregateCache, cfg.AdminCacheTTL.Duration, logger)
	media := services.NewMediaService(rm, blobs, admin, logger)

	api := httpapi.NewServer(users, profiles, media, admin, logger)

	return &App{config: cfg, logger: logger, rm: rm, api: api}, nil
}

func (app *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "starting server", "addr", app.config.Addr)
	app.initSignalHandler(cancel)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.api.Router(),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server stopped", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown failed", "error", err)
	}

	wg.Wait()

	if err := app.rm.Close(); err != nil {
		app.logger.Error(ctx, "closing database failed", "error", err)
	}
	app.logger.Info(ctx, "server stopped")
}
