package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/akgupta-cs/mediavault/internal/buildinfo"
	"github.com/akgupta-cs/mediavault/internal/client/cli"
	"github.com/akgupta-cs/mediavault/internal/client/config"
	"github.com/akgupta-cs/mediavault/internal/client/prefs"
	"github.com/akgupta-cs/mediavault/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := prefs.OpenDB(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("opening settings store: %v", err)
	}
	defer db.Close()

	kv := prefs.NewSqliteKV(db)
	if err := kv.Init(ctx); err != nil {
		log.Fatalf("initializing settings store: %v", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app := cli.New(cfg, kv, os.Stdout, logger)
	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
