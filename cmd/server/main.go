package main

import (
	"context"
	"log"

	"github.com/akgupta-cs/mediavault/internal/server"
	"github.com/akgupta-cs/mediavault/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		log.Printf("config error: %v", err)
		return
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
