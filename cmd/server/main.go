package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/virtu333/rogue-emblem-sub003/internal/app"
	"github.com/virtu333/rogue-emblem-sub003/internal/config"
)

func main() {
	cfg, err := config.ParseEnv()
	if err != nil {
		log.Fatalf("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
