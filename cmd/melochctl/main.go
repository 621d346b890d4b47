package main

import (
	"context"
	"os"
	"os/signal"

	"meloch/internal/commands"
	"meloch/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		logger.Sync()
		os.Exit(1)
	}
}
