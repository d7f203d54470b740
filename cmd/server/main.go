package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"taskhub/internal/app"
)

func main() {
	configPath := flag.String("c", "", "path to YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, *configPath); err != nil {
		log.Fatalf("[main] %v", err)
	}
}
