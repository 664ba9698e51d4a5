// Command app serves the summarizer form page and its JSON API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("summarizer: wiring failed: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("summarizer: server stopped: %v", err)
	}
}
