package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/petasbytes/go-assistant/internal/cli"
)

func main() {
	// Ctrl-C (SIGINT) / SIGTERM cancel in-flight runs and end the chat loop.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
