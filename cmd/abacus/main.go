// Package main is the abacus command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{out: os.Stdout}).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
