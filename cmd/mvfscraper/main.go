package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// A signal stops the scheduler between attempts; an attempt in flight finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx)
	stop()
	os.Exit(code)
}
