package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hexblog/hexblog/cmd"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, version); err != nil {
		os.Exit(1)
	}
}
