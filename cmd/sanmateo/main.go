package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"covid19-scrapers/cmd/sanmateo/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(commands.ExecuteContext(ctx))
}
