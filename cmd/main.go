// Package main is the production entry point for the music app.
//
// Build:
//
//	go build -o build/musicapp ./cmd
//
// Run the desktop window:
//
//	./build/musicapp
//
// Or a terminal command:
//
//	./build/musicapp catalog list --genre pop
//	./build/musicapp play "night drive" --once
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/formleszs/music-app/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
