// Package main implements the ziptz CLI, a live clock for the time zone of a US ZIP code.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var failed *queryError
	if !errors.As(err, &failed) {
		fmt.Fprintln(os.Stderr, "ziptz:", err)
	}
	os.Exit(1)
}
