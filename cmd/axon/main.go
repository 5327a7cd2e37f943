// Package main provides the axon CLI.
//
// Usage:
//
//	axon <command> [options]
//
// Commands:
//
//	version    Show version
//	models     List built-in models
//	gen-data   Write a synthetic dataset for a model
//	train      Train a model and save its parameters
//	export     Generate source code for a model
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err == nil {
		return
	}

	code := 1
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(os.Stderr, "axon:", msg)
	}
	os.Exit(code)
}
