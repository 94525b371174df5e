// Package main exports a kitchen's journal as a signed transfer document.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	exportcmd "github.com/louisbranch/galley/internal/cmd/export"
	"github.com/louisbranch/galley/internal/platform/config"
)

func main() {
	cfg, err := exportcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := exportcmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
