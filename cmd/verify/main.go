// Package main audits the event journal's hash chains and signatures.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	verifycmd "github.com/louisbranch/galley/internal/cmd/verify"
	"github.com/louisbranch/galley/internal/platform/config"
)

func main() {
	cfg, err := verifycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := verifycmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
