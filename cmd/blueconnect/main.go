package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/systmms/blueconnect/cmd/blueconnect/commands"
	"github.com/systmms/blueconnect/internal/config"
	bcerrors "github.com/systmms/blueconnect/internal/errors"
	"github.com/systmms/blueconnect/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", bcerrors.Explain(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	rootCmd := commands.NewRootCommand(cfg, fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	return rootCmd.ExecuteContext(ctx)
}
