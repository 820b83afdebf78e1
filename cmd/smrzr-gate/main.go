package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/summarizer/internal/config"
	"github.com/danmuck/summarizer/internal/gateway"
	"github.com/danmuck/summarizer/internal/logging"
)

func main() {
	path := flag.String("config", "cmd/smrzr-gate/config.toml", "gateway config path")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintf(os.Stderr, "smrzr-gate: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	opts := cfg.LoggingOptions(logging.DefaultOptions(logging.ProfileRuntime))
	opts.App = "smrzr-gate"
	logging.Configure(opts)

	g, err := gateway.New(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.Run(ctx)
}
