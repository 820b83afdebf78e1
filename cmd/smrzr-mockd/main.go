package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/summarizer/internal/daemon"
	"github.com/danmuck/summarizer/internal/logging"
	"github.com/danmuck/summarizer/internal/upstream"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:9400", "listen address, host:port or unix:/path")
	root := flag.String("root", ".", "directory served to summarize requests")
	ioTimeout := flag.Duration("io-timeout", 30*time.Second, "per-connection read/write deadline")
	flag.Parse()

	logging.Configure(func() logging.Options {
		opts := logging.DefaultOptions(logging.ProfileRuntime)
		opts.App = "smrzr-mockd"
		return opts
	}())

	if err := run(*listen, *root, *ioTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "smrzr-mockd: %v\n", err)
		os.Exit(1)
	}
}

func run(listen, root string, ioTimeout time.Duration) error {
	srv, err := upstream.ParseServer(listen)
	if err != nil {
		return err
	}
	cfg := daemon.DefaultConfig()
	cfg.Network = srv.Network
	cfg.Addr = srv.Addr
	cfg.IOTimeout = ioTimeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return daemon.NewServer(cfg, daemon.FileSummarizer{Root: root}).Serve(ctx)
}
