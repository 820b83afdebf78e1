package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/upstream"
	"github.com/spf13/cobra"
)

type summarizeFlags struct {
	servers      []string
	file         string
	ratio        float32
	timeout      time.Duration
	nextUpstream []string
}

func newSummarizeCmd() *cobra.Command {
	var flags summarizeFlags
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Run one summarize exchange against daemon servers and print the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
	cmd.Flags().StringSliceVar(&flags.servers, "server", []string{"127.0.0.1:9400"}, "daemon address, host:port or unix:/path (repeatable)")
	cmd.Flags().StringVar(&flags.file, "file", "", "file name sent to the daemon")
	cmd.Flags().Float32Var(&flags.ratio, "ratio", protocol.DefaultRatio, "summary ratio in percent")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "connect, send and read timeout")
	cmd.Flags().StringSliceVar(&flags.nextUpstream, "next-upstream", []string{"error", "timeout"}, "failures that move on to the next server")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSummarize(ctx context.Context, out io.Writer, flags summarizeFlags) error {
	servers := make([]upstream.Server, 0, len(flags.servers))
	for _, raw := range flags.servers {
		srv, err := upstream.ParseServer(raw)
		if err != nil {
			return err
		}
		servers = append(servers, srv)
	}
	mask, err := upstream.ParseNextUpstream(flags.nextUpstream)
	if err != nil {
		return err
	}

	cfg := upstream.DefaultConfig()
	cfg.ConnectTimeout = flags.timeout
	cfg.SendTimeout = flags.timeout
	cfg.ReadTimeout = flags.timeout
	cfg.NextUpstream = mask
	client, err := upstream.NewClient("cli", servers, cfg)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := client.Summarize(ctx, protocol.Request{FileName: []byte(flags.file), Ratio: flags.ratio})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.Status != protocol.StatusSummary {
		return fmt.Errorf("daemon %s answered %s", resp.Server, resp.Status)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("read summary: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}
