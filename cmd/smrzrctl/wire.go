package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/protocol/stream"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var (
		file  string
		ratio float32
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the hex wire form of a summarize request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := protocol.EncodeRequest(protocol.Request{FileName: []byte(file), Ratio: ratio})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(raw))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "file name sent to the daemon")
	cmd.Flags().Float32Var(&ratio, "ratio", protocol.DefaultRatio, "summary ratio in percent")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var atEOF bool
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a response header from hex bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(strings.Join(strings.Fields(args[0]), ""))
			if err != nil {
				return fmt.Errorf("decode hex: %w", err)
			}
			v := stream.View{Data: raw, Last: len(raw)}
			decode := protocol.DecodeResponseHeader
			if atEOF {
				decode = protocol.DecodeResponseHeaderAtEOF
			}

			out := cmd.OutOrStdout()
			h, err := decode(v)
			switch {
			case errors.Is(err, protocol.ErrNeedMoreData):
				fmt.Fprintf(out, "need_more_data have=%d want=%d\n", len(raw), protocol.MinHeaderLen)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "status=%s size=%d", h.Status, h.Size)
			if n, ok := h.Summary(); ok {
				fmt.Fprintf(out, " summary_length=%d", n)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&atEOF, "eof", false, "treat the bytes as everything the daemon sent")
	return cmd
}
