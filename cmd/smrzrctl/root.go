package main

import (
	"fmt"
	"os"

	"github.com/danmuck/summarizer/internal/logging"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	LogLevel string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags
	root := &cobra.Command{
		Use:           "smrzrctl",
		Short:         "Operator tool for summarizer daemons and gateway configs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts := logging.DefaultOptions(logging.ProfileRuntime)
			opts.App = "smrzrctl"
			opts.Timestamp = false
			opts.Output = cmd.ErrOrStderr()
			if flags.LogLevel != "" {
				lvl, ok := logging.ParseLevel(flags.LogLevel)
				if !ok {
					return fmt.Errorf("unknown log level %q", flags.LogLevel)
				}
				opts.Level = lvl
			}
			logging.Configure(opts)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "warn", "log level: trace|debug|info|warn|error|off")

	root.AddCommand(newEncodeCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "smrzrctl: %v\n", err)
		os.Exit(1)
	}
}
