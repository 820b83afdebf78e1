package main

import (
	"fmt"

	"github.com/danmuck/summarizer/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate, validate and inspect gateway configs",
	}

	var (
		output string
		force  bool
	)
	template := &cobra.Command{
		Use:   "template",
		Short: "Print a starter config, or write it with --output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), config.Template())
				return nil
			}
			if err := config.WriteTemplate(output, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	template.Flags().StringVar(&output, "output", "", "write the template to this path")
	template.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validate := &cobra.Command{
		Use:   "validate <path>",
		Short: "Load and validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d upstreams, %d locations\n", len(cfg.Upstreams), len(cfg.Locations))
			return nil
		},
	}

	effective := &cobra.Command{
		Use:   "effective <path>",
		Short: "Print the config with every location's inherited directives resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			data, err := config.Render(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(template, validate, effective)
	return cmd
}
