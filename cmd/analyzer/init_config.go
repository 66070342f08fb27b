package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/sharoA/document-analyzer-sub000/internal/config"
)

func initConfigCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config.toml to the given path",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			return toml.NewEncoder(f).Encode(config.Default())
		},
	}
	cmd.Flags().StringVar(&out, "out", "config.toml", "output path")
	return cmd
}
