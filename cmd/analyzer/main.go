// Command analyzer runs the document requirement-analysis pipeline: a
// document parser, content analyzer, and AI architect planner chained by
// a stage orchestrator, fronted by a task registry/progress hub and a
// reconnect-safe session binder.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analyzer",
		Short: "Document requirement-analysis pipeline",
		Long: `analyzer turns an uploaded requirements document into a structured
system-architecture design, in three stages: document parsing, content
analysis, and AI-driven architecture planning.`,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults if omitted/missing)")
	root.AddCommand(serveCmd(), runCmd(), initConfigCmd())
	return root
}
