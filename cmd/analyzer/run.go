package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sharoA/document-analyzer-sub000/internal/config"
	"github.com/sharoA/document-analyzer-sub000/internal/taskmodel"
)

func runCmd() *cobra.Command {
	var manual bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run the full pipeline against one local file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], manual)
		},
	}
	cmd.Flags().BoolVar(&manual, "manual", false, "run stages one at a time instead of chaining automatically")
	return cmd
}

func runFile(path string, manual bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	mode := taskmodel.ModeAutomatic
	if manual {
		mode = taskmodel.ModeManual
	}

	ctx := context.Background()
	fileName := filepath.Base(path)
	fileType := filepath.Ext(fileName)
	task, err := a.hub.CreateTask(ctx, fileName, info.Size(), fileType, path, mode)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	fmt.Fprintf(os.Stderr, "task %s created (mode=%s)\n", task.TaskID, mode)

	if manual {
		for _, stage := range taskmodel.Stages {
			fmt.Fprintf(os.Stderr, "running stage %s...\n", stage)
			if err := a.orchestrator.RunStage(ctx, task.TaskID, stage); err != nil {
				return fmt.Errorf("stage %s failed: %w", stage, err)
			}
		}
	} else if err := a.orchestrator.RunAll(ctx, task.TaskID); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	got, err := a.hub.Get(ctx, task.TaskID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(got)
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
