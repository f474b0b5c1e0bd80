package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Malay-RB/Document-parsing/internal/config"
	"github.com/Malay-RB/Document-parsing/internal/home"
)

var (
	initPath  string
	initForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to ~/.scholar/config.yaml, or to --path.

Examples:
  scholar config init
  scholar config init --path ./config.yaml --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := initPath
		if path == "" {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

// setting is one row of `config show`.
type setting struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Default     any    `json:"default" yaml:"default"`
	Description string `json:"description" yaml:"description"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with defaults and descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		cm, err := loadConfig(h)
		if err != nil {
			return err
		}

		entries := config.DefaultEntries()
		rows := make([]setting, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, setting{
				Key:         e.Key,
				Value:       cm.Value(e.Key),
				Default:     e.Value,
				Description: e.Description,
			})
		}
		if f := cm.ConfigFile(); f != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "# config file: %s\n", f)
		}
		return printResult(cmd, rows)
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initPath, "path", "", "destination (default: <home>/config.yaml)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
