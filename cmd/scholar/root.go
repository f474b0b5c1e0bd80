package main

import (
	"github.com/spf13/cobra"

	"github.com/Malay-RB/Document-parsing/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	sandbox      bool
)

var rootCmd = &cobra.Command{
	Use:   "scholar",
	Short: "Chapter-aware content extraction from scanned textbooks",
	Long: `Scholar turns scanned textbook PDFs into structured, chapter-aware JSON.

A run has three phases:
  - Scout: find the table of contents on the first pages
  - Sync: buffer TOC pages until the first chapter title reappears
  - Scholar: extract text, equations, figures and tables page by page,
    resolving printed page numbers and tagging each block with its chapter`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.scholar/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "scholar home directory (default: ~/.scholar)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVar(
		&sandbox, "sandbox", false, "read and write under the sandbox roots",
	)

	rootCmd.AddCommand(versionCmd)
}
