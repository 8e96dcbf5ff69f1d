// Package cmd contains the CLI command definitions for jiaz.
package cmd

import (
	"github.com/spf13/cobra"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

// NewRootCmd creates the root command for the jiaz CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jiaz",
		Short: "JIRA analysis assistant",
		Long: `jiaz queries a JIRA server and reshapes issue and sprint data into
tables, CSV or JSON. It can ask a language model (Gemini, falling back to a
local Ollama server) to summarize an issue's progress or to rewrite its
description in a standard layout.

Connection details live in named configuration blocks in ~/.jiaz/config.toml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			apperrors.SetVerbose(verbose)
			apperrors.Debug("jiaz %s run %s", version, apperrors.RunID())
		},
	}

	rootCmd.SetVersionTemplate(`jiaz {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().String("config-file", "", "Config file path (default: ~/.jiaz/config.toml)")
	rootCmd.PersistentFlags().String("settings", "", "Runtime settings file (default: ~/.jiaz/settings.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colors and terminal hyperlinks")

	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())

	return rootCmd
}
