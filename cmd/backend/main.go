package main

import (
	"fmt"
	"os"

	"github.com/biodoia/contentforge/cmd/backend/commands"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "contentforge",
		Short: "ContentForge - AI blog content generation backend",
		Long: `ContentForge - Agent-pipeline blog content generation backend

An HTTP backend that generates blog posts through a sequential
agent pipeline (researcher -> writer -> editor) backed by a
configurable LLM provider, and persists results to a database.

Features:
  • Three-stage editorial agent pipeline
  • OpenAI and Anthropic provider support
  • Optional web research via Serper
  • Best-effort persistence with PostgreSQL or SQLite
  • Redis result cache and Prometheus metrics`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.MigrateCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.DoctorCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ContentForge version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
