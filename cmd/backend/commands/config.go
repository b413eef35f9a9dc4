package commands

import (
	"fmt"
	"os"

	"github.com/biodoia/contentforge/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigCmd rappresenta il comando config
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage ContentForge configuration files.

This command allows you to view, validate, and generate configuration
files for the backend.`,
	Example: `  # Show current configuration
  contentforge config show

  # Validate configuration file
  contentforge config validate -c config.yaml

  # Generate template configuration
  contentforge config generate -o config.yaml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the currently loaded configuration with all values.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and semantic errors.`,
	RunE:  runConfigValidate,
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate template configuration",
	Long:  `Generate a template configuration file with all available options.`,
	RunE:  runConfigGenerate,
}

var configOutput string

func init() {
	configGenerateCmd.Flags().StringVarP(&configOutput, "output", "o", "", "Output file path (stdout if not specified)")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configGenerateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// La API key non va stampata in chiaro
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "***"
	}
	if cfg.Search.APIKey != "" {
		cfg.Search.APIKey = "***"
	}
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = "***"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Println("✓ Configuration is valid")
	return nil
}

func runConfigGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if configOutput == "" {
		fmt.Print(string(data))
		return nil
	}

	if err := os.WriteFile(configOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("✓ Configuration template written to %s\n", configOutput)
	return nil
}
