package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/biodoia/contentforge/pkg/cache"
	"github.com/biodoia/contentforge/pkg/config"
	"github.com/spf13/cobra"
)

// DoctorCmd rappresenta il comando doctor
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health diagnostics",
	Long: `Run health checks on the ContentForge system.

This command checks database connectivity, Redis connection, and
the configured LLM provider to identify issues before serving.`,
	Example: `  # Run full diagnostic
  contentforge doctor

  # Check only database
  contentforge doctor --check database`,
	RunE: runDoctor,
}

var doctorCheck string

func init() {
	DoctorCmd.Flags().StringVar(&doctorCheck, "check", "", "Run specific check (database, redis, llm)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("ContentForge System Health Check")
	fmt.Println("================================")
	fmt.Println()

	checks := []struct {
		name string
		fn   func(*cobra.Command) error
	}{
		{"database", checkDatabase},
		{"redis", checkRedis},
		{"llm", checkLLM},
	}

	if doctorCheck != "" {
		for _, c := range checks {
			if c.name == doctorCheck {
				return c.fn(cmd)
			}
		}
		return fmt.Errorf("unknown check: %s", doctorCheck)
	}

	results := make(map[string]bool)
	for _, c := range checks {
		err := c.fn(cmd)
		results[c.name] = err == nil
		fmt.Println()
	}

	fmt.Println("Summary")
	fmt.Println("-------")
	allPassed := true
	for _, c := range checks {
		status := "✓ PASS"
		if !results[c.name] {
			status = "✗ FAIL"
			allPassed = false
		}
		fmt.Printf("%-15s %s\n", c.name+":", status)
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("✗ Some checks failed - please review errors above")
		return fmt.Errorf("health check failed")
	}

	fmt.Println("✓ All checks passed - system is healthy")
	return nil
}

func checkDatabase(cmd *cobra.Command) error {
	fmt.Println("Database Health Check")
	fmt.Println("---------------------")

	db, err := initDB(cmd)
	if err != nil {
		fmt.Printf("✗ Failed to connect: %v\n", err)
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Printf("✗ Ping failed: %v\n", err)
		return err
	}

	count, err := db.CountGenerations()
	if err != nil {
		fmt.Printf("⚠ Schema not migrated yet (run 'contentforge migrate up')\n")
	} else {
		fmt.Printf("✓ Database reachable, %d generations stored\n", count)
	}

	return nil
}

func checkRedis(cmd *cobra.Command) error {
	fmt.Println("Redis Health Check")
	fmt.Println("------------------")

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Redis.Enabled {
		fmt.Println("- Redis disabled, skipping")
		return nil
	}

	redisCache, err := cache.NewRedisCache(&cfg.Redis)
	if err != nil {
		fmt.Printf("✗ Redis connection failed: %v\n", err)
		return err
	}
	defer redisCache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisCache.Ping(ctx); err != nil {
		fmt.Printf("✗ Redis ping failed: %v\n", err)
		return err
	}

	fmt.Println("✓ Redis reachable")
	return nil
}

func checkLLM(cmd *cobra.Command) error {
	fmt.Println("LLM Provider Health Check")
	fmt.Println("-------------------------")

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasLLMKey() {
		fmt.Println("✗ No LLM API key configured")
		return fmt.Errorf("llm api key missing")
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := provider.HealthCheck(ctx); err != nil {
		fmt.Printf("✗ Provider %s health check failed: %v\n", provider.Name(), err)
		return err
	}

	fmt.Printf("✓ Provider %s reachable (model %s)\n", provider.Name(), cfg.LLM.Model)
	return nil
}
