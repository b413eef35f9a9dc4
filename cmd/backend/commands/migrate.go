package commands

import (
	"fmt"

	"github.com/biodoia/contentforge/pkg/config"
	"github.com/biodoia/contentforge/pkg/database"
	"github.com/biodoia/contentforge/pkg/models"
	"github.com/spf13/cobra"
)

// MigrateCmd rappresenta il comando migrate
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long: `Manage database schema migrations.

This command runs, resets, and inspects the schema of the
ContentForge content store.`,
	Example: `  # Run all pending migrations
  contentforge migrate up

  # Reset database (drop and recreate)
  contentforge migrate reset --confirm

  # Show current status
  contentforge migrate status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run pending migrations",
	Long:  `Run all pending database migrations to bring the schema up to date.`,
	RunE:  runMigrateUp,
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset database",
	Long:  `Drop the generations table and recreate the schema. This will delete all data.`,
	RunE:  runMigrateReset,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Display the number of stored generations and schema state.`,
	RunE:  runMigrateStatus,
}

var migrateConfirm bool

func init() {
	migrateResetCmd.Flags().BoolVar(&migrateConfirm, "confirm", false, "Confirm reset action")

	MigrateCmd.AddCommand(migrateUpCmd)
	MigrateCmd.AddCommand(migrateResetCmd)
	MigrateCmd.AddCommand(migrateStatusCmd)
}

// initDB carica la config e apre la connessione al database
func initDB(cmd *cobra.Command) (*database.DB, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	db, err := initDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Running database migrations...")

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("✓ Migrations completed successfully")
	return nil
}

func runMigrateReset(cmd *cobra.Command, args []string) error {
	if !migrateConfirm {
		return fmt.Errorf("reset requires --confirm flag to proceed")
	}

	db, err := initDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Resetting database...")

	if err := db.DB.Migrator().DropTable(&models.Generation{}); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to recreate schema: %w", err)
	}

	fmt.Println("✓ Database reset completed")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, err := initDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	hasTable := db.DB.Migrator().HasTable(&models.Generation{})
	fmt.Printf("generations table: %v\n", hasTable)

	if hasTable {
		count, err := db.CountGenerations()
		if err != nil {
			return fmt.Errorf("failed to count generations: %w", err)
		}
		fmt.Printf("stored generations: %d\n", count)
	}

	return nil
}
