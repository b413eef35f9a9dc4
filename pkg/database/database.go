package database

import (
	"fmt"
	"time"

	"github.com/biodoia/contentforge/pkg/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config contiene la configurazione del database
type Config struct {
	Type       string `yaml:"type" mapstructure:"type"`             // "postgres" or "sqlite"
	Connection string `yaml:"connection" mapstructure:"connection"` // Connection string
	MaxConns   int    `yaml:"max_conns" mapstructure:"max_conns"`
	LogLevel   string `yaml:"log_level" mapstructure:"log_level"`
}

// DB wrappa la connessione GORM
type DB struct {
	*gorm.DB
}

// New crea una nuova connessione al database
func New(cfg *Config) (*DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.Connection)
	case "sqlite":
		dialector = sqlite.Open(cfg.Connection)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	// Configure logger
	logLevel := logger.Silent
	switch cfg.LogLevel {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DB{DB: db}, nil
}

// AutoMigrate esegue le migrazioni del database
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.Generation{},
	)
}

// Close chiude la connessione al database
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifica la raggiungibilità del database
func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateGeneration salva una nuova generazione (contenuto già troncato)
func (db *DB) CreateGeneration(gen *models.Generation) error {
	gen.TruncateContent()
	return db.Create(gen).Error
}

// ListGenerations restituisce le generazioni più recenti
func (db *DB) ListGenerations(limit int) ([]models.Generation, error) {
	var gens []models.Generation
	err := db.Order("created_at DESC").
		Limit(limit).
		Find(&gens).Error
	return gens, err
}

// GetGenerationByID restituisce una generazione per ID
func (db *DB) GetGenerationByID(id uuid.UUID) (*models.Generation, error) {
	var gen models.Generation
	err := db.Where("id = ?", id).First(&gen).Error
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// DeleteGeneration elimina una generazione per ID.
// Restituisce gorm.ErrRecordNotFound se l'ID non esiste.
func (db *DB) DeleteGeneration(id uuid.UUID) error {
	result := db.Where("id = ?", id).Delete(&models.Generation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountGenerations restituisce il numero totale di generazioni salvate
func (db *DB) CountGenerations() (int64, error) {
	var count int64
	err := db.Model(&models.Generation{}).Count(&count).Error
	return count, err
}
