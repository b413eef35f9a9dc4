package config

import (
	"fmt"
	"time"

	"github.com/biodoia/contentforge/pkg/database"
	"github.com/spf13/viper"
)

// Config rappresenta la configurazione completa dell'applicazione
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Database   database.Config  `yaml:"database" mapstructure:"database"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// ServerConfig configurazione del server HTTP
type ServerConfig struct {
	Port           int             `yaml:"port" mapstructure:"port"`
	Host           string          `yaml:"host" mapstructure:"host"`
	AllowedOrigins []string        `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig limiti per l'endpoint di generazione
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
	Burst   int     `yaml:"burst" mapstructure:"burst"`
}

// RedisConfig configurazione Redis per il cache dei contenuti
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Host     string        `yaml:"host" mapstructure:"host"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LLMConfig configurazione del provider LLM
type LLMConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider"` // "openai" o "anthropic"
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SearchConfig configurazione del tool di ricerca web
type SearchConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig configurazione della pipeline di generazione
type PipelineConfig struct {
	StageTimeout time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	WriterWords  int           `yaml:"writer_words" mapstructure:"writer_words"`
}

// MonitoringConfig configurazione monitoring
type MonitoringConfig struct {
	Prometheus PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// PrometheusConfig configurazione export metriche
type PrometheusConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LoggingConfig configurazione logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load carica la configurazione da file e environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Environment variables: CONTENTFORGE_SERVER_PORT ecc.
	v.SetEnvPrefix("contentforge")
	v.AutomaticEnv()

	// Alias per le variabili classiche del servizio
	v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("search.api_key", "SEARCH_API_KEY", "SERPER_API_KEY")
	v.BindEnv("database.connection", "DATABASE_URL")
	v.BindEnv("redis.host", "REDIS_HOST")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default restituisce la configurazione di default, senza leggere
// file o environment. Utile per generare template e nei test.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// I default sono statici, l'unmarshal non può fallire
		panic(fmt.Sprintf("invalid default config: %v", err))
	}

	return &cfg
}

// setDefaults imposta i valori di default
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rps", 1.0)
	v.SetDefault("server.rate_limit.burst", 3)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.connection", "./data/contentforge.db")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.log_level", "warn")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "1h")

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.timeout", "120s")

	// Search defaults
	v.SetDefault("search.enabled", false)
	v.SetDefault("search.base_url", "https://google.serper.dev")
	v.SetDefault("search.max_results", 5)

	// Pipeline defaults
	v.SetDefault("pipeline.stage_timeout", "180s")
	v.SetDefault("pipeline.max_retries", 2)
	v.SetDefault("pipeline.writer_words", 800)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.logging.level", "info")
	v.SetDefault("monitoring.logging.format", "json")
}

// Validate valida la configurazione
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}

	if c.Search.Enabled && c.Search.APIKey == "" {
		return fmt.Errorf("search is enabled but no search api key is configured")
	}

	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline.max_retries must be >= 0")
	}

	return nil
}

// HasLLMKey restituisce true se una API key LLM è configurata
func (c *Config) HasLLMKey() bool {
	return c.LLM.APIKey != ""
}
