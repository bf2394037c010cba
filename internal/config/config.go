package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings.
type Config struct {
	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Ingestion settings
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`

	// Query settings
	Query QueryConfig `yaml:"query" mapstructure:"query"`
}

type StorageConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

type IngestConfig struct {
	BatchSize    int `yaml:"batch_size" mapstructure:"batch_size"`
	EmbeddingDim int `yaml:"embedding_dim" mapstructure:"embedding_dim"`
}

type QueryConfig struct {
	FuzzyLimit          int     `yaml:"fuzzy_limit" mapstructure:"fuzzy_limit"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxSearchDepth      int     `yaml:"max_search_depth" mapstructure:"max_search_depth"`
}

// DSN builds the Postgres connection string.
func (s StorageConfig) DSN() string {
	sslmode := s.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		s.Host, s.Port, s.Database, s.User, s.Password, sslmode,
	)
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "orgtrail",
			User:     "postgres",
			SSLMode:  "disable",
		},
		Ingest: IngestConfig{
			BatchSize:    1000,
			EmbeddingDim: 384,
		},
		Query: QueryConfig{
			FuzzyLimit:          10,
			SimilarityThreshold: 0.3,
			MaxSearchDepth:      6,
		},
	}
}

// Load loads configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("ingest", cfg.Ingest)
	v.SetDefault("query", cfg.Query)

	v.SetEnvPrefix("ORGTRAIL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".orgtrail")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".orgtrail"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Missing config file is fine, defaults apply.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnv := filepath.Join(homeDir, ".orgtrail", ".env")
	if _, err := os.Stat(homeEnv); err == nil {
		godotenv.Load(homeEnv)
	}
}

// applyEnvOverrides applies plain environment variable overrides, which
// win over both the config file and .env defaults.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		cfg.Storage.Host = host
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Storage.Port = p
		}
	}
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		cfg.Storage.Database = db
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		cfg.Storage.User = user
	}
	if pass := os.Getenv("POSTGRES_PASSWORD"); pass != "" {
		cfg.Storage.Password = pass
	}
	if size := os.Getenv("ORGTRAIL_BATCH_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			cfg.Ingest.BatchSize = n
		}
	}
}
