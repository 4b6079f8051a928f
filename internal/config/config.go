// Package config loads server configuration from the environment.
//
// Configuration is an explicit value handed to constructors, never a
// process-wide singleton, so tests can substitute their own instances.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseSystem identifies the configured database engine.
type DatabaseSystem string

const (
	SystemPostgres DatabaseSystem = "POSTGRESQL"
	SystemSQLite   DatabaseSystem = "SQLITE"
)

// SQLiteFileName is the fixed name of the live SQLite database file
// inside the configured volume directory.
const SQLiteFileName = "database.sqlite"

// Config holds all configuration options.
type Config struct {
	// Version information (set from build metadata)
	Version   string
	BuildTime string
	GitCommit string

	// Database connection
	DatabaseSystem DatabaseSystem
	Host           string
	Port           int
	Username       string
	Password       string
	Database       string
	SQLiteDir      string

	// Testing switches
	InMemoryDB bool

	// Volumes
	ImageDir string

	// HTTP server
	ServerAddr string

	// External tool execution
	CommandTimeout time.Duration

	// Output options
	LogLevel  string
	LogFormat string
}

// Load builds a Config from the process environment. If envFile is
// non-empty and exists, it is loaded first (existing variables win).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("cannot load env file %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		DatabaseSystem: DatabaseSystem(strings.ToUpper(getEnv("DB_SYSTEM", string(SystemPostgres)))),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnvInt("DB_PORT", 5432),
		Username:       getEnv("DB_USERNAME", "default"),
		Password:       getEnv("DB_PASSWORD", "default"),
		Database:       getEnv("DB_DATABASE", "gamevault"),
		SQLiteDir:      getEnv("VOLUMES_SQLITEDB", "/data/db"),
		InMemoryDB:     getEnvBool("TESTING_IN_MEMORY_DB", false),
		ImageDir:       getEnv("VOLUMES_IMAGES", "/data/images"),
		ServerAddr:     getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
		CommandTimeout: getEnvDuration("BACKUP_COMMAND_TIMEOUT", 30*time.Minute),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the process unusable at startup.
// An unknown DB_SYSTEM is deliberately not rejected here; the backup
// orchestrator reports it per-operation so the rest of the server still runs.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid DB_PORT %d: must be 1-65535", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("DB_DATABASE must not be empty")
	}
	return nil
}

// SQLitePath returns the absolute path of the live SQLite database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.SQLiteDir, SQLiteFileName)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
