// Package config loads the demo host's settings. ticketcore itself takes
// every dependency through Register; this package exists only for
// cmd/ticketcore, the local smoke-test binary, following the teacher's
// getEnv/firstEnv + github.com/joho/godotenv pattern.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ticketcore/ticketcore/internal/migrations"
)

// Config holds the demo host's connection info, the single dev project
// it serves, and the migration id offset it asks ticketcore to use.
type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// Project is the single project schema the demo host exposes.
	Project string

	// MigrationOffset is passed to ticketcore.Register; defaults to
	// migrations.DefaultOffset (26), matching spec.md §6.
	MigrationOffset int

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:         getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:        firstEnv("APP_PORT", "HTTP_PORT", "8097"),
		AppEnv:          getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Project:         getEnv("TICKETCORE_PROJECT", "demo"),
		MigrationOffset: migrations.DefaultOffset,
	}
	if v := os.Getenv("TICKETCORE_MIGRATION_OFFSET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MigrationOffset = n
		}
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "ticketcore")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	return nil
}

// DSN is the lib/pq connection string, used by the dev migrate runner.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL is the gorm.io/driver/postgres connection string.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
