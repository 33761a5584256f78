package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/ticketcore/ticketcore/internal/config"
	"github.com/ticketcore/ticketcore/internal/logging"
	"github.com/ticketcore/ticketcore/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply ticketcore's own migration block to the demo project's schema (dev only)",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied/pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}

// withGooseDir renders ticketcore's migration block (spec.md §6) as a
// directory of goose-format .sql files and opens the target database, so
// the real contract — the host executing migrations it receives from
// Register — stays external while this dev CLI still exercises
// github.com/pressly/goose/v3 the way the teacher's migrate subcommand
// does (psds-microservice-ticket-service/cmd/migrate.go).
func withGooseDir(cfg *config.Config, fn func(db *sql.DB, dir string) error) error {
	dir, err := os.MkdirTemp("", "ticketcore-migrations-*")
	if err != nil {
		return fmt.Errorf("migrate: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	for _, m := range migrations.New(cfg.MigrationOffset) {
		sqlText := renderGooseMigration(m, cfg.Project)
		path := filepath.Join(dir, fmt.Sprintf("%05d_%s.sql", m.ID, m.Description))
		if err := os.WriteFile(path, []byte(sqlText), 0o644); err != nil {
			return fmt.Errorf("migrate: write %s: %w", path, err)
		}
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("migrate: open db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS ` + pq.QuoteIdentifier(cfg.Project)); err != nil {
		return fmt.Errorf("migrate: create schema %q: %w", cfg.Project, err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: set dialect: %w", err)
	}
	return fn(db, dir)
}

// renderGooseMigration substitutes {schema} with the demo host's single
// project schema — the host's own resolved schema, never request data,
// per spec.md §9 — and wraps the DDL in goose's "Up" markers.
func renderGooseMigration(m migrations.Migration, schema string) string {
	sqlText := strings.ReplaceAll(m.Spec.SQL, "{schema}", schema)
	return "-- +goose Up\n-- +goose StatementBegin\n" + sqlText + ";\n-- +goose StatementEnd\n"
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	log := logging.WithComponent("migrate")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return withGooseDir(cfg, func(db *sql.DB, dir string) error {
		if err := goose.Up(db, dir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Info("migrate up: ok", "project", cfg.Project)
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return withGooseDir(cfg, func(db *sql.DB, dir string) error {
		return goose.Status(db, dir)
	})
}
