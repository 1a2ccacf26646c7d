package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/railwear/internal/db"
)

func printMigrateHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: railwear -db <path> migrate <action>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  up       Apply all pending migrations")
	fmt.Fprintln(w, "  down     Roll back the most recent migration")
	fmt.Fprintln(w, "  status   Show the schema version and stored report count")
	fmt.Fprintln(w, "  help     Show this message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The server migrates up on start, so a rollback lasts until the next serve.")
}

// runMigrate handles the migrate subcommand against the history database at
// dbPath. Output goes to w.
func runMigrate(args []string, dbPath string, w io.Writer) error {
	if len(args) < 1 {
		printMigrateHelp(w)
		return errors.New("missing migrate action")
	}
	action := args[0]
	switch action {
	case "help":
		printMigrateHelp(w)
		return nil
	case "up", "down", "status", "version":
	default:
		fmt.Fprintf(w, "Unknown migrate action: %s\n\n", action)
		printMigrateHelp(w)
		return fmt.Errorf("unknown migrate action %q", action)
	}
	if dbPath == "" {
		return errors.New("migrate requires -db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(w, "All migrations applied")
	case "down":
		if err := database.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(w, "Rolled back one migration")
	}
	return printMigrateStatus(database, w)
}

func printMigrateStatus(database *db.DB, w io.Writer) error {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := db.LatestMigrationVersion()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Database: %s\n", database.Path())
	fmt.Fprintf(w, "Current version: %d\n", version)
	fmt.Fprintf(w, "Latest version: %d\n", latest)
	fmt.Fprintf(w, "Dirty: %v\n", dirty)
	if version < latest {
		fmt.Fprintf(w, "Pending migrations: %d\n", latest-version)
	}
	if n, err := database.CountReports(context.Background()); err == nil {
		fmt.Fprintf(w, "Stored reports: %d\n", n)
	}
	if dirty {
		fmt.Fprintln(w, "WARNING: a migration failed mid-way; inspect the database before serving.")
	}
	return nil
}
