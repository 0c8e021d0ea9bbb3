package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the in-repo migrations directory. Commands given this dir
// read the copy embedded in the binary, so deployed images need no source tree.
const DefaultDir = "pkg/migrate/migrations"

const dialect = "postgres"

//go:embed migrations/*.sql
var embedded embed.FS

// Commands accepted by Run.
var commands = map[string]bool{"up": true, "down": true, "status": true, "redo": true}

func prepare(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if dir == DefaultDir {
		goose.SetBaseFS(embedded)
		return "migrations", nil
	}
	goose.SetBaseFS(nil)
	return dir, nil
}

// Run executes a goose command against db.
func Run(ctx context.Context, db *sql.DB, dir string, command string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if !commands[command] {
		return fmt.Errorf("unsupported goose command %q", command)
	}
	src, err := prepare(dir)
	if err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, src); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, version string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	target, err := parseVersion(version)
	if err != nil {
		return err
	}
	src, err := prepare(dir)
	if err != nil {
		return err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, src, target)
	case current > target:
		err = goose.DownToContext(ctx, db, src, target)
	}
	if err != nil {
		return fmt.Errorf("migrate from %d to %d: %w", current, target, err)
	}
	return nil
}

func parseVersion(version string) (int64, error) {
	if len(version) != len(versionLayout) {
		return 0, fmt.Errorf("invalid version %q: expected YYYYMMDDHHMMSS", version)
	}
	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", version, err)
	}
	return v, nil
}
