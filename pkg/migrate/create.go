package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
SELECT 'up %[1]s';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down %[1]s';
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration named
// <dir>/<UTC timestamp>_<slug>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	return createMigrationAt(dir, name, time.Now().UTC())
}

func createMigrationAt(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir %q: %w", dir, err)
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*_"+slug+".sql"))
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "", fmt.Errorf("a migration named %q already exists: %s", slug, filepath.Base(existing[0]))
	}

	path := filepath.Join(dir, at.Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := fmt.Fprintf(f, migrationTemplate, slug); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration: %w", err)
	}
	return path, f.Close()
}
