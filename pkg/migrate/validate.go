package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

const (
	upAnnotation   = "-- +goose Up"
	downAnnotation = "-- +goose Down"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// ValidateDir checks every .sql file in dir: the version prefix is unique,
// the Up section precedes the Down section and the Up section is not empty.
// All problems are reported together.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs error
	versions := make(map[string]string, len(names))
	for _, name := range names {
		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: filename must look like YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
			continue
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkSections(name, string(body)))
	}
	return errs
}

func checkSections(name, body string) error {
	up := strings.Index(body, upAnnotation)
	down := strings.Index(body, downAnnotation)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, upAnnotation)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, downAnnotation)
	case down < up:
		return fmt.Errorf("%s: down section precedes up section", name)
	}
	if !hasStatement(body[up+len(upAnnotation) : down]) {
		return fmt.Errorf("%s: up section has no statements", name)
	}
	return nil
}

// hasStatement reports whether section contains a line that is not blank
// and not a comment.
func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}
