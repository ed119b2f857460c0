package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	gooseUpMarker    = "-- +goose Up"
	gooseDownMarker  = "-- +goose Down"
	stmtBeginMarker  = "-- +goose StatementBegin"
	stmtEndMarker    = "-- +goose StatementEnd"
	migrationPattern = `^(\d{14})_[a-z0-9_]+\.sql$`
)

var migrationFileRe = regexp.MustCompile(migrationPattern)

// ValidateDir checks every SQL file in the migrations directory against
// the layout the schema uses: a 14-digit version, a snake_case name,
// unique versions, an Up section before the Down section, and balanced
// statement markers.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := entry.Name()

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		if err := validateMigrationFile(dir, name); err != nil {
			return err
		}
	}
	return nil
}

func validateMigrationFile(dir, name string) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read file %q: %w", name, err)
	}
	txt := string(data)

	up := strings.Index(txt, gooseUpMarker)
	down := strings.Index(txt, gooseDownMarker)
	if up < 0 {
		return fmt.Errorf("migration %q is missing %q", name, gooseUpMarker)
	}
	if down < 0 {
		return fmt.Errorf("migration %q is missing %q", name, gooseDownMarker)
	}
	if down < up {
		return fmt.Errorf("migration %q declares its Down section before Up", name)
	}
	if strings.Count(txt, stmtBeginMarker) != strings.Count(txt, stmtEndMarker) {
		return fmt.Errorf("migration %q has unbalanced statement markers", name)
	}
	return nil
}
