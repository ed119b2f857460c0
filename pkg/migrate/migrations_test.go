package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestVariantMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS product_variants",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"CHECK (stock >= 0)",
		"DROP TABLE IF EXISTS product_variants",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartLineMigrationEnforcesSingleOwner(t *testing.T) {
	content := readMigration(t, "*_create_cart_lines.sql")

	checks := []string{
		"CHECK (num_nonnulls(user_id, guest_id) = 1)",
		"idx_cart_lines_user_variant",
		"idx_cart_lines_guest_variant",
		"WHERE guest_id IS NOT NULL",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationScaffoldsTableSkeleton(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "create_wishlists")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read scaffold: %v", err)
	}
	content := string(data)
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS wishlists",
		"id BIGSERIAL PRIMARY KEY",
		"created_at TIMESTAMPTZ NOT NULL DEFAULT now()",
		"DROP TABLE IF EXISTS wishlists",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("scaffold missing %q", sub)
		}
	}

	if err := ValidateDir(dir); err != nil {
		t.Fatalf("scaffold does not validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatal("expected an error for a name with no usable characters")
	}
}

func TestValidateDirRejectsUnbalancedMarkers(t *testing.T) {
	dir := t.TempDir()
	bad := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n\n-- +goose Down\n"
	if err := os.WriteFile(filepath.Join(dir, "20260301000000_bad_markers.sql"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}

	err := ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "unbalanced") {
		t.Fatalf("expected unbalanced-marker error, got %v", err)
	}
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	bad := "-- +goose Down\nDROP TABLE things;\n\n-- +goose Up\nCREATE TABLE things ();\n"
	if err := os.WriteFile(filepath.Join(dir, "20260301000000_inverted.sql"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}

	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected an error for Down before Up")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
