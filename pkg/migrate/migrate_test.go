package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestUpCreatesCheckoutAttempts(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_up?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Up(context.Background(), sqlDB, Dialect("sqlite")); err != nil {
		t.Fatalf("Up returned error: %v", err)
	}
	if !conn.Migrator().HasTable("checkout_attempts") {
		t.Fatal("expected checkout_attempts table")
	}
	if !conn.Migrator().HasIndex("checkout_attempts", "ux_checkout_attempts_receipt") {
		t.Fatal("expected receipt unique index")
	}

	// second run is a no-op
	if err := Up(context.Background(), sqlDB, Dialect("sqlite")); err != nil {
		t.Fatalf("second Up returned error: %v", err)
	}
}

func TestShippedMigrationsValidate(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Receipt Column!")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasSuffix(path, "_add_receipt_column.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsReusedName(t *testing.T) {
	dir := t.TempDir()
	orig := now
	t.Cleanup(func() { now = orig })

	now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	path, err := CreateSQLMigration(dir, "add tender column")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if filepath.Base(path) != "20260302080000_add_tender_column.sql" {
		t.Fatalf("unexpected filename %s", path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "checkout_attempts") {
		t.Fatalf("template should target the journal table: %s", body)
	}

	now = func() time.Time { return time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC) }
	if _, err := CreateSQLMigration(dir, "Add Tender Column"); err == nil {
		t.Fatal("expected reused name to be rejected")
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected empty sanitized name to be rejected")
	}
}

func TestDialect(t *testing.T) {
	if Dialect("sqlite") != "sqlite3" || Dialect("postgres") != "postgres" {
		t.Fatal("unexpected dialect mapping")
	}
}
