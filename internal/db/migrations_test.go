package db_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/saadjs/nutrilog/internal/db"
)

func TestApplyMigrationsIdempotentAndSeedsDefaults(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nutrilog.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	version, err := db.SchemaVersion(sqldb)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != db.LatestSchemaVersion() {
		t.Fatalf("expected schema version %d, got %d", db.LatestSchemaVersion(), version)
	}

	var migrationCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != 6 {
		t.Fatalf("expected 6 migration versions, got %d", migrationCount)
	}

	tables := []string{
		"users", "app_config", "ingredients", "recipes", "meals", "ingredient_lines",
		"fake_meals", "days", "day_meals", "day_fake_meals",
		"external_ingredient_refs", "lookup_cache",
		"exercises", "workouts", "workout_lines", "workout_templates", "workout_template_lines",
	}
	for _, table := range tables {
		var count int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("check %s table: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var lookupIndexCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND name = 'idx_lookup_cache_expires_at'`).Scan(&lookupIndexCount); err != nil {
		t.Fatalf("check lookup_cache expires index: %v", err)
	}
	if lookupIndexCount != 1 {
		t.Fatalf("expected idx_lookup_cache_expires_at index to exist")
	}

	var providers string
	if err := sqldb.QueryRow(`SELECT value FROM app_config WHERE key = 'providers'`).Scan(&providers); err != nil {
		t.Fatalf("read seeded providers config: %v", err)
	}
	if providers != "openfoodfacts,usda" {
		t.Fatalf("unexpected seeded providers %q", providers)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db file to exist: %v", err)
	}
}

func TestApplyMigrationsKeepsEditedConfig(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "nutrilog.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := sqldb.Exec(`UPDATE app_config SET value = 'usda' WHERE key = 'providers'`); err != nil {
		t.Fatalf("edit config: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}
	var providers string
	if err := sqldb.QueryRow(`SELECT value FROM app_config WHERE key = 'providers'`).Scan(&providers); err != nil {
		t.Fatalf("read providers: %v", err)
	}
	if providers != "usda" {
		t.Fatalf("expected edited providers to survive, got %q", providers)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "nutrilog.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(context.Background(), sqldb, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO app_config(key, value) VALUES('scratch', '1')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	var count int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM app_config WHERE key = 'scratch'`).Scan(&count); err != nil {
		t.Fatalf("count scratch: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
