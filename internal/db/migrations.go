package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  customer_id TEXT NOT NULL DEFAULT '',
  email TEXT UNIQUE,
  password_hash TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ingredients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  calories_per_100g REAL NOT NULL CHECK(calories_per_100g >= 0),
  protein_per_100g REAL NOT NULL CHECK(protein_per_100g >= 0),
  image_url TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);
`,
	},
	{
		version: 2,
		name:    "recipes_and_meals",
		sql: `
CREATE TABLE IF NOT EXISTS recipes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS meals (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS ingredient_lines (
  id TEXT PRIMARY KEY,
  parent_type TEXT NOT NULL CHECK(parent_type IN ('meal', 'recipe')),
  parent_id TEXT NOT NULL,
  ingredient_id TEXT NOT NULL,
  quantity_grams REAL NOT NULL CHECK(quantity_grams > 0),
  position INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  UNIQUE(parent_type, parent_id, ingredient_id),
  FOREIGN KEY(ingredient_id) REFERENCES ingredients(id)
);

CREATE INDEX IF NOT EXISTS idx_ingredient_lines_parent ON ingredient_lines(parent_type, parent_id);
CREATE INDEX IF NOT EXISTS idx_ingredient_lines_ingredient ON ingredient_lines(ingredient_id);
CREATE INDEX IF NOT EXISTS idx_recipes_user ON recipes(user_id);
CREATE INDEX IF NOT EXISTS idx_meals_user ON meals(user_id);
`,
	},
	{
		version: 3,
		name:    "days_and_fake_meals",
		sql: `
CREATE TABLE IF NOT EXISTS fake_meals (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  calories REAL NOT NULL CHECK(calories > 0),
  protein REAL NOT NULL CHECK(protein > 0),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS days (
  user_id TEXT NOT NULL,
  day_id TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY(user_id, day_id),
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS day_meals (
  user_id TEXT NOT NULL,
  day_id TEXT NOT NULL,
  meal_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  PRIMARY KEY(user_id, day_id, meal_id)
);

CREATE TABLE IF NOT EXISTS day_fake_meals (
  user_id TEXT NOT NULL,
  day_id TEXT NOT NULL,
  fake_meal_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  PRIMARY KEY(user_id, day_id, fake_meal_id)
);

CREATE INDEX IF NOT EXISTS idx_day_meals_meal ON day_meals(meal_id);
CREATE INDEX IF NOT EXISTS idx_day_fake_meals_fake_meal ON day_fake_meals(fake_meal_id);
`,
	},
	{
		version: 4,
		name:    "external_lookups",
		sql: `
CREATE TABLE IF NOT EXISTS external_ingredient_refs (
  source TEXT NOT NULL,
  external_id TEXT NOT NULL,
  ingredient_id TEXT NOT NULL,
  created_at TEXT NOT NULL,
  PRIMARY KEY(source, external_id),
  FOREIGN KEY(ingredient_id) REFERENCES ingredients(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS lookup_cache (
  source TEXT NOT NULL,
  external_id TEXT NOT NULL,
  name TEXT NOT NULL,
  calories_per_100g REAL NOT NULL,
  protein_per_100g REAL NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  raw_json TEXT NOT NULL DEFAULT '',
  fetched_at TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  PRIMARY KEY(source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires_at ON lookup_cache(expires_at);
`,
	},
	{
		version: 5,
		name:    "workouts",
		sql: `
CREATE TABLE IF NOT EXISTS exercises (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workouts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  performed_at TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS workout_lines (
  workout_id TEXT NOT NULL,
  exercise_id TEXT NOT NULL,
  set_number INTEGER NOT NULL CHECK(set_number >= 1),
  reps INTEGER NOT NULL CHECK(reps >= 0),
  weight_kg REAL NOT NULL CHECK(weight_kg >= 0),
  position INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY(workout_id, exercise_id, set_number),
  FOREIGN KEY(workout_id) REFERENCES workouts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_workouts_user_performed ON workouts(user_id, performed_at);
CREATE INDEX IF NOT EXISTS idx_workout_lines_exercise ON workout_lines(exercise_id);
`,
	},
	{
		version: 6,
		name:    "workout_templates",
		sql: `
CREATE TABLE IF NOT EXISTS workout_templates (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  deleted_at TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS workout_template_lines (
  template_id TEXT NOT NULL,
  exercise_id TEXT NOT NULL,
  sets INTEGER NOT NULL CHECK(sets >= 1),
  position INTEGER NOT NULL,
  PRIMARY KEY(template_id, exercise_id),
  FOREIGN KEY(template_id) REFERENCES workout_templates(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_workout_template_lines_exercise ON workout_template_lines(exercise_id);
`,
	},
}

var defaultConfig = map[string]string{
	"providers":              "openfoodfacts,usda",
	"lookup_cache_ttl_hours": "720",
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	for key, value := range defaultConfig {
		if _, err := db.Exec(`INSERT OR IGNORE INTO app_config(key, value) VALUES(?, ?)`, key, value); err != nil {
			return fmt.Errorf("seed default config %s: %w", key, err)
		}
	}

	return nil
}

// SchemaVersion reports the highest applied migration.
func SchemaVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// LatestSchemaVersion is the version ApplyMigrations brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}
