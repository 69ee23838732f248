package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	store "github.com/saadjs/nutrilog/internal/db"
	"github.com/saadjs/nutrilog/internal/domain"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type DoctorReport struct {
	SchemaVersion            int `json:"schema_version"`
	OrphanIngredientLines    int `json:"orphan_ingredient_lines"`
	DanglingDayMeals         int `json:"dangling_day_meals"`
	DanglingDayFakeMeals     int `json:"dangling_day_fake_meals"`
	MissingWorkoutExercises  int `json:"missing_workout_exercises"`
	MissingTemplateExercises int `json:"missing_template_exercises"`
	ExpiredLookupCacheRows   int `json:"expired_lookup_cache_rows"`
	FixedDayLinks            int `json:"fixed_day_links,omitempty"`
	FixedLookupCacheRows     int `json:"fixed_lookup_cache_rows,omitempty"`
}

// Healthy reports whether no inconsistency was found.
func (r DoctorReport) Healthy() bool {
	return r.OrphanIngredientLines == 0 &&
		r.DanglingDayMeals == 0 &&
		r.DanglingDayFakeMeals == 0 &&
		r.MissingWorkoutExercises == 0 &&
		r.MissingTemplateExercises == 0
}

func CreateBackup(dbPath, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(dbPath) == "" {
		return BackupInfo{}, domain.Validationf("db path is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, domain.Validationf("backup output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := copyFile(dbPath, outPath); err != nil {
		return BackupInfo{}, err
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return domain.Validationf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return domain.AlreadyExistsf("target db already exists; use --force to overwrite")
		}
	}
	checksumFile := backupPath + ".sha256"
	if expected, err := os.ReadFile(checksumFile); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return domain.Conflictf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

const (
	orphanLinesQuery = `
SELECT COUNT(1) FROM ingredient_lines l
LEFT JOIN recipes r ON l.parent_type = 'recipe' AND r.id = l.parent_id
LEFT JOIN meals m ON l.parent_type = 'meal' AND m.id = l.parent_id
WHERE r.id IS NULL AND m.id IS NULL`
	danglingDayMealsWhere     = `meal_id NOT IN (SELECT id FROM meals)`
	danglingDayFakeMealsWhere = `fake_meal_id NOT IN (SELECT id FROM fake_meals)`
)

// RunDoctor checks references SQLite does not enforce. With fix, dangling day
// links and expired lookup cache rows are deleted; other findings are only
// reported.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	version, err := store.SchemaVersion(db)
	if err != nil {
		return report, err
	}
	report.SchemaVersion = version

	checks := []struct {
		name  string
		query string
		dest  *int
	}{
		{"orphan ingredient lines", orphanLinesQuery, &report.OrphanIngredientLines},
		{"dangling day meals", `SELECT COUNT(1) FROM day_meals WHERE ` + danglingDayMealsWhere, &report.DanglingDayMeals},
		{"dangling day fake meals", `SELECT COUNT(1) FROM day_fake_meals WHERE ` + danglingDayFakeMealsWhere, &report.DanglingDayFakeMeals},
		{"workout exercises", `SELECT COUNT(1) FROM workout_lines WHERE exercise_id NOT IN (SELECT id FROM exercises)`, &report.MissingWorkoutExercises},
		{"template exercises", `SELECT COUNT(1) FROM workout_template_lines WHERE exercise_id NOT IN (SELECT id FROM exercises)`, &report.MissingTemplateExercises},
	}
	for _, c := range checks {
		if err := db.QueryRow(c.query).Scan(c.dest); err != nil {
			return report, fmt.Errorf("doctor %s check: %w", c.name, err)
		}
	}
	now := formatTime(time.Now())
	if err := db.QueryRow(`SELECT COUNT(1) FROM lookup_cache WHERE expires_at <= ?`, now).Scan(&report.ExpiredLookupCacheRows); err != nil {
		return report, fmt.Errorf("doctor lookup cache check: %w", err)
	}

	if !fix {
		return report, nil
	}
	fixes := []struct {
		stmt string
		args []any
		dest *int
	}{
		{`DELETE FROM day_meals WHERE ` + danglingDayMealsWhere, nil, &report.FixedDayLinks},
		{`DELETE FROM day_fake_meals WHERE ` + danglingDayFakeMealsWhere, nil, &report.FixedDayLinks},
		{`DELETE FROM lookup_cache WHERE expires_at <= ?`, []any{now}, &report.FixedLookupCacheRows},
	}
	err = store.WithTx(context.Background(), db, func(tx *sql.Tx) error {
		for _, f := range fixes {
			res, err := tx.Exec(f.stmt, f.args...)
			if err != nil {
				return fmt.Errorf("doctor fix: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("doctor fix rows affected: %w", err)
			}
			*f.dest += int(n)
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	log.WithField("day_links", report.FixedDayLinks).WithField("cache_rows", report.FixedLookupCacheRows).Debug("doctor applied fixes")
	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
