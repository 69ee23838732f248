package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	appDirName = "nutrilog"
	dbFileName = "nutrilog.db"
)

func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, dbFileName), nil
}

func EnsureDBDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}

// BackupDir is where backups of the database at dbPath go by default.
func BackupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// BackupFileName names a backup taken at t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.db", appDirName, t.Format("20060102-150405"))
}
