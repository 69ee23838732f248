package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
)

const (
	ConfigCurrentUser    = "current_user"
	ConfigProviders      = "providers"
	ConfigLookupCacheTTL = "lookup_cache_ttl_hours"
)

// KnownConfigKeys lists the keys nutrilog reads. Other keys may be stored but
// have no effect.
func KnownConfigKeys() []string {
	keys := []string{ConfigCurrentUser, ConfigProviders, ConfigLookupCacheTTL}
	sort.Strings(keys)
	return keys
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return domain.Validationf("config key is required")
	}
	value = strings.TrimSpace(value)
	if err := validateConfigValue(key, value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, domain.Validationf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func UnsetConfig(db *sql.DB, key string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if _, err := db.Exec(`DELETE FROM app_config WHERE key = ?`, key); err != nil {
		return fmt.Errorf("unset config %q: %w", key, err)
	}
	return nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// LookupCacheTTL reads lookup_cache_ttl_hours, falling back to the default.
func LookupCacheTTL(db *sql.DB) (time.Duration, error) {
	raw, ok, err := GetConfig(db, ConfigLookupCacheTTL)
	if err != nil || !ok {
		return DefaultLookupTTL, err
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		log.WithField("value", raw).Warn("ignoring invalid lookup_cache_ttl_hours")
		return DefaultLookupTTL, nil
	}
	return time.Duration(hours) * time.Hour, nil
}

func validateConfigValue(key, value string) error {
	switch key {
	case ConfigLookupCacheTTL:
		hours, err := strconv.Atoi(value)
		if err != nil || hours <= 0 {
			return domain.Validationf("%s must be a positive whole number of hours", key)
		}
	case ConfigProviders:
		if value == "" {
			return domain.Validationf("%s must name at least one provider", key)
		}
		for _, part := range strings.Split(value, ",") {
			if _, err := domain.NewExternalSource(part); err != nil {
				return err
			}
		}
	}
	return nil
}
