package nutrilog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/app"
	"github.com/saadjs/nutrilog/internal/config"
	"github.com/saadjs/nutrilog/internal/db"
	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

const dateLayout = "2006-01-02"

func resolveDBPath() (string, error) {
	if p := config.FirstNonEmpty(strings.TrimSpace(dbPath), env.DBPath); p != "" {
		return p, nil
	}
	return app.DefaultDBPath()
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

// withUser is withDB plus the acting user id: --user, then NUTRILOG_USER,
// then the current_user config key.
func withUser(run func(sqldb *sql.DB, userID string) error) error {
	return withDB(func(sqldb *sql.DB) error {
		userID, err := activeUserID(sqldb)
		if err != nil {
			return err
		}
		return run(sqldb, userID)
	})
}

func activeUserID(sqldb *sql.DB) (string, error) {
	if id := config.FirstNonEmpty(strings.TrimSpace(userFlag), env.UserID); id != "" {
		return id, nil
	}
	id, ok, err := service.GetConfig(sqldb, service.ConfigCurrentUser)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", domain.Authf("no active user; pass --user, set NUTRILOG_USER or run `nutrilog user use <id>`")
	}
	return id, nil
}

// parseLine reads "ingredient-id:quantity[unit]", e.g. "abc:200g" or "abc:1.5cup".
func parseLine(raw string, density float64) (service.LineInput, error) {
	id, qty, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || strings.TrimSpace(id) == "" {
		return service.LineInput{}, domain.Validationf("invalid line %q (expected ingredient-id:quantity[unit])", raw)
	}
	q, err := service.ParseQuantity(qty)
	if err != nil {
		return service.LineInput{}, err
	}
	return service.LineInput{IngredientID: strings.TrimSpace(id), Quantity: q, DensityGPerML: density}, nil
}

func parseLines(raw []string, density float64) ([]service.LineInput, error) {
	out := make([]service.LineInput, 0, len(raw))
	for _, r := range raw {
		line, err := parseLine(r, density)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

// parseDay reads YYYY-MM-DD as a UTC calendar day; empty means today.
func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, domain.Validationf("invalid date %q (expected YYYY-MM-DD)", raw)
	}
	return t, nil
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now(), nil
	}
	if date == "" {
		return time.Time{}, domain.Validationf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return time.Time{}, domain.Validationf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, domain.Validationf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

func parseIntArg(name, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, domain.Validationf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, domain.Validationf("%s must be > 0", name)
	}
	return v, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}

func newImporter(sqldb *sql.DB) (*service.IngredientImporter, error) {
	sources := env.Providers
	if len(sources) == 0 {
		raw, _, err := service.GetConfig(sqldb, service.ConfigProviders)
		if err != nil {
			return nil, err
		}
		sources = config.ParseList(config.FirstNonEmpty(raw, config.DefaultProviders))
	}
	providers, err := service.NewProviders(sources, service.ProviderOptions{
		USDAAPIKey:      env.USDAAPIKey,
		UPCItemDBAPIKey: env.UPCItemDBAPIKey,
	})
	if err != nil {
		return nil, err
	}
	ttl, err := service.LookupCacheTTL(sqldb)
	if err != nil {
		return nil, err
	}
	return service.NewIngredientImporter(sqldb, providers, ttl)
}
