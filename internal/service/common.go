package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/logging"
)

var log = logging.For("service")

// querier is satisfied by both *sql.DB and *sql.Tx so loaders and savers can
// run inside or outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// containsPattern builds a LIKE pattern matching q as a literal substring;
// use it with ESCAPE '\'.
func containsPattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// checkOwner rejects access to an aggregate owned by someone else.
func checkOwner(kind, id, ownerID, actingUserID string) error {
	if ownerID != actingUserID {
		return domain.Permissionf("%s %q belongs to another user", kind, id)
	}
	return nil
}

func notFound(kind, id string) error {
	return domain.NotFoundf("%s %q not found", kind, id)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func exists(q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(query, args...).Scan(&one)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func requireUser(q querier, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Authf("no active user; pass --user or run 'nutrilog user use <id>'")
	}
	ok, err := exists(q, `SELECT 1 FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("lookup user %q: %w", userID, err)
	}
	if !ok {
		return notFound("user", userID)
	}
	return nil
}
