package domain

import (
	"strings"
	"time"
)

// Date wraps a valid instant. The zero time.Time is not a valid instant.
type Date struct {
	value time.Time
}

// Now captures the current instant.
func Now() Date {
	return Date{value: time.Now().UTC()}
}

func NewDate(t time.Time) (Date, error) {
	if t.IsZero() {
		return Date{}, Validationf("Date: invalid date")
	}
	return Date{value: t.UTC()}, nil
}

// ParseDate reads an RFC 3339 timestamp or a YYYY-MM-DD calendar date (UTC midnight).
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return NewDate(t)
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return NewDate(t)
	}
	return Date{}, Validationf("Date: invalid date %q", raw)
}

func (d Date) Value() time.Time { return d.value }

// ISO renders the instant in RFC 3339 with nanoseconds, UTC.
func (d Date) ISO() string { return d.value.Format(time.RFC3339Nano) }

func (d Date) Equals(other Date) bool { return d.value.Equal(other.value) }

// timestamps is embedded by every entity.
type timestamps struct {
	createdAt time.Time
	updatedAt time.Time
}

// newTimestamps fills missing values with now and rejects an update before creation.
func newTimestamps(createdAt, updatedAt time.Time) (timestamps, error) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	if updatedAt.Before(createdAt) {
		return timestamps{}, Validationf("Date: updatedAt cannot be before createdAt")
	}
	return timestamps{createdAt: createdAt.UTC(), updatedAt: updatedAt.UTC()}, nil
}

func (t *timestamps) touch() { t.updatedAt = time.Now().UTC() }

func (t timestamps) CreatedAt() time.Time { return t.createdAt }
func (t timestamps) UpdatedAt() time.Time { return t.updatedAt }
