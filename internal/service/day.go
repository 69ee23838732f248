package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
)

// DayTotals is a day's links resolved to meals with nutrition totals.
type DayTotals struct {
	DayID     string             `json:"day_id"`
	Date      string             `json:"date"`
	Meals     []DayMealTotal     `json:"meals"`
	FakeMeals []DayFakeMealTotal `json:"fake_meals"`
	Calories  float64            `json:"calories"`
	Protein   float64            `json:"protein"`
}

type DayMealTotal struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

type DayFakeMealTotal struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

// GetDay returns the stored day or an empty, unsaved one for that date.
func GetDay(db *sql.DB, userID string, date time.Time) (*domain.Day, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	return loadOrNewDay(db, userID, date)
}

// ListDays returns the user's stored days between from and to inclusive,
// oldest first.
func ListDays(db *sql.DB, userID string, from, to time.Time) ([]*domain.Day, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	fromID, err := domain.NewDayID(from)
	if err != nil {
		return nil, err
	}
	toID, err := domain.NewDayID(to)
	if err != nil {
		return nil, err
	}
	if fromID.Value() > toID.Value() {
		return nil, domain.Validationf("invalid date range: %s is after %s", fromID, toID)
	}
	rows, err := db.Query(`SELECT day_id FROM days WHERE user_id = ? AND day_id BETWEEN ? AND ? ORDER BY day_id ASC`, userID, fromID.Value(), toID.Value())
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Day, 0, len(ids))
	for _, id := range ids {
		d, err := loadDay(db, userID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func AddMealToDay(db *sql.DB, userID string, date time.Time, mealID string) (*domain.Day, error) {
	m, err := ownedMeal(db, userID, mealID)
	if err != nil {
		return nil, err
	}
	return mutateDay(db, userID, date, func(d *domain.Day) error {
		return d.AddMeal(m.ID())
	})
}

func RemoveMealFromDay(db *sql.DB, userID string, date time.Time, mealID string) (*domain.Day, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	return mutateDay(db, userID, date, func(d *domain.Day) error {
		return d.RemoveMealByID(strings.TrimSpace(mealID))
	})
}

func AddFakeMealToDay(db *sql.DB, userID string, date time.Time, fakeMealID string) (*domain.Day, error) {
	fm, err := ownedFakeMeal(db, userID, fakeMealID)
	if err != nil {
		return nil, err
	}
	return mutateDay(db, userID, date, func(d *domain.Day) error {
		return d.AddFakeMeal(fm.ID())
	})
}

func RemoveFakeMealFromDay(db *sql.DB, userID string, date time.Time, fakeMealID string) (*domain.Day, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	return mutateDay(db, userID, date, func(d *domain.Day) error {
		return d.RemoveFakeMealByID(strings.TrimSpace(fakeMealID))
	})
}

// DaySummary totals every meal and fake meal linked to the date. Links to
// rows that no longer exist are skipped and logged.
func DaySummary(db *sql.DB, userID string, date time.Time) (*DayTotals, error) {
	d, err := GetDay(db, userID, date)
	if err != nil {
		return nil, err
	}
	summary := &DayTotals{
		DayID:     d.ID(),
		Date:      d.Date().Format("2006-01-02"),
		Meals:     []DayMealTotal{},
		FakeMeals: []DayFakeMealTotal{},
	}
	for _, id := range d.MealIDs() {
		m, err := loadMeal(db, id)
		if domain.IsNotFound(err) {
			log.WithField("meal_id", id).WithField("day_id", d.ID()).Warn("skipping dangling day link")
			continue
		}
		if err != nil {
			return nil, err
		}
		summary.Meals = append(summary.Meals, DayMealTotal{ID: m.ID(), Name: m.Name(), Calories: m.Calories(), Protein: m.Protein()})
		summary.Calories += m.Calories()
		summary.Protein += m.Protein()
	}
	for _, id := range d.FakeMealIDs() {
		fm, err := loadFakeMeal(db, id)
		if domain.IsNotFound(err) {
			log.WithField("fake_meal_id", id).WithField("day_id", d.ID()).Warn("skipping dangling day link")
			continue
		}
		if err != nil {
			return nil, err
		}
		summary.FakeMeals = append(summary.FakeMeals, DayFakeMealTotal{ID: fm.ID(), Name: fm.Name(), Calories: fm.Calories(), Protein: fm.Protein()})
		summary.Calories += fm.Calories()
		summary.Protein += fm.Protein()
	}
	return summary, nil
}

func mutateDay(db *sql.DB, userID string, date time.Time, fn func(*domain.Day) error) (*domain.Day, error) {
	d, err := loadOrNewDay(db, userID, date)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin day tx: %w", err)
	}
	if err := writeDay(tx, d); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit day: %w", err)
	}
	return d, nil
}

func loadOrNewDay(q querier, userID string, date time.Time) (*domain.Day, error) {
	id, err := domain.NewDayID(date)
	if err != nil {
		return nil, err
	}
	d, err := loadDay(q, userID, id.Value())
	if domain.IsNotFound(err) {
		return domain.NewDay(domain.DayProps{Date: id.Date(), UserID: userID})
	}
	return d, err
}

func loadDay(q querier, userID, dayID string) (*domain.Day, error) {
	var createdRaw, updatedRaw string
	err := q.QueryRow(`SELECT created_at, updated_at FROM days WHERE user_id = ? AND day_id = ?`, userID, dayID).
		Scan(&createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("day", dayID)
	}
	if err != nil {
		return nil, fmt.Errorf("load day %q: %w", dayID, err)
	}
	date, err := domain.StringDayIDToDate(dayID)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	mealIDs, err := linkedIDs(q, `SELECT meal_id FROM day_meals WHERE user_id = ? AND day_id = ? ORDER BY position ASC`, userID, dayID)
	if err != nil {
		return nil, err
	}
	fakeMealIDs, err := linkedIDs(q, `SELECT fake_meal_id FROM day_fake_meals WHERE user_id = ? AND day_id = ? ORDER BY position ASC`, userID, dayID)
	if err != nil {
		return nil, err
	}
	return domain.NewDay(domain.DayProps{
		Date:        date,
		UserID:      userID,
		MealIDs:     mealIDs,
		FakeMealIDs: fakeMealIDs,
		CreatedAt:   created,
		UpdatedAt:   updated,
	})
}

func linkedIDs(q querier, query string, args ...any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load day links: %w", err)
	}
	return scanIDs(rows)
}

func writeDay(q querier, d *domain.Day) error {
	_, err := q.Exec(`
INSERT INTO days(user_id, day_id, created_at, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(user_id, day_id) DO UPDATE SET updated_at = excluded.updated_at
`, d.UserID(), d.ID(), formatTime(d.CreatedAt()), formatTime(d.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save day %q: %w", d.ID(), err)
	}
	if _, err := q.Exec(`DELETE FROM day_meals WHERE user_id = ? AND day_id = ?`, d.UserID(), d.ID()); err != nil {
		return fmt.Errorf("clear day meals: %w", err)
	}
	for i, id := range d.MealIDs() {
		if _, err := q.Exec(`INSERT INTO day_meals(user_id, day_id, meal_id, position) VALUES(?, ?, ?, ?)`, d.UserID(), d.ID(), id, i); err != nil {
			return fmt.Errorf("link meal %q to day %q: %w", id, d.ID(), err)
		}
	}
	if _, err := q.Exec(`DELETE FROM day_fake_meals WHERE user_id = ? AND day_id = ?`, d.UserID(), d.ID()); err != nil {
		return fmt.Errorf("clear day fake meals: %w", err)
	}
	for i, id := range d.FakeMealIDs() {
		if _, err := q.Exec(`INSERT INTO day_fake_meals(user_id, day_id, fake_meal_id, position) VALUES(?, ?, ?, ?)`, d.UserID(), d.ID(), id, i); err != nil {
			return fmt.Errorf("link fake meal %q to day %q: %w", id, d.ID(), err)
		}
	}
	return nil
}
