package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
)

type FakeMealInput struct {
	Name     string
	Calories float64
	Protein  float64
	Day      *time.Time
}

func CreateFakeMeal(db *sql.DB, userID string, in FakeMealInput) (*domain.FakeMeal, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	fm, err := domain.NewFakeMeal(domain.FakeMealProps{
		ID:       domain.GenerateID().Value(),
		UserID:   userID,
		Name:     in.Name,
		Calories: in.Calories,
		Protein:  in.Protein,
	})
	if err != nil {
		return nil, err
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create fake meal tx: %w", err)
	}
	if err := writeFakeMeal(tx, fm); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if in.Day != nil {
		d, err := loadOrNewDay(tx, userID, *in.Day)
		if err == nil {
			err = d.AddFakeMeal(fm.ID())
		}
		if err == nil {
			err = writeDay(tx, d)
		}
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create fake meal: %w", err)
	}
	return fm, nil
}

func GetFakeMeal(db *sql.DB, userID, id string) (*domain.FakeMeal, error) {
	return ownedFakeMeal(db, userID, id)
}

func ListFakeMeals(db *sql.DB, userID string) ([]*domain.FakeMeal, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT id FROM fake_meals WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list fake meals: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.FakeMeal, 0, len(ids))
	for _, id := range ids {
		fm, err := loadFakeMeal(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, fm)
	}
	return out, nil
}

func UpdateFakeMeal(db *sql.DB, userID, id string, patch domain.FakeMealPatch) (*domain.FakeMeal, error) {
	fm, err := ownedFakeMeal(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fm.Update(patch); err != nil {
		return nil, err
	}
	if err := writeFakeMeal(db, fm); err != nil {
		return nil, err
	}
	return fm, nil
}

func DeleteFakeMeal(db *sql.DB, userID, id string) error {
	fm, err := ownedFakeMeal(db, userID, id)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete fake meal tx: %w", err)
	}
	for _, stmt := range []string{`DELETE FROM day_fake_meals WHERE fake_meal_id = ?`, `DELETE FROM fake_meals WHERE id = ?`} {
		if _, err := tx.Exec(stmt, fm.ID()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete fake meal %q: %w", fm.ID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete fake meal: %w", err)
	}
	return nil
}

func ownedFakeMeal(q querier, userID, id string) (*domain.FakeMeal, error) {
	if err := requireUser(q, userID); err != nil {
		return nil, err
	}
	fm, err := loadFakeMeal(q, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := checkOwner("fake meal", fm.ID(), fm.UserID(), userID); err != nil {
		return nil, err
	}
	return fm, nil
}

func writeFakeMeal(q querier, fm *domain.FakeMeal) error {
	_, err := q.Exec(`
INSERT INTO fake_meals(id, user_id, name, calories, protein, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  calories = excluded.calories,
  protein = excluded.protein,
  updated_at = excluded.updated_at
`, fm.ID(), fm.UserID(), fm.Name(), fm.Calories(), fm.Protein(), formatTime(fm.CreatedAt()), formatTime(fm.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save fake meal %q: %w", fm.ID(), err)
	}
	return nil
}

func loadFakeMeal(q querier, id string) (*domain.FakeMeal, error) {
	var (
		userID, name           string
		calories, protein      float64
		createdRaw, updatedRaw string
	)
	err := q.QueryRow(`SELECT user_id, name, calories, protein, created_at, updated_at FROM fake_meals WHERE id = ?`, id).
		Scan(&userID, &name, &calories, &protein, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("fake meal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load fake meal %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	return domain.NewFakeMeal(domain.FakeMealProps{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Calories:  calories,
		Protein:   protein,
		CreatedAt: created,
		UpdatedAt: updated,
	})
}
