package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/domain"
)

type MealInput struct {
	Name  string
	Lines []LineInput
	// Day attaches the new meal to that calendar day when set.
	Day *time.Time
}

func CreateMeal(db *sql.DB, userID string, in MealInput) (*domain.Meal, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	id := domain.GenerateID().Value()
	lines := make([]*domain.IngredientLine, 0, len(in.Lines))
	for _, li := range in.Lines {
		line, err := buildLine(db, domain.ParentMeal, id, li)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	m, err := domain.NewMeal(domain.MealProps{ID: id, UserID: userID, Name: in.Name, IngredientLines: lines})
	if err != nil {
		return nil, err
	}
	if err := createMealOnDay(db, m, in.Day); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMealFromRecipe copies the recipe's lines into a new meal. An empty
// name reuses the recipe name.
func CreateMealFromRecipe(db *sql.DB, userID, recipeID, name string, day *time.Time) (*domain.Meal, error) {
	r, err := ownedRecipe(db, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = r.Name()
	}
	id := domain.GenerateID().Value()
	lines := make([]*domain.IngredientLine, 0)
	for _, src := range r.IngredientLines() {
		line, err := domain.NewIngredientLine(domain.IngredientLineProps{
			ID:              domain.GenerateID().Value(),
			ParentID:        id,
			ParentType:      domain.ParentMeal,
			Ingredient:      src.Ingredient(),
			QuantityInGrams: src.QuantityInGrams(),
		})
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	m, err := domain.NewMeal(domain.MealProps{ID: id, UserID: userID, Name: name, IngredientLines: lines})
	if err != nil {
		return nil, err
	}
	if err := createMealOnDay(db, m, day); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"meal_id": m.ID(), "recipe_id": r.ID()}).Debug("created meal from recipe")
	return m, nil
}

func createMealOnDay(db *sql.DB, m *domain.Meal, day *time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin create meal tx: %w", err)
	}
	if err := writeMeal(tx, m); err != nil {
		_ = tx.Rollback()
		return err
	}
	if day != nil {
		d, err := loadOrNewDay(tx, m.UserID(), *day)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := d.AddMeal(m.ID()); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := writeDay(tx, d); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create meal: %w", err)
	}
	return nil
}

func GetMeal(db *sql.DB, userID, id string) (*domain.Meal, error) {
	return ownedMeal(db, userID, id)
}

func ListMeals(db *sql.DB, userID string) ([]*domain.Meal, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT id FROM meals WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Meal, 0, len(ids))
	for _, id := range ids {
		m, err := loadMeal(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func UpdateMeal(db *sql.DB, userID, id string, patch domain.MealPatch) (*domain.Meal, error) {
	return mutateMeal(db, userID, id, func(m *domain.Meal) error {
		return m.Update(patch)
	})
}

func AddMealLine(db *sql.DB, userID, mealID string, in LineInput) (*domain.Meal, error) {
	return mutateMeal(db, userID, mealID, func(m *domain.Meal) error {
		line, err := buildLine(db, domain.ParentMeal, m.ID(), in)
		if err != nil {
			return err
		}
		return m.AddIngredientLine(line)
	})
}

func UpdateMealLine(db *sql.DB, userID, mealID, ingredientID string, in LineUpdate) (*domain.Meal, error) {
	return mutateMeal(db, userID, mealID, func(m *domain.Meal) error {
		patch, err := buildLinePatch(db, in)
		if err != nil {
			return err
		}
		return m.UpdateIngredientLine(strings.TrimSpace(ingredientID), patch)
	})
}

func RemoveMealLine(db *sql.DB, userID, mealID, ingredientID string) (*domain.Meal, error) {
	return mutateMeal(db, userID, mealID, func(m *domain.Meal) error {
		return m.RemoveIngredientLineByIngredientID(strings.TrimSpace(ingredientID))
	})
}

// DeleteMeal removes the meal, its lines and every day link to it.
func DeleteMeal(db *sql.DB, userID, id string) error {
	m, err := ownedMeal(db, userID, id)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete meal tx: %w", err)
	}
	stmts := []string{
		`DELETE FROM ingredient_lines WHERE parent_type = 'meal' AND parent_id = ?`,
		`DELETE FROM day_meals WHERE meal_id = ?`,
		`DELETE FROM meals WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, m.ID()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete meal %q: %w", m.ID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete meal: %w", err)
	}
	return nil
}

func mutateMeal(db *sql.DB, userID, id string, fn func(*domain.Meal) error) (*domain.Meal, error) {
	m, err := ownedMeal(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin save meal tx: %w", err)
	}
	if err := writeMeal(tx, m); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save meal: %w", err)
	}
	return m, nil
}

func ownedMeal(q querier, userID, id string) (*domain.Meal, error) {
	if err := requireUser(q, userID); err != nil {
		return nil, err
	}
	m, err := loadMeal(q, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := checkOwner("meal", m.ID(), m.UserID(), userID); err != nil {
		return nil, err
	}
	return m, nil
}

func writeMeal(q querier, m *domain.Meal) error {
	_, err := q.Exec(`
INSERT INTO meals(id, user_id, name, created_at, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  updated_at = excluded.updated_at
`, m.ID(), m.UserID(), m.Name(), formatTime(m.CreatedAt()), formatTime(m.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save meal %q: %w", m.ID(), err)
	}
	return replaceLines(q, domain.ParentMeal, m.ID(), m.IngredientLines())
}

func loadMeal(q querier, id string) (*domain.Meal, error) {
	var userID, name, createdRaw, updatedRaw string
	err := q.QueryRow(`SELECT user_id, name, created_at, updated_at FROM meals WHERE id = ?`, id).
		Scan(&userID, &name, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("meal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load meal %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(q, domain.ParentMeal, id)
	if err != nil {
		return nil, err
	}
	return domain.RestoreMeal(domain.MealProps{
		ID:              id,
		UserID:          userID,
		Name:            name,
		IngredientLines: lines,
		CreatedAt:       created,
		UpdatedAt:       updated,
	})
}
