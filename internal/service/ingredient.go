package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/nutrilog/internal/domain"
)

type IngredientInput struct {
	Name            string
	CaloriesPer100g float64
	ProteinPer100g  float64
	ImageURL        string
}

type IngredientFilter struct {
	Query string
	Limit int
}

func CreateIngredient(db *sql.DB, in IngredientInput) (*domain.Ingredient, error) {
	ing, err := domain.NewIngredient(domain.IngredientProps{
		ID:                     domain.GenerateID().Value(),
		Name:                   in.Name,
		NutritionalInfoPer100g: domain.NutritionalInfo{Calories: in.CaloriesPer100g, Protein: in.ProteinPer100g},
		ImageURL:               strings.TrimSpace(in.ImageURL),
	})
	if err != nil {
		return nil, err
	}
	if err := saveIngredient(db, ing); err != nil {
		return nil, err
	}
	return ing, nil
}

func GetIngredient(db *sql.DB, id string) (*domain.Ingredient, error) {
	return loadIngredient(db, strings.TrimSpace(id))
}

// ListIngredients returns catalogue ingredients ordered by name, optionally
// filtered by a case-insensitive substring.
func ListIngredients(db *sql.DB, filter IngredientFilter) ([]*domain.Ingredient, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id FROM ingredients`
	args := make([]any, 0, 2)
	if q := normalizeName(filter.Query); q != "" {
		query += ` WHERE lower(name) LIKE ? ESCAPE '\'`
		args = append(args, containsPattern(q))
	}
	query += ` ORDER BY lower(name) ASC, id ASC LIMIT ?`
	args = append(args, limit)
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Ingredient, 0, len(ids))
	for _, id := range ids {
		ing, err := loadIngredient(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, nil
}

func UpdateIngredient(db *sql.DB, id string, patch domain.IngredientPatch) (*domain.Ingredient, error) {
	ing, err := loadIngredient(db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := ing.Update(patch); err != nil {
		return nil, err
	}
	if err := saveIngredient(db, ing); err != nil {
		return nil, err
	}
	return ing, nil
}

// DeleteIngredient refuses to remove an ingredient still used by a meal or recipe.
func DeleteIngredient(db *sql.DB, id string) error {
	id = strings.TrimSpace(id)
	if _, err := loadIngredient(db, id); err != nil {
		return err
	}
	var uses int
	if err := db.QueryRow(`SELECT COUNT(1) FROM ingredient_lines WHERE ingredient_id = ?`, id).Scan(&uses); err != nil {
		return fmt.Errorf("count ingredient uses: %w", err)
	}
	if uses > 0 {
		return domain.Conflictf("ingredient %q is used by %d ingredient line(s)", id, uses).WithDetail("uses", uses)
	}
	if _, err := db.Exec(`DELETE FROM ingredients WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete ingredient %q: %w", id, err)
	}
	return nil
}

func saveIngredient(q querier, ing *domain.Ingredient) error {
	info := ing.NutritionalInfoPer100g()
	_, err := q.Exec(`
INSERT INTO ingredients(id, name, calories_per_100g, protein_per_100g, image_url, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  calories_per_100g = excluded.calories_per_100g,
  protein_per_100g = excluded.protein_per_100g,
  image_url = excluded.image_url,
  updated_at = excluded.updated_at
`, ing.ID(), ing.Name(), info.Calories, info.Protein, ing.ImageURL(), formatTime(ing.CreatedAt()), formatTime(ing.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save ingredient %q: %w", ing.ID(), err)
	}
	return nil
}

func loadIngredient(q querier, id string) (*domain.Ingredient, error) {
	var (
		name, imageURL         string
		calories, protein      float64
		createdRaw, updatedRaw string
	)
	err := q.QueryRow(`
SELECT name, calories_per_100g, protein_per_100g, image_url, created_at, updated_at
FROM ingredients WHERE id = ?
`, id).Scan(&name, &calories, &protein, &imageURL, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("ingredient", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load ingredient %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	return domain.RestoreIngredient(domain.IngredientProps{
		ID:                     id,
		Name:                   name,
		NutritionalInfoPer100g: domain.NutritionalInfo{Calories: calories, Protein: protein},
		ImageURL:               imageURL,
		CreatedAt:              created,
		UpdatedAt:              updated,
	})
}
