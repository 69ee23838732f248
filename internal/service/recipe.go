package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/domain"
)

type RecipeInput struct {
	Name     string
	ImageURL string
	Lines    []LineInput
}

func CreateRecipe(db *sql.DB, userID string, in RecipeInput) (*domain.Recipe, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	id := domain.GenerateID().Value()
	lines := make([]*domain.IngredientLine, 0, len(in.Lines))
	for _, li := range in.Lines {
		line, err := buildLine(db, domain.ParentRecipe, id, li)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	r, err := domain.NewRecipe(domain.RecipeProps{
		ID:              id,
		UserID:          userID,
		Name:            in.Name,
		ImageURL:        strings.TrimSpace(in.ImageURL),
		IngredientLines: lines,
	})
	if err != nil {
		return nil, err
	}
	if err := saveRecipe(db, r); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"recipe_id": r.ID(), "lines": len(lines)}).Debug("created recipe")
	return r, nil
}

func GetRecipe(db *sql.DB, userID, id string) (*domain.Recipe, error) {
	return ownedRecipe(db, userID, id)
}

func ListRecipes(db *sql.DB, userID string) ([]*domain.Recipe, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT id FROM recipes WHERE user_id = ? ORDER BY lower(name) ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Recipe, 0, len(ids))
	for _, id := range ids {
		r, err := loadRecipe(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func UpdateRecipe(db *sql.DB, userID, id string, patch domain.RecipePatch) (*domain.Recipe, error) {
	return mutateRecipe(db, userID, id, func(r *domain.Recipe) error {
		return r.Update(patch)
	})
}

func AddRecipeLine(db *sql.DB, userID, recipeID string, in LineInput) (*domain.Recipe, error) {
	return mutateRecipe(db, userID, recipeID, func(r *domain.Recipe) error {
		line, err := buildLine(db, domain.ParentRecipe, r.ID(), in)
		if err != nil {
			return err
		}
		return r.AddIngredientLine(line)
	})
}

func UpdateRecipeLine(db *sql.DB, userID, recipeID, ingredientID string, in LineUpdate) (*domain.Recipe, error) {
	return mutateRecipe(db, userID, recipeID, func(r *domain.Recipe) error {
		patch, err := buildLinePatch(db, in)
		if err != nil {
			return err
		}
		return r.UpdateIngredientLine(strings.TrimSpace(ingredientID), patch)
	})
}

func RemoveRecipeLine(db *sql.DB, userID, recipeID, ingredientID string) (*domain.Recipe, error) {
	return mutateRecipe(db, userID, recipeID, func(r *domain.Recipe) error {
		return r.RemoveIngredientLineByIngredientID(strings.TrimSpace(ingredientID))
	})
}

func DeleteRecipe(db *sql.DB, userID, id string) error {
	r, err := ownedRecipe(db, userID, id)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete recipe tx: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM ingredient_lines WHERE parent_type = 'recipe' AND parent_id = ?`, r.ID()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete recipe lines: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM recipes WHERE id = ?`, r.ID()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete recipe: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete recipe: %w", err)
	}
	return nil
}

func mutateRecipe(db *sql.DB, userID, id string, fn func(*domain.Recipe) error) (*domain.Recipe, error) {
	r, err := ownedRecipe(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := saveRecipe(db, r); err != nil {
		return nil, err
	}
	return r, nil
}

func ownedRecipe(q querier, userID, id string) (*domain.Recipe, error) {
	if err := requireUser(q, userID); err != nil {
		return nil, err
	}
	r, err := loadRecipe(q, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := checkOwner("recipe", r.ID(), r.UserID(), userID); err != nil {
		return nil, err
	}
	return r, nil
}

// saveRecipe writes the header and replaces every line in one transaction.
func saveRecipe(db *sql.DB, r *domain.Recipe) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save recipe tx: %w", err)
	}
	if err := writeRecipe(tx, r); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save recipe: %w", err)
	}
	return nil
}

func writeRecipe(q querier, r *domain.Recipe) error {
	_, err := q.Exec(`
INSERT INTO recipes(id, user_id, name, image_url, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  image_url = excluded.image_url,
  updated_at = excluded.updated_at
`, r.ID(), r.UserID(), r.Name(), r.ImageURL(), formatTime(r.CreatedAt()), formatTime(r.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save recipe %q: %w", r.ID(), err)
	}
	return replaceLines(q, domain.ParentRecipe, r.ID(), r.IngredientLines())
}

func loadRecipe(q querier, id string) (*domain.Recipe, error) {
	var userID, name, imageURL, createdRaw, updatedRaw string
	err := q.QueryRow(`SELECT user_id, name, image_url, created_at, updated_at FROM recipes WHERE id = ?`, id).
		Scan(&userID, &name, &imageURL, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("recipe", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	lines, err := loadLines(q, domain.ParentRecipe, id)
	if err != nil {
		return nil, err
	}
	return domain.NewRecipe(domain.RecipeProps{
		ID:              id,
		UserID:          userID,
		Name:            name,
		ImageURL:        imageURL,
		IngredientLines: lines,
		CreatedAt:       created,
		UpdatedAt:       updated,
	})
}
