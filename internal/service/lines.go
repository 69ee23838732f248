package service

import (
	"fmt"
	"strings"

	"github.com/saadjs/nutrilog/internal/domain"
)

// LineInput describes an ingredient line before conversion to grams.
type LineInput struct {
	IngredientID  string
	Quantity      Quantity
	DensityGPerML float64
}

// LineUpdate changes the quantity and/or the ingredient of an existing line.
type LineUpdate struct {
	IngredientID  string
	Quantity      *Quantity
	DensityGPerML float64
}

func buildLine(q querier, parentType domain.ParentType, parentID string, in LineInput) (*domain.IngredientLine, error) {
	ing, err := loadIngredient(q, strings.TrimSpace(in.IngredientID))
	if err != nil {
		return nil, err
	}
	grams, err := ToGrams(in.Quantity, in.DensityGPerML)
	if err != nil {
		return nil, err
	}
	return domain.NewIngredientLine(domain.IngredientLineProps{
		ID:              domain.GenerateID().Value(),
		ParentID:        parentID,
		ParentType:      parentType,
		Ingredient:      ing,
		QuantityInGrams: grams,
	})
}

func buildLinePatch(q querier, in LineUpdate) (domain.IngredientLinePatch, error) {
	var patch domain.IngredientLinePatch
	if id := strings.TrimSpace(in.IngredientID); id != "" {
		ing, err := loadIngredient(q, id)
		if err != nil {
			return patch, err
		}
		patch.Ingredient = ing
	}
	if in.Quantity != nil {
		grams, err := ToGrams(*in.Quantity, in.DensityGPerML)
		if err != nil {
			return patch, err
		}
		patch.QuantityInGrams = &grams
	}
	return patch, nil
}

// replaceLines rewrites the stored lines of one parent in list order.
func replaceLines(q querier, parentType domain.ParentType, parentID string, lines []*domain.IngredientLine) error {
	if _, err := q.Exec(`DELETE FROM ingredient_lines WHERE parent_type = ? AND parent_id = ?`, string(parentType), parentID); err != nil {
		return fmt.Errorf("clear %s lines: %w", parentType, err)
	}
	for i, l := range lines {
		_, err := q.Exec(`
INSERT INTO ingredient_lines(id, parent_type, parent_id, ingredient_id, quantity_grams, position, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, l.ID(), string(parentType), parentID, l.IngredientID(), l.QuantityInGrams(), i, formatTime(l.CreatedAt()), formatTime(l.UpdatedAt()))
		if err != nil {
			return fmt.Errorf("insert %s line: %w", parentType, err)
		}
	}
	return nil
}

func loadLines(q querier, parentType domain.ParentType, parentID string) ([]*domain.IngredientLine, error) {
	rows, err := q.Query(`
SELECT id, ingredient_id, quantity_grams, created_at, updated_at
FROM ingredient_lines
WHERE parent_type = ? AND parent_id = ?
ORDER BY position ASC, id ASC
`, string(parentType), parentID)
	if err != nil {
		return nil, fmt.Errorf("load %s lines: %w", parentType, err)
	}
	type row struct {
		id, ingredientID       string
		grams                  float64
		createdRaw, updatedRaw string
	}
	raw := make([]row, 0)
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.ingredientID, &r.grams, &r.createdRaw, &r.updatedRaw); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan %s line: %w", parentType, err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate %s lines: %w", parentType, err)
	}
	_ = rows.Close()

	out := make([]*domain.IngredientLine, 0, len(raw))
	for _, r := range raw {
		ing, err := loadIngredient(q, r.ingredientID)
		if err != nil {
			return nil, err
		}
		created, err := parseTime(r.createdRaw)
		if err != nil {
			return nil, err
		}
		updated, err := parseTime(r.updatedRaw)
		if err != nil {
			return nil, err
		}
		line, err := domain.NewIngredientLine(domain.IngredientLineProps{
			ID:              r.id,
			ParentID:        parentID,
			ParentType:      parentType,
			Ingredient:      ing,
			QuantityInGrams: r.grams,
			CreatedAt:       created,
			UpdatedAt:       updated,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}
