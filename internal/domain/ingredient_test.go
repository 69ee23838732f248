package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutrilog/internal/domain"
)

func newIngredient(t *testing.T, id string, calories, protein float64) *domain.Ingredient {
	t.Helper()
	ing, err := domain.NewIngredient(domain.IngredientProps{
		ID:                     id,
		Name:                   "ingredient " + id,
		NutritionalInfoPer100g: domain.NutritionalInfo{Calories: calories, Protein: protein},
	})
	require.NoError(t, err)
	return ing
}

func newLine(t *testing.T, parentType domain.ParentType, parentID string, ing *domain.Ingredient, grams float64) *domain.IngredientLine {
	t.Helper()
	line, err := domain.NewIngredientLine(domain.IngredientLineProps{
		ID:              domain.GenerateID().Value(),
		ParentID:        parentID,
		ParentType:      parentType,
		Ingredient:      ing,
		QuantityInGrams: grams,
	})
	require.NoError(t, err)
	return line
}

func TestNewIngredientDefaultsTimestamps(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ing := newIngredient(t, "oats", 389, 16.9)
	assert.Equal(t, "oats", ing.ID())
	assert.True(t, ing.CreatedAt().After(before))
	assert.Equal(t, ing.CreatedAt(), ing.UpdatedAt())
}

func TestNewIngredientRules(t *testing.T) {
	_, err := domain.NewIngredient(domain.IngredientProps{ID: "x", Name: "x", NutritionalInfoPer100g: domain.NutritionalInfo{Calories: 0, Protein: 1}})
	assert.ErrorContains(t, err, "Ingredient calories: must be greater than zero")

	_, err = domain.NewIngredient(domain.IngredientProps{ID: "x", Name: "x", NutritionalInfoPer100g: domain.NutritionalInfo{Calories: 1, Protein: 0}})
	assert.ErrorContains(t, err, "Ingredient protein")

	_, err = domain.NewIngredient(domain.IngredientProps{ID: "x", Name: strings.Repeat("a", 101), NutritionalInfoPer100g: domain.NutritionalInfo{Calories: 1, Protein: 1}})
	assert.ErrorContains(t, err, "max length of 100")

	_, err = domain.NewIngredient(domain.IngredientProps{ID: "", Name: "x", NutritionalInfoPer100g: domain.NutritionalInfo{Calories: 1, Protein: 1}})
	assert.EqualError(t, err, "Id: value cannot be empty")

	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = domain.NewIngredient(domain.IngredientProps{
		ID: "x", Name: "x", NutritionalInfoPer100g: domain.NutritionalInfo{Calories: 1, Protein: 1},
		CreatedAt: created, UpdatedAt: created.Add(-time.Hour),
	})
	assert.True(t, domain.IsValidation(err))
}

func TestIngredientUpdateAllowsZeroRates(t *testing.T) {
	ing := newIngredient(t, "water", 1, 1)
	stamp := ing.UpdatedAt()
	time.Sleep(time.Millisecond)

	zero := domain.NutritionalInfo{}
	require.NoError(t, ing.Update(domain.IngredientPatch{NutritionalInfoPer100g: &zero}))
	assert.Equal(t, 0.0, ing.NutritionalInfoPer100g().Calories)
	assert.True(t, ing.UpdatedAt().After(stamp))

	negative := domain.NutritionalInfo{Calories: -1}
	assert.True(t, domain.IsValidation(ing.Update(domain.IngredientPatch{NutritionalInfoPer100g: &negative})))

	empty := " "
	assert.True(t, domain.IsValidation(ing.Update(domain.IngredientPatch{Name: &empty})))
	assert.Equal(t, "ingredient water", ing.Name())

	restored, err := domain.RestoreIngredient(domain.IngredientProps{ID: "water", Name: "Water", CreatedAt: ing.CreatedAt(), UpdatedAt: ing.UpdatedAt()})
	require.NoError(t, err)
	assert.Equal(t, "Water", restored.Name())
}

func TestIngredientLineDerivesNutrition(t *testing.T) {
	ing := newIngredient(t, "i1", 100, 10)
	line := newLine(t, domain.ParentRecipe, "r1", ing, 200)
	assert.Equal(t, 200.0, line.Calories())
	assert.Equal(t, 20.0, line.Protein())
	assert.Equal(t, "i1", line.IngredientID())
}

func TestIngredientLineRules(t *testing.T) {
	ing := newIngredient(t, "i1", 100, 10)
	base := domain.IngredientLineProps{ID: "l1", ParentID: "m1", ParentType: domain.ParentMeal, Ingredient: ing, QuantityInGrams: 50}

	p := base
	p.QuantityInGrams = 0
	_, err := domain.NewIngredientLine(p)
	assert.EqualError(t, err, "Float: value cannot be zero")

	p = base
	p.QuantityInGrams = -5
	_, err = domain.NewIngredientLine(p)
	assert.True(t, domain.IsValidation(err))

	p = base
	p.ParentType = "snack"
	_, err = domain.NewIngredientLine(p)
	assert.ErrorContains(t, err, "invalid parent type")

	p = base
	p.Ingredient = nil
	_, err = domain.NewIngredientLine(p)
	assert.ErrorContains(t, err, "IngredientLine ingredient: is required")
}

func TestIngredientLineUpdateThroughMeal(t *testing.T) {
	ing := newIngredient(t, "i1", 100, 10)
	meal, err := domain.NewMeal(domain.MealProps{
		ID: "m1", UserID: "u1", Name: "Lunch",
		IngredientLines: []*domain.IngredientLine{newLine(t, domain.ParentMeal, "m1", ing, 100)},
	})
	require.NoError(t, err)

	err = meal.UpdateIngredientLine("i1", domain.IngredientLinePatch{})
	assert.EqualError(t, err, "IngredientLine: no fields to update")

	grams := 50.0
	require.NoError(t, meal.UpdateIngredientLine("i1", domain.IngredientLinePatch{QuantityInGrams: &grams}))
	assert.Equal(t, 50.0, meal.Calories())

	bad := 0.0
	assert.True(t, domain.IsValidation(meal.UpdateIngredientLine("i1", domain.IngredientLinePatch{QuantityInGrams: &bad})))
	assert.Equal(t, 50.0, meal.IngredientLines()[0].QuantityInGrams())

	other := newIngredient(t, "i2", 300, 30)
	require.NoError(t, meal.UpdateIngredientLine("i1", domain.IngredientLinePatch{Ingredient: other}))
	assert.Equal(t, 150.0, meal.Calories())
	assert.Equal(t, "i2", meal.IngredientLines()[0].IngredientID())
}

func TestExternalIngredientRef(t *testing.T) {
	ref, err := domain.NewExternalIngredientRef(domain.ExternalIngredientRefProps{ExternalID: " 3017620422003 ", Source: "USDA", IngredientID: "i1"})
	require.NoError(t, err)
	assert.Equal(t, "3017620422003", ref.ExternalID())
	assert.Equal(t, domain.SourceUSDA, ref.Source())
	assert.False(t, ref.CreatedAt().IsZero())

	_, err = domain.NewExternalIngredientRef(domain.ExternalIngredientRefProps{ExternalID: "1", Source: "fatsecret", IngredientID: "i1"})
	assert.ErrorContains(t, err, "unsupported source")
}
