package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutrilog/internal/domain"
)

func TestRecipeRejectsDuplicateIngredient(t *testing.T) {
	ing := newIngredient(t, "i1", 100, 10)
	_, err := domain.NewRecipe(domain.RecipeProps{
		ID:     "r1",
		UserID: "u1",
		Name:   "Porridge",
		IngredientLines: []*domain.IngredientLine{
			newLine(t, domain.ParentRecipe, "r1", ing, 100),
			newLine(t, domain.ParentRecipe, "r1", ing, 50),
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "duplicate ingredient")
}

func TestRecipeRejectsForeignLines(t *testing.T) {
	ing := newIngredient(t, "i1", 100, 10)

	_, err := domain.NewRecipe(domain.RecipeProps{ID: "r1", UserID: "u1", Name: "x"})
	assert.EqualError(t, err, "Recipe: must have at least one ingredient line")

	_, err = domain.NewRecipe(domain.RecipeProps{
		ID: "r1", UserID: "u1", Name: "x",
		IngredientLines: []*domain.IngredientLine{newLine(t, domain.ParentMeal, "r1", ing, 100)},
	})
	assert.ErrorContains(t, err, "belongs to a meal")

	_, err = domain.NewRecipe(domain.RecipeProps{
		ID: "r1", UserID: "u1", Name: "x",
		IngredientLines: []*domain.IngredientLine{newLine(t, domain.ParentRecipe, "r2", ing, 100)},
	})
	assert.ErrorContains(t, err, `belongs to recipe "r2"`)
}

func TestRecipeLinesAndTotals(t *testing.T) {
	oats := newIngredient(t, "oats", 400, 15)
	milk := newIngredient(t, "milk", 60, 3)
	recipe, err := domain.NewRecipe(domain.RecipeProps{
		ID: "r1", UserID: "u1", Name: "Porridge",
		IngredientLines: []*domain.IngredientLine{
			newLine(t, domain.ParentRecipe, "r1", oats, 50),
			newLine(t, domain.ParentRecipe, "r1", milk, 200),
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 320, recipe.Calories(), 1e-9)
	assert.InDelta(t, 13.5, recipe.Protein(), 1e-9)

	lines := recipe.IngredientLines()
	lines[0] = nil
	assert.NotNil(t, recipe.IngredientLines()[0])

	require.NoError(t, recipe.RemoveIngredientLineByIngredientID("milk"))
	assert.InDelta(t, 200, recipe.Calories(), 1e-9)

	err = recipe.RemoveIngredientLineByIngredientID("oats")
	assert.EqualError(t, err, "Recipe: cannot remove the last ingredient line")
	assert.Len(t, recipe.IngredientLines(), 1)

	err = recipe.RemoveIngredientLineByIngredientID("butter")
	assert.True(t, domain.IsValidation(err))

	grams := 100.0
	require.NoError(t, recipe.UpdateIngredientLine("oats", domain.IngredientLinePatch{QuantityInGrams: &grams}))
	assert.InDelta(t, 400, recipe.Calories(), 1e-9)

	require.NoError(t, recipe.AddIngredientLine(newLine(t, domain.ParentRecipe, "r1", milk, 100)))
	err = recipe.UpdateIngredientLine("oats", domain.IngredientLinePatch{Ingredient: milk})
	assert.ErrorContains(t, err, "duplicate ingredient")

	name := "Oat porridge"
	require.NoError(t, recipe.Update(domain.RecipePatch{Name: &name}))
	assert.Equal(t, "Oat porridge", recipe.Name())
}

func TestRecipeOwnsItsLines(t *testing.T) {
	a := newIngredient(t, "a", 100, 10)
	b := newIngredient(t, "b", 200, 20)
	la := newLine(t, domain.ParentRecipe, "r1", a, 100)
	recipe, err := domain.NewRecipe(domain.RecipeProps{
		ID: "r1", UserID: "u1", Name: "Mix",
		IngredientLines: []*domain.IngredientLine{la, newLine(t, domain.ParentRecipe, "r1", b, 100)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 300, recipe.Calories(), 1e-9)

	lines := recipe.IngredientLines()
	assert.NotSame(t, la, lines[0])
	assert.NotSame(t, lines[0], recipe.IngredientLines()[0])

	grams := 5.0
	require.NoError(t, recipe.UpdateIngredientLine("a", domain.IngredientLinePatch{QuantityInGrams: &grams}))
	assert.Equal(t, 100.0, la.QuantityInGrams())
	assert.Equal(t, 100.0, lines[0].QuantityInGrams())
	assert.InDelta(t, 205, recipe.Calories(), 1e-9)

	err = recipe.UpdateIngredientLine("b", domain.IngredientLinePatch{Ingredient: a})
	assert.ErrorContains(t, err, "duplicate ingredient")
	ids := []string{}
	for _, l := range recipe.IngredientLines() {
		ids = append(ids, l.IngredientID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	lc := newLine(t, domain.ParentRecipe, "r1", newIngredient(t, "c", 50, 5), 100)
	require.NoError(t, recipe.AddIngredientLine(lc))
	assert.NotSame(t, lc, recipe.IngredientLines()[2])
	assert.InDelta(t, 255, recipe.Calories(), 1e-9)
}

func TestMealRequiresLineOnCreateOnly(t *testing.T) {
	_, err := domain.NewMeal(domain.MealProps{ID: "m1", UserID: "u1", Name: "Lunch", IngredientLines: []*domain.IngredientLine{}})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	ing := newIngredient(t, "i1", 100, 10)
	meal, err := domain.NewMeal(domain.MealProps{
		ID: "m1", UserID: "u1", Name: "Lunch",
		IngredientLines: []*domain.IngredientLine{newLine(t, domain.ParentMeal, "m1", ing, 150)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 150, meal.Calories(), 1e-9)

	require.NoError(t, meal.RemoveIngredientLineByIngredientID("i1"))
	assert.Empty(t, meal.IngredientLines())
	assert.Equal(t, 0.0, meal.Calories())

	assert.True(t, domain.IsValidation(meal.RemoveIngredientLineByIngredientID("i1")))

	restored, err := domain.RestoreMeal(domain.MealProps{ID: "m1", UserID: "u1", Name: "Lunch"})
	require.NoError(t, err)
	assert.Empty(t, restored.IngredientLines())
}

func TestMealUpdateLine(t *testing.T) {
	ing := newIngredient(t, "i1", 100, 10)
	meal, err := domain.NewMeal(domain.MealProps{
		ID: "m1", UserID: "u1", Name: "Lunch",
		IngredientLines: []*domain.IngredientLine{newLine(t, domain.ParentMeal, "m1", ing, 100)},
	})
	require.NoError(t, err)

	err = meal.UpdateIngredientLine("i1", domain.IngredientLinePatch{})
	assert.EqualError(t, err, "IngredientLine: no fields to update")

	grams := 300.0
	require.NoError(t, meal.UpdateIngredientLine("i1", domain.IngredientLinePatch{QuantityInGrams: &grams}))
	assert.InDelta(t, 30, meal.Protein(), 1e-9)

	err = meal.AddIngredientLine(newLine(t, domain.ParentMeal, "m1", ing, 10))
	assert.ErrorContains(t, err, "duplicate ingredient")
}
