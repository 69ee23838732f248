package service_test

import (
	"math"
	"testing"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

func TestIngredientCatalogue(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	oats := newTestIngredient(t, db, "Rolled oats", 389, 16.9)
	newTestIngredient(t, db, "Milk", 64, 3.4)

	items, err := service.ListIngredients(db, service.IngredientFilter{Query: "OAT"})
	if err != nil {
		t.Fatalf("list ingredients: %v", err)
	}
	if len(items) != 1 || items[0].ID() != oats.ID() {
		t.Fatalf("expected only oats to match, got %d items", len(items))
	}

	zero := domain.NutritionalInfo{Calories: 0, Protein: 0}
	updated, err := service.UpdateIngredient(db, oats.ID(), domain.IngredientPatch{NutritionalInfoPer100g: &zero})
	if err != nil {
		t.Fatalf("update ingredient to zero rates: %v", err)
	}
	if updated.NutritionalInfoPer100g().Calories != 0 {
		t.Fatalf("expected zero calories after update, got %v", updated.NutritionalInfoPer100g().Calories)
	}
	reloaded, err := service.GetIngredient(db, oats.ID())
	if err != nil {
		t.Fatalf("reload ingredient with zero rates: %v", err)
	}
	if reloaded.NutritionalInfoPer100g().Protein != 0 {
		t.Fatalf("expected zero protein after reload, got %v", reloaded.NutritionalInfoPer100g().Protein)
	}

	if _, err := service.CreateIngredient(db, service.IngredientInput{Name: "Water", CaloriesPer100g: 0, ProteinPer100g: 0}); !domain.IsValidation(err) {
		t.Fatalf("expected creation with zero rates to fail validation, got %v", err)
	}
}

func TestIngredientSearchTreatsWildcardsLiterally(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	whey := newTestIngredient(t, db, "100% whey", 400, 80)
	newTestIngredient(t, db, "1000 island dressing", 380, 1)
	underscore := newTestIngredient(t, db, "oat_milk", 45, 1)
	newTestIngredient(t, db, "oatmilk", 45, 1)
	slash := newTestIngredient(t, db, `back\slash`, 10, 1)

	cases := []struct {
		query string
		want  []string
	}{
		{query: "100%", want: []string{whey.ID()}},
		{query: "oat_", want: []string{underscore.ID()}},
		{query: "%", want: []string{whey.ID()}},
		{query: `k\s`, want: []string{slash.ID()}},
	}
	for _, tc := range cases {
		items, err := service.ListIngredients(db, service.IngredientFilter{Query: tc.query})
		if err != nil {
			t.Fatalf("list ingredients %q: %v", tc.query, err)
		}
		got := make([]string, 0, len(items))
		for _, it := range items {
			got = append(got, it.ID())
		}
		if len(got) != len(tc.want) || (len(got) == 1 && got[0] != tc.want[0]) {
			t.Fatalf("query %q: expected %v, got %v", tc.query, tc.want, got)
		}
	}

	newTestExercise(t, db, "pct", "50% squat")
	newTestExercise(t, db, "full", "500 squat")
	exercises, err := service.ListExercises(db, "50%")
	if err != nil {
		t.Fatalf("list exercises: %v", err)
	}
	if len(exercises) != 1 || exercises[0].ID() != "pct" {
		t.Fatalf("expected only the literal match, got %d exercises", len(exercises))
	}
}

func TestDeleteIngredientInUseConflicts(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	u := newTestUser(t, db, "Sam")
	oats := newTestIngredient(t, db, "Oats", 389, 16.9)
	newTestMeal(t, db, u.ID(), "Breakfast", grams(oats.ID(), 50))

	err := service.DeleteIngredient(db, oats.ID())
	if domain.CodeOf(err) != domain.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if err := service.DeleteIngredient(db, "missing"); !domain.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRecipeLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	u := newTestUser(t, db, "Sam")
	oats := newTestIngredient(t, db, "Oats", 400, 15)
	milk := newTestIngredient(t, db, "Milk", 60, 3)

	recipe, err := service.CreateRecipe(db, u.ID(), service.RecipeInput{
		Name: "Porridge",
		Lines: []service.LineInput{
			grams(oats.ID(), 50),
			{IngredientID: milk.ID(), Quantity: service.Quantity{Amount: 0.2, Unit: "l"}, DensityGPerML: 1},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if math.Abs(recipe.Calories()-320) > 1e-9 {
		t.Fatalf("expected 320 kcal, got %v", recipe.Calories())
	}

	_, err = service.CreateRecipe(db, u.ID(), service.RecipeInput{
		Name:  "Milk only",
		Lines: []service.LineInput{{IngredientID: milk.ID(), Quantity: service.Quantity{Amount: 1, Unit: "cup"}}},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected volume without density to fail validation, got %v", err)
	}

	if _, err := service.AddRecipeLine(db, u.ID(), recipe.ID(), grams(oats.ID(), 10)); !domain.IsValidation(err) {
		t.Fatalf("expected duplicate ingredient to fail validation, got %v", err)
	}

	q := service.Quantity{Amount: 100, Unit: "g"}
	recipe, err = service.UpdateRecipeLine(db, u.ID(), recipe.ID(), oats.ID(), service.LineUpdate{Quantity: &q})
	if err != nil {
		t.Fatalf("update recipe line: %v", err)
	}
	if math.Abs(recipe.Calories()-520) > 1e-9 {
		t.Fatalf("expected 520 kcal after update, got %v", recipe.Calories())
	}

	recipe, err = service.RemoveRecipeLine(db, u.ID(), recipe.ID(), milk.ID())
	if err != nil {
		t.Fatalf("remove recipe line: %v", err)
	}
	if _, err := service.RemoveRecipeLine(db, u.ID(), recipe.ID(), oats.ID()); !domain.IsValidation(err) {
		t.Fatalf("expected removing the last line to fail validation, got %v", err)
	}

	stored, err := service.GetRecipe(db, u.ID(), recipe.ID())
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if len(stored.IngredientLines()) != 1 || stored.IngredientLines()[0].IngredientID() != oats.ID() {
		t.Fatalf("unexpected stored lines: %d", len(stored.IngredientLines()))
	}

	name := "Oat porridge"
	if _, err := service.UpdateRecipe(db, u.ID(), recipe.ID(), domain.RecipePatch{Name: &name}); err != nil {
		t.Fatalf("rename recipe: %v", err)
	}
	list, err := service.ListRecipes(db, u.ID())
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if len(list) != 1 || list[0].Name() != "Oat porridge" {
		t.Fatalf("unexpected recipe list: %d", len(list))
	}

	if err := service.DeleteRecipe(db, u.ID(), recipe.ID()); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	if _, err := service.GetRecipe(db, u.ID(), recipe.ID()); !domain.IsNotFound(err) {
		t.Fatalf("expected deleted recipe to be gone, got %v", err)
	}
}

func TestOwnershipIsEnforced(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	owner := newTestUser(t, db, "Owner")
	other := newTestUser(t, db, "Other")
	oats := newTestIngredient(t, db, "Oats", 389, 16.9)
	meal := newTestMeal(t, db, owner.ID(), "Breakfast", grams(oats.ID(), 50))

	if _, err := service.GetMeal(db, other.ID(), meal.ID()); domain.CodeOf(err) != domain.CodePermission {
		t.Fatalf("expected PERMISSION, got %v", err)
	}
	if err := service.DeleteMeal(db, other.ID(), meal.ID()); domain.CodeOf(err) != domain.CodePermission {
		t.Fatalf("expected PERMISSION on delete, got %v", err)
	}
	if _, err := service.AddMealToDay(db, other.ID(), time.Now(), meal.ID()); domain.CodeOf(err) != domain.CodePermission {
		t.Fatalf("expected PERMISSION when linking another user's meal, got %v", err)
	}
	if _, err := service.ListMeals(db, "ghost"); !domain.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND for unknown user, got %v", err)
	}
	if _, err := service.ListMeals(db, " "); domain.CodeOf(err) != domain.CodeAuth {
		t.Fatalf("expected AUTH without a user, got %v", err)
	}
}

func TestMealFromRecipeAndLines(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	u := newTestUser(t, db, "Sam")
	oats := newTestIngredient(t, db, "Oats", 400, 15)
	milk := newTestIngredient(t, db, "Milk", 60, 3)
	recipe, err := service.CreateRecipe(db, u.ID(), service.RecipeInput{
		Name:  "Porridge",
		Lines: []service.LineInput{grams(oats.ID(), 50), grams(milk.ID(), 200)},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	day := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	meal, err := service.CreateMealFromRecipe(db, u.ID(), recipe.ID(), "", &day)
	if err != nil {
		t.Fatalf("create meal from recipe: %v", err)
	}
	if meal.Name() != "Porridge" {
		t.Fatalf("expected meal to reuse recipe name, got %q", meal.Name())
	}
	for _, l := range meal.IngredientLines() {
		if l.ParentType() != domain.ParentMeal || l.ParentID() != meal.ID() {
			t.Fatalf("expected copied line to belong to the meal, got %s/%s", l.ParentType(), l.ParentID())
		}
	}

	d, err := service.GetDay(db, u.ID(), day)
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if !d.HasMeal(meal.ID()) {
		t.Fatalf("expected meal to be linked to %s", d.ID())
	}

	// Meals may lose every line after creation.
	if _, err := service.RemoveMealLine(db, u.ID(), meal.ID(), oats.ID()); err != nil {
		t.Fatalf("remove oats: %v", err)
	}
	meal, err = service.RemoveMealLine(db, u.ID(), meal.ID(), milk.ID())
	if err != nil {
		t.Fatalf("remove milk: %v", err)
	}
	if len(meal.IngredientLines()) != 0 {
		t.Fatalf("expected empty meal, got %d lines", len(meal.IngredientLines()))
	}
	reloaded, err := service.GetMeal(db, u.ID(), meal.ID())
	if err != nil {
		t.Fatalf("reload empty meal: %v", err)
	}
	if reloaded.Calories() != 0 {
		t.Fatalf("expected zero calories, got %v", reloaded.Calories())
	}

	if _, err := service.AddMealLine(db, u.ID(), meal.ID(), grams(milk.ID(), 300)); err != nil {
		t.Fatalf("add meal line: %v", err)
	}
	if err := service.DeleteMeal(db, u.ID(), meal.ID()); err != nil {
		t.Fatalf("delete meal: %v", err)
	}
	d, err = service.GetDay(db, u.ID(), day)
	if err != nil {
		t.Fatalf("get day after delete: %v", err)
	}
	if d.HasMeal(meal.ID()) {
		t.Fatalf("expected meal link to be removed with the meal")
	}
}
