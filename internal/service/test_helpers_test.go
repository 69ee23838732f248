package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/saadjs/nutrilog/internal/db"
	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nutrilog.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func newTestUser(t *testing.T, sqldb *sql.DB, name string) *domain.User {
	t.Helper()
	u, err := service.CreateUser(sqldb, name, "")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func newTestIngredient(t *testing.T, sqldb *sql.DB, name string, calories, protein float64) *domain.Ingredient {
	t.Helper()
	ing, err := service.CreateIngredient(sqldb, service.IngredientInput{
		Name:            name,
		CaloriesPer100g: calories,
		ProteinPer100g:  protein,
	})
	if err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return ing
}

func grams(ingredientID string, g float64) service.LineInput {
	return service.LineInput{IngredientID: ingredientID, Quantity: service.Quantity{Amount: g, Unit: "g"}}
}

func newTestMeal(t *testing.T, sqldb *sql.DB, userID, name string, lines ...service.LineInput) *domain.Meal {
	t.Helper()
	m, err := service.CreateMeal(sqldb, userID, service.MealInput{Name: name, Lines: lines})
	if err != nil {
		t.Fatalf("create meal %s: %v", name, err)
	}
	return m
}

func newTestExercise(t *testing.T, sqldb *sql.DB, id, name string) *domain.Exercise {
	t.Helper()
	ex, err := service.CreateExercise(sqldb, service.ExerciseInput{ID: id, Name: name})
	if err != nil {
		t.Fatalf("create exercise %s: %v", id, err)
	}
	return ex
}
