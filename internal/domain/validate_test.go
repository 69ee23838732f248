package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saadjs/nutrilog/internal/domain"
)

func TestValidationHelpers(t *testing.T) {
	var nilIngredient *domain.Ingredient

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty string", domain.ValidateNonEmptyString("  ", "Meal name"), "Meal name: cannot be empty"},
		{"nan", domain.ValidateNumber(math.NaN(), "Weight"), "Weight: must be a finite number"},
		{"negative", domain.ValidatePositiveNumber(-1, "Protein"), "Protein: must be a positive number"},
		{"zero", domain.ValidateGreaterThanZero(0, "Calories"), "Calories: must be greater than zero"},
		{"fraction", domain.ValidateInteger(2.5, "Reps"), "Reps: must be an integer"},
		{"nil", domain.ValidateObject(nil, "Line"), "Line: is required"},
		{"typed nil", domain.ValidateObject(nilIngredient, "Ingredient"), "Ingredient: is required"},
		{"zero time", domain.ValidateDate(time.Time{}, "Day"), "Day: must be a valid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
			assert.True(t, domain.IsValidation(tt.err))
		})
	}

	assert.NoError(t, domain.ValidateNonEmptyString("x", "c"))
	assert.NoError(t, domain.ValidatePositiveNumber(0, "c"))
	assert.NoError(t, domain.ValidateGreaterThanZero(0.1, "c"))
	assert.NoError(t, domain.ValidateInteger(3, "c"))
	assert.NoError(t, domain.ValidateObject(struct{}{}, "c"))
	assert.NoError(t, domain.ValidateDate(time.Now(), "c"))
}
