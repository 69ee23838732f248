package domain

import (
	"math"
	"reflect"
	"strings"
	"time"
)

// Free-standing checks for fields that do not warrant a value object.
// Each returns a VALIDATION error shaped "<context>: <reason>".

func ValidateNonEmptyString(value, context string) error {
	if strings.TrimSpace(value) == "" {
		return Validationf("%s: cannot be empty", context)
	}
	return nil
}

func ValidateNumber(value float64, context string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Validationf("%s: must be a finite number", context)
	}
	return nil
}

// ValidatePositiveNumber accepts zero.
func ValidatePositiveNumber(value float64, context string) error {
	if err := ValidateNumber(value, context); err != nil {
		return err
	}
	if value < 0 {
		return Validationf("%s: must be a positive number", context)
	}
	return nil
}

func ValidateGreaterThanZero(value float64, context string) error {
	if err := ValidateNumber(value, context); err != nil {
		return err
	}
	if value <= 0 {
		return Validationf("%s: must be greater than zero", context)
	}
	return nil
}

func ValidateInteger(value float64, context string) error {
	if err := ValidateNumber(value, context); err != nil {
		return err
	}
	if value != math.Trunc(value) {
		return Validationf("%s: must be an integer", context)
	}
	return nil
}

// ValidateObject rejects nil, including typed nil pointers, maps and slices.
func ValidateObject(value any, context string) error {
	if value == nil {
		return Validationf("%s: is required", context)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return Validationf("%s: is required", context)
		}
	}
	return nil
}

func ValidateDate(value time.Time, context string) error {
	if value.IsZero() {
		return Validationf("%s: must be a valid date", context)
	}
	return nil
}
