package service

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/saadjs/nutrilog/internal/domain"
)

type unitKind string

const (
	unitKindMass   unitKind = "mass"
	unitKindVolume unitKind = "volume"
)

type unitDef struct {
	kind       unitKind
	toBaseUnit float64
}

var unitTable = map[string]unitDef{
	// mass (base = g)
	"mg":  {kind: unitKindMass, toBaseUnit: 0.001},
	"g":   {kind: unitKindMass, toBaseUnit: 1},
	"kg":  {kind: unitKindMass, toBaseUnit: 1000},
	"oz":  {kind: unitKindMass, toBaseUnit: 28.349523125},
	"lb":  {kind: unitKindMass, toBaseUnit: 453.59237},
	"lbs": {kind: unitKindMass, toBaseUnit: 453.59237},

	// volume (base = ml)
	"ml":    {kind: unitKindVolume, toBaseUnit: 1},
	"l":     {kind: unitKindVolume, toBaseUnit: 1000},
	"tsp":   {kind: unitKindVolume, toBaseUnit: 4.92892159375},
	"tbsp":  {kind: unitKindVolume, toBaseUnit: 14.78676478125},
	"cup":   {kind: unitKindVolume, toBaseUnit: 236.5882365},
	"fl-oz": {kind: unitKindVolume, toBaseUnit: 29.5735295625},
}

// Quantity is an amount in some unit, e.g. 1.5 cup.
type Quantity struct {
	Amount float64
	Unit   string
}

// ParseQuantity reads "200", "200g" or "1.5 cup". A bare number is grams.
func ParseQuantity(raw string) (Quantity, error) {
	raw = strings.TrimSpace(raw)
	i := strings.IndexFunc(raw, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	numPart, unitPart := raw, ""
	if i >= 0 {
		numPart, unitPart = raw[:i], raw[i:]
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(numPart), 64)
	if err != nil {
		return Quantity{}, domain.Validationf("Quantity: invalid amount in %q", raw)
	}
	unit := strings.ToLower(strings.TrimSpace(unitPart))
	if unit == "" {
		unit = "g"
	}
	if _, ok := unitTable[unit]; !ok {
		return Quantity{}, domain.Validationf("Quantity: unsupported unit %q", unit)
	}
	return Quantity{Amount: amount, Unit: unit}, nil
}

// ToGrams converts a quantity to grams. Volume units need a density in g/ml.
func ToGrams(q Quantity, densityGML float64) (float64, error) {
	return ConvertIngredientAmount(q.Amount, q.Unit, "g", densityGML)
}

func ConvertIngredientAmount(value float64, fromUnit, toUnit string, densityGML float64) (float64, error) {
	if value <= 0 {
		return 0, domain.Validationf("Quantity: amount must be > 0")
	}
	from, ok := resolveUnit(fromUnit)
	if !ok {
		return 0, domain.Validationf("Quantity: unsupported unit %q", fromUnit)
	}
	to, ok := resolveUnit(toUnit)
	if !ok {
		return 0, domain.Validationf("Quantity: unsupported unit %q", toUnit)
	}

	if from.kind == to.kind {
		base := value * from.toBaseUnit
		return base / to.toBaseUnit, nil
	}

	if densityGML <= 0 {
		return 0, domain.Validationf("Quantity: density-g-per-ml must be > 0 for mass/volume conversion")
	}

	var grams float64
	switch from.kind {
	case unitKindMass:
		grams = value * from.toBaseUnit
	case unitKindVolume:
		grams = value * from.toBaseUnit * densityGML
	}

	if to.kind == unitKindMass {
		return grams / to.toBaseUnit, nil
	}
	return grams / densityGML / to.toBaseUnit, nil
}

func resolveUnit(unit string) (unitDef, bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	def, ok := unitTable[u]
	return def, ok
}
