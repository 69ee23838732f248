package domain

import "time"

type ParentType string

const (
	ParentMeal   ParentType = "meal"
	ParentRecipe ParentType = "recipe"
)

func NewParentType(raw string) (ParentType, error) {
	switch p := ParentType(raw); p {
	case ParentMeal, ParentRecipe:
		return p, nil
	default:
		return "", Validationf("IngredientLine: invalid parent type %q", raw)
	}
}

type IngredientLineProps struct {
	ID              string
	ParentID        string
	ParentType      ParentType
	Ingredient      *Ingredient
	QuantityInGrams float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IngredientLine is a quantity of one ingredient inside a meal or a recipe.
type IngredientLine struct {
	id         ID
	parentID   ID
	parentType ParentType
	ingredient *Ingredient
	quantity   Float
	timestamps
}

func NewIngredientLine(p IngredientLineProps) (*IngredientLine, error) {
	id, err := NewID(p.ID)
	if err != nil {
		return nil, err
	}
	parentID, err := NewID(p.ParentID)
	if err != nil {
		return nil, err
	}
	parentType, err := NewParentType(string(p.ParentType))
	if err != nil {
		return nil, err
	}
	if err := ValidateObject(p.Ingredient, "IngredientLine ingredient"); err != nil {
		return nil, err
	}
	quantity, err := lineQuantity(p.QuantityInGrams)
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &IngredientLine{
		id:         id,
		parentID:   parentID,
		parentType: parentType,
		ingredient: p.Ingredient,
		quantity:   quantity,
		timestamps: ts,
	}, nil
}

type IngredientLinePatch struct {
	Ingredient      *Ingredient
	QuantityInGrams *float64
}

// update rejects a patch that changes nothing. Lines change only through the
// Recipe or Meal holding them.
func (l *IngredientLine) update(patch IngredientLinePatch) error {
	if patch.Ingredient == nil && patch.QuantityInGrams == nil {
		return Validationf("IngredientLine: no fields to update")
	}
	var quantity Float
	if patch.QuantityInGrams != nil {
		q, err := lineQuantity(*patch.QuantityInGrams)
		if err != nil {
			return err
		}
		quantity = q
	}
	if patch.Ingredient != nil {
		l.ingredient = patch.Ingredient
	}
	if patch.QuantityInGrams != nil {
		l.quantity = quantity
	}
	l.touch()
	return nil
}

func (l *IngredientLine) clone() *IngredientLine {
	c := *l
	return &c
}

func (l *IngredientLine) ID() string              { return l.id.Value() }
func (l *IngredientLine) ParentID() string        { return l.parentID.Value() }
func (l *IngredientLine) ParentType() ParentType  { return l.parentType }
func (l *IngredientLine) Ingredient() *Ingredient { return l.ingredient }
func (l *IngredientLine) IngredientID() string    { return l.ingredient.ID() }
func (l *IngredientLine) QuantityInGrams() float64 {
	return l.quantity.Value()
}

func (l *IngredientLine) Calories() float64 {
	return l.ingredient.NutritionalInfoPer100g().Calories * l.quantity.Value() / 100
}

func (l *IngredientLine) Protein() float64 {
	return l.ingredient.NutritionalInfoPer100g().Protein * l.quantity.Value() / 100
}

func lineQuantity(grams float64) (Float, error) {
	return NewFloat(grams, NumberOptions{OnlyPositive: true, NonZero: true})
}
