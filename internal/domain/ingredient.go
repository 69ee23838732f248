package domain

import "time"

const ingredientNameMaxLength = 100

// NutritionalInfo holds rates per 100 g.
type NutritionalInfo struct {
	Calories float64
	Protein  float64
}

type IngredientProps struct {
	ID                     string
	Name                   string
	NutritionalInfoPer100g NutritionalInfo
	ImageURL               string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type Ingredient struct {
	id        ID
	name      Text
	nutrition NutritionalInfo
	imageURL  string
	timestamps
}

// NewIngredient requires strictly positive calories and protein.
func NewIngredient(p IngredientProps) (*Ingredient, error) {
	if err := ValidateGreaterThanZero(p.NutritionalInfoPer100g.Calories, "Ingredient calories"); err != nil {
		return nil, err
	}
	if err := ValidateGreaterThanZero(p.NutritionalInfoPer100g.Protein, "Ingredient protein"); err != nil {
		return nil, err
	}
	return buildIngredient(p)
}

// RestoreIngredient rebuilds a persisted ingredient. Rates may be zero, as Update allows.
func RestoreIngredient(p IngredientProps) (*Ingredient, error) {
	if err := validateNutrition(p.NutritionalInfoPer100g); err != nil {
		return nil, err
	}
	return buildIngredient(p)
}

func buildIngredient(p IngredientProps) (*Ingredient, error) {
	id, err := NewID(p.ID)
	if err != nil {
		return nil, err
	}
	name, err := ingredientName(p.Name)
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Ingredient{
		id:         id,
		name:       name,
		nutrition:  p.NutritionalInfoPer100g,
		imageURL:   p.ImageURL,
		timestamps: ts,
	}, nil
}

type IngredientPatch struct {
	Name                   *string
	NutritionalInfoPer100g *NutritionalInfo
	ImageURL               *string
}

func (i *Ingredient) Update(patch IngredientPatch) error {
	var name Text
	if patch.Name != nil {
		n, err := ingredientName(*patch.Name)
		if err != nil {
			return err
		}
		name = n
	}
	if patch.NutritionalInfoPer100g != nil {
		if err := validateNutrition(*patch.NutritionalInfoPer100g); err != nil {
			return err
		}
	}

	if patch.Name != nil {
		i.name = name
	}
	if patch.NutritionalInfoPer100g != nil {
		i.nutrition = *patch.NutritionalInfoPer100g
	}
	if patch.ImageURL != nil {
		i.imageURL = *patch.ImageURL
	}
	i.touch()
	return nil
}

func (i *Ingredient) ID() string                               { return i.id.Value() }
func (i *Ingredient) Name() string                             { return i.name.Value() }
func (i *Ingredient) NutritionalInfoPer100g() NutritionalInfo { return i.nutrition }
func (i *Ingredient) ImageURL() string                         { return i.imageURL }

func ingredientName(raw string) (Text, error) {
	return NewText(raw, TextOptions{MaxLength: ingredientNameMaxLength, NotEmpty: true})
}

func validateNutrition(n NutritionalInfo) error {
	if err := ValidatePositiveNumber(n.Calories, "Ingredient calories"); err != nil {
		return err
	}
	return ValidatePositiveNumber(n.Protein, "Ingredient protein")
}
