package domain

import "time"

type MealProps struct {
	ID              string
	UserID          string
	Name            string
	IngredientLines []*IngredientLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Meal is an eaten portion made of ingredient lines. A new meal needs at least
// one line; removing lines afterwards may leave it empty.
type Meal struct {
	id     ID
	userID ID
	name   Text
	lines  lineSet
	timestamps
}

func NewMeal(p MealProps) (*Meal, error) {
	if len(p.IngredientLines) == 0 {
		return nil, Validationf("Meal: must have at least one ingredient line")
	}
	return buildMeal(p)
}

// RestoreMeal rebuilds a persisted meal, which may have no lines left.
func RestoreMeal(p MealProps) (*Meal, error) {
	return buildMeal(p)
}

func buildMeal(p MealProps) (*Meal, error) {
	id, err := NewID(p.ID)
	if err != nil {
		return nil, err
	}
	userID, err := NewID(p.UserID)
	if err != nil {
		return nil, err
	}
	name, err := NewText(p.Name, TextOptions{NotEmpty: true})
	if err != nil {
		return nil, err
	}
	lines, err := newLineSet("Meal", ParentMeal, id.Value(), p.IngredientLines)
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Meal{id: id, userID: userID, name: name, lines: lines, timestamps: ts}, nil
}

type MealPatch struct {
	Name *string
}

func (m *Meal) Update(patch MealPatch) error {
	if patch.Name != nil {
		name, err := NewText(*patch.Name, TextOptions{NotEmpty: true})
		if err != nil {
			return err
		}
		m.name = name
	}
	m.touch()
	return nil
}

func (m *Meal) AddIngredientLine(line *IngredientLine) error {
	if err := m.lines.add(line); err != nil {
		return err
	}
	m.touch()
	return nil
}

func (m *Meal) RemoveIngredientLineByIngredientID(ingredientID string) error {
	if err := m.lines.remove(ingredientID); err != nil {
		return err
	}
	m.touch()
	return nil
}

func (m *Meal) UpdateIngredientLine(ingredientID string, patch IngredientLinePatch) error {
	line, err := m.lines.find(ingredientID)
	if err != nil {
		return err
	}
	if patch.Ingredient != nil && patch.Ingredient.ID() != ingredientID && m.lines.indexOf(patch.Ingredient.ID()) >= 0 {
		return Validationf("Meal: duplicate ingredient %q", patch.Ingredient.ID())
	}
	if err := line.update(patch); err != nil {
		return err
	}
	m.touch()
	return nil
}

func (m *Meal) ID() string     { return m.id.Value() }
func (m *Meal) UserID() string { return m.userID.Value() }
func (m *Meal) Name() string   { return m.name.Value() }

func (m *Meal) IngredientLines() []*IngredientLine { return m.lines.snapshot() }

func (m *Meal) Calories() float64 { return m.lines.calories() }
func (m *Meal) Protein() float64  { return m.lines.protein() }
