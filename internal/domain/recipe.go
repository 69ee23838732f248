package domain

import "time"

type RecipeProps struct {
	ID              string
	UserID          string
	Name            string
	IngredientLines []*IngredientLine
	ImageURL        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Recipe is a reusable list of ingredient lines. It always keeps at least one line.
type Recipe struct {
	id       ID
	userID   ID
	name     Text
	imageURL string
	lines    lineSet
	timestamps
}

func NewRecipe(p RecipeProps) (*Recipe, error) {
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
	if len(p.IngredientLines) == 0 {
		return nil, Validationf("Recipe: must have at least one ingredient line")
	}
	lines, err := newLineSet("Recipe", ParentRecipe, id.Value(), p.IngredientLines)
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Recipe{id: id, userID: userID, name: name, imageURL: p.ImageURL, lines: lines, timestamps: ts}, nil
}

type RecipePatch struct {
	Name     *string
	ImageURL *string
}

func (r *Recipe) Update(patch RecipePatch) error {
	if patch.Name != nil {
		name, err := NewText(*patch.Name, TextOptions{NotEmpty: true})
		if err != nil {
			return err
		}
		r.name = name
	}
	if patch.ImageURL != nil {
		r.imageURL = *patch.ImageURL
	}
	r.touch()
	return nil
}

func (r *Recipe) AddIngredientLine(line *IngredientLine) error {
	if err := r.lines.add(line); err != nil {
		return err
	}
	r.touch()
	return nil
}

func (r *Recipe) RemoveIngredientLineByIngredientID(ingredientID string) error {
	if _, err := r.lines.find(ingredientID); err != nil {
		return err
	}
	if len(r.lines.lines) == 1 {
		return Validationf("Recipe: cannot remove the last ingredient line")
	}
	if err := r.lines.remove(ingredientID); err != nil {
		return err
	}
	r.touch()
	return nil
}

func (r *Recipe) UpdateIngredientLine(ingredientID string, patch IngredientLinePatch) error {
	line, err := r.lines.find(ingredientID)
	if err != nil {
		return err
	}
	if patch.Ingredient != nil && patch.Ingredient.ID() != ingredientID && r.lines.indexOf(patch.Ingredient.ID()) >= 0 {
		return Validationf("Recipe: duplicate ingredient %q", patch.Ingredient.ID())
	}
	if err := line.update(patch); err != nil {
		return err
	}
	r.touch()
	return nil
}

func (r *Recipe) ID() string       { return r.id.Value() }
func (r *Recipe) UserID() string   { return r.userID.Value() }
func (r *Recipe) Name() string     { return r.name.Value() }
func (r *Recipe) ImageURL() string { return r.imageURL }

// IngredientLines returns a copy; changes to it do not reach the recipe.
func (r *Recipe) IngredientLines() []*IngredientLine { return r.lines.snapshot() }

func (r *Recipe) Calories() float64 { return r.lines.calories() }
func (r *Recipe) Protein() float64  { return r.lines.protein() }
