package domain

import "time"

type FakeMealProps struct {
	ID        string
	UserID    string
	Name      string
	Calories  float64
	Protein   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FakeMeal is a manually entered stand-in for a meal: totals only, no lines.
type FakeMeal struct {
	id       ID
	userID   ID
	name     Text
	calories float64
	protein  float64
	timestamps
}

func NewFakeMeal(p FakeMealProps) (*FakeMeal, error) {
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
	if err := ValidateGreaterThanZero(p.Calories, "FakeMeal calories"); err != nil {
		return nil, err
	}
	if err := ValidateGreaterThanZero(p.Protein, "FakeMeal protein"); err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &FakeMeal{id: id, userID: userID, name: name, calories: p.Calories, protein: p.Protein, timestamps: ts}, nil
}

type FakeMealPatch struct {
	Name     *string
	Calories *float64
	Protein  *float64
}

func (f *FakeMeal) Update(patch FakeMealPatch) error {
	var name Text
	if patch.Name != nil {
		n, err := NewText(*patch.Name, TextOptions{NotEmpty: true})
		if err != nil {
			return err
		}
		name = n
	}
	if patch.Calories != nil {
		if err := ValidateGreaterThanZero(*patch.Calories, "FakeMeal calories"); err != nil {
			return err
		}
	}
	if patch.Protein != nil {
		if err := ValidateGreaterThanZero(*patch.Protein, "FakeMeal protein"); err != nil {
			return err
		}
	}

	if patch.Name != nil {
		f.name = name
	}
	if patch.Calories != nil {
		f.calories = *patch.Calories
	}
	if patch.Protein != nil {
		f.protein = *patch.Protein
	}
	f.touch()
	return nil
}

func (f *FakeMeal) ID() string        { return f.id.Value() }
func (f *FakeMeal) UserID() string    { return f.userID.Value() }
func (f *FakeMeal) Name() string      { return f.name.Value() }
func (f *FakeMeal) Calories() float64 { return f.calories }
func (f *FakeMeal) Protein() float64  { return f.protein }
