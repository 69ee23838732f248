package domain

// lineSet is the ingredient-line list shared by Recipe and Meal. It keeps at
// most one line per ingredient id and owns its lines: they are copied on the
// way in and on the way out.
type lineSet struct {
	owner      string
	parentType ParentType
	parentID   string
	lines      []*IngredientLine
}

func newLineSet(owner string, parentType ParentType, parentID string, lines []*IngredientLine) (lineSet, error) {
	s := lineSet{owner: owner, parentType: parentType, parentID: parentID, lines: make([]*IngredientLine, 0, len(lines))}
	for _, line := range lines {
		if err := s.add(line); err != nil {
			return lineSet{}, err
		}
	}
	return s, nil
}

func (s *lineSet) add(line *IngredientLine) error {
	if err := ValidateObject(line, s.owner+" ingredient line"); err != nil {
		return err
	}
	if line.ParentType() != s.parentType {
		return Validationf("%s: ingredient line belongs to a %s, not a %s", s.owner, line.ParentType(), s.parentType)
	}
	if line.ParentID() != s.parentID {
		return Validationf("%s: ingredient line belongs to %s %q", s.owner, line.ParentType(), line.ParentID())
	}
	if s.indexOf(line.IngredientID()) >= 0 {
		return Validationf("%s: duplicate ingredient %q", s.owner, line.IngredientID())
	}
	s.lines = append(s.lines, line.clone())
	return nil
}

func (s *lineSet) remove(ingredientID string) error {
	i := s.indexOf(ingredientID)
	if i < 0 {
		return Validationf("%s: no ingredient line for ingredient %q", s.owner, ingredientID)
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	return nil
}

func (s *lineSet) find(ingredientID string) (*IngredientLine, error) {
	i := s.indexOf(ingredientID)
	if i < 0 {
		return nil, Validationf("%s: no ingredient line for ingredient %q", s.owner, ingredientID)
	}
	return s.lines[i], nil
}

func (s *lineSet) indexOf(ingredientID string) int {
	for i, l := range s.lines {
		if l.IngredientID() == ingredientID {
			return i
		}
	}
	return -1
}

func (s *lineSet) snapshot() []*IngredientLine {
	out := make([]*IngredientLine, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.clone()
	}
	return out
}

func (s *lineSet) calories() float64 {
	var total float64
	for _, l := range s.lines {
		total += l.Calories()
	}
	return total
}

func (s *lineSet) protein() float64 {
	var total float64
	for _, l := range s.lines {
		total += l.Protein()
	}
	return total
}
