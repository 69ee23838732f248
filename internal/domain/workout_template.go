package domain

import "time"

type WorkoutTemplateLineProps struct {
	ExerciseID string
	Sets       int
}

type WorkoutTemplateLine struct {
	exerciseID ID
	sets       Integer
}

func NewWorkoutTemplateLine(p WorkoutTemplateLineProps) (*WorkoutTemplateLine, error) {
	exerciseID, err := NewID(p.ExerciseID)
	if err != nil {
		return nil, err
	}
	sets, err := templateSets(p.Sets)
	if err != nil {
		return nil, err
	}
	return &WorkoutTemplateLine{exerciseID: exerciseID, sets: sets}, nil
}

func (l *WorkoutTemplateLine) ExerciseID() string { return l.exerciseID.Value() }
func (l *WorkoutTemplateLine) Sets() int          { return l.sets.Value() }

type WorkoutTemplateProps struct {
	ID        string
	UserID    string
	Name      string
	Exercises []*WorkoutTemplateLine
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkoutTemplate is an ordered plan of exercises and set counts. Deleting a
// template only marks it.
type WorkoutTemplate struct {
	id        ID
	userID    ID
	name      Text
	exercises []*WorkoutTemplateLine
	deletedAt *time.Time
	timestamps
}

func NewWorkoutTemplate(p WorkoutTemplateProps) (*WorkoutTemplate, error) {
	id, err := NewID(p.ID)
	if err != nil {
		return nil, err
	}
	userID, err := NewID(p.UserID)
	if err != nil {
		return nil, err
	}
	name, err := NewText(p.Name, TextOptions{MaxLength: 100, NotEmpty: true})
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t := &WorkoutTemplate{id: id, userID: userID, name: name, timestamps: ts}
	if p.DeletedAt != nil {
		if err := ValidateDate(*p.DeletedAt, "WorkoutTemplate deletedAt"); err != nil {
			return nil, err
		}
		deletedAt := p.DeletedAt.UTC()
		t.deletedAt = &deletedAt
	}
	for _, line := range p.Exercises {
		if err := t.appendExercise(line); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type WorkoutTemplatePatch struct {
	Name *string
}

func (t *WorkoutTemplate) Update(patch WorkoutTemplatePatch) error {
	if patch.Name != nil {
		name, err := NewText(*patch.Name, TextOptions{MaxLength: 100, NotEmpty: true})
		if err != nil {
			return err
		}
		t.name = name
	}
	t.touch()
	return nil
}

func (t *WorkoutTemplate) AddExercise(line *WorkoutTemplateLine) error {
	if err := t.appendExercise(line); err != nil {
		return err
	}
	t.touch()
	return nil
}

// RemoveExercise does nothing when the exercise is not in the template.
func (t *WorkoutTemplate) RemoveExercise(exerciseID string) {
	i := t.indexOf(exerciseID)
	if i < 0 {
		return
	}
	t.exercises = append(t.exercises[:i:i], t.exercises[i+1:]...)
	t.touch()
}

// ReorderExercise moves an exercise to newIndex among the other exercises. A
// negative index counts from the end, so -1 places it before the last one.
// Out of range indexes are clamped and unknown exercises are ignored.
func (t *WorkoutTemplate) ReorderExercise(exerciseID string, newIndex int) {
	i := t.indexOf(exerciseID)
	if i < 0 {
		return
	}
	line := t.exercises[i]
	rest := make([]*WorkoutTemplateLine, 0, len(t.exercises))
	rest = append(rest, t.exercises[:i]...)
	rest = append(rest, t.exercises[i+1:]...)
	if newIndex < 0 {
		newIndex += len(rest)
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(rest) {
		newIndex = len(rest)
	}
	out := make([]*WorkoutTemplateLine, 0, len(t.exercises))
	out = append(out, rest[:newIndex]...)
	out = append(out, line)
	out = append(out, rest[newIndex:]...)
	t.exercises = out
	t.touch()
}

type WorkoutTemplateLinePatch struct {
	Sets *int
}

// UpdateExercise does nothing when the exercise is not in the template.
func (t *WorkoutTemplate) UpdateExercise(exerciseID string, patch WorkoutTemplateLinePatch) error {
	i := t.indexOf(exerciseID)
	if i < 0 {
		return nil
	}
	if patch.Sets != nil {
		sets, err := templateSets(*patch.Sets)
		if err != nil {
			return err
		}
		t.exercises[i] = &WorkoutTemplateLine{exerciseID: t.exercises[i].exerciseID, sets: sets}
	}
	t.touch()
	return nil
}

func (t *WorkoutTemplate) MarkAsDeleted() {
	now := time.Now().UTC()
	t.deletedAt = &now
	t.touch()
}

func (t *WorkoutTemplate) ID() string     { return t.id.Value() }
func (t *WorkoutTemplate) UserID() string { return t.userID.Value() }
func (t *WorkoutTemplate) Name() string   { return t.name.Value() }
func (t *WorkoutTemplate) IsDeleted() bool {
	return t.deletedAt != nil
}

func (t *WorkoutTemplate) DeletedAt() *time.Time {
	if t.deletedAt == nil {
		return nil
	}
	d := *t.deletedAt
	return &d
}

func (t *WorkoutTemplate) Exercises() []*WorkoutTemplateLine {
	out := make([]*WorkoutTemplateLine, len(t.exercises))
	copy(out, t.exercises)
	return out
}

func (t *WorkoutTemplate) appendExercise(line *WorkoutTemplateLine) error {
	if err := ValidateObject(line, "WorkoutTemplate exercise"); err != nil {
		return err
	}
	if t.indexOf(line.ExerciseID()) >= 0 {
		return Validationf("WorkoutTemplate: duplicate exercise %q", line.ExerciseID())
	}
	t.exercises = append(t.exercises, line)
	return nil
}

func (t *WorkoutTemplate) indexOf(exerciseID string) int {
	for i, l := range t.exercises {
		if l.ExerciseID() == exerciseID {
			return i
		}
	}
	return -1
}

func templateSets(n int) (Integer, error) {
	return NewInteger(n, NumberOptions{OnlyPositive: true, NonZero: true})
}
