package domain

import "time"

type WorkoutLineProps struct {
	ExerciseID string
	SetNumber  int
	Reps       int
	WeightInKg float64
}

// WorkoutLine is one performed set of an exercise.
type WorkoutLine struct {
	exerciseID ID
	setNumber  Integer
	reps       Integer
	weight     Float
}

func NewWorkoutLine(p WorkoutLineProps) (*WorkoutLine, error) {
	exerciseID, err := NewID(p.ExerciseID)
	if err != nil {
		return nil, err
	}
	setNumber, err := NewInteger(p.SetNumber, NumberOptions{OnlyPositive: true, NonZero: true})
	if err != nil {
		return nil, err
	}
	reps, err := NewInteger(p.Reps, NumberOptions{OnlyPositive: true})
	if err != nil {
		return nil, err
	}
	weight, err := NewFloat(p.WeightInKg, NumberOptions{OnlyPositive: true})
	if err != nil {
		return nil, err
	}
	return &WorkoutLine{exerciseID: exerciseID, setNumber: setNumber, reps: reps, weight: weight}, nil
}

type WorkoutLinePatch struct {
	Reps       *int
	WeightInKg *float64
}

func (l *WorkoutLine) update(patch WorkoutLinePatch) error {
	var reps Integer
	var weight Float
	var err error
	if patch.Reps != nil {
		if reps, err = NewInteger(*patch.Reps, NumberOptions{OnlyPositive: true}); err != nil {
			return err
		}
	}
	if patch.WeightInKg != nil {
		if weight, err = NewFloat(*patch.WeightInKg, NumberOptions{OnlyPositive: true}); err != nil {
			return err
		}
	}
	if patch.Reps != nil {
		l.reps = reps
	}
	if patch.WeightInKg != nil {
		l.weight = weight
	}
	return nil
}

func (l *WorkoutLine) ExerciseID() string  { return l.exerciseID.Value() }
func (l *WorkoutLine) SetNumber() int      { return l.setNumber.Value() }
func (l *WorkoutLine) Reps() int           { return l.reps.Value() }
func (l *WorkoutLine) WeightInKg() float64 { return l.weight.Value() }

// Volume is reps times weight.
func (l *WorkoutLine) Volume() float64 { return float64(l.Reps()) * l.WeightInKg() }

type WorkoutProps struct {
	ID          string
	UserID      string
	Name        string
	PerformedAt time.Time
	Notes       string
	Lines       []*WorkoutLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Workout owns set lines; an (exercise, set number) pair appears at most once.
type Workout struct {
	id          ID
	userID      ID
	name        Text
	performedAt time.Time
	notes       Text
	lines       []*WorkoutLine
	timestamps
}

func NewWorkout(p WorkoutProps) (*Workout, error) {
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
	performedAt := p.PerformedAt
	if performedAt.IsZero() {
		performedAt = Now().Value()
	}
	notes, err := NewText(p.Notes, TextOptions{MaxLength: 1000})
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w := &Workout{id: id, userID: userID, name: name, performedAt: performedAt.UTC(), notes: notes, timestamps: ts}
	for _, line := range p.Lines {
		if err := w.appendLine(line); err != nil {
			return nil, err
		}
	}
	return w, nil
}

type WorkoutPatch struct {
	Name        *string
	PerformedAt *time.Time
	Notes       *string
}

func (w *Workout) Update(patch WorkoutPatch) error {
	var name, notes Text
	var err error
	if patch.Name != nil {
		if name, err = NewText(*patch.Name, TextOptions{MaxLength: 100, NotEmpty: true}); err != nil {
			return err
		}
	}
	if patch.PerformedAt != nil {
		if err := ValidateDate(*patch.PerformedAt, "Workout performedAt"); err != nil {
			return err
		}
	}
	if patch.Notes != nil {
		if notes, err = NewText(*patch.Notes, TextOptions{MaxLength: 1000}); err != nil {
			return err
		}
	}
	if patch.Name != nil {
		w.name = name
	}
	if patch.PerformedAt != nil {
		w.performedAt = patch.PerformedAt.UTC()
	}
	if patch.Notes != nil {
		w.notes = notes
	}
	w.touch()
	return nil
}

func (w *Workout) AddLine(line *WorkoutLine) error {
	if err := w.appendLine(line); err != nil {
		return err
	}
	w.touch()
	return nil
}

func (w *Workout) UpdateLine(exerciseID string, setNumber int, patch WorkoutLinePatch) error {
	i := w.indexOf(exerciseID, setNumber)
	if i < 0 {
		return Validationf("Workout: set %d of exercise %q not found", setNumber, exerciseID)
	}
	if err := w.lines[i].update(patch); err != nil {
		return err
	}
	w.touch()
	return nil
}

func (w *Workout) RemoveLine(exerciseID string, setNumber int) error {
	i := w.indexOf(exerciseID, setNumber)
	if i < 0 {
		return Validationf("Workout: set %d of exercise %q not found", setNumber, exerciseID)
	}
	w.lines = append(w.lines[:i:i], w.lines[i+1:]...)
	w.touch()
	return nil
}

// NextSetNumber is one past the highest set number recorded for the exercise.
func (w *Workout) NextSetNumber(exerciseID string) int {
	next := 1
	for _, l := range w.lines {
		if l.ExerciseID() == exerciseID && l.SetNumber() >= next {
			next = l.SetNumber() + 1
		}
	}
	return next
}

func (w *Workout) ID() string             { return w.id.Value() }
func (w *Workout) UserID() string         { return w.userID.Value() }
func (w *Workout) Name() string           { return w.name.Value() }
func (w *Workout) PerformedAt() time.Time { return w.performedAt }
func (w *Workout) Notes() string          { return w.notes.Value() }

func (w *Workout) Lines() []*WorkoutLine {
	out := make([]*WorkoutLine, len(w.lines))
	copy(out, w.lines)
	return out
}

// ExerciseIDs lists exercises in order of first appearance.
func (w *Workout) ExerciseIDs() []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, l := range w.lines {
		if !seen[l.ExerciseID()] {
			seen[l.ExerciseID()] = true
			out = append(out, l.ExerciseID())
		}
	}
	return out
}

// Sets returns the lines of one exercise.
func (w *Workout) Sets(exerciseID string) []*WorkoutLine {
	out := make([]*WorkoutLine, 0)
	for _, l := range w.lines {
		if l.ExerciseID() == exerciseID {
			out = append(out, l)
		}
	}
	return out
}

func (w *Workout) TotalVolume() float64 {
	var total float64
	for _, l := range w.lines {
		total += l.Volume()
	}
	return total
}

func (w *Workout) appendLine(line *WorkoutLine) error {
	if err := ValidateObject(line, "Workout line"); err != nil {
		return err
	}
	if w.indexOf(line.ExerciseID(), line.SetNumber()) >= 0 {
		return Validationf("Workout: duplicate set %d for exercise %q", line.SetNumber(), line.ExerciseID())
	}
	w.lines = append(w.lines, line)
	return nil
}

func (w *Workout) indexOf(exerciseID string, setNumber int) int {
	for i, l := range w.lines {
		if l.ExerciseID() == exerciseID && l.SetNumber() == setNumber {
			return i
		}
	}
	return -1
}
