package domain

import "time"

type ExerciseProps struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exercise is a catalogue movement referenced by workouts and templates.
type Exercise struct {
	id          ID
	name        Text
	description Text
	timestamps
}

func NewExercise(p ExerciseProps) (*Exercise, error) {
	id, err := NewID(p.ID)
	if err != nil {
		return nil, err
	}
	name, err := exerciseName(p.Name)
	if err != nil {
		return nil, err
	}
	description, err := exerciseDescription(p.Description)
	if err != nil {
		return nil, err
	}
	ts, err := newTimestamps(p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Exercise{id: id, name: name, description: description, timestamps: ts}, nil
}

type ExercisePatch struct {
	Name        *string
	Description *string
}

func (e *Exercise) Update(patch ExercisePatch) error {
	var name, description Text
	var err error
	if patch.Name != nil {
		if name, err = exerciseName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if description, err = exerciseDescription(*patch.Description); err != nil {
			return err
		}
	}
	if patch.Name != nil {
		e.name = name
	}
	if patch.Description != nil {
		e.description = description
	}
	e.touch()
	return nil
}

func (e *Exercise) ID() string          { return e.id.Value() }
func (e *Exercise) Name() string        { return e.name.Value() }
func (e *Exercise) Description() string { return e.description.Value() }

func exerciseName(raw string) (Text, error) {
	return NewText(raw, TextOptions{MaxLength: 100, NotEmpty: true})
}

func exerciseDescription(raw string) (Text, error) {
	return NewText(raw, TextOptions{MaxLength: 1000})
}
