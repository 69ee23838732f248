package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/domain"
)

type WorkoutInput struct {
	Name        string
	PerformedAt time.Time
	Notes       string
}

type SetInput struct {
	ExerciseID string
	// SetNumber 0 appends after the highest recorded set of the exercise.
	SetNumber  int
	Reps       int
	WeightInKg float64
}

type ListWorkoutsFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

func CreateWorkout(db *sql.DB, userID string, in WorkoutInput) (*domain.Workout, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	w, err := domain.NewWorkout(domain.WorkoutProps{
		ID:          domain.GenerateID().Value(),
		UserID:      userID,
		Name:        in.Name,
		PerformedAt: in.PerformedAt,
		Notes:       in.Notes,
	})
	if err != nil {
		return nil, err
	}
	if err := saveWorkout(db, w); err != nil {
		return nil, err
	}
	return w, nil
}

// StartWorkoutFromTemplate creates a workout with sets 1..n of every template
// exercise, all at zero reps and weight. An empty name reuses the template's.
func StartWorkoutFromTemplate(db *sql.DB, userID, templateID string, performedAt time.Time, name string) (*domain.Workout, error) {
	tpl, err := ownedTemplate(db, userID, templateID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = tpl.Name()
	}
	lines := make([]*domain.WorkoutLine, 0)
	for _, ex := range tpl.Exercises() {
		for n := 1; n <= ex.Sets(); n++ {
			line, err := domain.NewWorkoutLine(domain.WorkoutLineProps{ExerciseID: ex.ExerciseID(), SetNumber: n})
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}
	w, err := domain.NewWorkout(domain.WorkoutProps{
		ID:          domain.GenerateID().Value(),
		UserID:      userID,
		Name:        name,
		PerformedAt: performedAt,
		Lines:       lines,
	})
	if err != nil {
		return nil, err
	}
	if err := saveWorkout(db, w); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"workout_id": w.ID(), "template_id": tpl.ID(), "sets": len(lines)}).Debug("started workout from template")
	return w, nil
}

func GetWorkout(db *sql.DB, userID, id string) (*domain.Workout, error) {
	return ownedWorkout(db, userID, id)
}

// ListWorkouts returns workouts performed within the filter's days, newest
// first. Zero bounds are open.
func ListWorkouts(db *sql.DB, userID string, f ListWorkoutsFilter) ([]*domain.Workout, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	query := `SELECT id FROM workouts WHERE user_id = ?`
	args := []any{userID}
	if !f.From.IsZero() {
		query += ` AND performed_at >= ?`
		args = append(args, formatTime(startOfUTCDay(f.From)))
	}
	if !f.To.IsZero() {
		query += ` AND performed_at < ?`
		args = append(args, formatTime(startOfUTCDay(f.To).AddDate(0, 0, 1)))
	}
	if !f.From.IsZero() && !f.To.IsZero() && startOfUTCDay(f.From).After(startOfUTCDay(f.To)) {
		return nil, domain.Validationf("invalid date range: --from is after --to")
	}
	query += ` ORDER BY performed_at DESC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Workout, 0, len(ids))
	for _, id := range ids {
		w, err := loadWorkout(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func UpdateWorkout(db *sql.DB, userID, id string, patch domain.WorkoutPatch) (*domain.Workout, error) {
	return mutateWorkout(db, userID, id, func(w *domain.Workout) error {
		return w.Update(patch)
	})
}

func AddWorkoutSet(db *sql.DB, userID, workoutID string, in SetInput) (*domain.Workout, error) {
	exerciseID := strings.TrimSpace(in.ExerciseID)
	if err := requireExercise(db, exerciseID); err != nil {
		return nil, err
	}
	return mutateWorkout(db, userID, workoutID, func(w *domain.Workout) error {
		n := in.SetNumber
		if n == 0 {
			n = w.NextSetNumber(exerciseID)
		}
		line, err := domain.NewWorkoutLine(domain.WorkoutLineProps{
			ExerciseID: exerciseID,
			SetNumber:  n,
			Reps:       in.Reps,
			WeightInKg: in.WeightInKg,
		})
		if err != nil {
			return err
		}
		return w.AddLine(line)
	})
}

func UpdateWorkoutSet(db *sql.DB, userID, workoutID, exerciseID string, setNumber int, patch domain.WorkoutLinePatch) (*domain.Workout, error) {
	return mutateWorkout(db, userID, workoutID, func(w *domain.Workout) error {
		return w.UpdateLine(strings.TrimSpace(exerciseID), setNumber, patch)
	})
}

func RemoveWorkoutSet(db *sql.DB, userID, workoutID, exerciseID string, setNumber int) (*domain.Workout, error) {
	return mutateWorkout(db, userID, workoutID, func(w *domain.Workout) error {
		return w.RemoveLine(strings.TrimSpace(exerciseID), setNumber)
	})
}

func DeleteWorkout(db *sql.DB, userID, id string) error {
	w, err := ownedWorkout(db, userID, id)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM workouts WHERE id = ?`, w.ID()); err != nil {
		return fmt.Errorf("delete workout %q: %w", w.ID(), err)
	}
	return nil
}

func mutateWorkout(db *sql.DB, userID, id string, fn func(*domain.Workout) error) (*domain.Workout, error) {
	w, err := ownedWorkout(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := saveWorkout(db, w); err != nil {
		return nil, err
	}
	return w, nil
}

func ownedWorkout(q querier, userID, id string) (*domain.Workout, error) {
	if err := requireUser(q, userID); err != nil {
		return nil, err
	}
	w, err := loadWorkout(q, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := checkOwner("workout", w.ID(), w.UserID(), userID); err != nil {
		return nil, err
	}
	return w, nil
}

func saveWorkout(db *sql.DB, w *domain.Workout) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin workout tx: %w", err)
	}
	if err := writeWorkout(tx, w); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workout: %w", err)
	}
	return nil
}

func writeWorkout(q querier, w *domain.Workout) error {
	_, err := q.Exec(`
INSERT INTO workouts(id, user_id, name, performed_at, notes, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  performed_at = excluded.performed_at,
  notes = excluded.notes,
  updated_at = excluded.updated_at
`, w.ID(), w.UserID(), w.Name(), formatTime(w.PerformedAt()), w.Notes(), formatTime(w.CreatedAt()), formatTime(w.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save workout %q: %w", w.ID(), err)
	}
	if _, err := q.Exec(`DELETE FROM workout_lines WHERE workout_id = ?`, w.ID()); err != nil {
		return fmt.Errorf("clear workout lines: %w", err)
	}
	for i, l := range w.Lines() {
		if _, err := q.Exec(`
INSERT INTO workout_lines(workout_id, exercise_id, set_number, reps, weight_kg, position)
VALUES(?, ?, ?, ?, ?, ?)
`, w.ID(), l.ExerciseID(), l.SetNumber(), l.Reps(), l.WeightInKg(), i); err != nil {
			return fmt.Errorf("save workout set %d of %q: %w", l.SetNumber(), l.ExerciseID(), err)
		}
	}
	return nil
}

func loadWorkout(q querier, id string) (*domain.Workout, error) {
	var userID, name, performedRaw, notes, createdRaw, updatedRaw string
	err := q.QueryRow(`SELECT user_id, name, performed_at, notes, created_at, updated_at FROM workouts WHERE id = ?`, id).
		Scan(&userID, &name, &performedRaw, &notes, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("workout", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load workout %q: %w", id, err)
	}
	performed, err := parseTime(performedRaw)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(`SELECT exercise_id, set_number, reps, weight_kg FROM workout_lines WHERE workout_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load workout lines: %w", err)
	}
	defer rows.Close()
	lines := make([]*domain.WorkoutLine, 0)
	for rows.Next() {
		var p domain.WorkoutLineProps
		if err := rows.Scan(&p.ExerciseID, &p.SetNumber, &p.Reps, &p.WeightInKg); err != nil {
			return nil, fmt.Errorf("scan workout line: %w", err)
		}
		line, err := domain.NewWorkoutLine(p)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout lines: %w", err)
	}

	return domain.NewWorkout(domain.WorkoutProps{
		ID:          id,
		UserID:      userID,
		Name:        name,
		PerformedAt: performed,
		Notes:       notes,
		Lines:       lines,
		CreatedAt:   created,
		UpdatedAt:   updated,
	})
}

func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
