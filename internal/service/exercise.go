package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/nutrilog/internal/domain"
)

type ExerciseInput struct {
	// ID is optional; a generated id is used when empty.
	ID          string
	Name        string
	Description string
}

func CreateExercise(db *sql.DB, in ExerciseInput) (*domain.Exercise, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = domain.GenerateID().Value()
	}
	ok, err := exists(db, `SELECT 1 FROM exercises WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("lookup exercise %q: %w", id, err)
	}
	if ok {
		return nil, domain.AlreadyExistsf("exercise %q already exists", id)
	}
	ex, err := domain.NewExercise(domain.ExerciseProps{ID: id, Name: in.Name, Description: in.Description})
	if err != nil {
		return nil, err
	}
	if err := saveExercise(db, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

func GetExercise(db *sql.DB, id string) (*domain.Exercise, error) {
	return loadExercise(db, strings.TrimSpace(id))
}

func ListExercises(db *sql.DB, query string) ([]*domain.Exercise, error) {
	sqlQuery := `SELECT id FROM exercises`
	args := make([]any, 0)
	if q := normalizeName(query); q != "" {
		sqlQuery += ` WHERE lower(name) LIKE ? ESCAPE '\'`
		args = append(args, containsPattern(q))
	}
	sqlQuery += ` ORDER BY name ASC, id ASC`
	rows, err := db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Exercise, 0, len(ids))
	for _, id := range ids {
		ex, err := loadExercise(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func UpdateExercise(db *sql.DB, id string, patch domain.ExercisePatch) (*domain.Exercise, error) {
	ex, err := loadExercise(db, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := ex.Update(patch); err != nil {
		return nil, err
	}
	if err := saveExercise(db, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

// DeleteExercise refuses to remove an exercise still used by a workout or a
// live template.
func DeleteExercise(db *sql.DB, id string) error {
	ex, err := loadExercise(db, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	var workoutUses, templateUses int
	if err := db.QueryRow(`SELECT COUNT(*) FROM workout_lines WHERE exercise_id = ?`, ex.ID()).Scan(&workoutUses); err != nil {
		return fmt.Errorf("count workout uses of exercise %q: %w", ex.ID(), err)
	}
	if err := db.QueryRow(`
SELECT COUNT(*) FROM workout_template_lines l
JOIN workout_templates t ON t.id = l.template_id
WHERE l.exercise_id = ? AND t.deleted_at IS NULL`, ex.ID()).Scan(&templateUses); err != nil {
		return fmt.Errorf("count template uses of exercise %q: %w", ex.ID(), err)
	}
	if workoutUses+templateUses > 0 {
		return domain.Conflictf("exercise %q is used by %d workout set(s) and %d template(s)", ex.ID(), workoutUses, templateUses).
			WithDetail("uses", workoutUses+templateUses)
	}
	if _, err := db.Exec(`DELETE FROM exercises WHERE id = ?`, ex.ID()); err != nil {
		return fmt.Errorf("delete exercise %q: %w", ex.ID(), err)
	}
	return nil
}

func requireExercise(q querier, id string) error {
	ok, err := exists(q, `SELECT 1 FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("lookup exercise %q: %w", id, err)
	}
	if !ok {
		return notFound("exercise", id)
	}
	return nil
}

func saveExercise(q querier, ex *domain.Exercise) error {
	_, err := q.Exec(`
INSERT INTO exercises(id, name, description, created_at, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  description = excluded.description,
  updated_at = excluded.updated_at
`, ex.ID(), ex.Name(), ex.Description(), formatTime(ex.CreatedAt()), formatTime(ex.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save exercise %q: %w", ex.ID(), err)
	}
	return nil
}

func loadExercise(q querier, id string) (*domain.Exercise, error) {
	var name, description, createdRaw, updatedRaw string
	err := q.QueryRow(`SELECT name, description, created_at, updated_at FROM exercises WHERE id = ?`, id).
		Scan(&name, &description, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("exercise", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load exercise %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	return domain.NewExercise(domain.ExerciseProps{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   created,
		UpdatedAt:   updated,
	})
}
