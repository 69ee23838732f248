package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/nutrilog/internal/domain"
)

type TemplateExerciseInput struct {
	ExerciseID string
	Sets       int
}

type WorkoutTemplateInput struct {
	Name      string
	Exercises []TemplateExerciseInput
}

func CreateWorkoutTemplate(db *sql.DB, userID string, in WorkoutTemplateInput) (*domain.WorkoutTemplate, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	lines := make([]*domain.WorkoutTemplateLine, 0, len(in.Exercises))
	for _, ex := range in.Exercises {
		line, err := buildTemplateLine(db, ex)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	tpl, err := domain.NewWorkoutTemplate(domain.WorkoutTemplateProps{
		ID:        domain.GenerateID().Value(),
		UserID:    userID,
		Name:      in.Name,
		Exercises: lines,
	})
	if err != nil {
		return nil, err
	}
	if err := saveTemplate(db, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func GetWorkoutTemplate(db *sql.DB, userID, id string) (*domain.WorkoutTemplate, error) {
	return ownedTemplate(db, userID, id)
}

// ListWorkoutTemplates omits soft-deleted templates.
func ListWorkoutTemplates(db *sql.DB, userID string) ([]*domain.WorkoutTemplate, error) {
	if err := requireUser(db, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT id FROM workout_templates WHERE user_id = ? AND deleted_at IS NULL ORDER BY name ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workout templates: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.WorkoutTemplate, 0, len(ids))
	for _, id := range ids {
		tpl, err := loadTemplate(db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

func RenameWorkoutTemplate(db *sql.DB, userID, id, name string) (*domain.WorkoutTemplate, error) {
	return mutateTemplate(db, userID, id, func(tpl *domain.WorkoutTemplate) error {
		return tpl.Update(domain.WorkoutTemplatePatch{Name: &name})
	})
}

func AddTemplateExercise(db *sql.DB, userID, templateID string, in TemplateExerciseInput) (*domain.WorkoutTemplate, error) {
	line, err := buildTemplateLine(db, in)
	if err != nil {
		return nil, err
	}
	return mutateTemplate(db, userID, templateID, func(tpl *domain.WorkoutTemplate) error {
		return tpl.AddExercise(line)
	})
}

func RemoveTemplateExercise(db *sql.DB, userID, templateID, exerciseID string) (*domain.WorkoutTemplate, error) {
	return mutateTemplate(db, userID, templateID, func(tpl *domain.WorkoutTemplate) error {
		tpl.RemoveExercise(strings.TrimSpace(exerciseID))
		return nil
	})
}

func ReorderTemplateExercise(db *sql.DB, userID, templateID, exerciseID string, newIndex int) (*domain.WorkoutTemplate, error) {
	return mutateTemplate(db, userID, templateID, func(tpl *domain.WorkoutTemplate) error {
		tpl.ReorderExercise(strings.TrimSpace(exerciseID), newIndex)
		return nil
	})
}

func UpdateTemplateExercise(db *sql.DB, userID, templateID, exerciseID string, sets int) (*domain.WorkoutTemplate, error) {
	return mutateTemplate(db, userID, templateID, func(tpl *domain.WorkoutTemplate) error {
		return tpl.UpdateExercise(strings.TrimSpace(exerciseID), domain.WorkoutTemplateLinePatch{Sets: &sets})
	})
}

// DeleteWorkoutTemplate marks the template deleted; its rows are kept.
func DeleteWorkoutTemplate(db *sql.DB, userID, id string) error {
	_, err := mutateTemplate(db, userID, id, func(tpl *domain.WorkoutTemplate) error {
		tpl.MarkAsDeleted()
		return nil
	})
	return err
}

func buildTemplateLine(q querier, in TemplateExerciseInput) (*domain.WorkoutTemplateLine, error) {
	exerciseID := strings.TrimSpace(in.ExerciseID)
	if err := requireExercise(q, exerciseID); err != nil {
		return nil, err
	}
	return domain.NewWorkoutTemplateLine(domain.WorkoutTemplateLineProps{ExerciseID: exerciseID, Sets: in.Sets})
}

func mutateTemplate(db *sql.DB, userID, id string, fn func(*domain.WorkoutTemplate) error) (*domain.WorkoutTemplate, error) {
	tpl, err := ownedTemplate(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(tpl); err != nil {
		return nil, err
	}
	if err := saveTemplate(db, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ownedTemplate treats a soft-deleted template as missing.
func ownedTemplate(q querier, userID, id string) (*domain.WorkoutTemplate, error) {
	if err := requireUser(q, userID); err != nil {
		return nil, err
	}
	tpl, err := loadTemplate(q, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := checkOwner("workout template", tpl.ID(), tpl.UserID(), userID); err != nil {
		return nil, err
	}
	if tpl.IsDeleted() {
		return nil, notFound("workout template", tpl.ID())
	}
	return tpl, nil
}

func saveTemplate(db *sql.DB, tpl *domain.WorkoutTemplate) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin workout template tx: %w", err)
	}
	if err := writeTemplate(tx, tpl); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workout template: %w", err)
	}
	return nil
}

func writeTemplate(q querier, tpl *domain.WorkoutTemplate) error {
	_, err := q.Exec(`
INSERT INTO workout_templates(id, user_id, name, deleted_at, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  deleted_at = excluded.deleted_at,
  updated_at = excluded.updated_at
`, tpl.ID(), tpl.UserID(), tpl.Name(), formatOptionalTime(tpl.DeletedAt()), formatTime(tpl.CreatedAt()), formatTime(tpl.UpdatedAt()))
	if err != nil {
		return fmt.Errorf("save workout template %q: %w", tpl.ID(), err)
	}
	if _, err := q.Exec(`DELETE FROM workout_template_lines WHERE template_id = ?`, tpl.ID()); err != nil {
		return fmt.Errorf("clear workout template lines: %w", err)
	}
	for i, l := range tpl.Exercises() {
		if _, err := q.Exec(`INSERT INTO workout_template_lines(template_id, exercise_id, sets, position) VALUES(?, ?, ?, ?)`, tpl.ID(), l.ExerciseID(), l.Sets(), i); err != nil {
			return fmt.Errorf("save template exercise %q: %w", l.ExerciseID(), err)
		}
	}
	return nil
}

func loadTemplate(q querier, id string) (*domain.WorkoutTemplate, error) {
	var (
		userID, name           string
		deletedRaw             sql.NullString
		createdRaw, updatedRaw string
	)
	err := q.QueryRow(`SELECT user_id, name, deleted_at, created_at, updated_at FROM workout_templates WHERE id = ?`, id).
		Scan(&userID, &name, &deletedRaw, &createdRaw, &updatedRaw)
	if isNoRows(err) {
		return nil, notFound("workout template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load workout template %q: %w", id, err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedRaw)
	if err != nil {
		return nil, err
	}
	props := domain.WorkoutTemplateProps{ID: id, UserID: userID, Name: name, CreatedAt: created, UpdatedAt: updated}
	if deletedRaw.Valid {
		t, err := parseTime(deletedRaw.String)
		if err != nil {
			return nil, err
		}
		props.DeletedAt = &t
	}

	rows, err := q.Query(`SELECT exercise_id, sets FROM workout_template_lines WHERE template_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load workout template lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.WorkoutTemplateLineProps
		if err := rows.Scan(&p.ExerciseID, &p.Sets); err != nil {
			return nil, fmt.Errorf("scan workout template line: %w", err)
		}
		line, err := domain.NewWorkoutTemplateLine(p)
		if err != nil {
			return nil, err
		}
		props.Exercises = append(props.Exercises, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout template lines: %w", err)
	}
	return domain.NewWorkoutTemplate(props)
}
