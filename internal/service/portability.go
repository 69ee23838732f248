package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/domain"
)

const (
	ExportFormatVersion = 1
	exportDateLayout    = "2006-01-02"
)

type ExportUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CustomerID   string `json:"customer_id,omitempty"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type ExportIngredient struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	ImageURL        string  `json:"image_url,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type ExportExternalRef struct {
	Source       string `json:"source"`
	ExternalID   string `json:"external_id"`
	IngredientID string `json:"ingredient_id"`
	CreatedAt    string `json:"created_at"`
}

type ExportLine struct {
	ID            string  `json:"id,omitempty"`
	IngredientID  string  `json:"ingredient_id"`
	QuantityGrams float64 `json:"quantity_grams"`
}

type ExportRecipe struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	ImageURL  string       `json:"image_url,omitempty"`
	Lines     []ExportLine `json:"lines"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

type ExportMeal struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Lines     []ExportLine `json:"lines"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

type ExportFakeMeal struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Calories  float64 `json:"calories"`
	Protein   float64 `json:"protein"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ExportDay struct {
	UserID      string   `json:"user_id"`
	Date        string   `json:"date"`
	MealIDs     []string `json:"meal_ids"`
	FakeMealIDs []string `json:"fake_meal_ids"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type ExportExercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ExportSet keeps counts as JSON numbers; import rejects fractional values.
type ExportSet struct {
	ExerciseID string  `json:"exercise_id"`
	SetNumber  float64 `json:"set_number"`
	Reps       float64 `json:"reps"`
	WeightKg   float64 `json:"weight_kg"`
}

type ExportWorkout struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Name        string      `json:"name"`
	PerformedAt string      `json:"performed_at"`
	Notes       string      `json:"notes,omitempty"`
	Sets        []ExportSet `json:"sets"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

type ExportTemplateExercise struct {
	ExerciseID string  `json:"exercise_id"`
	Sets       float64 `json:"sets"`
}

type ExportTemplate struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"user_id"`
	Name      string                   `json:"name"`
	Exercises []ExportTemplateExercise `json:"exercises"`
	DeletedAt string                   `json:"deleted_at,omitempty"`
	CreatedAt string                   `json:"created_at"`
	UpdatedAt string                   `json:"updated_at"`
}

type ExportData struct {
	Version      int                 `json:"version"`
	ExportedAt   string              `json:"exported_at"`
	Users        []ExportUser        `json:"users"`
	Ingredients  []ExportIngredient  `json:"ingredients"`
	ExternalRefs []ExportExternalRef `json:"external_refs"`
	Recipes      []ExportRecipe      `json:"recipes"`
	Meals        []ExportMeal        `json:"meals"`
	FakeMeals    []ExportFakeMeal    `json:"fake_meals"`
	Days         []ExportDay         `json:"days"`
	Exercises    []ExportExercise    `json:"exercises"`
	Workouts     []ExportWorkout     `json:"workouts"`
	Templates    []ExportTemplate    `json:"workout_templates"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

func ExportDataSnapshot(db *sql.DB) (*ExportData, error) {
	out := &ExportData{Version: ExportFormatVersion, ExportedAt: isoTime(time.Now())}

	userIDs, err := allIDs(db, `SELECT id FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		u, err := loadUser(db, id)
		if err != nil {
			return nil, err
		}
		out.Users = append(out.Users, ExportUser{
			ID:           u.ID(),
			Name:         u.Name(),
			CustomerID:   u.CustomerID(),
			Email:        u.Email(),
			PasswordHash: u.PasswordHash().Value(),
			CreatedAt:    isoTime(u.CreatedAt()),
			UpdatedAt:    isoTime(u.UpdatedAt()),
		})
	}

	ingredientIDs, err := allIDs(db, `SELECT id FROM ingredients ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range ingredientIDs {
		ing, err := loadIngredient(db, id)
		if err != nil {
			return nil, err
		}
		info := ing.NutritionalInfoPer100g()
		out.Ingredients = append(out.Ingredients, ExportIngredient{
			ID:              ing.ID(),
			Name:            ing.Name(),
			CaloriesPer100g: info.Calories,
			ProteinPer100g:  info.Protein,
			ImageURL:        ing.ImageURL(),
			CreatedAt:       isoTime(ing.CreatedAt()),
			UpdatedAt:       isoTime(ing.UpdatedAt()),
		})
		refs, err := ListExternalRefs(db, id)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			out.ExternalRefs = append(out.ExternalRefs, ExportExternalRef{
				Source:       ref.Source().String(),
				ExternalID:   ref.ExternalID(),
				IngredientID: ref.IngredientID(),
				CreatedAt:    isoTime(ref.CreatedAt()),
			})
		}
	}

	recipeIDs, err := allIDs(db, `SELECT id FROM recipes ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range recipeIDs {
		r, err := loadRecipe(db, id)
		if err != nil {
			return nil, err
		}
		out.Recipes = append(out.Recipes, ExportRecipe{
			ID:        r.ID(),
			UserID:    r.UserID(),
			Name:      r.Name(),
			ImageURL:  r.ImageURL(),
			Lines:     exportLines(r.IngredientLines()),
			CreatedAt: isoTime(r.CreatedAt()),
			UpdatedAt: isoTime(r.UpdatedAt()),
		})
	}

	mealIDs, err := allIDs(db, `SELECT id FROM meals ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range mealIDs {
		m, err := loadMeal(db, id)
		if err != nil {
			return nil, err
		}
		out.Meals = append(out.Meals, ExportMeal{
			ID:        m.ID(),
			UserID:    m.UserID(),
			Name:      m.Name(),
			Lines:     exportLines(m.IngredientLines()),
			CreatedAt: isoTime(m.CreatedAt()),
			UpdatedAt: isoTime(m.UpdatedAt()),
		})
	}

	fakeMealIDs, err := allIDs(db, `SELECT id FROM fake_meals ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range fakeMealIDs {
		fm, err := loadFakeMeal(db, id)
		if err != nil {
			return nil, err
		}
		out.FakeMeals = append(out.FakeMeals, ExportFakeMeal{
			ID:        fm.ID(),
			UserID:    fm.UserID(),
			Name:      fm.Name(),
			Calories:  fm.Calories(),
			Protein:   fm.Protein(),
			CreatedAt: isoTime(fm.CreatedAt()),
			UpdatedAt: isoTime(fm.UpdatedAt()),
		})
	}

	dayKeys, err := allDayKeys(db)
	if err != nil {
		return nil, err
	}
	for _, key := range dayKeys {
		d, err := loadDay(db, key[0], key[1])
		if err != nil {
			return nil, err
		}
		out.Days = append(out.Days, ExportDay{
			UserID:      d.UserID(),
			Date:        d.Date().Format(exportDateLayout),
			MealIDs:     d.MealIDs(),
			FakeMealIDs: d.FakeMealIDs(),
			CreatedAt:   isoTime(d.CreatedAt()),
			UpdatedAt:   isoTime(d.UpdatedAt()),
		})
	}

	exerciseIDs, err := allIDs(db, `SELECT id FROM exercises ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range exerciseIDs {
		ex, err := loadExercise(db, id)
		if err != nil {
			return nil, err
		}
		out.Exercises = append(out.Exercises, ExportExercise{
			ID:          ex.ID(),
			Name:        ex.Name(),
			Description: ex.Description(),
			CreatedAt:   isoTime(ex.CreatedAt()),
			UpdatedAt:   isoTime(ex.UpdatedAt()),
		})
	}

	workoutIDs, err := allIDs(db, `SELECT id FROM workouts ORDER BY performed_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range workoutIDs {
		w, err := loadWorkout(db, id)
		if err != nil {
			return nil, err
		}
		sets := make([]ExportSet, 0, len(w.Lines()))
		for _, l := range w.Lines() {
			sets = append(sets, ExportSet{
				ExerciseID: l.ExerciseID(),
				SetNumber:  float64(l.SetNumber()),
				Reps:       float64(l.Reps()),
				WeightKg:   l.WeightInKg(),
			})
		}
		out.Workouts = append(out.Workouts, ExportWorkout{
			ID:          w.ID(),
			UserID:      w.UserID(),
			Name:        w.Name(),
			PerformedAt: isoTime(w.PerformedAt()),
			Notes:       w.Notes(),
			Sets:        sets,
			CreatedAt:   isoTime(w.CreatedAt()),
			UpdatedAt:   isoTime(w.UpdatedAt()),
		})
	}

	templateIDs, err := allIDs(db, `SELECT id FROM workout_templates ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	for _, id := range templateIDs {
		tpl, err := loadTemplate(db, id)
		if err != nil {
			return nil, err
		}
		exercises := make([]ExportTemplateExercise, 0, len(tpl.Exercises()))
		for _, l := range tpl.Exercises() {
			exercises = append(exercises, ExportTemplateExercise{ExerciseID: l.ExerciseID(), Sets: float64(l.Sets())})
		}
		item := ExportTemplate{
			ID:        tpl.ID(),
			UserID:    tpl.UserID(),
			Name:      tpl.Name(),
			Exercises: exercises,
			CreatedAt: isoTime(tpl.CreatedAt()),
			UpdatedAt: isoTime(tpl.UpdatedAt()),
		}
		if d := tpl.DeletedAt(); d != nil {
			item.DeletedAt = isoTime(*d)
		}
		out.Templates = append(out.Templates, item)
	}

	log.WithFields(logrus.Fields{
		"users":       len(out.Users),
		"ingredients": len(out.Ingredients),
		"recipes":     len(out.Recipes),
		"meals":       len(out.Meals),
		"workouts":    len(out.Workouts),
	}).Debug("exported snapshot")
	return out, nil
}

func ImportDataSnapshot(db *sql.DB, data *ExportData) (ImportReport, error) {
	return ImportDataSnapshotWithOptions(db, data, ImportOptions{Mode: ImportModeMerge})
}

// ImportDataSnapshotWithOptions rebuilds every record through the domain
// constructors first; an invalid file fails before anything is written.
func ImportDataSnapshotWithOptions(db *sql.DB, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	if data == nil {
		return report, domain.Validationf("import data is empty")
	}
	if data.Version > ExportFormatVersion {
		return report, domain.Validationf("unsupported export version %d (max %d)", data.Version, ExportFormatVersion)
	}
	mode := normalizeImportMode(opts.Mode)
	set, err := buildImportSet(db, data)
	if err != nil {
		return report, err
	}

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if mode == ImportModeReplace {
		if err := clearUserData(tx); err != nil {
			return report, err
		}
	}
	w := &importWriter{tx: tx, mode: mode, dryRun: opts.DryRun, report: &report}

	for _, u := range set.users {
		if err := w.apply("user", u.ID(), `SELECT 1 FROM users WHERE id = ?`, []any{u.ID()}, func() error { return upsertUser(tx, u) }); err != nil {
			return report, err
		}
	}
	for _, ing := range set.ingredients {
		if err := w.apply("ingredient", ing.ID(), `SELECT 1 FROM ingredients WHERE id = ?`, []any{ing.ID()}, func() error { return saveIngredient(tx, ing) }); err != nil {
			return report, err
		}
	}
	for _, ref := range set.refs {
		key := ref.Source().String() + "/" + ref.ExternalID()
		if err := w.apply("external ref", key, `SELECT 1 FROM external_ingredient_refs WHERE source = ? AND external_id = ?`, []any{ref.Source().String(), ref.ExternalID()}, func() error {
			if _, err := tx.Exec(`DELETE FROM external_ingredient_refs WHERE source = ? AND external_id = ?`, ref.Source().String(), ref.ExternalID()); err != nil {
				return fmt.Errorf("replace external ref %s: %w", key, err)
			}
			return insertExternalRef(tx, ref)
		}); err != nil {
			return report, err
		}
	}
	for _, r := range set.recipes {
		if err := w.apply("recipe", r.ID(), `SELECT 1 FROM recipes WHERE id = ?`, []any{r.ID()}, func() error { return writeRecipe(tx, r) }); err != nil {
			return report, err
		}
	}
	for _, m := range set.meals {
		if err := w.apply("meal", m.ID(), `SELECT 1 FROM meals WHERE id = ?`, []any{m.ID()}, func() error { return writeMeal(tx, m) }); err != nil {
			return report, err
		}
	}
	for _, fm := range set.fakeMeals {
		if err := w.apply("fake meal", fm.ID(), `SELECT 1 FROM fake_meals WHERE id = ?`, []any{fm.ID()}, func() error { return writeFakeMeal(tx, fm) }); err != nil {
			return report, err
		}
	}
	for _, d := range set.days {
		if err := w.apply("day", d.UserID()+"/"+d.ID(), `SELECT 1 FROM days WHERE user_id = ? AND day_id = ?`, []any{d.UserID(), d.ID()}, func() error { return writeDay(tx, d) }); err != nil {
			return report, err
		}
	}
	for _, ex := range set.exercises {
		if err := w.apply("exercise", ex.ID(), `SELECT 1 FROM exercises WHERE id = ?`, []any{ex.ID()}, func() error { return saveExercise(tx, ex) }); err != nil {
			return report, err
		}
	}
	for _, wo := range set.workouts {
		if err := w.apply("workout", wo.ID(), `SELECT 1 FROM workouts WHERE id = ?`, []any{wo.ID()}, func() error { return writeWorkout(tx, wo) }); err != nil {
			return report, err
		}
	}
	for _, tpl := range set.templates {
		if err := w.apply("workout template", tpl.ID(), `SELECT 1 FROM workout_templates WHERE id = ?`, []any{tpl.ID()}, func() error { return writeTemplate(tx, tpl) }); err != nil {
			return report, err
		}
	}

	if opts.DryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit import tx: %w", err)
	}
	log.WithFields(logrus.Fields{"inserted": report.Inserted, "updated": report.Updated, "skipped": report.Skipped, "mode": mode}).Debug("imported snapshot")
	return report, nil
}

type importWriter struct {
	tx     *sql.Tx
	mode   ImportMode
	dryRun bool
	report *ImportReport
}

func (w *importWriter) apply(kind, key, existsQuery string, args []any, write func() error) error {
	found, err := exists(w.tx, existsQuery, args...)
	if err != nil {
		return fmt.Errorf("check existing %s %q: %w", kind, key, err)
	}
	if found {
		switch w.mode {
		case ImportModeFail:
			return domain.Conflictf("%s %q already exists", kind, key)
		case ImportModeSkip:
			w.report.Skipped++
			return nil
		}
		w.report.Updated++
	} else {
		w.report.Inserted++
	}
	if w.dryRun {
		return nil
	}
	return write()
}

type importSet struct {
	users       []*domain.User
	ingredients []*domain.Ingredient
	refs        []*domain.ExternalIngredientRef
	recipes     []*domain.Recipe
	meals       []*domain.Meal
	fakeMeals   []*domain.FakeMeal
	days        []*domain.Day
	exercises   []*domain.Exercise
	workouts    []*domain.Workout
	templates   []*domain.WorkoutTemplate
}

func buildImportSet(db *sql.DB, data *ExportData) (*importSet, error) {
	set := &importSet{}
	for i, u := range data.Users {
		created, updated, err := importTimestamps(fmt.Sprintf("users[%d]", i), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		user, err := domain.NewUser(domain.UserProps{
			ID:           u.ID,
			Name:         u.Name,
			CustomerID:   u.CustomerID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    created,
			UpdatedAt:    updated,
		})
		if err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		set.users = append(set.users, user)
	}

	ingredients := map[string]*domain.Ingredient{}
	for i, in := range data.Ingredients {
		created, updated, err := importTimestamps(fmt.Sprintf("ingredients[%d]", i), in.CreatedAt, in.UpdatedAt)
		if err != nil {
			return nil, err
		}
		ing, err := domain.RestoreIngredient(domain.IngredientProps{
			ID:                     in.ID,
			Name:                   in.Name,
			NutritionalInfoPer100g: domain.NutritionalInfo{Calories: in.CaloriesPer100g, Protein: in.ProteinPer100g},
			ImageURL:               in.ImageURL,
			CreatedAt:              created,
			UpdatedAt:              updated,
		})
		if err != nil {
			return nil, fmt.Errorf("ingredients[%d]: %w", i, err)
		}
		ingredients[ing.ID()] = ing
		set.ingredients = append(set.ingredients, ing)
	}
	resolve := func(id string) (*domain.Ingredient, error) {
		if ing, ok := ingredients[id]; ok {
			return ing, nil
		}
		ing, err := loadIngredient(db, id)
		if domain.IsNotFound(err) {
			return nil, domain.Validationf("unknown ingredient %q", id)
		}
		if err != nil {
			return nil, err
		}
		ingredients[id] = ing
		return ing, nil
	}

	for i, r := range data.ExternalRefs {
		created, err := parseISOTime(fmt.Sprintf("external_refs[%d].created_at", i), r.CreatedAt)
		if err != nil {
			return nil, err
		}
		if _, err := resolve(strings.TrimSpace(r.IngredientID)); err != nil {
			return nil, fmt.Errorf("external_refs[%d]: %w", i, err)
		}
		ref, err := domain.NewExternalIngredientRef(domain.ExternalIngredientRefProps{
			ExternalID:   r.ExternalID,
			Source:       r.Source,
			IngredientID: r.IngredientID,
			CreatedAt:    created,
		})
		if err != nil {
			return nil, fmt.Errorf("external_refs[%d]: %w", i, err)
		}
		set.refs = append(set.refs, ref)
	}

	for i, r := range data.Recipes {
		where := fmt.Sprintf("recipes[%d]", i)
		created, updated, err := importTimestamps(where, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return nil, err
		}
		lines, err := importLines(where, domain.ParentRecipe, r.ID, r.Lines, resolve)
		if err != nil {
			return nil, err
		}
		recipe, err := domain.NewRecipe(domain.RecipeProps{
			ID:              r.ID,
			UserID:          r.UserID,
			Name:            r.Name,
			ImageURL:        r.ImageURL,
			IngredientLines: lines,
			CreatedAt:       created,
			UpdatedAt:       updated,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.recipes = append(set.recipes, recipe)
	}

	for i, m := range data.Meals {
		where := fmt.Sprintf("meals[%d]", i)
		created, updated, err := importTimestamps(where, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		lines, err := importLines(where, domain.ParentMeal, m.ID, m.Lines, resolve)
		if err != nil {
			return nil, err
		}
		meal, err := domain.RestoreMeal(domain.MealProps{
			ID:              m.ID,
			UserID:          m.UserID,
			Name:            m.Name,
			IngredientLines: lines,
			CreatedAt:       created,
			UpdatedAt:       updated,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.meals = append(set.meals, meal)
	}

	for i, fm := range data.FakeMeals {
		where := fmt.Sprintf("fake_meals[%d]", i)
		created, updated, err := importTimestamps(where, fm.CreatedAt, fm.UpdatedAt)
		if err != nil {
			return nil, err
		}
		fake, err := domain.NewFakeMeal(domain.FakeMealProps{
			ID:        fm.ID,
			UserID:    fm.UserID,
			Name:      fm.Name,
			Calories:  fm.Calories,
			Protein:   fm.Protein,
			CreatedAt: created,
			UpdatedAt: updated,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.fakeMeals = append(set.fakeMeals, fake)
	}

	for i, d := range data.Days {
		where := fmt.Sprintf("days[%d]", i)
		date, err := time.Parse(exportDateLayout, strings.TrimSpace(d.Date))
		if err != nil {
			return nil, domain.Validationf("%s.date: expected YYYY-MM-DD, got %q", where, d.Date)
		}
		created, updated, err := importTimestamps(where, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return nil, err
		}
		day, err := domain.NewDay(domain.DayProps{
			Date:        date,
			UserID:      d.UserID,
			MealIDs:     d.MealIDs,
			FakeMealIDs: d.FakeMealIDs,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.days = append(set.days, day)
	}

	for i, ex := range data.Exercises {
		where := fmt.Sprintf("exercises[%d]", i)
		created, updated, err := importTimestamps(where, ex.CreatedAt, ex.UpdatedAt)
		if err != nil {
			return nil, err
		}
		exercise, err := domain.NewExercise(domain.ExerciseProps{
			ID:          ex.ID,
			Name:        ex.Name,
			Description: ex.Description,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.exercises = append(set.exercises, exercise)
	}

	for i, wo := range data.Workouts {
		where := fmt.Sprintf("workouts[%d]", i)
		created, updated, err := importTimestamps(where, wo.CreatedAt, wo.UpdatedAt)
		if err != nil {
			return nil, err
		}
		performed, err := parseISOTime(where+".performed_at", wo.PerformedAt)
		if err != nil {
			return nil, err
		}
		lines := make([]*domain.WorkoutLine, 0, len(wo.Sets))
		for j, s := range wo.Sets {
			setNumber, err := domain.IntegerFromFloat(s.SetNumber, domain.NumberOptions{})
			if err != nil {
				return nil, fmt.Errorf("%s.sets[%d].set_number: %w", where, j, err)
			}
			reps, err := domain.IntegerFromFloat(s.Reps, domain.NumberOptions{})
			if err != nil {
				return nil, fmt.Errorf("%s.sets[%d].reps: %w", where, j, err)
			}
			line, err := domain.NewWorkoutLine(domain.WorkoutLineProps{
				ExerciseID: s.ExerciseID,
				SetNumber:  setNumber.Value(),
				Reps:       reps.Value(),
				WeightInKg: s.WeightKg,
			})
			if err != nil {
				return nil, fmt.Errorf("%s.sets[%d]: %w", where, j, err)
			}
			lines = append(lines, line)
		}
		workout, err := domain.NewWorkout(domain.WorkoutProps{
			ID:          wo.ID,
			UserID:      wo.UserID,
			Name:        wo.Name,
			PerformedAt: performed,
			Notes:       wo.Notes,
			Lines:       lines,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.workouts = append(set.workouts, workout)
	}

	for i, t := range data.Templates {
		where := fmt.Sprintf("workout_templates[%d]", i)
		created, updated, err := importTimestamps(where, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		props := domain.WorkoutTemplateProps{ID: t.ID, UserID: t.UserID, Name: t.Name, CreatedAt: created, UpdatedAt: updated}
		if strings.TrimSpace(t.DeletedAt) != "" {
			deleted, err := parseISOTime(where+".deleted_at", t.DeletedAt)
			if err != nil {
				return nil, err
			}
			props.DeletedAt = &deleted
		}
		for j, ex := range t.Exercises {
			sets, err := domain.IntegerFromFloat(ex.Sets, domain.NumberOptions{})
			if err != nil {
				return nil, fmt.Errorf("%s.exercises[%d].sets: %w", where, j, err)
			}
			line, err := domain.NewWorkoutTemplateLine(domain.WorkoutTemplateLineProps{ExerciseID: ex.ExerciseID, Sets: sets.Value()})
			if err != nil {
				return nil, fmt.Errorf("%s.exercises[%d]: %w", where, j, err)
			}
			props.Exercises = append(props.Exercises, line)
		}
		tpl, err := domain.NewWorkoutTemplate(props)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		set.templates = append(set.templates, tpl)
	}
	return set, nil
}

func importLines(where string, parentType domain.ParentType, parentID string, in []ExportLine, resolve func(string) (*domain.Ingredient, error)) ([]*domain.IngredientLine, error) {
	lines := make([]*domain.IngredientLine, 0, len(in))
	for j, l := range in {
		ing, err := resolve(strings.TrimSpace(l.IngredientID))
		if err != nil {
			return nil, fmt.Errorf("%s.lines[%d]: %w", where, j, err)
		}
		id := strings.TrimSpace(l.ID)
		if id == "" {
			id = domain.GenerateID().Value()
		}
		line, err := domain.NewIngredientLine(domain.IngredientLineProps{
			ID:              id,
			ParentID:        strings.TrimSpace(parentID),
			ParentType:      parentType,
			Ingredient:      ing,
			QuantityInGrams: l.QuantityGrams,
		})
		if err != nil {
			return nil, fmt.Errorf("%s.lines[%d]: %w", where, j, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func exportLines(lines []*domain.IngredientLine) []ExportLine {
	out := make([]ExportLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, ExportLine{ID: l.ID(), IngredientID: l.IngredientID(), QuantityGrams: l.QuantityInGrams()})
	}
	return out
}

func upsertUser(q querier, u *domain.User) error {
	var email, hash any
	if u.Email() != "" {
		email = strings.ToLower(u.Email())
	}
	if u.HasCredentials() {
		hash = u.PasswordHash().Value()
	}
	_, err := q.Exec(`
INSERT INTO users(id, name, customer_id, email, password_hash, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  customer_id = excluded.customer_id,
  email = excluded.email,
  password_hash = excluded.password_hash,
  updated_at = excluded.updated_at
`, u.ID(), u.Name(), u.CustomerID(), email, hash, formatTime(u.CreatedAt()), formatTime(u.UpdatedAt()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.Conflictf("user %q: email %q is used by another user", u.ID(), u.Email())
		}
		return fmt.Errorf("import user %q: %w", u.ID(), err)
	}
	return nil
}

func normalizeImportMode(mode ImportMode) ImportMode {
	switch mode {
	case ImportModeFail, ImportModeSkip, ImportModeMerge, ImportModeReplace:
		return mode
	default:
		return ImportModeMerge
	}
}

func clearUserData(tx *sql.Tx) error {
	stmts := []string{
		`DELETE FROM ingredient_lines`,
		`DELETE FROM day_meals`,
		`DELETE FROM day_fake_meals`,
		`DELETE FROM days`,
		`DELETE FROM fake_meals`,
		`DELETE FROM meals`,
		`DELETE FROM recipes`,
		`DELETE FROM workout_lines`,
		`DELETE FROM workouts`,
		`DELETE FROM workout_template_lines`,
		`DELETE FROM workout_templates`,
		`DELETE FROM external_ingredient_refs`,
		`DELETE FROM ingredients`,
		`DELETE FROM exercises`,
		`DELETE FROM users`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("clear data for replace mode: %w", err)
		}
	}
	return nil
}

func allIDs(db *sql.DB, query string) ([]string, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}
	return scanIDs(rows)
}

func allDayKeys(db *sql.DB) ([][2]string, error) {
	rows, err := db.Query(`SELECT user_id, day_id FROM days ORDER BY user_id ASC, day_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("export days: %w", err)
	}
	defer rows.Close()
	out := make([][2]string, 0)
	for rows.Next() {
		var key [2]string
		if err := rows.Scan(&key[0], &key[1]); err != nil {
			return nil, fmt.Errorf("scan day key: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return out, nil
}

func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseISOTime accepts RFC 3339 timestamps; an empty value is the zero time.
func parseISOTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, domain.Validationf("%s: invalid ISO-8601 timestamp %q", field, raw)
	}
	return t.UTC(), nil
}

func importTimestamps(where, createdRaw, updatedRaw string) (time.Time, time.Time, error) {
	created, err := parseISOTime(where+".created_at", createdRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	updated, err := parseISOTime(where+".updated_at", updatedRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return created, updated, nil
}
