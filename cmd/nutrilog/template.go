package nutrilog

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	templateName      string
	templateExercises []string
	templateSets      int
	templateJSON      bool
)

type templateExerciseView struct {
	ExerciseID string `json:"exercise_id"`
	Sets       int    `json:"sets"`
}

type templateView struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Exercises []templateExerciseView `json:"exercises"`
}

func toTemplateView(t *domain.WorkoutTemplate) templateView {
	v := templateView{ID: t.ID(), Name: t.Name(), Exercises: []templateExerciseView{}}
	for _, l := range t.Exercises() {
		v.Exercises = append(v.Exercises, templateExerciseView{ExerciseID: l.ExerciseID(), Sets: l.Sets()})
	}
	return v
}

// parseTemplateExercise reads "exercise-id:sets"; a bare id means one set.
func parseTemplateExercise(raw string) (service.TemplateExerciseInput, error) {
	id, sets, ok := strings.Cut(strings.TrimSpace(raw), ":")
	in := service.TemplateExerciseInput{ExerciseID: strings.TrimSpace(id), Sets: 1}
	if !ok {
		return in, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(sets))
	if err != nil {
		return in, domain.Validationf("invalid exercise %q (expected exercise-id:sets)", raw)
	}
	in.Sets = n
	return in, nil
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage workout templates",
}

var templateAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Create a workout template",
	Example: `  nutrilog template add --name Upper --exercise bench-press:3 --exercise row:4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			in := service.WorkoutTemplateInput{Name: templateName}
			for _, raw := range templateExercises {
				ex, err := parseTemplateExercise(raw)
				if err != nil {
					return err
				}
				in.Exercises = append(in.Exercises, ex)
			}
			t, err := service.CreateWorkoutTemplate(sqldb, userID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s (%s)\n", t.ID(), t.Name())
			return nil
		})
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workout templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			items, err := service.ListWorkoutTemplates(sqldb, userID)
			if err != nil {
				return err
			}
			if templateJSON {
				views := make([]templateView, 0, len(items))
				for _, t := range items {
					views = append(views, toTemplateView(t))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tEXERCISES")
			for _, t := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", t.ID(), t.Name(), len(t.Exercises()))
			}
			return nil
		})
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a workout template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			t, err := service.GetWorkoutTemplate(sqldb, userID, args[0])
			if err != nil {
				return err
			}
			v := toTemplateView(t)
			if templateJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\nName: %s\n", v.ID, v.Name)
			fmt.Fprintln(cmd.OutOrStdout(), "#\tEXERCISE\tSETS")
			for i, e := range v.Exercises {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\n", i, e.ExerciseID, e.Sets)
			}
			return nil
		})
	},
}

var templateRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a workout template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			t, err := service.RenameWorkoutTemplate(sqldb, userID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed template %s to %s\n", t.ID(), t.Name())
			return nil
		})
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workout template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			if err := service.DeleteWorkoutTemplate(sqldb, userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", args[0])
			return nil
		})
	},
}

var templateExerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Edit the exercises of a template",
}

func printTemplateOrder(cmd *cobra.Command, t *domain.WorkoutTemplate) {
	ids := make([]string, 0, len(t.Exercises()))
	for _, l := range t.Exercises() {
		ids = append(ids, fmt.Sprintf("%s x%d", l.ExerciseID(), l.Sets()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Template %s: %s\n", t.ID(), strings.Join(ids, ", "))
}

var templateExerciseAddCmd = &cobra.Command{
	Use:   "add <template-id> <exercise-id>",
	Short: "Append an exercise",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			t, err := service.AddTemplateExercise(sqldb, userID, args[0], service.TemplateExerciseInput{ExerciseID: args[1], Sets: templateSets})
			if err != nil {
				return err
			}
			printTemplateOrder(cmd, t)
			return nil
		})
	},
}

var templateExerciseRemoveCmd = &cobra.Command{
	Use:   "remove <template-id> <exercise-id>",
	Short: "Remove an exercise (no-op when absent)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			t, err := service.RemoveTemplateExercise(sqldb, userID, args[0], args[1])
			if err != nil {
				return err
			}
			printTemplateOrder(cmd, t)
			return nil
		})
	},
}

var templateExerciseReorderCmd = &cobra.Command{
	Use:   "reorder <template-id> <exercise-id> <index>",
	Short: "Move an exercise to a zero-based position (clamped)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(strings.TrimSpace(args[2]))
		if err != nil {
			return domain.Validationf("invalid index %q", args[2])
		}
		return withUser(func(sqldb *sql.DB, userID string) error {
			t, err := service.ReorderTemplateExercise(sqldb, userID, args[0], args[1], idx)
			if err != nil {
				return err
			}
			printTemplateOrder(cmd, t)
			return nil
		})
	},
}

var templateExerciseUpdateCmd = &cobra.Command{
	Use:   "update <template-id> <exercise-id>",
	Short: "Change the number of sets (no-op when absent)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			t, err := service.UpdateTemplateExercise(sqldb, userID, args[0], args[1], templateSets)
			if err != nil {
				return err
			}
			printTemplateOrder(cmd, t)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateAddCmd, templateListCmd, templateShowCmd, templateRenameCmd, templateDeleteCmd, templateExerciseCmd)
	templateExerciseCmd.AddCommand(templateExerciseAddCmd, templateExerciseRemoveCmd, templateExerciseReorderCmd, templateExerciseUpdateCmd)

	templateAddCmd.Flags().StringVar(&templateName, "name", "", "Template name")
	templateAddCmd.Flags().StringArrayVar(&templateExercises, "exercise", nil, "Exercise id:sets (repeatable)")
	for _, c := range []*cobra.Command{templateExerciseAddCmd, templateExerciseUpdateCmd} {
		c.Flags().IntVar(&templateSets, "sets", 3, "Number of sets")
	}
	for _, c := range []*cobra.Command{templateListCmd, templateShowCmd} {
		c.Flags().BoolVar(&templateJSON, "json", false, "Output JSON")
	}
}
