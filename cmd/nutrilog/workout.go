package nutrilog

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	workoutName  string
	workoutNotes string
	workoutDate  string
	workoutTime  string
	workoutFrom  string
	workoutTo    string
	workoutLimit int
	workoutJSON  bool

	setNumber int
	setReps   int
	setWeight float64
)

type workoutSetView struct {
	ExerciseID string  `json:"exercise_id"`
	SetNumber  int     `json:"set_number"`
	Reps       int     `json:"reps"`
	WeightKg   float64 `json:"weight_kg"`
}

type workoutView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	PerformedAt string           `json:"performed_at"`
	Notes       string           `json:"notes,omitempty"`
	Sets        []workoutSetView `json:"sets"`
	VolumeKg    float64          `json:"volume_kg"`
}

func toWorkoutView(w *domain.Workout) workoutView {
	v := workoutView{ID: w.ID(), Name: w.Name(), PerformedAt: w.PerformedAt().Format(time.RFC3339), Notes: w.Notes(), VolumeKg: w.TotalVolume()}
	v.Sets = make([]workoutSetView, 0, len(w.Lines()))
	for _, l := range w.Lines() {
		v.Sets = append(v.Sets, workoutSetView{ExerciseID: l.ExerciseID(), SetNumber: l.SetNumber(), Reps: l.Reps(), WeightKg: l.WeightInKg()})
	}
	return v
}

func printWorkout(w io.Writer, v workoutView) {
	fmt.Fprintf(w, "ID: %s\nName: %s\nPerformed: %s\n", v.ID, v.Name, v.PerformedAt)
	if v.Notes != "" {
		fmt.Fprintf(w, "Notes: %s\n", v.Notes)
	}
	fmt.Fprintln(w, "EXERCISE\tSET\tREPS\tWEIGHT_KG")
	for _, s := range v.Sets {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\n", s.ExerciseID, s.SetNumber, s.Reps, s.WeightKg)
	}
	fmt.Fprintf(w, "Volume: %.1f kg\n", v.VolumeKg)
}

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Log workouts and their sets",
}

var workoutAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Start a workout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			at, err := parseDateTimeOrNow(workoutDate, workoutTime)
			if err != nil {
				return err
			}
			w, err := service.CreateWorkout(sqldb, userID, service.WorkoutInput{Name: workoutName, PerformedAt: at, Notes: workoutNotes})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created workout %s (%s)\n", w.ID(), w.Name())
			return nil
		})
	},
}

var workoutFromTemplateCmd = &cobra.Command{
	Use:   "from-template <template-id>",
	Short: "Start a workout with empty sets from a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			at, err := parseDateTimeOrNow(workoutDate, workoutTime)
			if err != nil {
				return err
			}
			w, err := service.StartWorkoutFromTemplate(sqldb, userID, args[0], at, workoutName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created workout %s (%s) with %d set(s)\n", w.ID(), w.Name(), len(w.Lines()))
			return nil
		})
	},
}

var workoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workouts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			filter := service.ListWorkoutsFilter{Limit: workoutLimit}
			var err error
			if workoutFrom != "" {
				if filter.From, err = parseDay(workoutFrom); err != nil {
					return err
				}
			}
			if workoutTo != "" {
				if filter.To, err = parseDay(workoutTo); err != nil {
					return err
				}
			}
			items, err := service.ListWorkouts(sqldb, userID, filter)
			if err != nil {
				return err
			}
			if workoutJSON {
				views := make([]workoutView, 0, len(items))
				for _, w := range items {
					views = append(views, toWorkoutView(w))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tPERFORMED\tNAME\tSETS\tVOLUME_KG")
			for _, w := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\t%.1f\n", w.ID(), w.PerformedAt().Format("2006-01-02 15:04"), w.Name(), len(w.Lines()), w.TotalVolume())
			}
			return nil
		})
	},
}

var workoutShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a workout with its sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			w, err := service.GetWorkout(sqldb, userID, args[0])
			if err != nil {
				return err
			}
			if workoutJSON {
				return printJSON(cmd.OutOrStdout(), toWorkoutView(w))
			}
			printWorkout(cmd.OutOrStdout(), toWorkoutView(w))
			return nil
		})
	},
}

var workoutUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename a workout or change its notes or time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			patch := domain.WorkoutPatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &workoutName
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &workoutNotes
			}
			if cmd.Flags().Changed("date") || cmd.Flags().Changed("time") {
				at, err := parseDateTimeOrNow(workoutDate, workoutTime)
				if err != nil {
					return err
				}
				patch.PerformedAt = &at
			}
			if patch.Name == nil && patch.Notes == nil && patch.PerformedAt == nil {
				return domain.Validationf("set at least one of --name, --notes or --date")
			}
			w, err := service.UpdateWorkout(sqldb, userID, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated workout %s\n", w.ID())
			return nil
		})
	},
}

var workoutDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			if err := service.DeleteWorkout(sqldb, userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted workout %s\n", args[0])
			return nil
		})
	},
}

var workoutSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit the sets of a workout",
}

var workoutSetAddCmd = &cobra.Command{
	Use:   "add <workout-id> <exercise-id>",
	Short: "Record a set (numbered after the last set unless --set is given)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			w, err := service.AddWorkoutSet(sqldb, userID, args[0], service.SetInput{
				ExerciseID: args[1],
				SetNumber:  setNumber,
				Reps:       setReps,
				WeightInKg: setWeight,
			})
			if err != nil {
				return err
			}
			sets := w.Sets(args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "Workout %s: %d set(s) of %s, volume %.1f kg\n", w.ID(), len(sets), args[1], w.TotalVolume())
			return nil
		})
	},
}

var workoutSetUpdateCmd = &cobra.Command{
	Use:   "update <workout-id> <exercise-id> <set-number>",
	Short: "Change reps or weight of a set",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseIntArg("set number", args[2])
		if err != nil {
			return err
		}
		return withUser(func(sqldb *sql.DB, userID string) error {
			patch := domain.WorkoutLinePatch{}
			if cmd.Flags().Changed("reps") {
				patch.Reps = &setReps
			}
			if cmd.Flags().Changed("weight") {
				patch.WeightInKg = &setWeight
			}
			if patch.Reps == nil && patch.WeightInKg == nil {
				return domain.Validationf("set --reps or --weight")
			}
			w, err := service.UpdateWorkoutSet(sqldb, userID, args[0], args[1], n, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workout %s: volume %.1f kg\n", w.ID(), w.TotalVolume())
			return nil
		})
	},
}

var workoutSetRemoveCmd = &cobra.Command{
	Use:   "remove <workout-id> <exercise-id> <set-number>",
	Short: "Remove a set",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseIntArg("set number", args[2])
		if err != nil {
			return err
		}
		return withUser(func(sqldb *sql.DB, userID string) error {
			w, err := service.RemoveWorkoutSet(sqldb, userID, args[0], args[1], n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workout %s: volume %.1f kg\n", w.ID(), w.TotalVolume())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(workoutCmd)
	workoutCmd.AddCommand(workoutAddCmd, workoutFromTemplateCmd, workoutListCmd, workoutShowCmd, workoutUpdateCmd, workoutDeleteCmd, workoutSetCmd)
	workoutSetCmd.AddCommand(workoutSetAddCmd, workoutSetUpdateCmd, workoutSetRemoveCmd)

	for _, c := range []*cobra.Command{workoutAddCmd, workoutFromTemplateCmd, workoutUpdateCmd} {
		c.Flags().StringVar(&workoutName, "name", "", "Workout name")
		c.Flags().StringVar(&workoutDate, "date", "", "Date (YYYY-MM-DD, default now)")
		c.Flags().StringVar(&workoutTime, "time", "", "Time (HH:MM)")
	}
	for _, c := range []*cobra.Command{workoutAddCmd, workoutUpdateCmd} {
		c.Flags().StringVar(&workoutNotes, "notes", "", "Notes")
	}
	workoutListCmd.Flags().StringVar(&workoutFrom, "from", "", "First day (YYYY-MM-DD)")
	workoutListCmd.Flags().StringVar(&workoutTo, "to", "", "Last day (YYYY-MM-DD)")
	workoutListCmd.Flags().IntVar(&workoutLimit, "limit", 0, "Max rows (0 = all)")
	for _, c := range []*cobra.Command{workoutListCmd, workoutShowCmd} {
		c.Flags().BoolVar(&workoutJSON, "json", false, "Output JSON")
	}

	workoutSetAddCmd.Flags().IntVar(&setNumber, "set", 0, "Set number (default: next)")
	for _, c := range []*cobra.Command{workoutSetAddCmd, workoutSetUpdateCmd} {
		c.Flags().IntVar(&setReps, "reps", 0, "Repetitions")
		c.Flags().Float64Var(&setWeight, "weight", 0, "Weight in kg")
	}
}
