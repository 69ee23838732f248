package nutrilog

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	exerciseID          string
	exerciseName        string
	exerciseDescription string
	exerciseQuery       string
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Manage the shared exercise catalogue",
}

var exerciseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an exercise",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			ex, err := service.CreateExercise(sqldb, service.ExerciseInput{ID: exerciseID, Name: exerciseName, Description: exerciseDescription})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added exercise %s (%s)\n", ex.ID(), ex.Name())
			return nil
		})
	},
}

var exerciseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListExercises(sqldb, exerciseQuery)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tDESCRIPTION")
			for _, ex := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", ex.ID(), ex.Name(), ex.Description())
			}
			return nil
		})
	},
}

var exerciseUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			patch := domain.ExercisePatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &exerciseName
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &exerciseDescription
			}
			if patch.Name == nil && patch.Description == nil {
				return domain.Validationf("set --name or --description")
			}
			ex, err := service.UpdateExercise(sqldb, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated exercise %s\n", ex.ID())
			return nil
		})
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an exercise no workout or template uses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteExercise(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted exercise %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exerciseCmd)
	exerciseCmd.AddCommand(exerciseAddCmd, exerciseListCmd, exerciseUpdateCmd, exerciseDeleteCmd)

	exerciseAddCmd.Flags().StringVar(&exerciseID, "id", "", "Exercise id, e.g. bench-press (default: generated)")
	for _, c := range []*cobra.Command{exerciseAddCmd, exerciseUpdateCmd} {
		c.Flags().StringVar(&exerciseName, "name", "", "Exercise name")
		c.Flags().StringVar(&exerciseDescription, "description", "", "Description")
	}
	exerciseListCmd.Flags().StringVar(&exerciseQuery, "query", "", "Filter by name")
}
