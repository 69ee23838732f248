package nutrilog

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	doctorFix  bool
	doctorJSON bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if doctorJSON {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Schema version: %d\n", report.SchemaVersion)
				fmt.Fprintf(out, "Orphan ingredient lines: %d\n", report.OrphanIngredientLines)
				fmt.Fprintf(out, "Dangling day meal links: %d\n", report.DanglingDayMeals)
				fmt.Fprintf(out, "Dangling day fake meal links: %d\n", report.DanglingDayFakeMeals)
				fmt.Fprintf(out, "Workout sets with missing exercise: %d\n", report.MissingWorkoutExercises)
				fmt.Fprintf(out, "Template lines with missing exercise: %d\n", report.MissingTemplateExercises)
				fmt.Fprintf(out, "Expired lookup cache rows: %d\n", report.ExpiredLookupCacheRows)
			}
			if doctorFix {
				if !doctorJSON {
					fmt.Fprintf(out, "Fixed day links: %d\n", report.FixedDayLinks)
					fmt.Fprintf(out, "Purged cache rows: %d\n", report.FixedLookupCacheRows)
				}
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return domain.Conflictf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Remove dangling day links and expired cache rows")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output JSON")
}
