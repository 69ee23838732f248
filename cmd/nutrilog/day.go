package nutrilog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	dayDate   string
	dayFrom   string
	dayTo     string
	dayJSON   bool
	statsDays int
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Link meals to calendar days and view totals",
}

var dayShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the meals linked to a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			date, err := parseDay(dayDate)
			if err != nil {
				return err
			}
			day, err := service.GetDay(sqldb, userID, date)
			if err != nil {
				return err
			}
			if dayJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"day_id":        day.ID(),
					"date":          day.Date().Format(dateLayout),
					"meal_ids":      day.MealIDs(),
					"fake_meal_ids": day.FakeMealIDs(),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Day: %s\n", day.Date().Format(dateLayout))
			for _, id := range day.MealIDs() {
				fmt.Fprintf(out, "meal\t%s\n", id)
			}
			for _, id := range day.FakeMealIDs() {
				fmt.Fprintf(out, "fake-meal\t%s\n", id)
			}
			return nil
		})
	},
}

var daySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show calorie and protein totals for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			date, err := parseDay(dayDate)
			if err != nil {
				return err
			}
			s, err := service.DaySummary(sqldb, userID, date)
			if err != nil {
				return err
			}
			if dayJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Day: %s\n", s.Date)
			fmt.Fprintln(out, "KIND\tID\tNAME\tKCAL\tPROTEIN")
			for _, m := range s.Meals {
				fmt.Fprintf(out, "meal\t%s\t%s\t%.1f\t%.1f\n", m.ID, m.Name, m.Calories, m.Protein)
			}
			for _, f := range s.FakeMeals {
				fmt.Fprintf(out, "fake-meal\t%s\t%s\t%.1f\t%.1f\n", f.ID, f.Name, f.Calories, f.Protein)
			}
			fmt.Fprintf(out, "Total: %.1f kcal, %.1f g protein\n", s.Calories, s.Protein)
			return nil
		})
	},
}

// dayLinkCommand builds the four add/remove commands, which differ only in
// the service call and the message.
func dayLinkCommand(use, short, verb string, op func(*sql.DB, string, time.Time, string) (*domain.Day, error)) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(func(sqldb *sql.DB, userID string) error {
				date, err := parseDay(dayDate)
				if err != nil {
					return err
				}
				day, err := op(sqldb, userID, date, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s (%d meal(s), %d fake meal(s))\n",
					verb, args[0], day.Date().Format(dateLayout), len(day.MealIDs()), len(day.FakeMealIDs()))
				return nil
			})
		},
	}
	c.Flags().StringVar(&dayDate, "date", "", "Day (YYYY-MM-DD, default today)")
	return c
}

var dayStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Nutrition and training totals over a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			if statsDays <= 0 {
				return domain.Validationf("--days must be > 0")
			}
			to, err := parseDay(dayTo)
			if err != nil {
				return err
			}
			from := to.AddDate(0, 0, -(statsDays - 1))
			if dayFrom != "" {
				if from, err = parseDay(dayFrom); err != nil {
					return err
				}
			}
			report, err := service.AnalyticsRange(sqldb, userID, from, to)
			if err != nil {
				return err
			}
			if dayJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Range: %s to %s\n", report.FromDate, report.ToDate)
			fmt.Fprintf(out, "Days with entries: %d\n", report.DaysWithEntries)
			fmt.Fprintf(out, "Total: %.1f kcal, %.1f g protein\n", report.TotalCalories, report.TotalProtein)
			fmt.Fprintf(out, "Average per day: %.1f kcal, %.1f g protein\n", report.AverageCaloriesPerDay, report.AverageProteinPerDay)
			if report.HighestDay != nil {
				fmt.Fprintf(out, "Highest day: %s (%.1f kcal)\n", report.HighestDay.Date, report.HighestDay.Calories)
			}
			if report.LowestDay != nil {
				fmt.Fprintf(out, "Lowest day: %s (%.1f kcal)\n", report.LowestDay.Date, report.LowestDay.Calories)
			}
			fmt.Fprintf(out, "Workouts: %d, volume %.1f kg\n", report.Workouts, report.TotalVolumeKg)
			if len(report.ByExercise) > 0 {
				fmt.Fprintln(out, "EXERCISE\tSETS\tREPS\tVOLUME_KG")
				for _, e := range report.ByExercise {
					fmt.Fprintf(out, "%s\t%d\t%d\t%.1f\n", e.ExerciseID, e.Sets, e.Reps, e.VolumeKg)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.AddCommand(dayShowCmd, daySummaryCmd, dayStatsCmd,
		dayLinkCommand("add-meal", "Add a meal to a day", "Added", service.AddMealToDay),
		dayLinkCommand("remove-meal", "Remove a meal from a day", "Removed", service.RemoveMealFromDay),
		dayLinkCommand("add-fake-meal", "Add a fake meal to a day", "Added", service.AddFakeMealToDay),
		dayLinkCommand("remove-fake-meal", "Remove a fake meal from a day", "Removed", service.RemoveFakeMealFromDay),
	)

	for _, c := range []*cobra.Command{dayShowCmd, daySummaryCmd} {
		c.Flags().StringVar(&dayDate, "date", "", "Day (YYYY-MM-DD, default today)")
	}
	for _, c := range []*cobra.Command{dayShowCmd, daySummaryCmd, dayStatsCmd} {
		c.Flags().BoolVar(&dayJSON, "json", false, "Output JSON")
	}
	dayStatsCmd.Flags().StringVar(&dayFrom, "from", "", "First day (YYYY-MM-DD)")
	dayStatsCmd.Flags().StringVar(&dayTo, "to", "", "Last day (YYYY-MM-DD, default today)")
	dayStatsCmd.Flags().IntVar(&statsDays, "days", 7, "Days back from --to when --from is not set")
}
