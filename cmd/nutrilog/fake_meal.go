package nutrilog

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	fakeName     string
	fakeCalories float64
	fakeProtein  float64
	fakeDay      string
	fakeJSON     bool
)

type fakeMealView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
}

func toFakeMealView(f *domain.FakeMeal) fakeMealView {
	return fakeMealView{ID: f.ID(), Name: f.Name(), Calories: f.Calories(), Protein: f.Protein()}
}

var fakeMealCmd = &cobra.Command{
	Use:   "fake-meal",
	Short: "Manage quick entries with known totals",
}

var fakeMealAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a meal by its calorie and protein totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			f, err := service.CreateFakeMeal(sqldb, userID, service.FakeMealInput{Name: fakeName, Calories: fakeCalories, Protein: fakeProtein})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created fake meal %s (%s)\n", f.ID(), f.Name())
			if !cmd.Flags().Changed("day") {
				return nil
			}
			date, err := parseDay(fakeDay)
			if err != nil {
				return err
			}
			day, err := service.AddFakeMealToDay(sqldb, userID, date, f.ID())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added to day %s\n", day.Date().Format(dateLayout))
			return nil
		})
	},
}

var fakeMealListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your fake meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			items, err := service.ListFakeMeals(sqldb, userID)
			if err != nil {
				return err
			}
			if fakeJSON {
				views := make([]fakeMealView, 0, len(items))
				for _, f := range items {
					views = append(views, toFakeMealView(f))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tKCAL\tPROTEIN")
			for _, f := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.1f\t%.1f\n", f.ID(), f.Name(), f.Calories(), f.Protein())
			}
			return nil
		})
	},
}

var fakeMealShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a fake meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			f, err := service.GetFakeMeal(sqldb, userID, args[0])
			if err != nil {
				return err
			}
			if fakeJSON {
				return printJSON(cmd.OutOrStdout(), toFakeMealView(f))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\nName: %s\nCalories: %.1f\nProtein: %.1f\n", f.ID(), f.Name(), f.Calories(), f.Protein())
			return nil
		})
	},
}

var fakeMealUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a fake meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			patch := domain.FakeMealPatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &fakeName
			}
			if cmd.Flags().Changed("calories") {
				patch.Calories = &fakeCalories
			}
			if cmd.Flags().Changed("protein") {
				patch.Protein = &fakeProtein
			}
			if patch.Name == nil && patch.Calories == nil && patch.Protein == nil {
				return domain.Validationf("set at least one of --name, --calories or --protein")
			}
			f, err := service.UpdateFakeMeal(sqldb, userID, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated fake meal %s\n", f.ID())
			return nil
		})
	},
}

var fakeMealDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a fake meal and unlink it from its days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			if err := service.DeleteFakeMeal(sqldb, userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted fake meal %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(fakeMealCmd)
	fakeMealCmd.AddCommand(fakeMealAddCmd, fakeMealListCmd, fakeMealShowCmd, fakeMealUpdateCmd, fakeMealDeleteCmd)

	for _, c := range []*cobra.Command{fakeMealAddCmd, fakeMealUpdateCmd} {
		c.Flags().StringVar(&fakeName, "name", "", "Name")
		c.Flags().Float64Var(&fakeCalories, "calories", 0, "Total calories")
		c.Flags().Float64Var(&fakeProtein, "protein", 0, "Total protein grams")
	}
	fakeMealAddCmd.Flags().StringVar(&fakeDay, "day", "", "Also add it to this day (YYYY-MM-DD)")
	for _, c := range []*cobra.Command{fakeMealListCmd, fakeMealShowCmd} {
		c.Flags().BoolVar(&fakeJSON, "json", false, "Output JSON")
	}
}
