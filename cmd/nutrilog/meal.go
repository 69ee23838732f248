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
	mealName    string
	mealLines   []string
	mealDensity float64
	mealDay     string
	mealJSON    bool
)

func mealView(m *domain.Meal) composedView {
	return composedView{ID: m.ID(), Name: m.Name(), Lines: toLineViews(m.IngredientLines()), Calories: m.Calories(), Protein: m.Protein()}
}

// optionalDay parses --day only when it was given.
func optionalDay(cmd *cobra.Command) (*time.Time, error) {
	if !cmd.Flags().Changed("day") {
		return nil, nil
	}
	d, err := parseDay(mealDay)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Manage meals",
}

var mealAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Create a meal from ingredient lines",
	Example: `  nutrilog meal add --name Lunch --line rice:150g --line chicken:120g --day 2024-05-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			lines, err := parseLines(mealLines, mealDensity)
			if err != nil {
				return err
			}
			day, err := optionalDay(cmd)
			if err != nil {
				return err
			}
			m, err := service.CreateMeal(sqldb, userID, service.MealInput{Name: mealName, Lines: lines, Day: day})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created meal %s (%s): %.1f kcal, %.1f g protein\n", m.ID(), m.Name(), m.Calories(), m.Protein())
			return nil
		})
	},
}

var mealFromRecipeCmd = &cobra.Command{
	Use:   "from-recipe <recipe-id>",
	Short: "Create a meal by copying a recipe's lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			day, err := optionalDay(cmd)
			if err != nil {
				return err
			}
			m, err := service.CreateMealFromRecipe(sqldb, userID, args[0], mealName, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created meal %s (%s): %.1f kcal, %.1f g protein\n", m.ID(), m.Name(), m.Calories(), m.Protein())
			return nil
		})
	},
}

var mealListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			items, err := service.ListMeals(sqldb, userID)
			if err != nil {
				return err
			}
			if mealJSON {
				views := make([]composedView, 0, len(items))
				for _, m := range items {
					views = append(views, mealView(m))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tLINES\tKCAL\tPROTEIN")
			for _, m := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%.1f\t%.1f\n", m.ID(), m.Name(), len(m.IngredientLines()), m.Calories(), m.Protein())
			}
			return nil
		})
	},
}

var mealShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a meal with its lines and totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			m, err := service.GetMeal(sqldb, userID, args[0])
			if err != nil {
				return err
			}
			if mealJSON {
				return printJSON(cmd.OutOrStdout(), mealView(m))
			}
			printComposed(cmd.OutOrStdout(), mealView(m))
			return nil
		})
	},
}

var mealRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a meal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			name := args[1]
			m, err := service.UpdateMeal(sqldb, userID, args[0], domain.MealPatch{Name: &name})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed meal %s to %s\n", m.ID(), m.Name())
			return nil
		})
	},
}

var mealDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a meal and unlink it from its days",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			if err := service.DeleteMeal(sqldb, userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %s\n", args[0])
			return nil
		})
	},
}

var mealLineCmd = &cobra.Command{
	Use:   "line",
	Short: "Edit a meal's ingredient lines",
}

var mealLineAddCmd = &cobra.Command{
	Use:   "add <meal-id> <ingredient-id:quantity[unit]>",
	Short: "Add an ingredient line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			line, err := parseLine(args[1], mealDensity)
			if err != nil {
				return err
			}
			m, err := service.AddMealLine(sqldb, userID, args[0], line)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meal %s: %.1f kcal, %.1f g protein\n", m.ID(), m.Calories(), m.Protein())
			return nil
		})
	},
}

var mealLineUpdateCmd = &cobra.Command{
	Use:   "update <meal-id> <ingredient-id>",
	Short: "Change a line's quantity or ingredient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			in, err := lineUpdateFromFlags(cmd, mealDensity)
			if err != nil {
				return err
			}
			m, err := service.UpdateMealLine(sqldb, userID, args[0], args[1], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meal %s: %.1f kcal, %.1f g protein\n", m.ID(), m.Calories(), m.Protein())
			return nil
		})
	},
}

var mealLineRemoveCmd = &cobra.Command{
	Use:   "remove <meal-id> <ingredient-id>",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			m, err := service.RemoveMealLine(sqldb, userID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meal %s: %.1f kcal, %.1f g protein\n", m.ID(), m.Calories(), m.Protein())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(mealCmd)
	mealCmd.AddCommand(mealAddCmd, mealFromRecipeCmd, mealListCmd, mealShowCmd, mealRenameCmd, mealDeleteCmd, mealLineCmd)
	mealLineCmd.AddCommand(mealLineAddCmd, mealLineUpdateCmd, mealLineRemoveCmd)

	for _, c := range []*cobra.Command{mealAddCmd, mealFromRecipeCmd} {
		c.Flags().StringVar(&mealName, "name", "", "Meal name")
		c.Flags().StringVar(&mealDay, "day", "", "Also add the meal to this day (YYYY-MM-DD)")
	}
	mealAddCmd.Flags().StringArrayVar(&mealLines, "line", nil, "Ingredient line id:quantity[unit] (repeatable)")
	for _, c := range []*cobra.Command{mealAddCmd, mealLineAddCmd, mealLineUpdateCmd} {
		c.Flags().Float64Var(&mealDensity, "density", 0, "Density in g/ml for volume units")
	}
	mealLineUpdateCmd.Flags().StringVar(&lineQuantity, "quantity", "", "New quantity, e.g. 150g or 1cup")
	mealLineUpdateCmd.Flags().StringVar(&lineIngredient, "ingredient", "", "Swap the line to this ingredient id")
	for _, c := range []*cobra.Command{mealListCmd, mealShowCmd} {
		c.Flags().BoolVar(&mealJSON, "json", false, "Output JSON")
	}
}
