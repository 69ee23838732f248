package nutrilog

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	recipeName     string
	recipeImageURL string
	recipeLines    []string
	recipeDensity  float64
	recipeJSON     bool

	lineQuantity   string
	lineIngredient string
)

type lineView struct {
	IngredientID string  `json:"ingredient_id"`
	Ingredient   string  `json:"ingredient"`
	Grams        float64 `json:"grams"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
}

type composedView struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	ImageURL string     `json:"image_url,omitempty"`
	Lines    []lineView `json:"lines"`
	Calories float64    `json:"calories"`
	Protein  float64    `json:"protein"`
}

func toLineViews(lines []*domain.IngredientLine) []lineView {
	out := make([]lineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineView{
			IngredientID: l.IngredientID(),
			Ingredient:   l.Ingredient().Name(),
			Grams:        l.QuantityInGrams(),
			Calories:     l.Calories(),
			Protein:      l.Protein(),
		})
	}
	return out
}

func printComposed(w io.Writer, v composedView) {
	fmt.Fprintf(w, "ID: %s\nName: %s\n", v.ID, v.Name)
	if v.ImageURL != "" {
		fmt.Fprintf(w, "Image: %s\n", v.ImageURL)
	}
	fmt.Fprintln(w, "INGREDIENT\tGRAMS\tKCAL\tPROTEIN")
	for _, l := range v.Lines {
		fmt.Fprintf(w, "%s (%s)\t%.1f\t%.1f\t%.1f\n", l.Ingredient, l.IngredientID, l.Grams, l.Calories, l.Protein)
	}
	fmt.Fprintf(w, "Total: %.1f kcal, %.1f g protein\n", v.Calories, v.Protein)
}

func recipeView(r *domain.Recipe) composedView {
	return composedView{ID: r.ID(), Name: r.Name(), ImageURL: r.ImageURL(), Lines: toLineViews(r.IngredientLines()), Calories: r.Calories(), Protein: r.Protein()}
}

// lineUpdateFromFlags builds the update for `line update` from --quantity and --ingredient.
func lineUpdateFromFlags(cmd *cobra.Command, density float64) (service.LineUpdate, error) {
	in := service.LineUpdate{DensityGPerML: density}
	if cmd.Flags().Changed("quantity") {
		q, err := service.ParseQuantity(lineQuantity)
		if err != nil {
			return in, err
		}
		in.Quantity = &q
	}
	if cmd.Flags().Changed("ingredient") {
		in.IngredientID = lineIngredient
	}
	return in, nil
}

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage recipes",
}

var recipeAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Create a recipe from ingredient lines",
	Example: `  nutrilog recipe add --name Porridge --line oats:50g --line milk:200ml --density 1.03`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			lines, err := parseLines(recipeLines, recipeDensity)
			if err != nil {
				return err
			}
			r, err := service.CreateRecipe(sqldb, userID, service.RecipeInput{Name: recipeName, ImageURL: recipeImageURL, Lines: lines})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created recipe %s (%s): %.1f kcal, %.1f g protein\n", r.ID(), r.Name(), r.Calories(), r.Protein())
			return nil
		})
	},
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			items, err := service.ListRecipes(sqldb, userID)
			if err != nil {
				return err
			}
			if recipeJSON {
				views := make([]composedView, 0, len(items))
				for _, r := range items {
					views = append(views, recipeView(r))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tLINES\tKCAL\tPROTEIN")
			for _, r := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%.1f\t%.1f\n", r.ID(), r.Name(), len(r.IngredientLines()), r.Calories(), r.Protein())
			}
			return nil
		})
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recipe with its lines and totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			r, err := service.GetRecipe(sqldb, userID, args[0])
			if err != nil {
				return err
			}
			if recipeJSON {
				return printJSON(cmd.OutOrStdout(), recipeView(r))
			}
			printComposed(cmd.OutOrStdout(), recipeView(r))
			return nil
		})
	},
}

var recipeRenameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Rename a recipe or change its image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			patch := domain.RecipePatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &recipeName
			}
			if cmd.Flags().Changed("image-url") {
				patch.ImageURL = &recipeImageURL
			}
			if patch.Name == nil && patch.ImageURL == nil {
				return domain.Validationf("set --name or --image-url")
			}
			r, err := service.UpdateRecipe(sqldb, userID, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated recipe %s (%s)\n", r.ID(), r.Name())
			return nil
		})
	},
}

var recipeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			if err := service.DeleteRecipe(sqldb, userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %s\n", args[0])
			return nil
		})
	},
}

var recipeLineCmd = &cobra.Command{
	Use:   "line",
	Short: "Edit a recipe's ingredient lines",
}

var recipeLineAddCmd = &cobra.Command{
	Use:   "add <recipe-id> <ingredient-id:quantity[unit]>",
	Short: "Add an ingredient line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			line, err := parseLine(args[1], recipeDensity)
			if err != nil {
				return err
			}
			r, err := service.AddRecipeLine(sqldb, userID, args[0], line)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recipe %s: %.1f kcal, %.1f g protein\n", r.ID(), r.Calories(), r.Protein())
			return nil
		})
	},
}

var recipeLineUpdateCmd = &cobra.Command{
	Use:   "update <recipe-id> <ingredient-id>",
	Short: "Change a line's quantity or ingredient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			in, err := lineUpdateFromFlags(cmd, recipeDensity)
			if err != nil {
				return err
			}
			r, err := service.UpdateRecipeLine(sqldb, userID, args[0], args[1], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recipe %s: %.1f kcal, %.1f g protein\n", r.ID(), r.Calories(), r.Protein())
			return nil
		})
	},
}

var recipeLineRemoveCmd = &cobra.Command{
	Use:   "remove <recipe-id> <ingredient-id>",
	Short: "Remove a line (a recipe keeps at least one)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUser(func(sqldb *sql.DB, userID string) error {
			r, err := service.RemoveRecipeLine(sqldb, userID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recipe %s: %.1f kcal, %.1f g protein\n", r.ID(), r.Calories(), r.Protein())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(recipeAddCmd, recipeListCmd, recipeShowCmd, recipeRenameCmd, recipeDeleteCmd, recipeLineCmd)
	recipeLineCmd.AddCommand(recipeLineAddCmd, recipeLineUpdateCmd, recipeLineRemoveCmd)

	for _, c := range []*cobra.Command{recipeAddCmd, recipeRenameCmd} {
		c.Flags().StringVar(&recipeName, "name", "", "Recipe name")
		c.Flags().StringVar(&recipeImageURL, "image-url", "", "Image URL")
	}
	recipeAddCmd.Flags().StringArrayVar(&recipeLines, "line", nil, "Ingredient line id:quantity[unit] (repeatable)")
	for _, c := range []*cobra.Command{recipeAddCmd, recipeLineAddCmd, recipeLineUpdateCmd} {
		c.Flags().Float64Var(&recipeDensity, "density", 0, "Density in g/ml for volume units")
	}
	recipeLineUpdateCmd.Flags().StringVar(&lineQuantity, "quantity", "", "New quantity, e.g. 150g or 1cup")
	recipeLineUpdateCmd.Flags().StringVar(&lineIngredient, "ingredient", "", "Swap the line to this ingredient id")
	for _, c := range []*cobra.Command{recipeListCmd, recipeShowCmd} {
		c.Flags().BoolVar(&recipeJSON, "json", false, "Output JSON")
	}
}
