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
	ingName     string
	ingCalories float64
	ingProtein  float64
	ingImageURL string
	ingQuery    string
	ingLimit    int
	ingSource   string
	ingAll      bool
	ingJSON     bool

	cacheSource     string
	cacheExternalID string
	cacheAll        bool
	cacheLimit      int
)

type ingredientView struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	CaloriesPer100g float64           `json:"calories_per_100g"`
	ProteinPer100g  float64           `json:"protein_per_100g"`
	ImageURL        string            `json:"image_url,omitempty"`
	ExternalRefs    []externalRefView `json:"external_refs,omitempty"`
}

type externalRefView struct {
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
}

func toIngredientView(ing *domain.Ingredient) ingredientView {
	n := ing.NutritionalInfoPer100g()
	return ingredientView{ID: ing.ID(), Name: ing.Name(), CaloriesPer100g: n.Calories, ProteinPer100g: n.Protein, ImageURL: ing.ImageURL()}
}

var ingredientCmd = &cobra.Command{
	Use:     "ingredient",
	Aliases: []string{"ing"},
	Short:   "Manage the shared ingredient catalogue",
}

var ingredientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an ingredient with nutrition per 100 g",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			ing, err := service.CreateIngredient(sqldb, service.IngredientInput{
				Name:            ingName,
				CaloriesPer100g: ingCalories,
				ProteinPer100g:  ingProtein,
				ImageURL:        ingImageURL,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added ingredient %s (%s)\n", ing.ID(), ing.Name())
			return nil
		})
	},
}

var ingredientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingredients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListIngredients(sqldb, service.IngredientFilter{Query: ingQuery, Limit: ingLimit})
			if err != nil {
				return err
			}
			if ingJSON {
				views := make([]ingredientView, 0, len(items))
				for _, it := range items {
					views = append(views, toIngredientView(it))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tKCAL/100G\tPROTEIN/100G")
			for _, it := range items {
				n := it.NutritionalInfoPer100g()
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.1f\t%.1f\n", it.ID(), it.Name(), n.Calories, n.Protein)
			}
			return nil
		})
	},
}

var ingredientShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an ingredient and where it was imported from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			ing, err := service.GetIngredient(sqldb, args[0])
			if err != nil {
				return err
			}
			refs, err := service.ListExternalRefs(sqldb, ing.ID())
			if err != nil {
				return err
			}
			v := toIngredientView(ing)
			for _, r := range refs {
				v.ExternalRefs = append(v.ExternalRefs, externalRefView{Source: r.Source().String(), ExternalID: r.ExternalID()})
			}
			if ingJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\nName: %s\n", v.ID, v.Name)
			fmt.Fprintf(out, "Per 100 g: %.1f kcal, %.1f g protein\n", v.CaloriesPer100g, v.ProteinPer100g)
			if v.ImageURL != "" {
				fmt.Fprintf(out, "Image: %s\n", v.ImageURL)
			}
			for _, r := range v.ExternalRefs {
				fmt.Fprintf(out, "Source: %s %s\n", r.Source, r.ExternalID)
			}
			return nil
		})
	},
}

var ingredientUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an ingredient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			patch := domain.IngredientPatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &ingName
			}
			if cmd.Flags().Changed("image-url") {
				patch.ImageURL = &ingImageURL
			}
			if cmd.Flags().Changed("calories") || cmd.Flags().Changed("protein") {
				current, err := service.GetIngredient(sqldb, args[0])
				if err != nil {
					return err
				}
				n := current.NutritionalInfoPer100g()
				if cmd.Flags().Changed("calories") {
					n.Calories = ingCalories
				}
				if cmd.Flags().Changed("protein") {
					n.Protein = ingProtein
				}
				patch.NutritionalInfoPer100g = &n
			}
			if patch.Name == nil && patch.ImageURL == nil && patch.NutritionalInfoPer100g == nil {
				return domain.Validationf("set at least one field to update")
			}
			ing, err := service.UpdateIngredient(sqldb, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated ingredient %s\n", ing.ID())
			return nil
		})
	},
}

var ingredientDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an ingredient that no recipe or meal uses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteIngredient(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted ingredient %s\n", args[0])
			return nil
		})
	},
}

var ingredientLookupCmd = &cobra.Command{
	Use:   "lookup <barcode>",
	Short: "Look a barcode up in the external catalogues without importing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			imp, err := newImporter(sqldb)
			if err != nil {
				return err
			}
			var p service.ExternalProduct
			if ingSource != "" {
				p, err = imp.LookupFrom(cmd.Context(), ingSource, args[0])
			} else {
				p, err = imp.Lookup(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if ingJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printProduct(cmd, p)
			return nil
		})
	},
}

var ingredientImportCmd = &cobra.Command{
	Use:   "import <barcode>",
	Short: "Import an ingredient from a barcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			imp, err := newImporter(sqldb)
			if err != nil {
				return err
			}
			ing, created, err := imp.Import(cmd.Context(), ingSource, args[0])
			if err != nil {
				return err
			}
			verb := "Imported"
			if !created {
				verb = "Already imported"
			}
			n := ing.NutritionalInfoPer100g()
			fmt.Fprintf(cmd.OutOrStdout(), "%s ingredient %s (%s): %.1f kcal, %.1f g protein per 100 g\n", verb, ing.ID(), ing.Name(), n.Calories, n.Protein)
			return nil
		})
	},
}

var ingredientRefCmd = &cobra.Command{
	Use:   "ref <source> <external-id>",
	Short: "Find the ingredient imported from an external product",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			ref, err := service.ResolveExternalRef(sqldb, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", ref.Source(), ref.ExternalID(), ref.IngredientID(), ref.CreatedAt().Format(time.RFC3339))
			return nil
		})
	},
}

var ingredientSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search external catalogues by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			imp, err := newImporter(sqldb)
			if err != nil {
				return err
			}
			if ingAll {
				results, err := imp.SearchAll(cmd.Context(), args[0], ingLimit)
				if err != nil {
					return err
				}
				if ingJSON {
					return printJSON(cmd.OutOrStdout(), results)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "SOURCE\tID\tNAME\tKCAL/100G\tPROTEIN/100G\tALSO IN")
				for _, r := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.1f\t%.1f\t%d\n", r.Source, r.ExternalID, r.Name, r.CaloriesPer100g, r.ProteinPer100g, len(r.Alternatives))
				}
				return nil
			}
			results, err := imp.Search(cmd.Context(), args[0], ingLimit)
			if err != nil {
				return err
			}
			if ingJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SOURCE\tID\tNAME\tKCAL/100G\tPROTEIN/100G")
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.1f\t%.1f\n", r.Source, r.ExternalID, r.Name, r.CaloriesPer100g, r.ProteinPer100g)
			}
			return nil
		})
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge cached external lookups",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListLookupCache(sqldb, cacheSource, cacheLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SOURCE\tID\tNAME\tFETCHED\tEXPIRES")
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", it.Source, it.ExternalID, it.Name, it.FetchedAt.Format(time.RFC3339), it.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge cached lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			n, err := service.PurgeLookupCache(sqldb, cacheSource, cacheExternalID, cacheAll)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cache row(s)\n", n)
			return nil
		})
	},
}

func printProduct(cmd *cobra.Command, p service.ExternalProduct) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", p.Source)
	fmt.Fprintf(out, "ID: %s\n", p.ExternalID)
	fmt.Fprintf(out, "Name: %s\n", p.Name)
	if p.Brand != "" {
		fmt.Fprintf(out, "Brand: %s\n", p.Brand)
	}
	fmt.Fprintf(out, "Per 100 g: %.1f kcal, %.1f g protein\n", p.CaloriesPer100g, p.ProteinPer100g)
	if p.FromCache {
		fmt.Fprintln(out, "Cached: yes")
	}
}

func init() {
	rootCmd.AddCommand(ingredientCmd)
	ingredientCmd.AddCommand(ingredientAddCmd, ingredientListCmd, ingredientShowCmd, ingredientUpdateCmd, ingredientDeleteCmd,
		ingredientLookupCmd, ingredientImportCmd, ingredientRefCmd, ingredientSearchCmd, cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)

	for _, c := range []*cobra.Command{ingredientAddCmd, ingredientUpdateCmd} {
		c.Flags().StringVar(&ingName, "name", "", "Ingredient name")
		c.Flags().Float64Var(&ingCalories, "calories", 0, "Calories per 100 g")
		c.Flags().Float64Var(&ingProtein, "protein", 0, "Protein grams per 100 g")
		c.Flags().StringVar(&ingImageURL, "image-url", "", "Image URL")
	}
	ingredientListCmd.Flags().StringVar(&ingQuery, "query", "", "Filter by name")
	for _, c := range []*cobra.Command{ingredientListCmd, ingredientSearchCmd} {
		c.Flags().IntVar(&ingLimit, "limit", 20, "Max rows")
	}
	for _, c := range []*cobra.Command{ingredientLookupCmd, ingredientImportCmd} {
		c.Flags().StringVar(&ingSource, "source", "", "Only query this provider (openfoodfacts, usda or upcitemdb)")
	}
	ingredientSearchCmd.Flags().BoolVar(&ingAll, "all", false, "Query every provider and merge results")
	for _, c := range []*cobra.Command{ingredientListCmd, ingredientShowCmd, ingredientLookupCmd, ingredientSearchCmd} {
		c.Flags().BoolVar(&ingJSON, "json", false, "Output JSON")
	}

	cacheListCmd.Flags().StringVar(&cacheSource, "source", "", "Filter by provider")
	cacheListCmd.Flags().IntVar(&cacheLimit, "limit", 100, "Max rows")
	cachePurgeCmd.Flags().StringVar(&cacheSource, "source", "", "Purge rows from this provider")
	cachePurgeCmd.Flags().StringVar(&cacheExternalID, "id", "", "Purge one external id (requires --source)")
	cachePurgeCmd.Flags().BoolVar(&cacheAll, "all", false, "Purge everything")
}
