package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pharmstock/inventory-service/internal/database"
)

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	Long: `List the product categories currently in the database. Imported rows
are reconciled against this catalog, so this is the set fuzzy matching binds to.`,
	Example: `  inventory-service categories`,
	Args:    cobra.NoArgs,
	RunE:    runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store := database.NewCategoryStore(database.Pool())
	categories, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if len(categories) == 0 {
		fmt.Println("No categories found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	fmt.Fprintln(w, "--\t----")
	for _, cat := range categories {
		fmt.Fprintf(w, "%s\t%s\n", cat.ID, cat.Name)
	}
	return w.Flush()
}
