package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/ideamans/go-treeboard/adapters/googlesheets"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Create adapter configuration
	adapterConfig := googlesheets.Config{
		SpreadsheetID: "your-spreadsheet-id",
		SheetName:     "books",
		KeyColumn:     "key",
	}

	// Initialize Google Sheets adapter with JSON key file
	sheet, err := googlesheets.NewWithJSONKeyFile(ctx, adapterConfig, "./service-account.json")
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}

	// Serve the dashboard commands from the sheet
	backend := treeboard.NewLocalBackend(sheet, "key")

	// Create controller using recommended defaults for Google Sheets
	controller := treeboard.New(backend, googlesheets.DefaultClientConfig())
	if err := controller.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize controller: %w", err)
	}
	defer controller.Close()

	// Seed the sheet from CSV
	csv := "key,title,author,rating\nb1,Emma,Austen,4\nb2,Dune,Herbert,4.5\nb3,Ulysses,Joyce,3\n"
	if err := controller.Upload(ctx, "books.csv", strings.NewReader(csv)); err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}

	// Add a row; every column needs a value
	err = controller.Add(ctx, map[string]interface{}{
		"key":    "b4",
		"title":  "Beloved",
		"author": "Morrison",
		"rating": 5,
	})
	if err != nil {
		return fmt.Errorf("failed to add row: %w", err)
	}

	// Search across keys and values
	if err := controller.Search(ctx, "dune"); err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}
	state := controller.State()
	fmt.Printf("Search matched %d rows via %s in %s\n",
		len(state.Rows), state.Metrics.SearchMethod, state.Metrics.Speed())

	// Sort by rating, best first
	if err := controller.Sort(ctx, treeboard.AlgorithmMergeSort, "rating", treeboard.Descending); err != nil {
		return fmt.Errorf("failed to sort: %w", err)
	}
	state = controller.State()
	for _, row := range state.Rows {
		fmt.Printf("%s\t%s\t%s\n", row.Key, row.GetAsString("title", ""), row.GetAsString("rating", "-"))
	}

	// Delete a row by key
	if err := controller.Delete(ctx, "b4"); err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}

	fmt.Printf("Structure: %s, rows: %d\n", controller.State().Structure, controller.State().TotalRows)
	return nil
}
