package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/ideamans/go-treeboard/adapters/excel"
)

func main() {
	// Excel adapter configuration
	adapterConfig := &excel.Config{
		FilePath:  "./example_data.xlsx",
		SheetName: "books",
		KeyColumn: "key",
	}

	// Create Excel adapter (no authentication required)
	sheet, err := excel.New(adapterConfig)
	if err != nil {
		log.Fatalf("Failed to create Excel adapter: %v", err)
	}

	// Create controller using recommended defaults for Excel, printing
	// notices instead of logging them
	config := excel.DefaultClientConfig()
	config.Notifier = treeboard.NotifierFunc(func(n treeboard.Notice) {
		fmt.Printf("[%s] %s\n", n.Op, n.Message)
	})
	controller := treeboard.New(treeboard.NewLocalBackend(sheet, "key"), config)

	// Initialize controller (loads existing data if file exists)
	ctx := context.Background()
	if err := controller.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize controller: %v", err)
	}
	defer controller.Close()

	// 1. Import a dataset
	fmt.Println("Importing books...")
	csv := `key,title,author,year,rating
b1,Emma,Jane Austen,1815,4
b2,Dune,Frank Herbert,1965,4.5
b3,Ulysses,James Joyce,1922,3
b4,Middlemarch,George Eliot,1871,4.25
`
	if err := controller.Upload(ctx, "books.csv", strings.NewReader(csv)); err != nil {
		log.Fatalf("Failed to import: %v", err)
	}

	// 2. Compare the sort algorithms
	fmt.Println("\nSorting by year...")
	for _, alg := range treeboard.SortAlgorithms {
		if err := controller.Sort(ctx, alg, "year", treeboard.Ascending); err != nil {
			log.Fatalf("Failed to sort: %v", err)
		}
		state := controller.State()
		fmt.Printf("  %-14s %-6s first: %s\n", alg, state.Metrics.Speed(), state.Rows[0].GetAsString("title", ""))
	}

	// 3. Search
	fmt.Println("\nSearching...")
	for _, q := range []string{"b3", "austen", "nobody"} {
		if err := controller.Search(ctx, q); err != nil {
			log.Fatalf("Failed to search: %v", err)
		}
		state := controller.State()
		fmt.Printf("  %-8q %d rows (%s)\n", q, len(state.Rows), state.Metrics.SearchMethod)
	}

	// 4. Deleting an unknown key is rejected before reaching the sheet
	controller.OpenModal(treeboard.ModalDelete)
	if err := controller.Delete(ctx, "b99"); treeboard.IsValidation(err) {
		fmt.Printf("\nDelete rejected: %s\n", controller.State().Inline)
	}
	controller.CloseModal()

	// 5. Switch the tree structure
	if err := controller.Convert(ctx, treeboard.StructureBTree); err != nil {
		log.Fatalf("Failed to convert: %v", err)
	}

	state := controller.State()
	fmt.Printf("\nStructure: %s, rows: %d\n", state.Structure, state.TotalRows)
	fmt.Println("Data written to ./example_data.xlsx")
}
