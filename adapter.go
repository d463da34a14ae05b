package treeboard

import (
	"context"
	"io"
)

// Backend is the remote service the controller drives. Each method maps
// to exactly one remote call.
type Backend interface {
	// FetchTable retrieves the full snapshot
	FetchTable(ctx context.Context) (*Snapshot, error)

	// FetchStructure retrieves the active storage variant
	FetchStructure(ctx context.Context) (StructureMode, error)

	// Search returns the rows matching query
	Search(ctx context.Context, query string) (*SearchResult, error)

	// Sort returns every row ordered by column with the given algorithm
	Sort(ctx context.Context, alg Algorithm, column string, dir Direction) (*SortResult, error)

	// Convert switches the storage variant and returns the server message
	Convert(ctx context.Context, target StructureMode) (string, error)

	// Import uploads a CSV dataset and returns the server message
	Import(ctx context.Context, filename string, r io.Reader) (string, error)

	// AddRow creates a row
	AddRow(ctx context.Context, row Row) error

	// DeleteRow removes the row addressed by key
	DeleteRow(ctx context.Context, key string) error
}

// Sheet is tabular storage the LocalBackend serves from
type Sheet interface {
	// Load retrieves all rows and the column schema
	Load(ctx context.Context) ([]Row, []string, error)

	// Save replaces all data with the provided rows
	Save(ctx context.Context, rows []Row, schema []string) error
}
