package treeboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// LocalBackend serves the Backend contract from a Sheet, so the dashboard
// can run against an Excel file or a Google Sheet without a server.
// Search, sort and import follow the behaviour of the REST service.
type LocalBackend struct {
	sheet     Sheet
	keyField  string
	mu        sync.Mutex
	structure StructureMode
}

// NewLocalBackend creates a backend over sheet. Rows are identified by keyField.
func NewLocalBackend(sheet Sheet, keyField string) *LocalBackend {
	if keyField == "" {
		keyField = DefaultKeyField
	}
	return &LocalBackend{
		sheet:     sheet,
		keyField:  keyField,
		structure: StructureAVL,
	}
}

// load reads the sheet and makes sure every row carries the key column
func (b *LocalBackend) load(ctx context.Context) ([]Row, []string, error) {
	rows, schema, err := b.sheet.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	if !ColumnSet(schema).Contains(b.keyField) {
		schema = append([]string{b.keyField}, schema...)
	}
	for i := range rows {
		if v, ok := rows[i].Values[b.keyField]; ok && v != nil && fmt.Sprintf("%v", v) != "" {
			rows[i].Key = fmt.Sprintf("%v", v)
		} else {
			if rows[i].Values == nil {
				rows[i].Values = make(map[string]interface{})
			}
			rows[i].Values[b.keyField] = rows[i].Key
		}
	}
	return rows, schema, nil
}

// FetchTable returns every row in sheet order
func (b *LocalBackend) FetchTable(ctx context.Context) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	rows, schema, err := b.load(ctx)
	if err != nil {
		return nil, &TransportError{Op: "fetch table", Err: err}
	}
	return &Snapshot{
		Rows:             rows,
		Columns:          ColumnSet(schema),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// FetchStructure returns the structure the last conversion selected
func (b *LocalBackend) FetchStructure(ctx context.Context) (StructureMode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.structure, nil
}

// Search tries an exact key lookup first, then a case-insensitive
// substring scan over every value.
func (b *LocalBackend) Search(ctx context.Context, query string) (*SearchResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	if strings.TrimSpace(query) == "" {
		return &SearchResult{Rows: []Row{}, SearchMethod: "None"}, nil
	}

	rows, _, err := b.load(ctx)
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}

	results := make([]Row, 0)
	exact := false
	exactKey := ""
	for _, r := range rows {
		if compareEqual(r.Key, query) {
			results = append(results, r)
			exact = true
			exactKey = r.Key
			break
		}
	}

	lower := strings.ToLower(query)
	scanned := false
	for _, r := range rows {
		if exact && r.Key == exactKey {
			continue
		}
		for _, v := range r.Values {
			if containsFold(v, lower) {
				results = append(results, r)
				scanned = true
				break
			}
		}
	}

	method := "Linear Scan"
	switch {
	case exact && scanned:
		method = "Key Lookup + Linear Scan"
	case exact:
		method = "Key Lookup"
	}

	return &SearchResult{
		Rows:             results,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		SearchMethod:     method,
	}, nil
}

// Sort orders every row by column with the requested algorithm
func (b *LocalBackend) Sort(ctx context.Context, alg Algorithm, column string, dir Direction) (*SortResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	rows, schema, err := b.load(ctx)
	if err != nil {
		return nil, &TransportError{Op: "sort", Err: err}
	}
	if !ColumnSet(schema).Contains(column) {
		return nil, &ApplicationError{Op: "sort", Message: fmt.Sprintf("unknown property %q", column)}
	}

	var sorted []Row
	switch alg {
	case AlgorithmMergeSort:
		sorted = MergeSortRows(rows, column, dir)
	case AlgorithmHeapSort:
		sorted = HeapSortRows(rows, column, dir)
	case AlgorithmBuiltinSort:
		sorted = BuiltinSortRows(rows, column, dir)
	default:
		return nil, &ApplicationError{Op: "sort", Message: ErrInvalidAlgorithm.Error()}
	}

	return &SortResult{Rows: sorted, ProcessingTimeMs: time.Since(start).Milliseconds()}, nil
}

// Convert records the new structure; the stored rows are unchanged
func (b *LocalBackend) Convert(ctx context.Context, target StructureMode) (string, error) {
	mode, err := ParseStructureMode(string(target))
	if err != nil {
		return "", &ApplicationError{Op: "convert", Message: err.Error()}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.structure = mode
	return fmt.Sprintf("Converted to %s successfully", mode), nil
}

// Import merges a CSV dataset into the sheet. The header row names the
// columns; the key column, or the first column when there is none,
// identifies each row. Malformed lines are skipped and reported.
func (b *LocalBackend) Import(ctx context.Context, filename string, r io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return "", &ApplicationError{Op: "import", Message: "CSV file is empty or has no header row"}
	}
	if err != nil {
		return "", &ApplicationError{Op: "import", Message: err.Error()}
	}
	keyCol := 0
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == b.keyField {
			keyCol = i
		}
	}

	rows, schema, err := b.load(ctx)
	if err != nil {
		return "", &TransportError{Op: "import", Err: err}
	}
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[row.Key] = i
	}

	var skipped *multierror.Error
	count := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped = multierror.Append(skipped, err)
				continue
			}
			return "", &ApplicationError{Op: "import", Message: err.Error()}
		}
		if len(fields) == 0 || keyCol >= len(fields) || strings.TrimSpace(fields[keyCol]) == "" {
			continue
		}

		values := make(map[string]interface{}, len(headers)+1)
		for i := 0; i < len(fields) && i < len(headers); i++ {
			values[headers[i]] = fields[i]
		}
		key := strings.TrimSpace(fields[keyCol])
		values[b.keyField] = key
		row := Row{Key: key, Values: values}

		if i, ok := index[key]; ok {
			rows[i] = row
		} else {
			index[key] = len(rows)
			rows = append(rows, row)
		}
		count++
	}

	if count == 0 && skipped != nil {
		return "", &ApplicationError{Op: "import", Message: skipped.Error()}
	}

	schema = MergeSchemas(schema, append([]string{b.keyField}, headers...))
	if err := b.sheet.Save(ctx, rows, schema); err != nil {
		return "", &TransportError{Op: "import", Err: err}
	}

	msg := fmt.Sprintf("Imported %d records successfully", count)
	if skipped != nil {
		msg += fmt.Sprintf(" (%d lines skipped)", len(skipped.Errors))
	}
	return msg, nil
}

// AddRow appends a row; its key must be new
func (b *LocalBackend) AddRow(ctx context.Context, row Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if row.Key == "" {
		return &ApplicationError{Op: "add", Message: fmt.Sprintf("%s is required", b.keyField)}
	}

	rows, schema, err := b.load(ctx)
	if err != nil {
		return &TransportError{Op: "add", Err: err}
	}
	for _, r := range rows {
		if r.Key == row.Key {
			return &ApplicationError{Op: "add", Message: fmt.Sprintf("duplicate key %q", row.Key)}
		}
	}

	added := row.Copy()
	added.Values[b.keyField] = row.Key
	rows = append(rows, added)
	for col := range added.Values {
		if !ColumnSet(schema).Contains(col) {
			schema = append(schema, col)
		}
	}

	if err := b.sheet.Save(ctx, rows, schema); err != nil {
		return &TransportError{Op: "add", Err: err}
	}
	return nil
}

// DeleteRow removes the row addressed by key
func (b *LocalBackend) DeleteRow(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, schema, err := b.load(ctx)
	if err != nil {
		return &TransportError{Op: "delete", Err: err}
	}

	kept, found := removeKey(rows, key)
	if !found {
		return &ApplicationError{Op: "delete", Message: ErrKeyNotFound.Error()}
	}

	if err := b.sheet.Save(ctx, kept, schema); err != nil {
		return &TransportError{Op: "delete", Err: err}
	}
	return nil
}

// MergeSchemas merges current schema with incoming columns preserving order
func MergeSchemas(current, incoming []string) []string {
	result := make([]string, 0, len(current)+len(incoming))
	seen := make(map[string]bool)

	for _, col := range current {
		if !seen[col] {
			result = append(result, col)
			seen[col] = true
		}
	}
	for _, col := range incoming {
		if col != "" && !seen[col] {
			result = append(result, col)
			seen[col] = true
		}
	}
	return result
}
