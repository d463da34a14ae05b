package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	treeboard "github.com/ideamans/go-treeboard"
	"github.com/xuri/excelize/v2"
)

// Adapter implements treeboard.Sheet for an Excel workbook
type Adapter struct {
	config *Config
	mu     sync.RWMutex
}

// New creates a new Excel adapter with the given configuration
func New(config *Config) (*Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create a copy of config to avoid external modifications
	configCopy := *config

	return &Adapter{
		config: &configCopy,
	}, nil
}

// Load reads every row of the sheet. The first row is the schema.
func (a *Adapter) Load(ctx context.Context) ([]treeboard.Row, []string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := excelize.OpenFile(a.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing workbook is an empty dataset
			return []treeboard.Row{}, []string{}, nil
		}
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetIndex, err := f.GetSheetIndex(a.config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sheet index: %w", err)
	}
	if sheetIndex == -1 {
		return []treeboard.Row{}, []string{}, nil
	}

	cells, err := f.GetRows(a.config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(cells) == 0 {
		return []treeboard.Row{}, []string{}, nil
	}

	schema := cells[0]

	rows := make([]treeboard.Row, 0, len(cells)-1)
	for i := 1; i < len(cells); i++ {
		line := cells[i]
		if len(line) == 0 {
			continue
		}

		row := treeboard.Row{
			Key:    strconv.Itoa(i + 1), // row number, data starts at row 2
			Values: make(map[string]interface{}),
		}
		for j, value := range line {
			if j < len(schema) && schema[j] != "" && value != "" {
				row.Values[schema[j]] = parseCell(value)
			}
		}
		if a.config.KeyColumn != "" {
			if v, ok := row.Values[a.config.KeyColumn]; ok {
				row.Key = fmt.Sprintf("%v", v)
			}
		}

		rows = append(rows, row)
	}

	return rows, schema, nil
}

// parseCell types a cell as int64, float64, bool or string
func parseCell(value string) interface{} {
	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		if intVal := int64(floatVal); float64(intVal) == floatVal {
			return intVal
		}
		return floatVal
	}
	switch value {
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}
	return value
}

// Save rewrites the sheet with a header row followed by rows in order
func (a *Adapter) Save(ctx context.Context, rows []treeboard.Row, schema []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(a.config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var f *excelize.File
	if _, err := os.Stat(a.config.FilePath); err == nil {
		f, err = excelize.OpenFile(a.config.FilePath)
		if err != nil {
			return fmt.Errorf("failed to open Excel file: %w", err)
		}
	} else {
		f = excelize.NewFile()
	}
	defer f.Close()

	sheetIndex, err := f.GetSheetIndex(a.config.SheetName)
	if err != nil {
		return fmt.Errorf("failed to get sheet index: %w", err)
	}

	if sheetIndex == -1 {
		index, err := f.NewSheet(a.config.SheetName)
		if err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		f.SetActiveSheet(index)

		// Drop the default sheet of a fresh workbook
		if defaultSheet := f.GetSheetName(0); defaultSheet != a.config.SheetName {
			_ = f.DeleteSheet(defaultSheet)
		}
	} else if err := a.clear(f); err != nil {
		return err
	}

	header := make([]interface{}, len(schema))
	for i, col := range schema {
		header[i] = col
	}
	if err := f.SetSheetRow(a.config.SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		values := make([]interface{}, len(schema))
		for j, col := range schema {
			if val, ok := row.Values[col]; ok {
				values[j] = val
			} else {
				values[j] = ""
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(a.config.SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.Key, err)
		}
	}

	if err := f.SaveAs(a.config.FilePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

// clear removes every existing row so deleted rows do not linger
func (a *Adapter) clear(f *excelize.File) error {
	existing, err := f.GetRows(a.config.SheetName)
	if err != nil {
		return fmt.Errorf("failed to get rows: %w", err)
	}
	for i := len(existing); i >= 1; i-- {
		if err := f.RemoveRow(a.config.SheetName, i); err != nil {
			return fmt.Errorf("failed to clear row %d: %w", i, err)
		}
	}
	return nil
}
