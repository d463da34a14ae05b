package googlesheets

import (
	"context"
	"fmt"
	"strconv"

	treeboard "github.com/ideamans/go-treeboard"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAdaptor implements treeboard.Sheet over one tab of a spreadsheet
type SheetsAdaptor struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	keyColumn     string
}

// NewSheetsAdaptor creates a new Google Sheets adaptor with provided options
func NewSheetsAdaptor(ctx context.Context, config Config, opts ...option.ClientOption) (*SheetsAdaptor, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsAdaptor{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		sheetName:     config.SheetName,
		keyColumn:     config.KeyColumn,
	}, nil
}

func (a *SheetsAdaptor) dataRange() string {
	return fmt.Sprintf("%s!A:ZZ", a.sheetName)
}

// Load retrieves all rows and the schema from the sheet
func (a *SheetsAdaptor) Load(ctx context.Context) ([]treeboard.Row, []string, error) {
	resp, err := a.service.Spreadsheets.Values.Get(a.spreadsheetID, a.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sheet data: %w", err)
	}

	if len(resp.Values) == 0 {
		return []treeboard.Row{}, []string{}, nil
	}

	// First row is schema
	schema := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		if col, ok := cell.(string); ok && col != "" {
			schema = append(schema, col)
		}
	}

	rows := make([]treeboard.Row, 0, len(resp.Values)-1)
	for i := 1; i < len(resp.Values); i++ {
		line := resp.Values[i]
		if len(line) == 0 {
			continue
		}

		row := treeboard.Row{
			Key:    strconv.Itoa(i + 1), // sheet row number
			Values: make(map[string]interface{}),
		}
		for j := 0; j < len(line) && j < len(schema); j++ {
			if line[j] != nil && line[j] != "" {
				row.Values[schema[j]] = convertCellValue(line[j])
			}
		}
		if a.keyColumn != "" {
			if v, ok := row.Values[a.keyColumn]; ok {
				row.Key = fmt.Sprintf("%v", v)
			}
		}

		rows = append(rows, row)
	}

	return rows, schema, nil
}

// Save clears the sheet and writes the header followed by rows in order
func (a *SheetsAdaptor) Save(ctx context.Context, rows []treeboard.Row, schema []string) error {
	values := make([][]interface{}, 0, len(rows)+1)

	header := make([]interface{}, len(schema))
	for i, col := range schema {
		header[i] = col
	}
	values = append(values, header)

	for _, row := range rows {
		line := make([]interface{}, len(schema))
		for i, col := range schema {
			if val, ok := row.Values[col]; ok {
				line[i] = convertToSheetValue(val)
			} else {
				line[i] = ""
			}
		}
		values = append(values, line)
	}

	_, err := a.service.Spreadsheets.Values.Clear(a.spreadsheetID, a.dataRange(), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	writeRange := fmt.Sprintf("%s!A1", a.sheetName)
	_, err = a.service.Spreadsheets.Values.Update(a.spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	return nil
}

// convertCellValue converts a Google Sheets cell value to Go type
func convertCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		if val == "true" || val == "TRUE" {
			return true
		}
		if val == "false" || val == "FALSE" {
			return false
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// convertToSheetValue renders a Go value for a RAW write
func convertToSheetValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}
