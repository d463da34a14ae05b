package excel

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	treeboard "github.com/ideamans/go-treeboard"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				FilePath:  "test.xlsx",
				SheetName: "Sheet1",
			},
			wantErr: false,
		},
		{
			name: "missing file path",
			config: &Config{
				SheetName: "Sheet1",
			},
			wantErr: true,
		},
		{
			name: "missing sheet name",
			config: &Config{
				FilePath: "test.xlsx",
			},
			wantErr: true,
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdapter_LoadSave(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "nested", "books.xlsx")

	adapter, err := New(&Config{
		FilePath:  testFile,
		SheetName: "Books",
		KeyColumn: "key",
	})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	ctx := context.Background()

	t.Run("Load non-existent file", func(t *testing.T) {
		rows, schema, err := adapter.Load(ctx)
		if err != nil {
			t.Errorf("Load() error = %v, want nil", err)
		}
		if len(rows) != 0 {
			t.Errorf("Load() got %d rows, want 0", len(rows))
		}
		if len(schema) != 0 {
			t.Errorf("Load() got %d schema columns, want 0", len(schema))
		}
	})

	schema := []string{"key", "title", "rating", "available"}

	t.Run("Save and Load", func(t *testing.T) {
		rows := []treeboard.Row{
			{Key: "b1", Values: map[string]interface{}{"key": "b1", "title": "Dune", "rating": 4.25, "available": true}},
			{Key: "b2", Values: map[string]interface{}{"key": "b2", "title": "Emma", "rating": int64(4), "available": false}},
		}

		if err := adapter.Save(ctx, rows, schema); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := os.Stat(testFile); os.IsNotExist(err) {
			t.Fatal("Excel file was not created")
		}

		loaded, loadedSchema, err := adapter.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(loadedSchema, schema) {
			t.Errorf("schema = %v, want %v", loadedSchema, schema)
		}
		if !reflect.DeepEqual(loaded, rows) {
			t.Errorf("rows = %#v, want %#v", loaded, rows)
		}
	})

	t.Run("Save fewer rows removes the rest", func(t *testing.T) {
		rows := []treeboard.Row{
			{Key: "b2", Values: map[string]interface{}{"key": "b2", "title": "Emma"}},
		}
		if err := adapter.Save(ctx, rows, schema); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		loaded, _, err := adapter.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(loaded) != 1 || loaded[0].Key != "b2" {
			t.Errorf("rows = %v, want only b2", loaded)
		}
	})
}

func TestAdapter_RowNumberKeys(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "plain.xlsx")
	adapter, err := New(&Config{FilePath: testFile, SheetName: "Sheet1"})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	ctx := context.Background()
	rows := []treeboard.Row{
		{Values: map[string]interface{}{"title": "Dune"}},
		{Values: map[string]interface{}{"title": "Emma"}},
	}
	if err := adapter.Save(ctx, rows, []string{"title"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _, err := adapter.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var keys []string
	for _, r := range loaded {
		keys = append(keys, r.Key)
	}
	if !reflect.DeepEqual(keys, []string{"2", "3"}) {
		t.Errorf("keys = %v, want row numbers [2 3]", keys)
	}
}

func TestAdapter_CancelledContext(t *testing.T) {
	adapter, err := New(&Config{FilePath: filepath.Join(t.TempDir(), "x.xlsx"), SheetName: "S"})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := adapter.Load(ctx); err == nil {
		t.Error("Load() with cancelled context should fail")
	}
	if err := adapter.Save(ctx, nil, nil); err == nil {
		t.Error("Save() with cancelled context should fail")
	}
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"42", int64(42)},
		{"4.5", 4.5},
		{"TRUE", true},
		{"false", false},
		{"Dune", "Dune"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseCell(tt.in); got != tt.want {
				t.Errorf("parseCell(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLocalBackendOverExcel(t *testing.T) {
	adapter, err := New(&Config{
		FilePath:  filepath.Join(t.TempDir(), "books.xlsx"),
		SheetName: "Books",
		KeyColumn: treeboard.DefaultKeyField,
	})
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}

	ctx := context.Background()
	backend := treeboard.NewLocalBackend(adapter, treeboard.DefaultKeyField)

	row := treeboard.NewRow(map[string]interface{}{"key": "k1", "title": "Dune"}, treeboard.DefaultKeyField)
	if err := backend.AddRow(ctx, row); err != nil {
		t.Fatalf("AddRow() error = %v", err)
	}

	snap, err := backend.FetchTable(ctx)
	if err != nil {
		t.Fatalf("FetchTable() error = %v", err)
	}
	if len(snap.Rows) != 1 || snap.Rows[0].Key != "k1" {
		t.Errorf("rows = %v, want k1", snap.Rows)
	}
	if !snap.Columns.Contains("title") {
		t.Errorf("columns = %v, want title", snap.Columns)
	}

	if err := backend.DeleteRow(ctx, "k1"); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	snap, err = backend.FetchTable(ctx)
	if err != nil {
		t.Fatalf("FetchTable() error = %v", err)
	}
	if len(snap.Rows) != 0 {
		t.Errorf("rows after delete = %v, want none", snap.Rows)
	}
}
