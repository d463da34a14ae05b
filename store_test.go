package treeboard_test

import (
	"reflect"
	"sync"
	"testing"

	treeboard "github.com/ideamans/go-treeboard"
)

func row(key string, values map[string]interface{}) treeboard.Row {
	v := map[string]interface{}{"key": key}
	for k, val := range values {
		v[k] = val
	}
	return treeboard.Row{Key: key, Values: v}
}

func keys(rows []treeboard.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func TestStore_LoadSnapshot(t *testing.T) {
	store := treeboard.NewStore()

	if store.Size() != 0 || len(store.Columns()) != 0 {
		t.Fatalf("new store not empty: %d rows, %v", store.Size(), store.Columns())
	}

	snap := &treeboard.Snapshot{
		Rows:             []treeboard.Row{row("1", nil), row("2", nil)},
		Columns:          treeboard.ColumnSet{"key", "title"},
		ProcessingTimeMs: 12,
	}
	store.LoadSnapshot(snap)

	if got := keys(store.Rows()); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Rows() = %v", got)
	}
	if got := keys(store.View()); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("View() = %v", got)
	}
	if !reflect.DeepEqual(store.Columns(), treeboard.ColumnSet{"key", "title"}) {
		t.Errorf("Columns() = %v", store.Columns())
	}
	if store.ProcessingTimeMs() != 12 {
		t.Errorf("ProcessingTimeMs() = %d", store.ProcessingTimeMs())
	}
	if store.Kind() != treeboard.ProjectionBase {
		t.Errorf("Kind() = %v", store.Kind())
	}
	if store.Version() != 1 {
		t.Errorf("Version() = %d, want 1", store.Version())
	}

	t.Run("snapshot is copied", func(t *testing.T) {
		snap.Rows[0].Values["key"] = "mutated"
		snap.Columns[0] = "mutated"
		if store.Rows()[0].Values["key"] != "1" || store.Columns()[0] != "key" {
			t.Error("store shares memory with the loaded snapshot")
		}
	})

	t.Run("readers return copies", func(t *testing.T) {
		rows := store.View()
		rows[0].Values["key"] = "mutated"
		if store.View()[0].Values["key"] != "1" {
			t.Error("View() exposes internal state")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store.Clear()
		if store.Size() != 0 || len(store.Columns()) != 0 || store.ProcessingTimeMs() != 0 {
			t.Errorf("Clear() left %d rows, %v, %dms", store.Size(), store.Columns(), store.ProcessingTimeMs())
		}
	})
}

func TestStore_Projections(t *testing.T) {
	store := treeboard.NewStore()
	store.LoadSnapshot(&treeboard.Snapshot{
		Rows:    []treeboard.Row{row("1", nil), row("2", nil), row("3", nil)},
		Columns: treeboard.ColumnSet{"key"},
	})

	store.ApplyFilter([]treeboard.Row{row("2", nil)})
	if store.Kind() != treeboard.ProjectionFilter {
		t.Errorf("Kind() = %v, want filter", store.Kind())
	}
	if got := keys(store.View()); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("View() = %v", got)
	}
	if store.Size() != 3 {
		t.Errorf("filter changed base rows: Size() = %d", store.Size())
	}

	store.ApplySortResult([]treeboard.Row{row("3", nil), row("2", nil), row("1", nil)})
	if store.Kind() != treeboard.ProjectionSorted {
		t.Errorf("Kind() = %v, want sorted", store.Kind())
	}
	if got := keys(store.View()); !reflect.DeepEqual(got, []string{"3", "2", "1"}) {
		t.Errorf("View() = %v", got)
	}
}

func TestStore_Patches(t *testing.T) {
	tests := []struct {
		name     string
		sortView bool
		wantView []string
	}{
		{name: "base projection shows added row", wantView: []string{"1", "2", "3"}},
		{name: "sorted projection left alone", sortView: true, wantView: []string{"2", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := treeboard.NewStore()
			store.LoadSnapshot(&treeboard.Snapshot{
				Rows:    []treeboard.Row{row("1", nil), row("2", nil)},
				Columns: treeboard.ColumnSet{"key"},
			})
			if tt.sortView {
				store.ApplySortResult([]treeboard.Row{row("2", nil), row("1", nil)})
			}

			store.PatchAdd(row("3", nil))
			if !store.Has("3") {
				t.Error("PatchAdd() did not add to base rows")
			}
			if got := keys(store.View()); !reflect.DeepEqual(got, tt.wantView) {
				t.Errorf("View() = %v, want %v", got, tt.wantView)
			}
			if store.Pending() != 1 {
				t.Errorf("Pending() = %d, want 1", store.Pending())
			}
		})
	}

	t.Run("PatchDelete", func(t *testing.T) {
		store := treeboard.NewStore()
		store.LoadSnapshot(&treeboard.Snapshot{
			Rows:    []treeboard.Row{row("1", nil), row("2", nil)},
			Columns: treeboard.ColumnSet{"key"},
		})
		store.ApplyFilter([]treeboard.Row{row("2", nil)})

		if !store.PatchDelete("2") {
			t.Fatal("PatchDelete(2) = false")
		}
		if store.Has("2") || len(store.View()) != 0 {
			t.Errorf("row 2 still visible: base %v, view %v", keys(store.Rows()), keys(store.View()))
		}
		if store.PatchDelete("missing") {
			t.Error("PatchDelete(missing) = true")
		}
		if store.Pending() != 1 {
			t.Errorf("Pending() = %d, want 1", store.Pending())
		}

		store.LoadSnapshot(&treeboard.Snapshot{Rows: []treeboard.Row{row("1", nil)}})
		if store.Pending() != 0 {
			t.Errorf("LoadSnapshot() left Pending() = %d", store.Pending())
		}
	})
}

func TestStore_Concurrency(t *testing.T) {
	store := treeboard.NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.LoadSnapshot(&treeboard.Snapshot{
				Rows:    []treeboard.Row{row("a", nil), row("b", nil)},
				Columns: treeboard.ColumnSet{"key"},
			})
			store.PatchAdd(row("c", nil))
		}(i)
		go func() {
			defer wg.Done()
			snap := store.Snapshot()
			if len(snap.Rows) > 0 && len(snap.Columns) == 0 {
				t.Error("Snapshot() returned rows without columns")
			}
			_ = store.View()
		}()
	}
	wg.Wait()
}
