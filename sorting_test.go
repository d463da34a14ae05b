package treeboard_test

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	treeboard "github.com/ideamans/go-treeboard"
)

type sortFunc func([]treeboard.Row, string, treeboard.Direction) []treeboard.Row

var sorters = map[string]sortFunc{
	"merge":   treeboard.MergeSortRows,
	"heap":    treeboard.HeapSortRows,
	"builtin": treeboard.BuiltinSortRows,
}

func TestSortRows_Ordering(t *testing.T) {
	rows := []treeboard.Row{
		row("a", map[string]interface{}{"title": "banana", "n": "10"}),
		row("b", map[string]interface{}{"title": "Apple", "n": int64(9)}),
		row("c", map[string]interface{}{"title": "cherry", "n": 9.5}),
		row("d", map[string]interface{}{"n": nil}),
	}

	tests := []struct {
		column string
		dir    treeboard.Direction
		want   []string
	}{
		{"n", treeboard.Ascending, []string{"b", "c", "a", "d"}},
		{"n", treeboard.Descending, []string{"a", "c", "b", "d"}},
		{"title", treeboard.Ascending, []string{"b", "a", "c", "d"}},
		{"title", treeboard.Descending, []string{"c", "a", "b", "d"}},
	}

	for name, fn := range sorters {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s/%s", name, tt.column, tt.dir), func(t *testing.T) {
				got := fn(rows, tt.column, tt.dir)
				if !reflect.DeepEqual(keys(got), tt.want) {
					t.Errorf("order = %v, want %v", keys(got), tt.want)
				}
			})
		}
	}

	t.Run("input untouched", func(t *testing.T) {
		if got := keys(rows); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
			t.Errorf("input reordered: %v", got)
		}
	})
}

func TestSortRows_Stability(t *testing.T) {
	rows := []treeboard.Row{
		row("1", map[string]interface{}{"g": "x"}),
		row("2", map[string]interface{}{"g": "y"}),
		row("3", map[string]interface{}{"g": "x"}),
		row("4", map[string]interface{}{"g": "y"}),
		row("5", map[string]interface{}{"g": "x"}),
	}

	for _, name := range []string{"merge", "builtin"} {
		t.Run(name, func(t *testing.T) {
			got := keys(sorters[name](rows, "g", treeboard.Ascending))
			if !reflect.DeepEqual(got, []string{"1", "3", "5", "2", "4"}) {
				t.Errorf("order = %v, want equal keys in input order", got)
			}
		})
	}
}

func TestSortRows_Permutation(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rows := make([]treeboard.Row, 200)
	for i := range rows {
		rows[i] = row(fmt.Sprintf("k%03d", i), map[string]interface{}{"v": int64(r.Intn(50))})
	}

	for name, fn := range sorters {
		t.Run(name, func(t *testing.T) {
			got := fn(rows, "v", treeboard.Descending)

			for i := 1; i < len(got); i++ {
				if got[i-1].Values["v"].(int64) < got[i].Values["v"].(int64) {
					t.Fatalf("not descending at %d", i)
				}
			}

			gotKeys, wantKeys := keys(got), keys(rows)
			sort.Strings(gotKeys)
			sort.Strings(wantKeys)
			if !reflect.DeepEqual(gotKeys, wantKeys) {
				t.Error("sorted rows are not a permutation of the input")
			}
		})
	}
}
