package treeboard

import (
	"fmt"
	"strings"
	"sync"
)

// Algorithm names the data operation that last completed
type Algorithm int

const (
	AlgorithmNone Algorithm = iota
	AlgorithmSearch
	AlgorithmMergeSort
	AlgorithmHeapSort
	AlgorithmBuiltinSort
)

// SortAlgorithms lists the algorithms the sort selector offers
var SortAlgorithms = []Algorithm{AlgorithmMergeSort, AlgorithmHeapSort, AlgorithmBuiltinSort}

func (a Algorithm) String() string {
	switch a {
	case AlgorithmSearch:
		return "Search"
	case AlgorithmMergeSort:
		return "Merge Sort"
	case AlgorithmHeapSort:
		return "Heap Sort"
	case AlgorithmBuiltinSort:
		return "Built-in Sort"
	default:
		return "None"
	}
}

// IsSort reports whether a is one of the sort algorithms
func (a Algorithm) IsSort() bool {
	return a == AlgorithmMergeSort || a == AlgorithmHeapSort || a == AlgorithmBuiltinSort
}

// ParseAlgorithm accepts display names ("Merge Sort") and short forms ("merge")
func ParseAlgorithm(s string) (Algorithm, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	n = strings.TrimSuffix(n, "sort")
	switch n {
	case "merge":
		return AlgorithmMergeSort, nil
	case "heap":
		return AlgorithmHeapSort, nil
	case "builtin", "built-in":
		return AlgorithmBuiltinSort, nil
	}
	return AlgorithmNone, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, s)
}

// Metrics describes the most recently completed data operation
type Metrics struct {
	LastAlgorithm Algorithm
	SpeedMs       int64
	HasSpeed      bool
	SearchMethod  string
}

// Speed renders the duration as "<n>ms", or "-" when none was recorded
func (m Metrics) Speed() string {
	if !m.HasSpeed {
		return "-"
	}
	return fmt.Sprintf("%dms", m.SpeedMs)
}

func resetMetrics() Metrics {
	return Metrics{LastAlgorithm: AlgorithmNone, SearchMethod: "None"}
}

// MetricsTracker is written by the controller on Search and Sort settlement
type MetricsTracker struct {
	mu      sync.RWMutex
	current Metrics
}

// NewMetricsTracker creates a tracker in the reset state
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{current: resetMetrics()}
}

// RecordSearch stores a settled search
func (t *MetricsTracker) RecordSearch(ms int64, method string) {
	if method == "" {
		method = "None"
	}
	t.set(Metrics{LastAlgorithm: AlgorithmSearch, SpeedMs: ms, HasSpeed: true, SearchMethod: method})
}

// RecordSort stores a settled sort; the search method is cleared
func (t *MetricsTracker) RecordSort(alg Algorithm, ms int64) {
	t.set(Metrics{LastAlgorithm: alg, SpeedMs: ms, HasSpeed: true, SearchMethod: "None"})
}

// Reset returns to {None, "-", "None"}
func (t *MetricsTracker) Reset() {
	t.set(resetMetrics())
}

// Get returns the current metrics
func (t *MetricsTracker) Get() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.current
}

func (t *MetricsTracker) set(m Metrics) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = m
}
