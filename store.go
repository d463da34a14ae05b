package treeboard

import "sync"

// ProjectionKind tags what the rendered row sequence was derived from
type ProjectionKind int

const (
	ProjectionBase ProjectionKind = iota
	ProjectionFilter
	ProjectionSorted
)

func (k ProjectionKind) String() string {
	switch k {
	case ProjectionFilter:
		return "filter"
	case ProjectionSorted:
		return "sorted"
	default:
		return "base"
	}
}

// Store holds the client-visible dataset: the base rows of the latest
// snapshot, its column set and the projection actually rendered.
type Store struct {
	mu               sync.RWMutex
	rows             []Row
	columns          ColumnSet
	processingTimeMs int64
	view             []Row
	kind             ProjectionKind
	version          uint64 // bumped on every LoadSnapshot
	pending          int    // optimistic patches since the last LoadSnapshot
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		rows:    []Row{},
		columns: ColumnSet{},
		view:    []Row{},
	}
}

// LoadSnapshot replaces rows, columns and processing time together and
// resets the projection to the new base rows.
func (s *Store) LoadSnapshot(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap == nil {
		snap = &Snapshot{}
	}
	s.rows = copyRows(snap.Rows)
	s.columns = snap.Columns.clone()
	s.processingTimeMs = snap.ProcessingTimeMs
	s.view = copyRows(snap.Rows)
	s.kind = ProjectionBase
	s.version++
	s.pending = 0
}

// Clear empties the store (zero rows, zero columns, zero duration)
func (s *Store) Clear() {
	s.LoadSnapshot(&Snapshot{})
}

// ApplyFilter replaces the projection with search results; base rows stay
func (s *Store) ApplyFilter(rows []Row) {
	s.setView(rows, ProjectionFilter)
}

// ApplySortResult replaces the projection with a sorted sequence
func (s *Store) ApplySortResult(rows []Row) {
	s.setView(rows, ProjectionSorted)
}

func (s *Store) setView(rows []Row, kind ProjectionKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view = copyRows(rows)
	s.kind = kind
}

// PatchAdd appends a server-confirmed row to the base rows, and to the
// projection when no search or sort is active.
func (s *Store) PatchAdd(row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, row.Copy())
	if s.kind == ProjectionBase {
		s.view = append(s.view, row.Copy())
	}
	s.pending++
}

// PatchDelete removes the row with key from base rows and projection.
// A miss is not an error; it reports whether anything was removed.
func (s *Store) PatchDelete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	s.rows, removed = removeKey(s.rows, key)
	var fromView bool
	s.view, fromView = removeKey(s.view, key)
	if removed || fromView {
		s.pending++
	}
	return removed || fromView
}

func removeKey(rows []Row, key string) ([]Row, bool) {
	out := rows[:0:0]
	found := false
	for _, r := range rows {
		if r.Key == key {
			found = true
			continue
		}
		out = append(out, r)
	}
	return out, found
}

// Has reports whether a base row with key exists
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rows {
		if r.Key == key {
			return true
		}
	}
	return false
}

// Rows returns a copy of the base rows
func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyRows(s.rows)
}

// View returns a copy of the projection
func (s *Store) View() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyRows(s.view)
}

// Columns returns a copy of the column set
func (s *Store) Columns() ColumnSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.columns.clone()
}

// ProcessingTimeMs returns the duration reported with the last snapshot
func (s *Store) ProcessingTimeMs() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.processingTimeMs
}

// Kind returns what the projection was derived from
func (s *Store) Kind() ProjectionKind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.kind
}

// Version returns how many snapshots have been loaded
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Pending returns the number of optimistic patches not yet reconciled
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pending
}

// Snapshot returns the base content as a Snapshot
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Snapshot{
		Rows:             copyRows(s.rows),
		Columns:          s.columns.clone(),
		ProcessingTimeMs: s.processingTimeMs,
	}
}

// Size returns the number of base rows
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rows)
}
